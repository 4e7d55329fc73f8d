package docstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore menyimpan semua koleksi di satu tabel `documents` (JSONB).
// Transaksi memakai SELECT ... FOR UPDATE sehingga read-modify-write
// pada dokumen yang sama tidak saling menimpa.
type GormStore struct {
	db     *gorm.DB
	hub    *Hub
	maxOps int
}

type GormOption func(*GormStore)

func WithGormMaxBatchOps(n int) GormOption {
	return func(s *GormStore) {
		if n > 0 {
			s.maxOps = n
		}
	}
}

func WithGormHub(h *Hub) GormOption {
	return func(s *GormStore) { s.hub = h }
}

func NewGormStore(db *gorm.DB, opts ...GormOption) *GormStore {
	s := &GormStore{db: db, hub: NewHub(), maxOps: DefaultMaxBatchOps}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *GormStore) MaxBatchOps() int { return s.maxOps }
func (s *GormStore) Hub() *Hub        { return s.hub }

// AutoMigrate membuat tabel documents + index pendukung.
func (s *GormStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Document{}); err != nil {
		return classify("migrate", err)
	}
	return classify("migrate", s.db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_documents_data_gin ON documents USING GIN (document_data jsonb_path_ops)`,
	).Error)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	return s.Query(ctx, collection, Query{})
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var d Document
	err := s.db.WithContext(ctx).
		Where("document_collection = ? AND document_id = ?", collection, id).
		Take(&d).Error
	if err != nil {
		return nil, classify("get "+collection+"/"+id, err)
	}
	return &d, nil
}

func (s *GormStore) Upsert(ctx context.Context, collection, id string, data any) error {
	b := s.Batch()
	if err := b.Set(collection, id, data); err != nil {
		return err
	}
	return b.Commit(ctx)
}

func (s *GormStore) Create(ctx context.Context, collection string, data any) (string, error) {
	b := s.Batch()
	id, err := b.Create(collection, data)
	if err != nil {
		return "", err
	}
	return id, b.Commit(ctx)
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	b := s.Batch()
	if err := b.Delete(collection, id); err != nil {
		return err
	}
	return b.Commit(ctx)
}

func (s *GormStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	var docs []Document
	if err := buildQuery(s.db.WithContext(ctx), collection, q).Find(&docs).Error; err != nil {
		return nil, classify("query "+collection, err)
	}
	return docs, nil
}

func buildQuery(db *gorm.DB, collection string, q Query) *gorm.DB {
	tx := db.Model(&Document{}).Where("document_collection = ?", collection)
	for _, f := range q.Filters {
		tx = tx.Where(datatypes.JSONQuery("document_data").Equals(f.Value, f.Field))
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	if q.OrderBy != "" {
		tx = tx.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "document_data -> ? " + dir + ", document_id " + dir,
			Vars:               []interface{}{q.OrderBy},
			WithoutParentheses: true,
		}})
	} else {
		tx = tx.Order("document_id " + dir)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

func (s *GormStore) Batch() Batch {
	return &gormBatch{store: s}
}

func (s *GormStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var ops []op
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := &gormTx{db: db}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		ops = tx.ops
		return nil
	})
	if err != nil {
		// error dari fn (validasi dsb) dikembalikan apa adanya; error driver diklasifikasi
		var se *Error
		if errors.As(err, &se) || !isDriverError(err) {
			return err
		}
		return classify("transaction", err)
	}
	s.hub.Publish(ctx, touched(ops)...)
	return nil
}

func (s *GormStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	return subscribe(ctx, s.hub, collection, func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, q)
	})
}

// =========================================================
// Batch
// =========================================================

type gormBatch struct {
	store     *GormStore
	ops       []op
	committed bool
}

func (b *gormBatch) add(o op) error {
	if b.committed {
		return ErrBatchCommitted
	}
	if len(b.ops) >= b.store.maxOps {
		return ErrBatchFull
	}
	b.ops = append(b.ops, o)
	return nil
}

func (b *gormBatch) Set(collection, id string, data any) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	return b.add(op{kind: opSet, collection: collection, id: id, data: raw})
}

func (b *gormBatch) Merge(collection, id string, fn MergeFunc) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	if fn == nil {
		return errors.New("docstore: merge " + collection + "/" + id + ": nil merge func")
	}
	return b.add(op{kind: opMerge, collection: collection, id: id, merge: fn})
}

func (b *gormBatch) Create(collection string, data any) (string, error) {
	id := newID()
	return id, b.Set(collection, id, data)
}

func (b *gormBatch) Delete(collection, id string) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	return b.add(op{kind: opDelete, collection: collection, id: id})
}

func (b *gormBatch) Len() int { return len(b.ops) }

func (b *gormBatch) Commit(ctx context.Context) error {
	if b.committed {
		return ErrBatchCommitted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range b.ops {
			if err := applyOp(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// error dari merge func dikembalikan apa adanya
		var se *Error
		if errors.As(err, &se) || !isDriverError(err) {
			return err
		}
		return classify("batch commit", err)
	}
	b.committed = true
	b.store.hub.Publish(ctx, touched(b.ops)...)
	return nil
}

func applyOp(tx *gorm.DB, o op) error {
	switch o.kind {
	case opMerge:
		var current *Document
		var d Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("document_collection = ? AND document_id = ?", o.collection, o.id).
			Take(&d).Error
		switch {
		case err == nil:
			current = &d
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return classify("merge get "+o.collection+"/"+o.id, err)
		}
		set, ok, err := resolveMerge(o, current)
		if err != nil || !ok {
			return err
		}
		return applyOp(tx, set)
	case opDelete:
		return tx.Where("document_collection = ? AND document_id = ?", o.collection, o.id).
			Delete(&Document{}).Error
	default:
		doc := Document{
			DocumentCollection: o.collection,
			DocumentID:         o.id,
			DocumentData:       datatypes.JSON(o.data),
			DocumentUpdatedAt:  time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_collection"}, {Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document_data", "document_updated_at"}),
		}).Create(&doc).Error
	}
}

// =========================================================
// Tx
// =========================================================

type gormTx struct {
	db  *gorm.DB
	ops []op
}

func (t *gormTx) Get(collection, id string) (*Document, error) {
	var d Document
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("document_collection = ? AND document_id = ?", collection, id).
		Take(&d).Error
	if err != nil {
		return nil, classify("tx get "+collection+"/"+id, err)
	}
	return &d, nil
}

func (t *gormTx) Set(collection, id string, data any) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	o := op{kind: opSet, collection: collection, id: id, data: raw}
	if err := applyOp(t.db, o); err != nil {
		return classify("tx set "+collection+"/"+id, err)
	}
	t.ops = append(t.ops, o)
	return nil
}

func (t *gormTx) Create(collection string, data any) (string, error) {
	id := newID()
	return id, t.Set(collection, id, data)
}
