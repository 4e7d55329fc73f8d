package docstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// MemoryStore menyimpan dokumen di memori proses. Dipakai untuk test dan
// STORE_DRIVER=memory. Transaksi diserialisasi dengan satu mutex.
type MemoryStore struct {
	mu     sync.Mutex
	cols   map[string]map[string]Document
	hub    *Hub
	maxOps int
	now    func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryMaxBatchOps(n int) MemoryOption {
	return func(m *MemoryStore) {
		if n > 0 {
			m.maxOps = n
		}
	}
}

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func WithMemoryHub(h *Hub) MemoryOption {
	return func(m *MemoryStore) { m.hub = h }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		cols:   make(map[string]map[string]Document),
		hub:    NewHub(),
		maxOps: DefaultMaxBatchOps,
		now:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *MemoryStore) MaxBatchOps() int { return m.maxOps }
func (m *MemoryStore) Hub() *Hub        { return m.hub }
func (m *MemoryStore) Close() error     { return nil }

func (m *MemoryStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	return m.Query(ctx, collection, Query{})
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(collection, id)
}

func (m *MemoryStore) getLocked(collection, id string) (*Document, error) {
	d, ok := m.cols[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	cp := cloneDoc(d)
	return &cp, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, collection, id string, data any) error {
	b := m.Batch()
	if err := b.Set(collection, id, data); err != nil {
		return err
	}
	return b.Commit(ctx)
}

func (m *MemoryStore) Create(ctx context.Context, collection string, data any) (string, error) {
	b := m.Batch()
	id, err := b.Create(collection, data)
	if err != nil {
		return "", err
	}
	return id, b.Commit(ctx)
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	b := m.Batch()
	if err := b.Delete(collection, id); err != nil {
		return err
	}
	return b.Commit(ctx)
}

func (m *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	all := make([]Document, 0, len(m.cols[collection]))
	for _, d := range m.cols[collection] {
		all = append(all, cloneDoc(d))
	}
	m.mu.Unlock()

	return applyQuery(all, q)
}

func (m *MemoryStore) Batch() Batch {
	return &memoryBatch{store: m}
}

func (m *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	tx := &memoryTx{store: m, pending: map[string]op{}}
	err := fn(ctx, tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.applyLocked(tx.ops)
	m.mu.Unlock()

	m.hub.Publish(ctx, touched(tx.ops)...)
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	return subscribe(ctx, m.hub, collection, func(ctx context.Context) ([]Document, error) {
		return m.Query(ctx, collection, q)
	})
}

// resolveLocked mengubah opMerge menjadi opSet berdasarkan isi store saat ini
// ditambah tulisan sebelumnya di batch yang sama.
func (m *MemoryStore) resolveLocked(ops []op) ([]op, error) {
	out := make([]op, 0, len(ops))
	pending := make(map[string]op, len(ops))
	for _, o := range ops {
		key := o.collection + "/" + o.id
		if o.kind == opMerge {
			var current *Document
			if p, ok := pending[key]; ok {
				if p.kind == opSet {
					current = &Document{DocumentCollection: o.collection, DocumentID: o.id, DocumentData: bytes.Clone(p.data)}
				}
			} else if d, err := m.getLocked(o.collection, o.id); err == nil {
				current = d
			}
			set, ok, err := resolveMerge(o, current)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			o = set
		}
		pending[key] = o
		out = append(out, o)
	}
	return out, nil
}

func (m *MemoryStore) applyLocked(ops []op) {
	now := m.now().UTC()
	for _, o := range ops {
		switch o.kind {
		case opSet:
			col := m.cols[o.collection]
			if col == nil {
				col = make(map[string]Document)
				m.cols[o.collection] = col
			}
			created := now
			if prev, ok := col[o.id]; ok {
				created = prev.DocumentCreatedAt
			}
			col[o.id] = Document{
				DocumentCollection: o.collection,
				DocumentID:         o.id,
				DocumentData:       bytes.Clone(o.data),
				DocumentCreatedAt:  created,
				DocumentUpdatedAt:  now,
			}
		case opDelete:
			delete(m.cols[o.collection], o.id)
		}
	}
}

// =========================================================
// Batch
// =========================================================

type memoryBatch struct {
	store     *MemoryStore
	ops       []op
	committed bool
}

func (b *memoryBatch) add(o op) error {
	if b.committed {
		return ErrBatchCommitted
	}
	if len(b.ops) >= b.store.maxOps {
		return ErrBatchFull
	}
	b.ops = append(b.ops, o)
	return nil
}

func (b *memoryBatch) Set(collection, id string, data any) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	return b.add(op{kind: opSet, collection: collection, id: id, data: raw})
}

func (b *memoryBatch) Merge(collection, id string, fn MergeFunc) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("docstore: merge %s/%s: nil merge func", collection, id)
	}
	return b.add(op{kind: opMerge, collection: collection, id: id, merge: fn})
}

func (b *memoryBatch) Create(collection string, data any) (string, error) {
	id := newID()
	if err := b.Set(collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (b *memoryBatch) Delete(collection, id string) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	return b.add(op{kind: opDelete, collection: collection, id: id})
}

func (b *memoryBatch) Len() int { return len(b.ops) }

func (b *memoryBatch) Commit(ctx context.Context) error {
	if b.committed {
		return ErrBatchCommitted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.store.mu.Lock()
	resolved, err := b.store.resolveLocked(b.ops)
	if err != nil {
		b.store.mu.Unlock()
		return err
	}
	b.store.applyLocked(resolved)
	b.store.mu.Unlock()
	b.committed = true

	b.store.hub.Publish(ctx, touched(b.ops)...)
	return nil
}

// =========================================================
// Tx (dipanggil saat store.mu sudah dipegang)
// =========================================================

type memoryTx struct {
	store   *MemoryStore
	ops     []op
	pending map[string]op
}

func (t *memoryTx) Get(collection, id string) (*Document, error) {
	if o, ok := t.pending[collection+"/"+id]; ok {
		if o.kind == opDelete {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return &Document{DocumentCollection: collection, DocumentID: id, DocumentData: bytes.Clone(o.data)}, nil
	}
	return t.store.getLocked(collection, id)
}

func (t *memoryTx) Set(collection, id string, data any) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	o := op{kind: opSet, collection: collection, id: id, data: raw}
	t.ops = append(t.ops, o)
	t.pending[collection+"/"+id] = o
	return nil
}

func (t *memoryTx) Create(collection string, data any) (string, error) {
	id := newID()
	return id, t.Set(collection, id, data)
}

// =========================================================
// Query helpers
// =========================================================

func cloneDoc(d Document) Document {
	d.DocumentData = bytes.Clone(d.DocumentData)
	return d
}

func applyQuery(docs []Document, q Query) ([]Document, error) {
	want := make([][]byte, len(q.Filters))
	for i, f := range q.Filters {
		b, err := sonic.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("docstore: filter %s: %w", f.Field, err)
		}
		want[i] = b
	}

	fields := make(map[string]map[string]any, len(docs))
	out := docs[:0]
	for _, d := range docs {
		fm := d.Fields()
		if !matches(fm, q.Filters, want) {
			continue
		}
		fields[d.DocumentID] = fm
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.OrderBy != "" {
			c := compareValues(fields[a.DocumentID][q.OrderBy], fields[b.DocumentID][q.OrderBy])
			if c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		if q.Desc && q.OrderBy == "" {
			return a.DocumentID > b.DocumentID
		}
		return a.DocumentID < b.DocumentID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(fm map[string]any, filters []Filter, want [][]byte) bool {
	for i, f := range filters {
		got, err := sonic.Marshal(fm[f.Field])
		if err != nil || !bytes.Equal(got, want[i]) {
			return false
		}
	}
	return true
}

// compareValues: field kosong dianggap paling besar (sama dengan NULL di postgres).
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}
