// Package docstore adalah lapisan "document database" untuk modul keuangan:
// koleksi berisi dokumen JSON yang diakses lewat id, query sederhana
// (filter kesamaan + urutan), batch atomik berukuran terbatas, transaksi
// read-modify-write, dan subscription berbasis push.
//
// Ada dua implementasi: GormStore (PostgreSQL/JSONB) dan MemoryStore
// (test & dev lokal). Keduanya memakai Hub yang sama untuk notifikasi.
package docstore

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxBatchOps adalah batas operasi per batch atomik.
const DefaultMaxBatchOps = 450

var (
	ErrNotFound         = errors.New("docstore: document not found")
	ErrPermissionDenied = errors.New("docstore: permission denied")
	ErrUnavailable      = errors.New("docstore: storage unavailable")
	ErrBatchFull        = errors.New("docstore: batch operation limit reached")
	ErrBatchCommitted   = errors.New("docstore: batch already committed")
)

// Filter adalah filter kesamaan pada satu field dokumen.
type Filter struct {
	Field string
	Value any
}

// Query: semua filter di-AND, lalu diurutkan berdasarkan OrderBy (kosong = id).
// Urutan mengikuti tipe JSON field: angka dibandingkan secara numerik,
// string secara leksikal. Dokumen tanpa field tersebut ditaruh di akhir (ASC).
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where adalah shortcut untuk Query dengan satu filter.
func Where(field string, value any) Query {
	return Query{Filters: []Filter{{Field: field, Value: value}}}
}

type Store interface {
	GetAll(ctx context.Context, collection string) ([]Document, error)
	// Get mengembalikan ErrNotFound bila dokumen tidak ada.
	Get(ctx context.Context, collection, id string) (*Document, error)
	Upsert(ctx context.Context, collection, id string, data any) error
	// Create menyimpan dokumen baru dengan id acak dan mengembalikan id-nya.
	Create(ctx context.Context, collection string, data any) (string, error)
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Batch membuat batch atomik baru; maksimal MaxBatchOps operasi.
	Batch() Batch
	MaxBatchOps() int

	// RunTransaction menjalankan fn dengan isolasi baca-tulis per dokumen.
	// Jika fn mengembalikan error, tidak ada tulisan yang diterapkan.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Subscribe mengirim snapshot awal lalu snapshot baru setiap ada perubahan
	// pada koleksi. Berhenti saat ctx selesai atau Subscription.Stop dipanggil.
	Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error)

	Close() error
}

// MergeFunc menerima dokumen yang tersimpan saat commit (nil bila belum ada)
// dan mengembalikan data pengganti. Nilai nil berarti tidak ada tulisan.
type MergeFunc func(current *Document) (any, error)

type Batch interface {
	Set(collection, id string, data any) error
	// Merge dijalankan di dalam commit dengan dokumen saat ini terkunci,
	// jadi tulisan lain yang masuk setelah batch disusun tidak tertimpa.
	Merge(collection, id string, fn MergeFunc) error
	Create(collection string, data any) (string, error)
	Delete(collection, id string) error
	Len() int
	Commit(ctx context.Context) error
}

type Tx interface {
	Get(collection, id string) (*Document, error)
	Set(collection, id string, data any) error
	Create(collection string, data any) (string, error)
}

// Snapshot adalah isi koleksi (sesuai query) pada satu titik waktu.
type Snapshot struct {
	Collection string
	Documents  []Document
	ReadAt     time.Time
}

// Subscription adalah aliran snapshot yang lazy dan tidak bisa diulang.
type Subscription struct {
	C    <-chan Snapshot
	stop context.CancelFunc
	done <-chan struct{}
}

// Stop menghentikan subscription dan menunggu goroutine-nya selesai.
func (s *Subscription) Stop() {
	s.stop()
	<-s.done
}

// op adalah satu operasi tulis di dalam batch / transaksi.
type op struct {
	kind       opKind
	collection string
	id         string
	data       []byte
	merge      MergeFunc
}

type opKind int

const (
	opSet opKind = iota
	opDelete
	opMerge
)

// resolveMerge menjalankan fn terhadap dokumen saat ini dan mengubah hasilnya
// menjadi opSet. ok=false bila fn tidak menghasilkan data.
func resolveMerge(o op, current *Document) (op, bool, error) {
	data, err := o.merge(current)
	if err != nil {
		return op{}, false, err
	}
	if data == nil {
		return op{}, false, nil
	}
	raw, err := encode(data)
	if err != nil {
		return op{}, false, err
	}
	return op{kind: opSet, collection: o.collection, id: o.id, data: raw}, true, nil
}

// touched mengembalikan daftar koleksi unik yang disentuh ops (untuk notifikasi).
func touched(ops []op) []string {
	seen := make(map[string]struct{}, 2)
	out := make([]string, 0, 2)
	for _, o := range ops {
		if _, ok := seen[o.collection]; ok {
			continue
		}
		seen[o.collection] = struct{}{}
		out = append(out, o.collection)
	}
	return out
}
