package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance/billings/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amount(s string) model.Amount { return model.NewAmount(dec(s)) }

func boolPtr(b bool) *bool { return &b }

// assertDec membandingkan nilai decimal, bukan representasinya.
func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{fmt.Sprintf("want %s, got %s", want, got.String())}, msgAndArgs...)...)
}

func seed(t *testing.T, store docstore.Store, collection, id string, v any) {
	t.Helper()
	require.NoError(t, store.Upsert(context.Background(), collection, id, v))
}

func seedStudents(t *testing.T, store docstore.Store, n int, classID string) {
	t.Helper()
	ctx := context.Background()
	for start := 0; start < n; start += store.MaxBatchOps() {
		b := store.Batch()
		for i := start; i < n && i < start+store.MaxBatchOps(); i++ {
			id := fmt.Sprintf("s%04d", i)
			require.NoError(t, b.Set(model.CollectionStudents, id, model.Student{
				StudentID:      id,
				StudentName:    fmt.Sprintf("Student %04d", i),
				StudentClassID: classID,
			}))
		}
		require.NoError(t, b.Commit(ctx))
	}
}

// recordingStore mencatat ukuran setiap batch yang berhasil commit dan bisa
// disetel untuk gagal di commit ke-N.
type recordingStore struct {
	docstore.Store
	commits     []int
	attempts    int
	failAt      int
	failErr     error
	afterCommit func(n int)
}

func (s *recordingStore) Batch() docstore.Batch {
	return &recordingBatch{Batch: s.Store.Batch(), store: s}
}

type recordingBatch struct {
	docstore.Batch
	store *recordingStore
}

func (b *recordingBatch) Commit(ctx context.Context) error {
	b.store.attempts++
	if b.store.failAt == b.store.attempts {
		return b.store.failErr
	}
	if err := b.Batch.Commit(ctx); err != nil {
		return err
	}
	b.store.commits = append(b.store.commits, b.Len())
	if b.store.afterCommit != nil {
		b.store.afterCommit(len(b.store.commits))
	}
	return nil
}
