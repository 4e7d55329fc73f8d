package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/finerr"
)

func TestSummaryService_ListAndTotals(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	seedSchool(t, store)
	_, err := newReconciler(store).Run(ctx, "op-1")
	require.NoError(t, err)

	svc := NewSummaryService(store, nil)

	all, err := svc.List(ctx, SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alice", all[0].StudentFeeStudentName)
	assert.Equal(t, "Carol", all[2].StudentFeeStudentName)

	grade1, err := svc.List(ctx, SummaryFilter{ClassID: "c1"})
	require.NoError(t, err)
	assert.Len(t, grade1, 2)

	totals, err := svc.Totals(ctx, SummaryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Students)
	assertDec(t, "375", totals.TotalDue)
	assertDec(t, "0", totals.Collected)
	assertDec(t, "375", totals.Outstanding)
	assert.Equal(t, 3, totals.ByStatus[model.FeeStatusUnpaid])
	assert.False(t, totals.ZeroState)

	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, finerr.ErrNotInitialized)
}

func TestSummaryService_Stream(t *testing.T) {
	store := docstore.NewMemoryStore()
	seedSchool(t, store)
	svc := NewSummaryService(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := svc.Stream(ctx, SummaryFilter{})
	require.NoError(t, err)

	first := <-stream
	assert.Empty(t, first.Fees)
	assert.True(t, first.Totals.ZeroState)

	_, err = newReconciler(store).Run(context.Background(), "op-1")
	require.NoError(t, err)

	select {
	case snap := <-stream:
		assert.Len(t, snap.Fees, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after reconcile")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-stream:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
