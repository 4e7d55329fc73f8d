package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_finance/internals/databases/docstore"
	activity "schoolku_finance/internals/features/finance/activity/model"
	audit "schoolku_finance/internals/features/finance/activity/service"
	billingModel "schoolku_finance/internals/features/finance/billings/model"
	billing "schoolku_finance/internals/features/finance/billings/service"
	"schoolku_finance/internals/features/finance/payments/model"
)

type batchSizeStore struct {
	docstore.Store
	sizes []int
}

func (s *batchSizeStore) Batch() docstore.Batch { return &sizedBatch{Batch: s.Store.Batch(), store: s} }

type sizedBatch struct {
	docstore.Batch
	store *batchSizeStore
}

func (b *sizedBatch) Commit(ctx context.Context) error {
	if err := b.Batch.Commit(ctx); err != nil {
		return err
	}
	b.store.sizes = append(b.store.sizes, b.Len())
	return nil
}

func TestReset_ArchivesAndZeroes(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice", "bob")
	// summary lama tanpa siswa di roster tetap ikut di-reset
	require.NoError(t, store.Upsert(ctx, billingModel.CollectionStudentFees, "ghost", billingModel.StudentFee{
		StudentFeeStudentName: "Ghost", StudentFeeTotalDue: dec("10"), StudentFeeBalance: dec("10"),
		StudentFeeStatus: billingModel.FeeStatusUnpaid,
	}))

	l := NewLedger(store, nil, nil)
	for _, amt := range []string{"10", "20", "30"} {
		_, err := l.RecordPayment(ctx, pay(amt))
		require.NoError(t, err)
	}
	live, err := store.GetAll(ctx, model.CollectionFinancialRecords)
	require.NoError(t, err)
	require.Len(t, live, 3)

	out, err := NewResetter(store, audit.NewStoreSink(store, nil), nil).Reset(ctx, "op-9")
	require.NoError(t, err)
	assert.True(t, out.Atomic)
	assert.Equal(t, 1, out.BatchesCommitted)
	assert.Equal(t, 3, out.StudentsReset)
	assert.Equal(t, 3, out.TransactionsArchived)

	live, err = store.GetAll(ctx, model.CollectionFinancialRecords)
	require.NoError(t, err)
	assert.Empty(t, live)

	archived, err := store.GetAll(ctx, model.CollectionArchivedFinancialRecords)
	require.NoError(t, err)
	require.Len(t, archived, 3)
	var a model.ArchivedFinancialRecord
	require.NoError(t, archived[0].DataTo(&a))
	assert.Equal(t, "op-9", a.ArchivedBy)
	assert.NotEmpty(t, a.FinancialRecordReceiptNumber)

	fees, err := billing.LoadSummaries(ctx, store)
	require.NoError(t, err)
	require.Len(t, fees, 3)
	for id, f := range fees {
		assert.True(t, f.StudentFeeTotalDue.IsZero(), id)
		assert.True(t, f.StudentFeePaid.IsZero(), id)
		assert.True(t, f.StudentFeeBalance.IsZero(), id)
		assert.Equal(t, billingModel.FeeStatusNoFees, f.StudentFeeStatus, id)
		assert.Empty(t, f.StudentFeeAppliedRules, id)
	}
	assert.Equal(t, int64(3), fees["alice"].StudentFeeReceiptSeq)

	logs, err := store.Query(ctx, activity.CollectionAccountantActivity,
		docstore.Where("accountant_activity_action", activity.ActionSystemReset))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	// nomor kwitansi tidak berulang setelah reset
	reconcile(t, store)
	rc, err := l.RecordPayment(ctx, pay("1"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0004", rc.ReceiptNumber)
}

func TestReset_ReceiptSequenceContinues(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice")
	l := NewLedger(store, nil, nil)

	rc, err := l.RecordPayment(ctx, pay("25"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0001", rc.ReceiptNumber)

	_, err = NewResetter(store, nil, nil).Reset(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary(t, store, "alice").StudentFeeReceiptSeq)

	rc, err = l.RecordPayment(ctx, pay("5"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0002", rc.ReceiptNumber)
}

// lateWriteStore menjalankan write sekali, tepat saat reset mulai menyusun batch
// (setelah semua data dimuat).
type lateWriteStore struct {
	docstore.Store
	write func()
}

func (s *lateWriteStore) Batch() docstore.Batch {
	if s.write != nil {
		w := s.write
		s.write = nil
		w()
	}
	return s.Store.Batch()
}

func TestReset_PaymentAfterLoadStaysConsistent(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	setupSchool(t, mem, "alice", "bob")
	l := NewLedger(mem, nil, nil)

	_, err := l.RecordPayment(ctx, pay("30"))
	require.NoError(t, err)

	var late Receipt
	store := &lateWriteStore{Store: mem, write: func() {
		var err error
		late, err = l.RecordPayment(ctx, pay("15"))
		require.NoError(t, err)
	}}
	out, err := NewResetter(store, nil, nil).Reset(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, 1, out.TransactionsArchived)
	assert.Equal(t, "RCP-ALICE-0002", late.ReceiptNumber)

	// transaksi yang masuk terlambat tetap hidup dan tercermin di summary
	live, err := mem.GetAll(ctx, model.CollectionFinancialRecords)
	require.NoError(t, err)
	require.Len(t, live, 1)
	var rec model.FinancialRecord
	require.NoError(t, live[0].DataTo(&rec))
	assert.Equal(t, "RCP-ALICE-0002", rec.FinancialRecordReceiptNumber)

	f := summary(t, mem, "alice")
	assertDec(t, "15", f.StudentFeePaid)
	assert.True(t, f.StudentFeeTotalDue.IsZero())
	assert.Equal(t, int64(2), f.StudentFeeReceiptSeq)

	bob := summary(t, mem, "bob")
	assert.True(t, bob.StudentFeePaid.IsZero())
	assert.Equal(t, billingModel.FeeStatusNoFees, bob.StudentFeeStatus)

	rc, err := l.RecordPayment(ctx, pay("1"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0003", rc.ReceiptNumber)
}

func TestReset_SplitsWithoutBreakingPairs(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	setupSchool(t, mem, "alice", "bob", "carol")

	l := NewLedger(mem, nil, nil)
	for i := 0; i < 4; i++ {
		_, err := l.RecordPayment(ctx, pay("1"))
		require.NoError(t, err)
	}

	small := docstore.NewMemoryStore(docstore.WithMemoryMaxBatchOps(5))
	copyAll(t, mem, small)

	store := &batchSizeStore{Store: small}
	out, err := NewResetter(store, nil, nil).Reset(ctx, "op-1")
	require.NoError(t, err)

	assert.False(t, out.Atomic)
	assert.Equal(t, []int{4, 5, 2}, store.sizes)
	assert.Equal(t, 3, out.BatchesCommitted)
	assert.Equal(t, 4, out.TransactionsArchived)
	assert.Equal(t, 3, out.StudentsReset)

	archived, err := small.GetAll(ctx, model.CollectionArchivedFinancialRecords)
	require.NoError(t, err)
	assert.Len(t, archived, 4)
}

func copyAll(t *testing.T, from, to docstore.Store) {
	t.Helper()
	ctx := context.Background()
	for _, col := range []string{billingModel.CollectionStudents, billingModel.CollectionStudentFees, model.CollectionFinancialRecords} {
		docs, err := from.GetAll(ctx, col)
		require.NoError(t, err)
		for _, d := range docs {
			require.NoError(t, to.Upsert(ctx, col, d.DocumentID, d.DocumentData))
		}
	}
}
