package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_finance/internals/databases/docstore"
	activity "schoolku_finance/internals/features/finance/activity/model"
	audit "schoolku_finance/internals/features/finance/activity/service"
	billingModel "schoolku_finance/internals/features/finance/billings/model"
	billing "schoolku_finance/internals/features/finance/billings/service"
	"schoolku_finance/internals/features/finance/finerr"
	"schoolku_finance/internals/features/finance/payments/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// setupSchool membuat satu kelas, siswa, rule ALL=100 lalu rekonsiliasi.
func setupSchool(t *testing.T, store docstore.Store, studentIDs ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, billingModel.CollectionFeeComponents, "tuition", billingModel.FeeRule{
		FeeRuleName:        "Tuition",
		FeeRuleAmount:      billingModel.NewAmount(dec("100")),
		FeeRuleTargetScope: billingModel.FeeScopeAll,
	}))
	for _, id := range studentIDs {
		require.NoError(t, store.Upsert(ctx, billingModel.CollectionStudents, id, billingModel.Student{StudentName: "Student " + id}))
	}
	reconcile(t, store)
}

func reconcile(t *testing.T, store docstore.Store) {
	t.Helper()
	sink := audit.NopSink{}
	r := billing.NewReconciler(store, billing.NewCatalog(store, sink, nil), sink, nil)
	_, err := r.Run(context.Background(), "op-1")
	require.NoError(t, err)
}

func summary(t *testing.T, store docstore.Store, id string) billingModel.StudentFee {
	t.Helper()
	f, err := billing.NewSummaryService(store, nil).Get(context.Background(), id)
	require.NoError(t, err)
	return f
}

func pay(amount string) PaymentInput {
	return PaymentInput{StudentID: "alice", Amount: dec(amount), Method: model.PaymentMethodCash, OperatorID: "op-1"}
}

func TestRecordPayment_PartialThenPaid(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice")

	before := summary(t, store, "alice")
	assertDec(t, "100", before.StudentFeeBalance)
	assert.Equal(t, billingModel.FeeStatusUnpaid, before.StudentFeeStatus)

	l := NewLedger(store, audit.NewStoreSink(store, nil), nil)

	rc, err := l.RecordPayment(ctx, pay("60"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0001", rc.ReceiptNumber)
	assertDec(t, "100", rc.PreviousBalance)
	assertDec(t, "40", rc.NewBalance)
	assert.Equal(t, billingModel.FeeStatusPartial, rc.Status)

	rc, err = l.RecordPayment(ctx, pay("40"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0002", rc.ReceiptNumber)
	assertDec(t, "0", rc.NewBalance)
	assert.Equal(t, billingModel.FeeStatusPaid, rc.Status)

	after := summary(t, store, "alice")
	assertDec(t, "100", after.StudentFeePaid)
	assertDec(t, "0", after.StudentFeeBalance)
	assert.Equal(t, int64(2), after.StudentFeeReceiptSeq)

	history, err := l.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "RCP-ALICE-0002", history[0].FinancialRecordReceiptNumber)
	assertDec(t, "40", history[0].FinancialRecordPreviousBalance)

	logs, err := store.Query(ctx, activity.CollectionAccountantActivity,
		docstore.Where("accountant_activity_action", activity.ActionRecordPayment))
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestRecordPayment_OverpaymentStaysPaid(t *testing.T) {
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice")
	l := NewLedger(store, nil, nil)

	rc, err := l.RecordPayment(context.Background(), pay("150"))
	require.NoError(t, err)
	assertDec(t, "0", rc.NewBalance)
	assertDec(t, "150", rc.Paid)
	assert.Equal(t, billingModel.FeeStatusPaid, rc.Status)
}

func TestRecordPayment_NotInitialized(t *testing.T) {
	l := NewLedger(docstore.NewMemoryStore(), nil, nil)
	_, err := l.RecordPayment(context.Background(), pay("10"))
	assert.ErrorIs(t, err, finerr.ErrNotInitialized)
}

func TestRecordPayment_Validation(t *testing.T) {
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice")
	l := NewLedger(store, nil, nil)

	tests := []struct {
		name  string
		in    PaymentInput
		field string
	}{
		{"zero amount", pay("0"), "amount"},
		{"negative amount", pay("-5"), "amount"},
		{"unknown method", PaymentInput{StudentID: "alice", Amount: dec("5"), Method: "bitcoin"}, "method"},
		{"missing student", PaymentInput{Amount: dec("5"), Method: model.PaymentMethodCash}, "student_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.RecordPayment(context.Background(), tt.in)
			var ve *finerr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	// tidak ada yang tertulis
	assertDec(t, "0", summary(t, store, "alice").StudentFeePaid)
}

func TestRecordPayment_ConcurrentPaymentsSumExactly(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice")
	l := NewLedger(store, nil, nil)

	const n = 25
	var wg sync.WaitGroup
	receipts := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc, err := l.RecordPayment(ctx, pay("2"))
			if assert.NoError(t, err) {
				receipts <- rc.ReceiptNumber
			}
		}()
	}
	wg.Wait()
	close(receipts)

	seen := map[string]bool{}
	for r := range receipts {
		assert.False(t, seen[r], "duplicate receipt %s", r)
		seen[r] = true
	}
	assert.Len(t, seen, n)

	f := summary(t, store, "alice")
	assertDec(t, "50", f.StudentFeePaid)
	assertDec(t, "50", f.StudentFeeBalance)
	assert.Equal(t, int64(n), f.StudentFeeReceiptSeq)
}

type auditFailStore struct{ docstore.Store }

func (s auditFailStore) Upsert(ctx context.Context, collection, id string, data any) error {
	if collection == activity.CollectionAccountantActivity {
		return errors.New("audit collection is read-only")
	}
	return s.Store.Upsert(ctx, collection, id, data)
}

func TestRecordPayment_AuditFailureDoesNotFailPayment(t *testing.T) {
	mem := docstore.NewMemoryStore()
	setupSchool(t, mem, "alice")

	store := auditFailStore{mem}
	l := NewLedger(store, audit.NewStoreSink(store, nil), nil)

	rc, err := l.RecordPayment(context.Background(), pay("10"))
	require.NoError(t, err)
	assertDec(t, "90", rc.NewBalance)
}

func TestRecordPayment_ReconcilePreservesPaid(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice")
	l := NewLedger(store, nil, nil, WithReceiptPrefix("INV"))

	rc, err := l.RecordPayment(ctx, pay("30"))
	require.NoError(t, err)
	assert.Equal(t, "INV-ALICE-0001", rc.ReceiptNumber)

	reconcile(t, store)
	f := summary(t, store, "alice")
	assertDec(t, "30", f.StudentFeePaid)
	assertDec(t, "70", f.StudentFeeBalance)
	assert.Equal(t, billingModel.FeeStatusPartial, f.StudentFeeStatus)

	rc, err = l.RecordPayment(ctx, pay("5"))
	require.NoError(t, err)
	assert.Equal(t, "INV-ALICE-0002", rc.ReceiptNumber)
}

func TestRecordPayment_PaymentDuringReconcileIsKept(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice")
	sink := audit.NopSink{}
	r := billing.NewReconciler(store, billing.NewCatalog(store, sink, nil), sink, nil)
	l := NewLedger(store, nil, nil)

	in, err := r.LoadInput(ctx)
	require.NoError(t, err)

	// pembayaran masuk setelah snapshot rekonsiliasi dimuat
	rc, err := l.RecordPayment(ctx, pay("60"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0001", rc.ReceiptNumber)

	_, err = r.Reconcile(ctx, in)
	require.NoError(t, err)

	f := summary(t, store, "alice")
	assertDec(t, "60", f.StudentFeePaid)
	assertDec(t, "40", f.StudentFeeBalance)
	assert.Equal(t, billingModel.FeeStatusPartial, f.StudentFeeStatus)
	assert.Equal(t, int64(1), f.StudentFeeReceiptSeq)

	rc, err = l.RecordPayment(ctx, pay("10"))
	require.NoError(t, err)
	assert.Equal(t, "RCP-ALICE-0002", rc.ReceiptNumber)

	f = summary(t, store, "alice")
	assertDec(t, "70", f.StudentFeePaid)
	assertDec(t, "30", f.StudentFeeBalance)

	h, err := l.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, h, 2)
	total := decimal.Zero
	receipts := make([]string, 0, len(h))
	for _, rec := range h {
		total = total.Add(rec.FinancialRecordAmount)
		receipts = append(receipts, rec.FinancialRecordReceiptNumber)
	}
	assertDec(t, "70", total)
	assert.ElementsMatch(t, []string{"RCP-ALICE-0001", "RCP-ALICE-0002"}, receipts)
}

func TestHistory_OrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	setupSchool(t, store, "alice", "bob")
	l := NewLedger(store, nil, nil)

	base := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		l.now = func() time.Time { return at }
		_, err := l.RecordPayment(ctx, pay(fmt.Sprint(i+1)))
		require.NoError(t, err)
	}
	_, err := l.RecordPayment(ctx, PaymentInput{StudentID: "bob", Amount: dec("1"), Method: model.PaymentMethodCard})
	require.NoError(t, err)

	h, err := l.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, h, 3)
	assertDec(t, "3", h[0].FinancialRecordAmount)
	assertDec(t, "1", h[2].FinancialRecordAmount)
}
