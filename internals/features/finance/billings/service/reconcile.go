package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"schoolku_finance/internals/databases/docstore"
	activity "schoolku_finance/internals/features/finance/activity/model"
	audit "schoolku_finance/internals/features/finance/activity/service"
	"schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/finerr"
)

// ReconcileInput adalah snapshot yang dipakai satu kali rekonsiliasi.
type ReconcileInput struct {
	Rules    []model.FeeRule // urutan katalog
	Students []model.Student
	// class id → nama kanonik
	ClassNames map[string]string
	// student id → summary sebelumnya (paid & receipt seq dipertahankan)
	Prior map[string]model.StudentFee
}

type ReconcileOutcome struct {
	StudentsProcessed int             `json:"students_processed"`
	BatchesCommitted  int             `json:"batches_committed"`
	TotalDue          decimal.Decimal `json:"total_due"`
	ZeroState         bool            `json:"zero_state"`
	SyncedAt          time.Time       `json:"synced_at"`
}

// BuildSummaries menghitung summary baru untuk setiap siswa. Murni: tidak
// menyentuh store.
func BuildSummaries(in ReconcileInput, now time.Time) []model.StudentFee {
	synced := now.UTC()
	out := make([]model.StudentFee, 0, len(in.Students))
	for _, st := range in.Students {
		bill := Aggregate(in.Rules, st, in.ClassNames[st.StudentClassID])

		prior := in.Prior[st.StudentID]
		paid := prior.StudentFeePaid
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		balance := model.Balance(bill.TotalDue, paid)

		at := synced
		out = append(out, model.StudentFee{
			StudentFeeStudentID:    st.StudentID,
			StudentFeeStudentName:  st.StudentName,
			StudentFeeClassID:      st.StudentClassID,
			StudentFeeTotalDue:     bill.TotalDue,
			StudentFeePaid:         paid,
			StudentFeeBalance:      balance,
			StudentFeeStatus:       Classify(bill.TotalDue, paid, balance),
			StudentFeeAppliedRules: bill.AppliedRules,
			StudentFeeReceiptSeq:   prior.StudentFeeReceiptSeq,
			StudentFeeLastSyncedAt: &at,
			StudentFeeUpdatedAt:    synced,
		})
	}
	return out
}

// KeepPayments menulis sisi tagihan dari fresh, tapi paid & receipt seq
// diambil dari dokumen yang tersimpan saat commit. Pembayaran yang masuk
// setelah snapshot dimuat tetap terhitung dan nomor kwitansi tidak mundur.
func KeepPayments(fresh model.StudentFee) docstore.MergeFunc {
	return func(current *docstore.Document) (any, error) {
		if current == nil {
			return fresh, nil
		}
		var stored model.StudentFee
		if err := current.DataTo(&stored); err != nil {
			return nil, fmt.Errorf("decode student fee %s: %w", fresh.StudentFeeStudentID, err)
		}
		out := fresh
		out.StudentFeePaid = stored.StudentFeePaid
		if out.StudentFeePaid.IsNegative() {
			out.StudentFeePaid = decimal.Zero
		}
		if stored.StudentFeeReceiptSeq > out.StudentFeeReceiptSeq {
			out.StudentFeeReceiptSeq = stored.StudentFeeReceiptSeq
		}
		out.StudentFeeBalance = model.Balance(out.StudentFeeTotalDue, out.StudentFeePaid)
		out.StudentFeeStatus = Classify(out.StudentFeeTotalDue, out.StudentFeePaid, out.StudentFeeBalance)
		return out, nil
	}
}

// Reconciler menulis hasil BuildSummaries sebagai data resmi student_fees.
type Reconciler struct {
	store   docstore.Store
	catalog *Catalog
	audit   audit.Sink
	logger  *zap.Logger
	now     func() time.Time
}

func NewReconciler(store docstore.Store, catalog *Catalog, sink audit.Sink, logger *zap.Logger) *Reconciler {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, catalog: catalog, audit: sink, logger: logger, now: time.Now}
}

// Reconcile meng-upsert summary setiap siswa dalam batch atomik berukuran
// maksimal MaxBatchOps. Batch yang sudah commit tidak di-rollback bila
// batch berikutnya gagal atau ctx dibatalkan; outcome berisi progres sejauh itu.
func (r *Reconciler) Reconcile(ctx context.Context, in ReconcileInput) (ReconcileOutcome, error) {
	now := r.now().UTC()
	summaries := BuildSummaries(in, now)

	out := ReconcileOutcome{
		TotalDue:  decimal.Zero,
		ZeroState: !hasActiveRule(in.Rules),
		SyncedAt:  now,
	}

	limit := r.store.MaxBatchOps()
	batch := r.store.Batch()
	pending := 0
	pendingDue := decimal.Zero

	commit := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Commit(ctx); err != nil {
			return finerr.FromStore(fmt.Sprintf("reconcile batch %d", out.BatchesCommitted+1), err)
		}
		out.BatchesCommitted++
		out.StudentsProcessed += pending
		out.TotalDue = out.TotalDue.Add(pendingDue)
		r.logger.Debug("reconcile batch committed",
			zap.Int("batch", out.BatchesCommitted),
			zap.Int("ops", pending),
		)
		batch = r.store.Batch()
		pending = 0
		pendingDue = decimal.Zero
		return nil
	}

	for _, s := range summaries {
		if batch.Len() >= limit {
			if err := commit(); err != nil {
				return out, err
			}
		}
		if err := batch.Merge(model.CollectionStudentFees, s.StudentFeeStudentID, KeepPayments(s)); err != nil {
			return out, fmt.Errorf("reconcile %s: %w", s.StudentFeeStudentID, err)
		}
		pending++
		pendingDue = pendingDue.Add(s.StudentFeeTotalDue)
	}
	if batch.Len() > 0 {
		if err := commit(); err != nil {
			return out, err
		}
	}
	return out, nil
}

// LoadInput membaca katalog, roster, kelas dan summary lama dari store.
func (r *Reconciler) LoadInput(ctx context.Context) (ReconcileInput, error) {
	rules, err := r.catalog.ListRules(ctx)
	if err != nil {
		return ReconcileInput{}, err
	}
	students, err := LoadStudents(ctx, r.store)
	if err != nil {
		return ReconcileInput{}, err
	}
	classNames, err := LoadClassNames(ctx, r.store)
	if err != nil {
		return ReconcileInput{}, err
	}
	prior, err := LoadSummaries(ctx, r.store)
	if err != nil {
		return ReconcileInput{}, err
	}
	return ReconcileInput{Rules: rules, Students: students, ClassNames: classNames, Prior: prior}, nil
}

// Run: LoadInput → Reconcile → audit.
func (r *Reconciler) Run(ctx context.Context, operatorID string) (ReconcileOutcome, error) {
	in, err := r.LoadInput(ctx)
	if err != nil {
		return ReconcileOutcome{}, err
	}

	out, err := r.Reconcile(ctx, in)
	if err != nil {
		r.logger.Error("reconcile failed",
			zap.Int("batches_committed", out.BatchesCommitted),
			zap.Int("students_processed", out.StudentsProcessed),
			zap.Error(err),
		)
		return out, err
	}

	r.logger.Info("reconcile done",
		zap.Int("students", out.StudentsProcessed),
		zap.Int("batches", out.BatchesCommitted),
		zap.String("total_due", out.TotalDue.String()),
		zap.Bool("zero_state", out.ZeroState),
	)
	r.audit.Append(ctx, operatorID, activity.ActionReconcileLedger, map[string]any{
		"students_processed": out.StudentsProcessed,
		"batches_committed":  out.BatchesCommitted,
		"total_due":          out.TotalDue.String(),
		"zero_state":         out.ZeroState,
	})
	return out, nil
}

func hasActiveRule(rules []model.FeeRule) bool {
	for _, r := range rules {
		if r.IsActive() {
			return true
		}
	}
	return false
}

// =========================================================
// Loaders (dipakai juga oleh reset)
// =========================================================

func LoadStudents(ctx context.Context, store docstore.Store) ([]model.Student, error) {
	docs, err := store.GetAll(ctx, model.CollectionStudents)
	if err != nil {
		return nil, finerr.FromStore("load students", err)
	}
	out := make([]model.Student, 0, len(docs))
	for _, d := range docs {
		var s model.Student
		if err := d.DataTo(&s); err != nil {
			return nil, err
		}
		s.StudentID = d.DocumentID
		out = append(out, s)
	}
	return out, nil
}

func LoadClassNames(ctx context.Context, store docstore.Store) (map[string]string, error) {
	docs, err := store.GetAll(ctx, model.CollectionClasses)
	if err != nil {
		return nil, finerr.FromStore("load classes", err)
	}
	out := make(map[string]string, len(docs))
	for _, d := range docs {
		var c model.Class
		if err := d.DataTo(&c); err != nil {
			return nil, err
		}
		out[d.DocumentID] = c.ClassName
	}
	return out, nil
}

func LoadSummaries(ctx context.Context, store docstore.Store) (map[string]model.StudentFee, error) {
	docs, err := store.GetAll(ctx, model.CollectionStudentFees)
	if err != nil {
		return nil, finerr.FromStore("load student fees", err)
	}
	out := make(map[string]model.StudentFee, len(docs))
	for _, d := range docs {
		var f model.StudentFee
		if err := d.DataTo(&f); err != nil {
			return nil, err
		}
		f.StudentFeeStudentID = d.DocumentID
		out[d.DocumentID] = f
	}
	return out, nil
}
