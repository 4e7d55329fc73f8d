package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"schoolku_finance/internals/databases/docstore"
	activity "schoolku_finance/internals/features/finance/activity/model"
	audit "schoolku_finance/internals/features/finance/activity/service"
	billingModel "schoolku_finance/internals/features/finance/billings/model"
	billing "schoolku_finance/internals/features/finance/billings/service"
	"schoolku_finance/internals/features/finance/finerr"
	"schoolku_finance/internals/features/finance/payments/model"
)

type ResetOutcome struct {
	StudentsReset        int       `json:"students_reset"`
	TransactionsArchived int       `json:"transactions_archived"`
	BatchesCommitted     int       `json:"batches_committed"`
	Atomic               bool      `json:"atomic"`
	ResetAt              time.Time `json:"reset_at"`
}

// Resetter mengarsipkan semua transaksi dan mengosongkan summary tagihan.
type Resetter struct {
	store  docstore.Store
	audit  audit.Sink
	logger *zap.Logger
	now    func() time.Time
}

func NewResetter(store docstore.Store, sink audit.Sink, logger *zap.Logger) *Resetter {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resetter{store: store, audit: sink, logger: logger, now: time.Now}
}

// resetUnit adalah sekumpulan operasi yang harus berada di batch yang sama.
type resetUnit func(b docstore.Batch) error

// Reset: semua siswa (roster ∪ summary yang ada) → nol / NO_FEES; semua
// financial_records disalin ke archived_financial_records lalu dihapus.
// Kalau muat dalam satu batch, seluruh reset atomik. Kalau tidak, dipecah
// per batch dengan pasangan arsip+hapus selalu di batch yang sama.
func (r *Resetter) Reset(ctx context.Context, operatorID string) (ResetOutcome, error) {
	now := r.now().UTC()
	out := ResetOutcome{ResetAt: now}

	students, err := billing.LoadStudents(ctx, r.store)
	if err != nil {
		return out, err
	}
	prior, err := billing.LoadSummaries(ctx, r.store)
	if err != nil {
		return out, err
	}
	recDocs, err := r.store.GetAll(ctx, model.CollectionFinancialRecords)
	if err != nil {
		return out, finerr.FromStore("load financial records", err)
	}

	zeroed := zeroSummaries(students, prior, now)

	units := make([]resetUnit, 0, len(recDocs)+len(zeroed))
	sizes := make([]int, 0, cap(units))
	archivedPaid := make(map[string]decimal.Decimal, len(prior))
	for _, d := range recDocs {
		var rec model.FinancialRecord
		if err := d.DataTo(&rec); err != nil {
			return out, err
		}
		rec.FinancialRecordID = d.DocumentID
		sid := rec.FinancialRecordStudentID
		archivedPaid[sid] = archivedPaid[sid].Add(rec.FinancialRecordAmount)
		archived := model.ArchivedFinancialRecord{FinancialRecord: rec, ArchivedAt: now, ArchivedBy: operatorID}
		id := d.DocumentID
		units = append(units, func(b docstore.Batch) error {
			if err := b.Set(model.CollectionArchivedFinancialRecords, id, archived); err != nil {
				return err
			}
			return b.Delete(model.CollectionFinancialRecords, id)
		})
		sizes = append(sizes, 2)
	}
	for _, f := range zeroed {
		merge := zeroKeepingLatePayments(f, archivedPaid[f.StudentFeeStudentID])
		id := f.StudentFeeStudentID
		units = append(units, func(b docstore.Batch) error {
			return b.Merge(billingModel.CollectionStudentFees, id, merge)
		})
		sizes = append(sizes, 1)
	}

	limit := r.store.MaxBatchOps()
	if len(recDocs) > 0 && limit < 2 {
		return out, fmt.Errorf("reset: batch limit %d cannot hold an archive+delete pair", limit)
	}
	total := 0
	for _, n := range sizes {
		total += n
	}
	out.Atomic = total <= limit

	batch := r.store.Batch()
	var pendingRecs, pendingStudents int
	commit := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Commit(ctx); err != nil {
			return finerr.FromStore(fmt.Sprintf("reset batch %d", out.BatchesCommitted+1), err)
		}
		out.BatchesCommitted++
		out.TransactionsArchived += pendingRecs
		out.StudentsReset += pendingStudents
		pendingRecs, pendingStudents = 0, 0
		batch = r.store.Batch()
		return nil
	}

	for i, unit := range units {
		if batch.Len()+sizes[i] > limit {
			if err := commit(); err != nil {
				return out, err
			}
		}
		if err := unit(batch); err != nil {
			if errors.Is(err, docstore.ErrBatchFull) {
				return out, fmt.Errorf("reset: %w", err)
			}
			return out, err
		}
		if sizes[i] == 2 {
			pendingRecs++
		} else {
			pendingStudents++
		}
	}
	if batch.Len() > 0 {
		if err := commit(); err != nil {
			return out, err
		}
	}

	r.logger.Warn("finance system reset",
		zap.String("operator_id", operatorID),
		zap.Int("students_reset", out.StudentsReset),
		zap.Int("transactions_archived", out.TransactionsArchived),
		zap.Int("batches", out.BatchesCommitted),
	)
	r.audit.Append(ctx, operatorID, activity.ActionSystemReset, map[string]any{
		"students_reset":        out.StudentsReset,
		"transactions_archived": out.TransactionsArchived,
		"batches_committed":     out.BatchesCommitted,
	})
	return out, nil
}

// zeroKeepingLatePayments mengosongkan summary saat commit. Pembayaran yang
// masuk setelah financial_records dimuat tidak ikut diarsip, jadi nilainya
// (paid tersimpan dikurangi yang diarsip) tetap tercatat di summary.
// Receipt seq tidak pernah mundur.
func zeroKeepingLatePayments(zero billingModel.StudentFee, archived decimal.Decimal) docstore.MergeFunc {
	return func(current *docstore.Document) (any, error) {
		if current == nil {
			return zero, nil
		}
		var stored billingModel.StudentFee
		if err := current.DataTo(&stored); err != nil {
			return nil, fmt.Errorf("decode student fee %s: %w", zero.StudentFeeStudentID, err)
		}
		out := zero
		if stored.StudentFeeReceiptSeq > out.StudentFeeReceiptSeq {
			// ada kwitansi baru sejak snapshot
			out.StudentFeeReceiptSeq = stored.StudentFeeReceiptSeq
			if late := stored.StudentFeePaid.Sub(archived); late.IsPositive() {
				out.StudentFeePaid = late
				out.StudentFeeBalance = billingModel.Balance(decimal.Zero, late)
				out.StudentFeeStatus = billing.Classify(decimal.Zero, late, out.StudentFeeBalance)
			}
		}
		return out, nil
	}
}

// zeroSummaries: receipt seq dipertahankan supaya nomor kwitansi tidak berulang.
func zeroSummaries(students []billingModel.Student, prior map[string]billingModel.StudentFee, now time.Time) []billingModel.StudentFee {
	byID := make(map[string]billingModel.StudentFee, len(students)+len(prior))
	for id, f := range prior {
		byID[id] = f
	}
	for _, s := range students {
		f := byID[s.StudentID]
		f.StudentFeeStudentName = s.StudentName
		f.StudentFeeClassID = s.StudentClassID
		byID[s.StudentID] = f
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]billingModel.StudentFee, 0, len(ids))
	for _, id := range ids {
		f := byID[id]
		at := now
		out = append(out, billingModel.StudentFee{
			StudentFeeStudentID:    id,
			StudentFeeStudentName:  f.StudentFeeStudentName,
			StudentFeeClassID:      f.StudentFeeClassID,
			StudentFeeTotalDue:     decimal.Zero,
			StudentFeePaid:         decimal.Zero,
			StudentFeeBalance:      decimal.Zero,
			StudentFeeStatus:       billingModel.FeeStatusNoFees,
			StudentFeeAppliedRules: []billingModel.AppliedRule{},
			StudentFeeReceiptSeq:   f.StudentFeeReceiptSeq,
			StudentFeeLastSyncedAt: &at,
			StudentFeeUpdatedAt:    now,
		})
	}
	return out
}
