package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
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

const DefaultReceiptPrefix = "RCP"

type PaymentInput struct {
	StudentID  string
	Amount     decimal.Decimal
	Method     model.PaymentMethod
	OperatorID string
	Note       string
}

// Receipt adalah hasil final pencatatan pembayaran (untuk dicetak).
type Receipt struct {
	TransactionID   string                 `json:"transaction_id"`
	ReceiptNumber   string                 `json:"receipt_number"`
	StudentID       string                 `json:"student_id"`
	StudentName     string                 `json:"student_name"`
	Amount          decimal.Decimal        `json:"amount"`
	Method          model.PaymentMethod    `json:"method"`
	TotalDue        decimal.Decimal        `json:"total_due"`
	Paid            decimal.Decimal        `json:"paid"`
	PreviousBalance decimal.Decimal        `json:"previous_balance"`
	NewBalance      decimal.Decimal        `json:"new_balance"`
	Status          billingModel.FeeStatus `json:"status"`
	RecordedBy      string                 `json:"recorded_by"`
	Timestamp       time.Time              `json:"timestamp"`
	Note            string                 `json:"note,omitempty"`
}

type Ledger struct {
	store  docstore.Store
	audit  audit.Sink
	logger *zap.Logger
	prefix string
	now    func() time.Time
}

type LedgerOption func(*Ledger)

func WithReceiptPrefix(p string) LedgerOption {
	return func(l *Ledger) {
		if p = strings.TrimSpace(p); p != "" {
			l.prefix = p
		}
	}
}

func NewLedger(store docstore.Store, sink audit.Sink, logger *zap.Logger, opts ...LedgerOption) *Ledger {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{store: store, audit: sink, logger: logger, prefix: DefaultReceiptPrefix, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// FormatReceiptNumber: <PREFIX>-<STUDENTID>-<seq 4 digit>.
func FormatReceiptNumber(prefix, studentID string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, strings.ToUpper(studentID), seq)
}

// RecordPayment mencatat pembayaran dalam satu transaksi store: baca summary
// (terkunci), tambah paid, hitung ulang balance/status, naikkan receipt seq,
// tulis summary + financial record. Tidak ada guard double-submit.
func (l *Ledger) RecordPayment(ctx context.Context, in PaymentInput) (Receipt, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	if in.StudentID == "" {
		return Receipt{}, finerr.Invalid("student_id", "wajib diisi")
	}
	if !in.Amount.IsPositive() {
		return Receipt{}, finerr.Invalid("amount", "harus lebih besar dari 0")
	}
	if !in.Method.Valid() {
		return Receipt{}, finerr.Invalid("method", fmt.Sprintf("metode %q tidak dikenal", in.Method))
	}

	var rc Receipt
	err := l.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		d, err := tx.Get(billingModel.CollectionStudentFees, in.StudentID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return fmt.Errorf("student %s: %w", in.StudentID, finerr.ErrNotInitialized)
			}
			return err
		}
		var fee billingModel.StudentFee
		if err := d.DataTo(&fee); err != nil {
			return err
		}
		fee.StudentFeeStudentID = in.StudentID

		now := l.now().UTC()
		prevBalance := fee.StudentFeeBalance
		newPaid := fee.StudentFeePaid.Add(in.Amount)
		newBalance := billingModel.Balance(fee.StudentFeeTotalDue, newPaid)

		fee.StudentFeePaid = newPaid
		fee.StudentFeeBalance = newBalance
		fee.StudentFeeStatus = billing.PaymentStatus(newPaid, newBalance)
		fee.StudentFeeReceiptSeq++
		fee.StudentFeeUpdatedAt = now

		rec := model.FinancialRecord{
			FinancialRecordID:              uuid.NewString(),
			FinancialRecordStudentID:       in.StudentID,
			FinancialRecordStudentName:     fee.StudentFeeStudentName,
			FinancialRecordAmount:          in.Amount,
			FinancialRecordMethod:          in.Method,
			FinancialRecordPreviousBalance: prevBalance,
			FinancialRecordNewBalance:      newBalance,
			FinancialRecordReceiptNumber:   FormatReceiptNumber(l.prefix, in.StudentID, fee.StudentFeeReceiptSeq),
			FinancialRecordRecordedBy:      in.OperatorID,
			FinancialRecordTimestamp:       now,
			FinancialRecordNote:            strings.TrimSpace(in.Note),
		}

		if err := tx.Set(billingModel.CollectionStudentFees, in.StudentID, fee); err != nil {
			return err
		}
		if err := tx.Set(model.CollectionFinancialRecords, rec.FinancialRecordID, rec); err != nil {
			return err
		}

		rc = Receipt{
			TransactionID:   rec.FinancialRecordID,
			ReceiptNumber:   rec.FinancialRecordReceiptNumber,
			StudentID:       in.StudentID,
			StudentName:     fee.StudentFeeStudentName,
			Amount:          in.Amount,
			Method:          in.Method,
			TotalDue:        fee.StudentFeeTotalDue,
			Paid:            newPaid,
			PreviousBalance: prevBalance,
			NewBalance:      newBalance,
			Status:          fee.StudentFeeStatus,
			RecordedBy:      in.OperatorID,
			Timestamp:       now,
			Note:            rec.FinancialRecordNote,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, finerr.ErrNotInitialized) {
			return Receipt{}, err
		}
		return Receipt{}, finerr.FromStore("record payment", err)
	}

	l.logger.Info("payment recorded",
		zap.String("student_id", rc.StudentID),
		zap.String("receipt", rc.ReceiptNumber),
		zap.String("amount", rc.Amount.String()),
		zap.String("status", string(rc.Status)),
	)
	l.audit.Append(ctx, in.OperatorID, activity.ActionRecordPayment, map[string]any{
		"student_id":     rc.StudentID,
		"amount":         rc.Amount.String(),
		"method":         string(rc.Method),
		"receipt_number": rc.ReceiptNumber,
		"new_balance":    rc.NewBalance.String(),
	})
	return rc, nil
}

// History: transaksi siswa, terbaru lebih dulu.
func (l *Ledger) History(ctx context.Context, studentID string) ([]model.FinancialRecord, error) {
	docs, err := l.store.Query(ctx, model.CollectionFinancialRecords,
		docstore.Where("financial_record_student_id", studentID))
	if err != nil {
		return nil, finerr.FromStore("payment history", err)
	}

	out := make([]model.FinancialRecord, 0, len(docs))
	for _, d := range docs {
		var r model.FinancialRecord
		if err := d.DataTo(&r); err != nil {
			l.logger.Warn("skip malformed financial record", zap.String("id", d.DocumentID), zap.Error(err))
			continue
		}
		r.FinancialRecordID = d.DocumentID
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.FinancialRecordTimestamp.Equal(b.FinancialRecordTimestamp) {
			return a.FinancialRecordTimestamp.After(b.FinancialRecordTimestamp)
		}
		return a.FinancialRecordReceiptNumber > b.FinancialRecordReceiptNumber
	})
	return out, nil
}
