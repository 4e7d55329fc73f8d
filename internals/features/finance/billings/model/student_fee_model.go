package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const CollectionStudentFees = "student_fees"

type FeeStatus string

const (
	FeeStatusNoFees   FeeStatus = "NO_FEES"
	FeeStatusPaid     FeeStatus = "PAID"
	FeeStatusPartial  FeeStatus = "PARTIAL"
	FeeStatusOverpaid FeeStatus = "OVERPAID"
	FeeStatusUnpaid   FeeStatus = "UNPAID"
)

var FeeStatuses = []FeeStatus{
	FeeStatusNoFees, FeeStatusPaid, FeeStatusPartial, FeeStatusOverpaid, FeeStatusUnpaid,
}

type AppliedRule struct {
	RuleID string          `json:"rule_id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// --- MODEL student_fees (key = student id) -----------------------------------
type StudentFee struct {
	StudentFeeStudentID   string `json:"student_fee_student_id"`
	StudentFeeStudentName string `json:"student_fee_student_name"`
	StudentFeeClassID     string `json:"student_fee_class_id,omitempty"`

	// balance == max(0, total_due - paid)
	StudentFeeTotalDue decimal.Decimal `json:"student_fee_total_due"`
	StudentFeePaid     decimal.Decimal `json:"student_fee_paid"`
	StudentFeeBalance  decimal.Decimal `json:"student_fee_balance"`
	StudentFeeStatus   FeeStatus       `json:"student_fee_status"`

	StudentFeeAppliedRules []AppliedRule `json:"student_fee_applied_rules"`

	// sequence kwitansi per siswa, tidak pernah turun (termasuk saat reset)
	StudentFeeReceiptSeq int64 `json:"student_fee_receipt_seq"`

	StudentFeeLastSyncedAt *time.Time `json:"student_fee_last_synced_at,omitempty"`
	StudentFeeUpdatedAt    time.Time  `json:"student_fee_updated_at"`
}

// Balance menghitung max(0, totalDue - paid).
func Balance(totalDue, paid decimal.Decimal) decimal.Decimal {
	b := totalDue.Sub(paid)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}
