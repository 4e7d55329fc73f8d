package dto

import (
	"time"

	"github.com/shopspring/decimal"

	billing "schoolku_finance/internals/features/finance/billings/model"
)

// StudentFeeResponse: summary + rincian rule yang dikenakan.
type StudentFeeResponse struct {
	StudentID    string                `json:"student_fee_student_id"`
	StudentName  string                `json:"student_fee_student_name"`
	ClassID      string                `json:"student_fee_class_id,omitempty"`
	TotalDue     decimal.Decimal       `json:"student_fee_total_due"`
	Paid         decimal.Decimal       `json:"student_fee_paid"`
	Balance      decimal.Decimal       `json:"student_fee_balance"`
	Status       billing.FeeStatus     `json:"student_fee_status"`
	AppliedRules []billing.AppliedRule `json:"student_fee_applied_rules"`
	LastSyncedAt *time.Time            `json:"student_fee_last_synced_at,omitempty"`
	UpdatedAt    time.Time             `json:"student_fee_updated_at"`
}

func ToStudentFeeResponse(m billing.StudentFee) StudentFeeResponse {
	rules := m.StudentFeeAppliedRules
	if rules == nil {
		rules = []billing.AppliedRule{}
	}
	return StudentFeeResponse{
		StudentID:    m.StudentFeeStudentID,
		StudentName:  m.StudentFeeStudentName,
		ClassID:      m.StudentFeeClassID,
		TotalDue:     m.StudentFeeTotalDue,
		Paid:         m.StudentFeePaid,
		Balance:      m.StudentFeeBalance,
		Status:       m.StudentFeeStatus,
		AppliedRules: rules,
		LastSyncedAt: m.StudentFeeLastSyncedAt,
		UpdatedAt:    m.StudentFeeUpdatedAt,
	}
}

func ToStudentFeeResponses(list []billing.StudentFee) []StudentFeeResponse {
	out := make([]StudentFeeResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToStudentFeeResponse(v))
	}
	return out
}
