package dto

import (
	"github.com/shopspring/decimal"

	"schoolku_finance/internals/features/finance/payments/model"
)

type RecordPaymentRequest struct {
	StudentID string          `json:"student_id" validate:"required,max=120"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=cash bank_transfer mobile_money cheque card"`
	Note      string          `json:"note,omitempty" validate:"omitempty,max=500"`
	// izinkan bayar melebihi sisa tagihan (default ditolak)
	AllowOverpayment bool `json:"allow_overpayment,omitempty"`
}

type ResetRequest struct {
	Confirm string `json:"confirm" validate:"required,eq=RESET"`
}

type FinancialRecordResponse struct {
	ID              string              `json:"financial_record_id"`
	StudentID       string              `json:"financial_record_student_id"`
	StudentName     string              `json:"financial_record_student_name,omitempty"`
	Amount          decimal.Decimal     `json:"financial_record_amount"`
	Method          model.PaymentMethod `json:"financial_record_method"`
	PreviousBalance decimal.Decimal     `json:"financial_record_previous_balance"`
	NewBalance      decimal.Decimal     `json:"financial_record_new_balance"`
	ReceiptNumber   string              `json:"financial_record_receipt_number"`
	RecordedBy      string              `json:"financial_record_recorded_by"`
	Timestamp       string              `json:"financial_record_timestamp"`
	Note            string              `json:"financial_record_note,omitempty"`
}

func ToFinancialRecordResponses(list []model.FinancialRecord) []FinancialRecordResponse {
	out := make([]FinancialRecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, FinancialRecordResponse{
			ID:              r.FinancialRecordID,
			StudentID:       r.FinancialRecordStudentID,
			StudentName:     r.FinancialRecordStudentName,
			Amount:          r.FinancialRecordAmount,
			Method:          r.FinancialRecordMethod,
			PreviousBalance: r.FinancialRecordPreviousBalance,
			NewBalance:      r.FinancialRecordNewBalance,
			ReceiptNumber:   r.FinancialRecordReceiptNumber,
			RecordedBy:      r.FinancialRecordRecordedBy,
			Timestamp:       r.FinancialRecordTimestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Note:            r.FinancialRecordNote,
		})
	}
	return out
}
