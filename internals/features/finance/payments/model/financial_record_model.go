package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CollectionFinancialRecords         = "financial_records"
	CollectionArchivedFinancialRecords = "archived_financial_records"
)

// --- MODEL financial_records (append-only) ----------------------------------
type FinancialRecord struct {
	FinancialRecordID          string          `json:"financial_record_id"`
	FinancialRecordStudentID   string          `json:"financial_record_student_id"`
	FinancialRecordStudentName string          `json:"financial_record_student_name,omitempty"`
	FinancialRecordAmount      decimal.Decimal `json:"financial_record_amount"`
	FinancialRecordMethod      PaymentMethod   `json:"financial_record_method"`

	FinancialRecordPreviousBalance decimal.Decimal `json:"financial_record_previous_balance"`
	FinancialRecordNewBalance      decimal.Decimal `json:"financial_record_new_balance"`

	FinancialRecordReceiptNumber string    `json:"financial_record_receipt_number"`
	FinancialRecordRecordedBy    string    `json:"financial_record_recorded_by"`
	FinancialRecordTimestamp     time.Time `json:"financial_record_timestamp"`
	FinancialRecordNote          string    `json:"financial_record_note,omitempty"`
}

// --- MODEL archived_financial_records ---------------------------------------
type ArchivedFinancialRecord struct {
	FinancialRecord
	ArchivedAt time.Time `json:"financial_record_archived_at"`
	ArchivedBy string    `json:"financial_record_archived_by"`
}
