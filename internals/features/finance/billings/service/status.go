package service

import (
	"github.com/shopspring/decimal"

	"schoolku_finance/internals/features/finance/billings/model"
)

// Classify menentukan status dari (totalDue, paid, balance). Urutan cek
// penting: kondisi pertama yang cocok yang dipakai.
func Classify(totalDue, paid, balance decimal.Decimal) model.FeeStatus {
	switch {
	case totalDue.IsZero() && paid.IsZero():
		return model.FeeStatusNoFees
	case totalDue.IsPositive() && !balance.IsPositive():
		return model.FeeStatusPaid
	case paid.IsPositive() && balance.IsPositive():
		return model.FeeStatusPartial
	case totalDue.IsZero() && paid.IsPositive():
		return model.FeeStatusOverpaid
	}
	return model.FeeStatusUnpaid
}

// PaymentStatus dipakai setelah pembayaran dicatat. Hanya PAID/PARTIAL/UNPAID;
// NO_FEES dan OVERPAID tidak diturunkan ulang di jalur pembayaran.
func PaymentStatus(paid, balance decimal.Decimal) model.FeeStatus {
	switch {
	case !balance.IsPositive():
		return model.FeeStatusPaid
	case paid.IsPositive():
		return model.FeeStatusPartial
	}
	return model.FeeStatusUnpaid
}
