package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"schoolku_finance/internals/features/finance/billings/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		due, paid, balance string
		want               model.FeeStatus
	}{
		{"0", "0", "0", model.FeeStatusNoFees},
		{"100", "0", "100", model.FeeStatusUnpaid},
		{"100", "60", "40", model.FeeStatusPartial},
		{"100", "100", "0", model.FeeStatusPaid},
		{"100", "150", "0", model.FeeStatusPaid},
		{"0", "20", "0", model.FeeStatusOverpaid},
	}
	for _, tt := range tests {
		got := Classify(dec(tt.due), dec(tt.paid), dec(tt.balance))
		assert.Equal(t, tt.want, got, "due=%s paid=%s balance=%s", tt.due, tt.paid, tt.balance)
	}
}

// Untuk setiap triple konsisten (balance = max(0, due-paid)) hasilnya tepat
// satu status dan sesuai definisinya.
func TestClassify_TotalOverConsistentTriples(t *testing.T) {
	values := []string{"0", "0.01", "30", "100", "150"}
	for _, d := range values {
		for _, p := range values {
			due, paid := dec(d), dec(p)
			balance := model.Balance(due, paid)
			got := Classify(due, paid, balance)

			var want model.FeeStatus
			switch {
			case due.IsZero() && paid.IsZero():
				want = model.FeeStatusNoFees
			case due.IsPositive() && balance.IsZero():
				want = model.FeeStatusPaid
			case paid.IsPositive() && balance.IsPositive():
				want = model.FeeStatusPartial
			case due.IsZero():
				want = model.FeeStatusOverpaid
			default:
				want = model.FeeStatusUnpaid
			}
			assert.Equal(t, want, got, "due=%s paid=%s", d, p)
			assert.Contains(t, model.FeeStatuses, got)
		}
	}
}

func TestPaymentStatus(t *testing.T) {
	assert.Equal(t, model.FeeStatusPaid, PaymentStatus(dec("100"), dec("0")))
	assert.Equal(t, model.FeeStatusPartial, PaymentStatus(dec("60"), dec("40")))
	assert.Equal(t, model.FeeStatusUnpaid, PaymentStatus(dec("0"), dec("40")))
	// tidak pernah NO_FEES / OVERPAID di jalur pembayaran
	assert.Equal(t, model.FeeStatusPaid, PaymentStatus(dec("20"), dec("0")))
}
