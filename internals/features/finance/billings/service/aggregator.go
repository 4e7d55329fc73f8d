package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"schoolku_finance/internals/features/finance/billings/model"
)

// StudentBill adalah hasil agregasi satu siswa.
type StudentBill struct {
	TotalDue     decimal.Decimal
	AppliedRules []model.AppliedRule
}

// Applies: apakah rule berlaku untuk siswa (tanpa cek active).
// className adalah nama kanonik kelas siswa, untuk rule lama yang
// menyimpan nama kelas, bukan id.
func Applies(rule model.FeeRule, student model.Student, className string) bool {
	switch rule.Scope() {
	case model.FeeScopeIndividual:
		for _, id := range rule.FeeRuleTargetStudentIDs {
			if id == student.StudentID {
				return true
			}
		}
		return false

	case model.FeeScopeClass:
		if rule.FeeRuleClassID != "" && rule.FeeRuleClassID == student.StudentClassID {
			return true
		}
		// legacy: cocokkan nama kelas
		legacy := strings.TrimSpace(rule.FeeRuleClassName)
		return legacy != "" && strings.EqualFold(legacy, strings.TrimSpace(className))
	}
	return true
}

// Aggregate menjumlahkan rule aktif yang berlaku. rules harus sudah dalam
// urutan katalog; AppliedRules mengikuti urutan itu.
func Aggregate(rules []model.FeeRule, student model.Student, className string) StudentBill {
	bill := StudentBill{TotalDue: decimal.Zero, AppliedRules: []model.AppliedRule{}}
	for _, r := range rules {
		if !r.IsActive() || !Applies(r, student, className) {
			continue
		}
		amt := r.FeeRuleAmount.NonNegative()
		bill.TotalDue = bill.TotalDue.Add(amt)
		bill.AppliedRules = append(bill.AppliedRules, model.AppliedRule{
			RuleID: r.FeeRuleID,
			Name:   r.FeeRuleName,
			Amount: amt,
		})
	}
	return bill
}
