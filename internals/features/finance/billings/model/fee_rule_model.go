package model

import (
	"bytes"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

const CollectionFeeComponents = "fee_components"

// --- ENUM fee scope ----------------------------------------------------------
type FeeScope string

const (
	FeeScopeAll        FeeScope = "ALL"
	FeeScopeClass      FeeScope = "CLASS"
	FeeScopeIndividual FeeScope = "INDIVIDUAL"
)

// AllClassesMarker: nilai class name lama yang berarti "semua kelas".
const AllClassesMarker = "All Classes"

func (s FeeScope) Valid() bool {
	switch s {
	case FeeScopeAll, FeeScopeClass, FeeScopeIndividual:
		return true
	}
	return false
}

// --- MODEL fee_components ----------------------------------------------------
type FeeRule struct {
	FeeRuleID       string `json:"fee_rule_id"`
	FeeRuleName     string `json:"fee_rule_name"`
	FeeRuleAmount   Amount `json:"fee_rule_amount"`
	FeeRuleCategory string `json:"fee_rule_category,omitempty"`

	// Scope + Target
	FeeRuleTargetScope      FeeScope `json:"fee_rule_target_scope,omitempty"`
	FeeRuleClassID          string   `json:"fee_rule_class_id,omitempty"`
	FeeRuleClassName        string   `json:"fee_rule_class_name,omitempty"` // legacy: match by nama kelas
	FeeRuleTargetStudentIDs []string `json:"fee_rule_target_student_ids,omitempty"`

	// nil = aktif (data lama tidak punya field ini)
	FeeRuleActive *bool `json:"fee_rule_active,omitempty"`

	FeeRuleCreatedAt time.Time `json:"fee_rule_created_at"`
	FeeRuleUpdatedAt time.Time `json:"fee_rule_updated_at"`
}

func (r FeeRule) IsActive() bool {
	return r.FeeRuleActive == nil || *r.FeeRuleActive
}

// Scope mengembalikan scope efektif. Rule lama tanpa scope eksplisit:
// ada target siswa → INDIVIDUAL; ada class id / nama kelas spesifik → CLASS;
// selain itu ALL.
func (r FeeRule) Scope() FeeScope {
	if s := FeeScope(strings.ToUpper(strings.TrimSpace(string(r.FeeRuleTargetScope)))); s.Valid() {
		return s
	}
	switch {
	case len(r.FeeRuleTargetStudentIDs) > 0:
		return FeeScopeIndividual
	case strings.TrimSpace(r.FeeRuleClassID) != "":
		return FeeScopeClass
	case !IsAllClasses(r.FeeRuleClassName):
		return FeeScopeClass
	}
	return FeeScopeAll
}

// IsAllClasses: nama kelas kosong atau marker "All Classes".
func IsAllClasses(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.EqualFold(name, AllClassesMarker)
}

// =========================================================
// Amount: decimal yang toleran saat decode
// =========================================================

// Amount men-decode angka JSON maupun string angka. null, string non-angka,
// atau tipe lain jadi 0 (data lama kadang berisi "" atau "-").
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	a.Decimal = decimal.Zero
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return nil
		}
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			a.Decimal = d
		}
		return nil
	}
	if d, err := decimal.NewFromString(string(b)); err == nil {
		a.Decimal = d
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.Decimal.MarshalJSON()
}

// NonNegative: nominal yang boleh dijumlahkan (negatif → 0).
func (a Amount) NonNegative() decimal.Decimal {
	if a.Decimal.IsNegative() {
		return decimal.Zero
	}
	return a.Decimal
}
