package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	billing "schoolku_finance/internals/features/finance/billings/model"
)

////////////////////////////////////////////////////////////////////////////////
// FEE RULES — DTO
////////////////////////////////////////////////////////////////////////////////

// Create
type FeeRuleCreateDTO struct {
	FeeRuleName     string          `json:"fee_rule_name" validate:"required,max=120"`
	FeeRuleAmount   decimal.Decimal `json:"fee_rule_amount"`
	FeeRuleCategory string          `json:"fee_rule_category,omitempty" validate:"omitempty,max=60"`

	FeeRuleTargetScope      string   `json:"fee_rule_target_scope" validate:"omitempty,oneof=ALL CLASS INDIVIDUAL all class individual"`
	FeeRuleClassID          string   `json:"fee_rule_class_id,omitempty" validate:"omitempty,max=120"`
	FeeRuleClassName        string   `json:"fee_rule_class_name,omitempty" validate:"omitempty,max=120"`
	FeeRuleTargetStudentIDs []string `json:"fee_rule_target_student_ids,omitempty" validate:"omitempty,dive,required"`

	FeeRuleActive *bool `json:"fee_rule_active,omitempty"`
}

// Update (partial)
type FeeRuleUpdateDTO struct {
	FeeRuleName     *string          `json:"fee_rule_name,omitempty" validate:"omitempty,min=1,max=120"`
	FeeRuleAmount   *decimal.Decimal `json:"fee_rule_amount,omitempty"`
	FeeRuleCategory *string          `json:"fee_rule_category,omitempty" validate:"omitempty,max=60"`

	FeeRuleTargetScope      *string   `json:"fee_rule_target_scope,omitempty" validate:"omitempty,oneof=ALL CLASS INDIVIDUAL all class individual"`
	FeeRuleClassID          *string   `json:"fee_rule_class_id,omitempty"`
	FeeRuleClassName        *string   `json:"fee_rule_class_name,omitempty"`
	FeeRuleTargetStudentIDs *[]string `json:"fee_rule_target_student_ids,omitempty"`

	FeeRuleActive *bool `json:"fee_rule_active,omitempty"`
}

// Response
type FeeRuleResponse struct {
	FeeRuleID               string           `json:"fee_rule_id"`
	FeeRuleName             string           `json:"fee_rule_name"`
	FeeRuleAmount           decimal.Decimal  `json:"fee_rule_amount"`
	FeeRuleCategory         string           `json:"fee_rule_category,omitempty"`
	FeeRuleTargetScope      billing.FeeScope `json:"fee_rule_target_scope"`
	FeeRuleClassID          string           `json:"fee_rule_class_id,omitempty"`
	FeeRuleClassName        string           `json:"fee_rule_class_name,omitempty"`
	FeeRuleTargetStudentIDs []string         `json:"fee_rule_target_student_ids,omitempty"`
	FeeRuleActive           bool             `json:"fee_rule_active"`
	FeeRuleCreatedAt        time.Time        `json:"fee_rule_created_at"`
	FeeRuleUpdatedAt        time.Time        `json:"fee_rule_updated_at"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS — Model <-> DTO
////////////////////////////////////////////////////////////////////////////////

func ToFeeRuleResponse(m billing.FeeRule) FeeRuleResponse {
	return FeeRuleResponse{
		FeeRuleID:               m.FeeRuleID,
		FeeRuleName:             m.FeeRuleName,
		FeeRuleAmount:           m.FeeRuleAmount.Decimal,
		FeeRuleCategory:         m.FeeRuleCategory,
		FeeRuleTargetScope:      m.Scope(),
		FeeRuleClassID:          m.FeeRuleClassID,
		FeeRuleClassName:        m.FeeRuleClassName,
		FeeRuleTargetStudentIDs: m.FeeRuleTargetStudentIDs,
		FeeRuleActive:           m.IsActive(),
		FeeRuleCreatedAt:        m.FeeRuleCreatedAt,
		FeeRuleUpdatedAt:        m.FeeRuleUpdatedAt,
	}
}

func ToFeeRuleResponses(list []billing.FeeRule) []FeeRuleResponse {
	out := make([]FeeRuleResponse, 0, len(list))
	for _, v := range list {
		out = append(out, ToFeeRuleResponse(v))
	}
	return out
}

// CreateDTO -> Model
func FeeRuleCreateDTOToModel(d FeeRuleCreateDTO) billing.FeeRule {
	return billing.FeeRule{
		FeeRuleName:             d.FeeRuleName,
		FeeRuleAmount:           billing.NewAmount(d.FeeRuleAmount),
		FeeRuleCategory:         strings.TrimSpace(d.FeeRuleCategory),
		FeeRuleTargetScope:      billing.FeeScope(strings.ToUpper(d.FeeRuleTargetScope)),
		FeeRuleClassID:          d.FeeRuleClassID,
		FeeRuleClassName:        d.FeeRuleClassName,
		FeeRuleTargetStudentIDs: d.FeeRuleTargetStudentIDs,
		FeeRuleActive:           d.FeeRuleActive,
	}
}

// UpdateDTO -> Model (apply partial)
func ApplyFeeRuleUpdate(m *billing.FeeRule, d FeeRuleUpdateDTO) {
	if d.FeeRuleName != nil {
		m.FeeRuleName = *d.FeeRuleName
	}
	if d.FeeRuleAmount != nil {
		m.FeeRuleAmount = billing.NewAmount(*d.FeeRuleAmount)
	}
	if d.FeeRuleCategory != nil {
		m.FeeRuleCategory = strings.TrimSpace(*d.FeeRuleCategory)
	}
	if d.FeeRuleTargetScope != nil {
		m.FeeRuleTargetScope = billing.FeeScope(strings.ToUpper(*d.FeeRuleTargetScope))
	}
	if d.FeeRuleClassID != nil {
		m.FeeRuleClassID = *d.FeeRuleClassID
	}
	if d.FeeRuleClassName != nil {
		m.FeeRuleClassName = *d.FeeRuleClassName
	}
	if d.FeeRuleTargetStudentIDs != nil {
		m.FeeRuleTargetStudentIDs = *d.FeeRuleTargetStudentIDs
	}
	if d.FeeRuleActive != nil {
		m.FeeRuleActive = d.FeeRuleActive
	}
}
