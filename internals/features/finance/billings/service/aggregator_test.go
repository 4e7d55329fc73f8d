package service

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_finance/internals/features/finance/billings/model"
)

func TestApplies(t *testing.T) {
	alice := model.Student{StudentID: "alice", StudentClassID: "c1"}

	tests := []struct {
		name      string
		rule      model.FeeRule
		className string
		want      bool
	}{
		{"all", model.FeeRule{FeeRuleTargetScope: model.FeeScopeAll}, "Grade 1", true},
		{"class by id", model.FeeRule{FeeRuleTargetScope: model.FeeScopeClass, FeeRuleClassID: "c1"}, "", true},
		{"other class", model.FeeRule{FeeRuleTargetScope: model.FeeScopeClass, FeeRuleClassID: "c2"}, "Grade 1", false},
		{"legacy class name", model.FeeRule{FeeRuleTargetScope: model.FeeScopeClass, FeeRuleClassName: " grade 1 "}, "Grade 1", true},
		{"legacy class name mismatch", model.FeeRule{FeeRuleTargetScope: model.FeeScopeClass, FeeRuleClassName: "Grade 2"}, "Grade 1", false},
		{"individual listed", model.FeeRule{FeeRuleTargetScope: model.FeeScopeIndividual, FeeRuleTargetStudentIDs: []string{"bob", "alice"}}, "", true},
		{"individual not listed", model.FeeRule{FeeRuleTargetScope: model.FeeScopeIndividual, FeeRuleTargetStudentIDs: []string{"bob"}}, "", false},
		{"no scope, all classes marker", model.FeeRule{FeeRuleClassName: "All Classes"}, "Grade 9", true},
		{"no scope, blank class", model.FeeRule{}, "Grade 9", true},
		{"no scope, specific class name", model.FeeRule{FeeRuleClassName: "Grade 2"}, "Grade 1", false},
		{"no scope, targets", model.FeeRule{FeeRuleTargetStudentIDs: []string{"bob"}}, "Grade 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Applies(tt.rule, alice, tt.className))
		})
	}
}

func TestAggregate(t *testing.T) {
	student := model.Student{StudentID: "alice", StudentClassID: "c1"}
	rules := []model.FeeRule{
		{FeeRuleID: "tuition", FeeRuleName: "Tuition", FeeRuleAmount: amount("100"), FeeRuleTargetScope: model.FeeScopeAll},
		{FeeRuleID: "lab", FeeRuleName: "Lab", FeeRuleAmount: amount("25.50"), FeeRuleTargetScope: model.FeeScopeClass, FeeRuleClassID: "c1"},
		{FeeRuleID: "trip", FeeRuleName: "Trip", FeeRuleAmount: amount("40"), FeeRuleTargetScope: model.FeeScopeIndividual,
			FeeRuleTargetStudentIDs: []string{"alice", "alice"}},
		{FeeRuleID: "old", FeeRuleName: "Old", FeeRuleAmount: amount("999"), FeeRuleActive: boolPtr(false)},
		{FeeRuleID: "refund", FeeRuleName: "Bad", FeeRuleAmount: amount("-30")},
		{FeeRuleID: "bus", FeeRuleName: "Bus", FeeRuleAmount: amount("10"), FeeRuleTargetScope: model.FeeScopeClass, FeeRuleClassID: "c9"},
	}

	bill := Aggregate(rules, student, "Grade 1")
	assertDec(t, "165.5", bill.TotalDue)

	ids := make([]string, 0, len(bill.AppliedRules))
	for _, r := range bill.AppliedRules {
		ids = append(ids, r.RuleID)
	}
	assert.Equal(t, []string{"tuition", "lab", "trip", "refund"}, ids)
	assertDec(t, "0", bill.AppliedRules[3].Amount)
}

func TestAggregate_ZeroRules(t *testing.T) {
	bill := Aggregate(nil, model.Student{StudentID: "a"}, "")
	assert.True(t, bill.TotalDue.IsZero())
	assert.NotNil(t, bill.AppliedRules)
	assert.Empty(t, bill.AppliedRules)
}

func TestAggregate_LenientAmounts(t *testing.T) {
	var rules []model.FeeRule
	raw := `[
		{"fee_rule_id":"a","fee_rule_amount":"abc"},
		{"fee_rule_id":"b"},
		{"fee_rule_id":"c","fee_rule_amount":null},
		{"fee_rule_id":"d","fee_rule_amount":"12.5"},
		{"fee_rule_id":"e","fee_rule_amount":7}
	]`
	require.NoError(t, sonic.UnmarshalString(raw, &rules))

	bill := Aggregate(rules, model.Student{StudentID: "x"}, "")
	assertDec(t, "19.5", bill.TotalDue)
	assert.Len(t, bill.AppliedRules, 5)
}
