package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_finance/internals/databases/docstore"
	audit "schoolku_finance/internals/features/finance/activity/service"
	"schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/finerr"
)

func newCatalog(store docstore.Store) *Catalog {
	c := NewCatalog(store, audit.NewStoreSink(store, nil), nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return c
}

func TestCatalog_CreateListOrder(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(docstore.NewMemoryStore())

	names := []string{"Tuition", "Library", "Sports"}
	for _, n := range names {
		_, err := c.CreateRule(ctx, "op-1", model.FeeRule{FeeRuleName: n, FeeRuleAmount: amount("10")})
		require.NoError(t, err)
	}
	_, err := c.CreateRule(ctx, "op-1", model.FeeRule{FeeRuleName: "Old", FeeRuleAmount: amount("10"), FeeRuleActive: boolPtr(false)})
	require.NoError(t, err)

	all, err := c.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, n := range names {
		assert.Equal(t, n, all[i].FeeRuleName)
		assert.Equal(t, model.FeeScopeAll, all[i].FeeRuleTargetScope)
	}

	active, err := c.ListActiveRules(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestCatalog_Validation(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(docstore.NewMemoryStore())

	tests := []struct {
		name  string
		rule  model.FeeRule
		field string
	}{
		{"missing name", model.FeeRule{FeeRuleAmount: amount("1")}, "fee_rule_name"},
		{"negative amount", model.FeeRule{FeeRuleName: "x", FeeRuleAmount: amount("-1")}, "fee_rule_amount"},
		{"class without target", model.FeeRule{FeeRuleName: "x", FeeRuleTargetScope: model.FeeScopeClass}, "fee_rule_class_id"},
		{"individual without students", model.FeeRule{FeeRuleName: "x", FeeRuleTargetScope: model.FeeScopeIndividual, FeeRuleTargetStudentIDs: []string{" "}}, "fee_rule_target_student_ids"},
		{"unknown scope", model.FeeRule{FeeRuleName: "x", FeeRuleTargetScope: "SECTION"}, "fee_rule_target_scope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateRule(ctx, "op-1", tt.rule)
			var ve *finerr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCatalog_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	c := newCatalog(store)

	r, err := c.CreateRule(ctx, "op-1", model.FeeRule{FeeRuleName: "Tuition", FeeRuleAmount: amount("100")})
	require.NoError(t, err)

	updated, err := c.UpdateRule(ctx, "op-1", r.FeeRuleID, func(m *model.FeeRule) {
		m.FeeRuleAmount = amount("120")
		m.FeeRuleActive = boolPtr(false)
	})
	require.NoError(t, err)
	assertDec(t, "120", updated.FeeRuleAmount.Decimal)
	assert.False(t, updated.IsActive())
	assert.True(t, updated.FeeRuleUpdatedAt.After(r.FeeRuleUpdatedAt))
	assert.Equal(t, r.FeeRuleCreatedAt, updated.FeeRuleCreatedAt)

	_, err = c.UpdateRule(ctx, "op-1", r.FeeRuleID, func(m *model.FeeRule) { m.FeeRuleName = "" })
	var ve *finerr.ValidationError
	require.ErrorAs(t, err, &ve)

	got, err := c.GetRule(ctx, r.FeeRuleID)
	require.NoError(t, err)
	assert.Equal(t, "Tuition", got.FeeRuleName)

	require.NoError(t, c.DeleteRule(ctx, "op-1", r.FeeRuleID))
	_, err = c.GetRule(ctx, r.FeeRuleID)
	assert.ErrorIs(t, err, finerr.ErrNotFound)
	assert.ErrorIs(t, c.DeleteRule(ctx, "op-1", r.FeeRuleID), finerr.ErrNotFound)

	_, err = c.UpdateRule(ctx, "op-1", "missing", func(*model.FeeRule) {})
	assert.ErrorIs(t, err, finerr.ErrNotFound)
}
