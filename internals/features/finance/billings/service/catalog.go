package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolku_finance/internals/databases/docstore"
	activity "schoolku_finance/internals/features/finance/activity/model"
	audit "schoolku_finance/internals/features/finance/activity/service"
	"schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/finerr"
)

// Catalog mengelola fee rule (koleksi fee_components).
type Catalog struct {
	store  docstore.Store
	audit  audit.Sink
	logger *zap.Logger
	now    func() time.Time
}

func NewCatalog(store docstore.Store, sink audit.Sink, logger *zap.Logger) *Catalog {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{store: store, audit: sink, logger: logger, now: time.Now}
}

// ListRules mengembalikan semua rule (termasuk non-aktif) dalam urutan katalog.
func (c *Catalog) ListRules(ctx context.Context) ([]model.FeeRule, error) {
	docs, err := c.store.GetAll(ctx, model.CollectionFeeComponents)
	if err != nil {
		return nil, finerr.FromStore("list fee rules", err)
	}
	rules := make([]model.FeeRule, 0, len(docs))
	for _, d := range docs {
		r, err := decodeRule(d)
		if err != nil {
			// satu dokumen rusak tidak boleh menghentikan rekonsiliasi
			c.logger.Warn("skip malformed fee rule", zap.String("id", d.DocumentID), zap.Error(err))
			continue
		}
		rules = append(rules, r)
	}
	SortCatalog(rules)
	return rules, nil
}

// ListActiveRules: rule non-aktif tetap tersimpan tapi tidak ikut dihitung.
func (c *Catalog) ListActiveRules(ctx context.Context) ([]model.FeeRule, error) {
	all, err := c.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Catalog) GetRule(ctx context.Context, id string) (model.FeeRule, error) {
	d, err := c.store.Get(ctx, model.CollectionFeeComponents, id)
	if err != nil {
		return model.FeeRule{}, finerr.FromStore("get fee rule", err)
	}
	return decodeRule(*d)
}

func (c *Catalog) CreateRule(ctx context.Context, operatorID string, r model.FeeRule) (model.FeeRule, error) {
	normalizeRule(&r)
	if err := ValidateRule(r); err != nil {
		return model.FeeRule{}, err
	}

	now := c.now().UTC()
	r.FeeRuleID = uuid.NewString()
	r.FeeRuleCreatedAt = now
	r.FeeRuleUpdatedAt = now
	if err := c.store.Upsert(ctx, model.CollectionFeeComponents, r.FeeRuleID, r); err != nil {
		return model.FeeRule{}, finerr.FromStore("create fee rule", err)
	}

	c.audit.Append(ctx, operatorID, activity.ActionFeeRuleCreate, ruleDetails(r))
	return r, nil
}

// UpdateRule menerapkan patch di dalam transaksi supaya edit bersamaan
// tidak saling menimpa.
func (c *Catalog) UpdateRule(ctx context.Context, operatorID, id string, patch func(*model.FeeRule)) (model.FeeRule, error) {
	var out model.FeeRule
	err := c.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		d, err := tx.Get(model.CollectionFeeComponents, id)
		if err != nil {
			return err
		}
		r, err := decodeRule(*d)
		if err != nil {
			return err
		}

		patch(&r)
		normalizeRule(&r)
		if err := ValidateRule(r); err != nil {
			return err
		}
		r.FeeRuleID = id
		r.FeeRuleUpdatedAt = c.now().UTC()
		out = r
		return tx.Set(model.CollectionFeeComponents, id, r)
	})
	if err != nil {
		var ve *finerr.ValidationError
		if errors.As(err, &ve) {
			return model.FeeRule{}, err
		}
		return model.FeeRule{}, finerr.FromStore("update fee rule", err)
	}

	c.audit.Append(ctx, operatorID, activity.ActionFeeRuleUpdate, ruleDetails(out))
	return out, nil
}

// DeleteRule hanya mempengaruhi rekonsiliasi berikutnya; transaksi lama tidak diubah.
func (c *Catalog) DeleteRule(ctx context.Context, operatorID, id string) error {
	if _, err := c.store.Get(ctx, model.CollectionFeeComponents, id); err != nil {
		return finerr.FromStore("delete fee rule", err)
	}
	if err := c.store.Delete(ctx, model.CollectionFeeComponents, id); err != nil {
		return finerr.FromStore("delete fee rule", err)
	}
	c.audit.Append(ctx, operatorID, activity.ActionFeeRuleDelete, map[string]any{"rule_id": id})
	return nil
}

// ValidateRule memeriksa rule sebelum disimpan.
func ValidateRule(r model.FeeRule) error {
	if strings.TrimSpace(r.FeeRuleName) == "" {
		return finerr.Invalid("fee_rule_name", "wajib diisi")
	}
	if r.FeeRuleAmount.IsNegative() {
		return finerr.Invalid("fee_rule_amount", "tidak boleh negatif")
	}
	switch r.FeeRuleTargetScope {
	case model.FeeScopeAll:
	case model.FeeScopeClass:
		if r.FeeRuleClassID == "" && model.IsAllClasses(r.FeeRuleClassName) {
			return finerr.Invalid("fee_rule_class_id", "wajib diisi untuk scope CLASS")
		}
	case model.FeeScopeIndividual:
		if len(r.FeeRuleTargetStudentIDs) == 0 {
			return finerr.Invalid("fee_rule_target_student_ids", "minimal satu siswa untuk scope INDIVIDUAL")
		}
	default:
		return finerr.Invalid("fee_rule_target_scope", fmt.Sprintf("scope %q tidak dikenal", r.FeeRuleTargetScope))
	}
	return nil
}

// SortCatalog mengurutkan rule: created_at lalu id.
func SortCatalog(rules []model.FeeRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if !a.FeeRuleCreatedAt.Equal(b.FeeRuleCreatedAt) {
			return a.FeeRuleCreatedAt.Before(b.FeeRuleCreatedAt)
		}
		return a.FeeRuleID < b.FeeRuleID
	})
}

func decodeRule(d docstore.Document) (model.FeeRule, error) {
	var r model.FeeRule
	if err := d.DataTo(&r); err != nil {
		return r, err
	}
	r.FeeRuleID = d.DocumentID
	if r.FeeRuleCreatedAt.IsZero() {
		r.FeeRuleCreatedAt = d.DocumentCreatedAt
	}
	return r, nil
}

// normalizeRule: scope eksplisit diisi dari scope efektif, target dirapikan.
func normalizeRule(r *model.FeeRule) {
	r.FeeRuleName = strings.TrimSpace(r.FeeRuleName)
	r.FeeRuleClassID = strings.TrimSpace(r.FeeRuleClassID)
	r.FeeRuleClassName = strings.TrimSpace(r.FeeRuleClassName)
	r.FeeRuleTargetScope = model.FeeScope(strings.ToUpper(strings.TrimSpace(string(r.FeeRuleTargetScope))))
	if r.FeeRuleTargetScope == "" {
		r.FeeRuleTargetScope = r.Scope()
	}

	seen := make(map[string]struct{}, len(r.FeeRuleTargetStudentIDs))
	ids := make([]string, 0, len(r.FeeRuleTargetStudentIDs))
	for _, id := range r.FeeRuleTargetStudentIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	r.FeeRuleTargetStudentIDs = ids
}

func ruleDetails(r model.FeeRule) map[string]any {
	return map[string]any{
		"rule_id": r.FeeRuleID,
		"name":    r.FeeRuleName,
		"amount":  r.FeeRuleAmount.String(),
		"scope":   string(r.FeeRuleTargetScope),
		"active":  r.IsActive(),
	}
}
