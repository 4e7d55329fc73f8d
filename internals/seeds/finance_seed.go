package seeds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance/billings/model"
)

// FinanceSeed adalah isi file seed YAML (kelas, roster siswa, katalog biaya).
type FinanceSeed struct {
	Classes  []model.Class   `yaml:"classes"`
	Students []model.Student `yaml:"students"`
	FeeRules []FeeRuleSeed   `yaml:"fee_rules"`
}

type FeeRuleSeed struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Amount    string   `yaml:"amount"`
	Category  string   `yaml:"category"`
	Scope     string   `yaml:"scope"`
	ClassID   string   `yaml:"class_id"`
	ClassName string   `yaml:"class_name"`
	Students  []string `yaml:"students"`
	Active    *bool    `yaml:"active"`
}

type SeedResult struct {
	Classes  int
	Students int
	// rule yang sudah ada tidak ditimpa
	FeeRulesCreated int
	FeeRulesSkipped int
}

func LoadFinanceSeed(path string) (FinanceSeed, error) {
	var s FinanceSeed
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode seed yaml: %w", err)
	}
	return s, nil
}

func (r FeeRuleSeed) toModel(now time.Time) (model.FeeRule, error) {
	amt, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return model.FeeRule{}, fmt.Errorf("fee rule %q: amount %q: %w", r.ID, r.Amount, err)
	}
	if amt.IsNegative() {
		return model.FeeRule{}, fmt.Errorf("fee rule %q: amount must not be negative", r.ID)
	}
	scope := model.FeeScope(strings.ToUpper(strings.TrimSpace(r.Scope)))
	if r.Scope != "" && !scope.Valid() {
		return model.FeeRule{}, fmt.Errorf("fee rule %q: unknown scope %q", r.ID, r.Scope)
	}
	return model.FeeRule{
		FeeRuleID:               r.ID,
		FeeRuleName:             r.Name,
		FeeRuleAmount:           model.NewAmount(amt),
		FeeRuleCategory:         r.Category,
		FeeRuleTargetScope:      scope,
		FeeRuleClassID:          r.ClassID,
		FeeRuleClassName:        r.ClassName,
		FeeRuleTargetStudentIDs: r.Students,
		FeeRuleActive:           r.Active,
		FeeRuleCreatedAt:        now,
		FeeRuleUpdatedAt:        now,
	}, nil
}

// SeedFinance menulis kelas & siswa (upsert) dan fee rule yang belum ada.
// Idempoten: jalan dua kali menghasilkan isi store yang sama.
func SeedFinance(ctx context.Context, store docstore.Store, seed FinanceSeed, logger *zap.Logger) (SeedResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res SeedResult
	now := time.Now().UTC()

	w := newChunkWriter(store)

	for _, c := range seed.Classes {
		if strings.TrimSpace(c.ClassID) == "" {
			return res, fmt.Errorf("class %q: id is required", c.ClassName)
		}
		if err := w.set(ctx, model.CollectionClasses, c.ClassID, c); err != nil {
			return res, err
		}
		res.Classes++
	}
	for _, s := range seed.Students {
		if strings.TrimSpace(s.StudentID) == "" {
			return res, fmt.Errorf("student %q: id is required", s.StudentName)
		}
		if err := w.set(ctx, model.CollectionStudents, s.StudentID, s); err != nil {
			return res, err
		}
		res.Students++
	}

	for _, r := range seed.FeeRules {
		if strings.TrimSpace(r.ID) == "" {
			return res, fmt.Errorf("fee rule %q: id is required", r.Name)
		}
		_, err := store.Get(ctx, model.CollectionFeeComponents, r.ID)
		switch {
		case err == nil:
			res.FeeRulesSkipped++
			continue
		case !errors.Is(err, docstore.ErrNotFound):
			return res, err
		}
		rule, err := r.toModel(now)
		if err != nil {
			return res, err
		}
		if err := w.set(ctx, model.CollectionFeeComponents, r.ID, rule); err != nil {
			return res, err
		}
		res.FeeRulesCreated++
	}

	if err := w.flush(ctx); err != nil {
		return res, err
	}
	logger.Info("finance seed applied",
		zap.Int("classes", res.Classes),
		zap.Int("students", res.Students),
		zap.Int("fee_rules_created", res.FeeRulesCreated),
		zap.Int("fee_rules_skipped", res.FeeRulesSkipped),
	)
	return res, nil
}

// chunkWriter meng-commit batch setiap kali penuh.
type chunkWriter struct {
	store docstore.Store
	batch docstore.Batch
}

func newChunkWriter(store docstore.Store) *chunkWriter {
	return &chunkWriter{store: store, batch: store.Batch()}
}

func (w *chunkWriter) set(ctx context.Context, collection, id string, data any) error {
	if w.batch.Len() >= w.store.MaxBatchOps() {
		if err := w.flush(ctx); err != nil {
			return err
		}
	}
	return w.batch.Set(collection, id, data)
}

func (w *chunkWriter) flush(ctx context.Context) error {
	if w.batch.Len() == 0 {
		return nil
	}
	if err := w.batch.Commit(ctx); err != nil {
		return err
	}
	w.batch = w.store.Batch()
	return nil
}
