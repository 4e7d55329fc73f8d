package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance/activity/model"
	"schoolku_finance/internals/features/finance/finerr"
)

// Sink menerima entri audit. Best-effort: kegagalan tidak pernah
// menggagalkan operasi pemanggil.
type Sink interface {
	Append(ctx context.Context, operatorID, action string, details map[string]any)
}

type NopSink struct{}

func (NopSink) Append(context.Context, string, string, map[string]any) {}

// StoreSink menulis ke koleksi accountant_activity.
type StoreSink struct {
	store  docstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewStoreSink(store docstore.Store, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{store: store, logger: logger, now: time.Now}
}

func (s *StoreSink) Append(ctx context.Context, operatorID, action string, details map[string]any) {
	ts := s.now().UTC()
	entry := model.AccountantActivity{
		AccountantActivityID:         uuid.NewString(),
		AccountantActivityOperatorID: operatorID,
		AccountantActivityAction:     action,
		AccountantActivityDetails:    details,
		AccountantActivityTimestamp:  ts,
		AccountantActivityUnixMs:     ts.UnixMilli(),
	}
	if err := s.store.Upsert(ctx, model.CollectionAccountantActivity, entry.AccountantActivityID, entry); err != nil {
		s.logger.Warn("audit append failed",
			zap.String("action", action),
			zap.String("operator_id", operatorID),
			zap.Error(err),
		)
	}
}

type ListFilter struct {
	OperatorID string
	Action     string
	Limit      int
}

// List mengembalikan aktivitas terbaru lebih dulu.
func (s *StoreSink) List(ctx context.Context, f ListFilter) ([]model.AccountantActivity, error) {
	q := docstore.Query{OrderBy: "accountant_activity_unix_ms", Desc: true, Limit: f.Limit}
	if f.OperatorID != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "accountant_activity_operator_id", Value: f.OperatorID})
	}
	if f.Action != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "accountant_activity_action", Value: f.Action})
	}

	docs, err := s.store.Query(ctx, model.CollectionAccountantActivity, q)
	if err != nil {
		return nil, finerr.FromStore("list activity", err)
	}
	out := make([]model.AccountantActivity, 0, len(docs))
	for _, d := range docs {
		var a model.AccountantActivity
		if err := d.DataTo(&a); err != nil {
			s.logger.Warn("skip malformed activity", zap.String("id", d.DocumentID), zap.Error(err))
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
