package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/finerr"
)

// SummaryService adalah sisi baca student_fees (roster, detail, dashboard).
type SummaryService struct {
	store  docstore.Store
	logger *zap.Logger
}

func NewSummaryService(store docstore.Store, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{store: store, logger: logger}
}

type SummaryFilter struct {
	ClassID string
	Status  model.FeeStatus
}

func (f SummaryFilter) query() docstore.Query {
	q := docstore.Query{OrderBy: "student_fee_student_name"}
	if f.ClassID != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "student_fee_class_id", Value: f.ClassID})
	}
	if f.Status != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "student_fee_status", Value: string(f.Status)})
	}
	return q
}

type Totals struct {
	Students    int                     `json:"students"`
	TotalDue    decimal.Decimal         `json:"total_due"`
	Collected   decimal.Decimal         `json:"collected"`
	Outstanding decimal.Decimal         `json:"outstanding"`
	ByStatus    map[model.FeeStatus]int `json:"by_status"`
	ZeroState   bool                    `json:"zero_state"`
}

// RosterSnapshot adalah satu elemen stream roster.
type RosterSnapshot struct {
	Fees   []model.StudentFee `json:"fees"`
	Totals Totals             `json:"totals"`
	ReadAt time.Time          `json:"read_at"`
}

// Get mengembalikan ErrNotInitialized bila siswa belum pernah direkonsiliasi.
func (s *SummaryService) Get(ctx context.Context, studentID string) (model.StudentFee, error) {
	d, err := s.store.Get(ctx, model.CollectionStudentFees, studentID)
	if err != nil {
		err = finerr.FromStore("get student fee", err)
		if errors.Is(err, finerr.ErrNotFound) {
			return model.StudentFee{}, fmt.Errorf("student %s: %w", studentID, finerr.ErrNotInitialized)
		}
		return model.StudentFee{}, err
	}
	var f model.StudentFee
	if err := d.DataTo(&f); err != nil {
		return f, err
	}
	f.StudentFeeStudentID = d.DocumentID
	return f, nil
}

func (s *SummaryService) List(ctx context.Context, f SummaryFilter) ([]model.StudentFee, error) {
	docs, err := s.store.Query(ctx, model.CollectionStudentFees, f.query())
	if err != nil {
		return nil, finerr.FromStore("list student fees", err)
	}
	return s.decodeAll(docs), nil
}

func (s *SummaryService) Totals(ctx context.Context, f SummaryFilter) (Totals, error) {
	fees, err := s.List(ctx, f)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(fees), nil
}

// Stream mengirim snapshot roster setiap kali student_fees berubah, dimulai
// dari snapshot saat ini. Channel ditutup saat ctx selesai.
func (s *SummaryService) Stream(ctx context.Context, f SummaryFilter) (<-chan RosterSnapshot, error) {
	sub, err := s.store.Subscribe(ctx, model.CollectionStudentFees, f.query())
	if err != nil {
		return nil, finerr.FromStore("subscribe student fees", err)
	}

	out := make(chan RosterSnapshot)
	go func() {
		defer close(out)
		defer sub.Stop()
		for snap := range sub.C {
			fees := s.decodeAll(snap.Documents)
			select {
			case out <- RosterSnapshot{Fees: fees, Totals: ComputeTotals(fees), ReadAt: snap.ReadAt}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *SummaryService) decodeAll(docs []docstore.Document) []model.StudentFee {
	out := make([]model.StudentFee, 0, len(docs))
	for _, d := range docs {
		var f model.StudentFee
		if err := d.DataTo(&f); err != nil {
			s.logger.Warn("skip malformed student fee", zap.String("id", d.DocumentID), zap.Error(err))
			continue
		}
		f.StudentFeeStudentID = d.DocumentID
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].StudentFeeStudentName), strings.ToLower(out[j].StudentFeeStudentName)
		if a != b {
			return a < b
		}
		return out[i].StudentFeeStudentID < out[j].StudentFeeStudentID
	})
	return out
}

// ComputeTotals menghitung angka dashboard dari daftar summary.
func ComputeTotals(fees []model.StudentFee) Totals {
	t := Totals{
		Students:    len(fees),
		TotalDue:    decimal.Zero,
		Collected:   decimal.Zero,
		Outstanding: decimal.Zero,
		ByStatus:    make(map[model.FeeStatus]int, len(model.FeeStatuses)),
	}
	for _, st := range model.FeeStatuses {
		t.ByStatus[st] = 0
	}
	for _, f := range fees {
		t.TotalDue = t.TotalDue.Add(f.StudentFeeTotalDue)
		t.Collected = t.Collected.Add(f.StudentFeePaid)
		t.Outstanding = t.Outstanding.Add(f.StudentFeeBalance)
		t.ByStatus[f.StudentFeeStatus]++
	}
	t.ZeroState = t.TotalDue.IsZero() && t.Collected.IsZero()
	return t
}
