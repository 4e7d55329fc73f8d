package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"schoolku_finance/internals/features/finance/billings/service"
)

// CronOperatorID dicatat di audit log untuk rekonsiliasi terjadwal.
const CronOperatorID = "system:cron"

type reconcileRunner interface {
	Run(ctx context.Context, operatorID string) (service.ReconcileOutcome, error)
}

type ReconcileJob struct {
	runner  reconcileRunner
	logger  *zap.Logger
	timeout time.Duration
}

func NewReconcileJob(r reconcileRunner, logger *zap.Logger, timeout time.Duration) *ReconcileJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	return &ReconcileJob{runner: r, logger: logger, timeout: timeout}
}

// Run dipanggil oleh cron; error hanya di-log.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	out, err := j.runner.Run(ctx, CronOperatorID)
	if err != nil {
		j.logger.Error("scheduled reconcile failed",
			zap.Error(err),
			zap.Int("students_committed", out.StudentsProcessed),
			zap.Int("batches_committed", out.BatchesCommitted),
		)
		return
	}
	j.logger.Info("scheduled reconcile done",
		zap.Int("students", out.StudentsProcessed),
		zap.Int("batches", out.BatchesCommitted),
		zap.String("total_due", out.TotalDue.StringFixed(2)),
		zap.Duration("took", time.Since(start)),
	)
}

// StartReconcileScheduler menjalankan rekonsiliasi sesuai ekspresi cron
// (format 5 field, mis. "0 1 * * *"). Ekspresi kosong = scheduler mati.
// Kembalian stop menunggu job yang sedang jalan selesai.
func StartReconcileScheduler(schedule string, r reconcileRunner, logger *zap.Logger) (stop func(), err error) {
	if schedule == "" {
		return func() {}, nil
	}
	job := NewReconcileJob(r, logger, 0)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, err
	}
	c.Start()
	job.logger.Info("reconcile scheduler started", zap.String("schedule", schedule))

	return func() {
		<-c.Stop().Done()
	}, nil
}
