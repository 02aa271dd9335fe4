package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/pkg/queue"
)

// Jobs is the queue side the processor needs. Satisfied by *queue.Queue.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
	EnqueueReconcile(ctx context.Context, requestedBy string) (string, error)
}

// Reconciler repairs the email index. Satisfied by *registrations.Service.
type Reconciler interface {
	Reconcile(ctx context.Context) (registrations.ReconcileReport, error)
}

// ReconcileProcessor processes index reconcile jobs.
type ReconcileProcessor struct {
	jobs    Jobs
	svc     Reconciler
	logger  *zap.Logger
	backoff time.Duration
}

// NewReconcileProcessor creates an index reconcile processor.
func NewReconcileProcessor(jobs Jobs, svc Reconciler, logger *zap.Logger) *ReconcileProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileProcessor{jobs: jobs, svc: svc, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one job.
func (p *ReconcileProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeIndexReconcile {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	report, err := p.svc.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	p.logger.Info("index reconcile completed",
		zap.String("job_id", job.ID),
		zap.Int("registrations", report.Registrations),
		zap.Int("removed", report.Removed),
		zap.Int("repaired", report.Repaired),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ReconcileProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reconcile worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

// Schedule enqueues a reconcile job every interval until ctx is done.
func (p *ReconcileProcessor) Schedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.jobs.EnqueueReconcile(ctx, "scheduler"); err != nil {
				p.logger.Warn("schedule reconcile failed", zap.Error(err))
			}
		}
	}
}

func (p *ReconcileProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
