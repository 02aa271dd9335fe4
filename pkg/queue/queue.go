package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueIndex is the Redis list key for email index maintenance jobs.
	QueueIndex = "worker:index"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// PollTimeout bounds a single blocking pop so shutdown is noticed.
	PollTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeIndexReconcile JobType = "index_reconcile"
)

// ReconcilePayload is the payload for index reconcile jobs.
type ReconcilePayload struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob builds a job envelope with a fresh id.
func NewJob(t JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client redis.UniversalClient, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueReconcile enqueues an index reconcile job and returns its id.
func (q *Queue) EnqueueReconcile(ctx context.Context, requestedBy string) (string, error) {
	job, err := NewJob(JobTypeIndexReconcile, ReconcilePayload{RequestedBy: requestedBy})
	if err != nil {
		return "", err
	}
	if err := q.push(ctx, QueueIndex, job); err != nil {
		return "", err
	}
	q.logger.Debug("enqueued index reconcile job", zap.String("job_id", job.ID), zap.String("requested_by", requestedBy))
	return job.ID, nil
}

func (q *Queue) push(ctx context.Context, key string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available, PollTimeout elapses or ctx is done.
// A nil job with a nil error means nothing arrived.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, PollTimeout, QueueIndex).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, QueueIndex, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
