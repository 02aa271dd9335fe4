package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mystik-app/backend/internal/kvstore"
	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/pkg/queue"
)

// fakeJobs serves a fixed list of jobs, then cancels the run.
type fakeJobs struct {
	mu       sync.Mutex
	pending  []*queue.Job
	retried  []*queue.Job
	enqueued int
	cancel   context.CancelFunc
}

func (f *fakeJobs) Dequeue(ctx context.Context) (*queue.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		f.cancel()
		return nil, nil
	}
	job := f.pending[0]
	f.pending = f.pending[1:]
	return job, nil
}

func (f *fakeJobs) Retry(ctx context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.Attempt++
	f.retried = append(f.retried, job)
	return nil
}

func (f *fakeJobs) EnqueueReconcile(ctx context.Context, requestedBy string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued++
	if f.enqueued >= 2 {
		f.cancel()
	}
	return "job", nil
}

type failingReconciler struct{}

func (failingReconciler) Reconcile(context.Context) (registrations.ReconcileReport, error) {
	return registrations.ReconcileReport{}, errors.New("store down")
}

func reconcileJob(t *testing.T) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeIndexReconcile, queue.ReconcilePayload{})
	require.NoError(t, err)
	return job
}

func TestProcessRunsReconcile(t *testing.T) {
	svc := registrations.NewService(registrations.NewRepository(kvstore.NewMemory()), nil)
	p := NewReconcileProcessor(nil, svc, nil)

	require.NoError(t, p.Process(context.Background(), reconcileJob(t)))
	err := p.Process(context.Background(), &queue.Job{Type: "email"})
	assert.ErrorContains(t, err, "unknown job type")
}

func TestRunRetriesFailedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := &fakeJobs{pending: []*queue.Job{reconcileJob(t)}, cancel: cancel}
	p := NewReconcileProcessor(jobs, failingReconciler{}, nil)
	p.backoff = time.Millisecond

	p.Run(ctx)

	require.Len(t, jobs.retried, 1)
	assert.Equal(t, 1, jobs.retried[0].Attempt)
}

func TestRunSucceedsWithoutRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := registrations.NewService(registrations.NewRepository(kvstore.NewMemory()), nil)
	jobs := &fakeJobs{pending: []*queue.Job{reconcileJob(t), reconcileJob(t)}, cancel: cancel}
	p := NewReconcileProcessor(jobs, svc, nil)

	p.Run(ctx)

	assert.Empty(t, jobs.retried)
	assert.Empty(t, jobs.pending)
}

func TestScheduleEnqueuesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := &fakeJobs{cancel: cancel}
	p := NewReconcileProcessor(jobs, failingReconciler{}, nil)

	done := make(chan struct{})
	go func() {
		p.Schedule(ctx, time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, jobs.enqueued, 2)

	p.Schedule(context.Background(), 0)
}
