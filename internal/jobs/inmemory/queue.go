package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/financas-pro/internal/jobs"
	"github.com/google/uuid"
)

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// With a single worker, jobs are handled one at a time in publish order.
type Queue struct {
	jobChan     chan *jobs.ChatTurnJob
	closeChan   chan struct{}
	wg          sync.WaitGroup
	publishing  sync.WaitGroup
	mu          sync.RWMutex
	store       jobs.JobStore
	handler     jobs.JobHandler
	workerCount int
	closed      bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets how many jobs may be handled concurrently. The default
// is one.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workerCount = n
		}
	}
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishChatTurn blocks.
func NewQueue(bufferSize int, store jobs.JobStore, opts ...QueueOption) *Queue {
	q := &Queue{
		jobChan:     make(chan *jobs.ChatTurnJob, bufferSize),
		closeChan:   make(chan struct{}),
		store:       store,
		workerCount: 1,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Store returns the job store the queue records job status in, or nil.
func (q *Queue) Store() jobs.JobStore {
	return q.store
}

// PublishChatTurn implements the Publisher interface.
func (q *Queue) PublishChatTurn(ctx context.Context, job *jobs.ChatTurnJob) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.publishing.Add(1)
	q.mu.RUnlock()
	defer q.publishing.Done()

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}

	// Set initial status and timestamp
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishChatTurn: failed to save job: %w", err)
		}
	}

	// Enqueue job with context cancellation support
	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		q.forget(job)
		return ctx.Err()
	case <-q.closeChan:
		q.forget(job)
		return jobs.ErrQueueClosed
	}
}

// forget removes the record of a job that was never enqueued.
func (q *Queue) forget(job *jobs.ChatTurnJob) {
	if q.store != nil {
		_ = q.store.DeleteJob(context.Background(), job.JobID)
	}
}

// Start implements the Consumer interface.
// It starts workerCount goroutines that hand each job to handler.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return jobs.ErrQueueClosed
	}
	q.handler = handler
	q.mu.Unlock()

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job. Failed jobs are recorded, not retried.
func (q *Queue) processJob(ctx context.Context, job *jobs.ChatTurnJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete. Jobs
// still buffered are then handed to the handler with a cancelled context,
// so every published job is handled exactly once.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	handler := q.handler
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		q.publishing.Wait()
		q.drain(handler)
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain handles every job left in the buffer. Without a handler the jobs
// are marked failed.
func (q *Queue) drain(handler jobs.JobHandler) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for {
		select {
		case job := <-q.jobChan:
			if handler != nil {
				q.processJob(ctx, job, handler)
				continue
			}
			job.Status = jobs.JobStatusFailed
			job.Error = jobs.ErrQueueClosed.Error()
			if q.store != nil {
				_ = q.store.SaveJob(ctx, job)
			}
		default:
			return
		}
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
