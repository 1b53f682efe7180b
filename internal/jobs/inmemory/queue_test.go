package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/financas-pro/internal/jobs"
)

func TestQueue_SingleWorkerKeepsOrder(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})

	handler := func(ctx context.Context, job jobs.Job) error {
		turn := job.(*jobs.ChatTurnJob)
		mu.Lock()
		seen = append(seen, turn.Text)
		n := len(seen)
		mu.Unlock()
		if n == 5 {
			close(done)
		}
		return nil
	}

	// Publish before starting so every job waits in the buffer.
	for i := 0; i < 5; i++ {
		if err := q.PublishChatTurn(ctx, &jobs.ChatTurnJob{Text: fmt.Sprintf("msg-%d", i)}); err != nil {
			t.Fatalf("PublishChatTurn() error = %v", err)
		}
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, text := range seen {
		if want := fmt.Sprintf("msg-%d", i); text != want {
			t.Errorf("seen[%d] = %q, want %q", i, text, want)
		}
	}

	if err := q.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestQueue_RecordsFailureWithoutRetry(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, store)
	ctx := context.Background()

	calls := make(chan struct{}, 10)
	handler := func(ctx context.Context, job jobs.Job) error {
		calls <- struct{}{}
		return errors.New("model offline")
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ChatTurnJob{JobID: "job-1", Text: "oi"}
	if err := q.PublishChatTurn(ctx, job); err != nil {
		t.Fatalf("PublishChatTurn() error = %v", err)
	}

	<-calls
	// Stop waits for the in-flight job, so its final state is saved after this.
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != jobs.JobStatusFailed {
		t.Errorf("Status = %q, want %q", got.Status, jobs.JobStatusFailed)
	}
	if got.Error != "model offline" {
		t.Errorf("Error = %q", got.Error)
	}
	if len(calls) != 0 {
		t.Errorf("handler called %d extra times", len(calls))
	}
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	err := q.PublishChatTurn(context.Background(), &jobs.ChatTurnJob{Text: "oi"})
	if !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("PublishChatTurn() error = %v, want ErrQueueClosed", err)
	}
	if err := q.Start(context.Background(), nil); !errors.Is(err, jobs.ErrQueueClosed) {
		t.Errorf("Start() error = %v, want ErrQueueClosed", err)
	}
}

func TestQueue_PublishRespectsContextWhenFull(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Close()

	if err := q.PublishChatTurn(context.Background(), &jobs.ChatTurnJob{Text: "first"}); err != nil {
		t.Fatalf("PublishChatTurn() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.PublishChatTurn(ctx, &jobs.ChatTurnJob{Text: "second"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("PublishChatTurn() error = %v, want DeadlineExceeded", err)
	}
}

func TestQueue_FailedPublishLeavesNoRecord(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, store)
	defer q.Close()

	if err := q.PublishChatTurn(context.Background(), &jobs.ChatTurnJob{JobID: "first", Text: "first"}); err != nil {
		t.Fatalf("PublishChatTurn() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.PublishChatTurn(ctx, &jobs.ChatTurnJob{JobID: "second", Text: "second"}); err == nil {
		t.Fatal("PublishChatTurn() on a full queue succeeded")
	}

	if _, err := store.GetJob(context.Background(), "second"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("GetJob(second) error = %v, want ErrJobNotFound", err)
	}
	list, _ := store.ListJobs(context.Background(), jobs.JobFilter{Status: jobs.JobStatusPending})
	if len(list) != 1 || list[0].JobID != "first" {
		t.Errorf("pending jobs = %v", list)
	}
}

func TestQueue_StopHandlesBufferedJobs(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	handled := map[string]int{}

	handler := func(ctx context.Context, job jobs.Job) error {
		if job.GetID() == "a" {
			close(started)
			<-release
		}
		mu.Lock()
		handled[job.GetID()]++
		mu.Unlock()
		return ctx.Err()
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := q.PublishChatTurn(ctx, &jobs.ChatTurnJob{JobID: id}); err != nil {
			t.Fatalf("PublishChatTurn(%s) error = %v", id, err)
		}
	}
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- q.Stop(ctx) }()
	close(release)

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range []string{"a", "b", "c"} {
		if handled[id] != 1 {
			t.Errorf("job %s handled %d times, want 1", id, handled[id])
		}
		job, err := store.GetJob(ctx, id)
		if err != nil {
			t.Fatalf("GetJob(%s) error = %v", id, err)
		}
		if !job.Status.Finished() {
			t.Errorf("job %s status = %q, want a finished status", id, job.Status)
		}
	}
}

func TestQueue_StopWithoutStartFailsBufferedJobs(t *testing.T) {
	store := NewStore()
	q := NewQueue(2, store)
	ctx := context.Background()

	if err := q.PublishChatTurn(ctx, &jobs.ChatTurnJob{JobID: "a"}); err != nil {
		t.Fatalf("PublishChatTurn() error = %v", err)
	}
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	job, err := store.GetJob(ctx, "a")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.Status != jobs.JobStatusFailed || job.Error != jobs.ErrQueueClosed.Error() {
		t.Errorf("job = %+v, want failed with %q", job, jobs.ErrQueueClosed)
	}
}
