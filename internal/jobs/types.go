package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeChatTurn represents one chat message waiting to be interpreted
	// and reconciled.
	JobTypeChatTurn JobType = "chat_turn"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// Finished reports whether a job in this status will not change again.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ChatTurnJob represents one user message queued for the assistant.
type ChatTurnJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// MessageID is the id of the user message that started the turn.
	MessageID string `json:"message_id"`

	// Text is the user's message.
	Text string `json:"text"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Reply is the assistant message produced for the turn.
	Reply string `json:"reply,omitempty"`

	// ReplyID is the id of the assistant message.
	ReplyID string `json:"reply_id,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType
}

// GetID implements the Job interface.
func (j *ChatTurnJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ChatTurnJob) GetType() JobType {
	return JobTypeChatTurn
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishChatTurn enqueues a chat turn. It blocks while the queue is
	// full, until ctx is done.
	PublishChatTurn(ctx context.Context, job *ChatTurnJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	// Jobs still queued are handed to the handler with a cancelled context.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job. Jobs are not retried; a
// returned error marks the job failed.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ChatTurnJob) error

	// DeleteJob removes a job. Deleting an unknown job is not an error.
	DeleteJob(ctx context.Context, jobID string) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ChatTurnJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ChatTurnJob, error)

	// Clear removes every stored job. Later saves of jobs that were still
	// pending or running are ignored.
	Clear(ctx context.Context) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
