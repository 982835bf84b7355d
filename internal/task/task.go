package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valro-hq/valro-api/internal/domain"
)

// Status represents the current state of a background job.
type Status string

// Possible job status values
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job type constants
const (
	// TypeVendorOutreach identifies jobs that run the agent collaborator
	// for a submitted task and record the outcome.
	TypeVendorOutreach = "vendor_outreach"
)

// Task represents a unit of background work to be processed.
type Task interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Payload returns the job data as a byte slice
	Payload() []byte

	// Status returns the current job status
	Status() Status

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// JobRecord is a persisted job row, used when reviving work after a restart.
type JobRecord struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobStore defines the interface for persisting background jobs.
type JobStore interface {
	// SaveJob persists a job before it enters the in-memory queue
	SaveJob(ctx context.Context, t Task) error

	// UpdateJobStatus updates the status of a persisted job
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status Status, errorMsg string) error

	// ListQueuedJobs retrieves all jobs with "queued" status
	ListQueuedJobs(ctx context.Context) ([]JobRecord, error)

	// ListProcessingJobs retrieves jobs with "processing" status.
	// If olderThan is non-zero, only jobs that have been in that state
	// longer than the given duration are returned.
	ListProcessingJobs(ctx context.Context, olderThan time.Duration) ([]JobRecord, error)
}

// OutreachPayload is the hand-off message carried from task intake to the
// outreach worker: the task to process and its request text.
type OutreachPayload struct {
	TaskID      uuid.UUID `json:"task_id"`
	Description string    `json:"description"`
}

// AgentResult is the outcome of one agent collaborator invocation.
type AgentResult struct {
	Response   string
	Vendors    []domain.Vendor
	Emails     []domain.EmailRecord
	EmailsSent int
}

// AgentInvoker abstracts the external agent runtime. A single call either
// succeeds for the whole turn or fails for the whole turn; there is no
// per-vendor partial success and no retry at this layer.
type AgentInvoker interface {
	InvokeAgent(ctx context.Context, prompt string) (*AgentResult, error)
}

// TaskStore is the slice of the task record store the outreach worker
// needs: lookup, guarded claim, status/result writes, and event appends.
type TaskStore interface {
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ClaimTask(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus, errorMessage string) error
	SetAgentResult(ctx context.Context, id uuid.UUID, response string, vendors []domain.Vendor, emailsSent int) error
	AppendEvent(ctx context.Context, id uuid.UUID, event domain.Event) error
}
