package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/valro-hq/valro-api/internal/domain"
)

// TaskStore defines the access contract for durable task records.
//
// All mutation is scoped to a single task id: either a partial attribute
// update or an atomic event append. No multi-task transaction is ever
// required, and concurrent appends to the same task are safe (the store
// guarantees this, not the caller).
type TaskStore interface {
	// CreateTask persists a new task. The write is an idempotent upsert
	// keyed by the task id.
	// Returns ErrStoreUnavailable on transient backend failure.
	CreateTask(ctx context.Context, task *domain.Task) error

	// GetTask retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if no task with the given ID exists.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateStatus sets the task's status and refreshes updated_at. A
	// non-empty errorMessage is recorded alongside (used for the error
	// state); an empty errorMessage leaves the field untouched.
	// Returns ErrTaskNotFound if no task with the given ID exists.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus, errorMessage string) error

	// ClaimTask atomically transitions the task from pending to processing.
	// It reports whether this caller won the claim; a false result with a
	// nil error means the task was already claimed or is in a later state,
	// which lets a redelivered hand-off no-op instead of reprocessing.
	// Returns ErrTaskNotFound if no task with the given ID exists.
	ClaimTask(ctx context.Context, id uuid.UUID) (bool, error)

	// SetAgentResult records the agent collaborator's successful outcome:
	// the response text, the vendor outreach records, and the email count.
	// These fields are written once per task.
	// Returns ErrTaskNotFound if no task with the given ID exists.
	SetAgentResult(ctx context.Context, id uuid.UUID, response string, vendors []domain.Vendor, emailsSent int) error

	// AppendEvent atomically appends one event to the task's timeline
	// without a read-modify-write of the whole list from the caller's side.
	// Returns ErrTaskNotFound if no task with the given ID exists.
	AppendEvent(ctx context.Context, id uuid.UUID, event domain.Event) error

	// ListTasks returns one implementation-ordered page of tasks plus a
	// token for the next page ("" when exhausted). There is no
	// transactional guarantee across pages; callers re-sort as needed.
	ListTasks(ctx context.Context, limit int, pageToken string) ([]*domain.Task, string, error)
}
