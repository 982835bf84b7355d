package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/valro-hq/valro-api/internal/domain"
	"github.com/valro-hq/valro-api/internal/store"
)

// Common errors
var (
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilInvoker   = errors.New("agent invoker cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyTaskID  = errors.New("task ID cannot be empty")
	ErrEmptyPrompt  = errors.New("task description cannot be empty")
)

// OutreachTask drives one submitted task through its lifecycle: claim it
// out of pending, invoke the agent collaborator exactly once, and record
// the outcome. Any failure of the agent call is terminal for the task;
// there is no retry and no per-vendor partial success.
type OutreachTask struct {
	id          uuid.UUID
	taskID      uuid.UUID
	description string
	tasks       TaskStore
	invoker     AgentInvoker
	logger      *slog.Logger
	status      Status
}

// NewOutreachTask creates a new outreach job for the given task.
// Both the task ID and the description must be non-empty; validation
// failures leave no trace in the store.
func NewOutreachTask(
	taskID uuid.UUID,
	description string,
	tasks TaskStore,
	invoker AgentInvoker,
	logger *slog.Logger,
) (*OutreachTask, error) {
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if invoker == nil {
		return nil, ErrNilInvoker
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if taskID == uuid.Nil {
		return nil, ErrEmptyTaskID
	}
	if description == "" {
		return nil, ErrEmptyPrompt
	}

	return &OutreachTask{
		id:          uuid.New(),
		taskID:      taskID,
		description: description,
		tasks:       tasks,
		invoker:     invoker,
		logger:      logger.With("job_type", TypeVendorOutreach, "task_id", taskID),
		status:      StatusQueued,
	}, nil
}

// ID returns the job's unique identifier
func (t *OutreachTask) ID() uuid.UUID {
	return t.id
}

// Type returns the job type identifier
func (t *OutreachTask) Type() string {
	return TypeVendorOutreach
}

// Payload returns the job data as a byte slice
func (t *OutreachTask) Payload() []byte {
	data, err := json.Marshal(OutreachPayload{
		TaskID:      t.taskID,
		Description: t.description,
	})
	if err != nil {
		t.logger.Error("failed to marshal job payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current job status
func (t *OutreachTask) Status() Status {
	return t.status
}

// Execute runs the outreach job: look the task up, claim it
// (pending -> processing), call the agent runtime, correlate the emails
// it sent to the vendors it found, and write the result. A task that is
// missing produces no side effects; a task already claimed by an earlier
// delivery of the same hand-off is skipped.
func (t *OutreachTask) Execute(ctx context.Context) error {
	t.status = StatusProcessing
	t.logger.Info("starting vendor outreach")

	if err := ctx.Err(); err != nil {
		t.status = StatusFailed
		return fmt.Errorf("job cancelled by context: %w", err)
	}

	record, err := t.tasks.GetTask(ctx, t.taskID)
	if err != nil {
		t.status = StatusFailed
		if errors.Is(err, store.ErrTaskNotFound) {
			t.logger.Error("task not found, nothing to process")
			return fmt.Errorf("task %s: %w", t.taskID, err)
		}
		t.logger.Error("failed to retrieve task", "error", err)
		return fmt.Errorf("failed to retrieve task: %w", err)
	}

	claimed, err := t.tasks.ClaimTask(ctx, t.taskID)
	if err != nil {
		t.status = StatusFailed
		t.logger.Error("failed to claim task", "error", err)
		return fmt.Errorf("failed to claim task: %w", err)
	}
	if !claimed {
		// A redelivered hand-off for a task that was already claimed or
		// has reached a terminal state. Idempotent no-op.
		t.status = StatusCompleted
		t.logger.Info("task already claimed, skipping", "task_status", record.Status)
		return nil
	}

	t.appendEvent(ctx, domain.NewEvent("Agent processing started", domain.EventTypeInfo))

	result, err := t.invoker.InvokeAgent(ctx, t.description)
	if err != nil {
		t.logger.Error("agent invocation failed", "error", err)
		t.recordTaskError(ctx, fmt.Sprintf("Agent error: %v", err))
		t.status = StatusFailed
		return fmt.Errorf("agent invocation failed: %w", err)
	}

	vendors := correlateVendorEmails(result.Vendors, result.Emails)

	if err := t.tasks.SetAgentResult(ctx, t.taskID, result.Response, vendors, result.EmailsSent); err != nil {
		t.logger.Error("failed to record agent result", "error", err)
		t.recordTaskError(ctx, fmt.Sprintf("Failed to record agent result: %v", err))
		t.status = StatusFailed
		return fmt.Errorf("failed to record agent result: %w", err)
	}

	if err := t.tasks.UpdateStatus(ctx, t.taskID, domain.TaskStatusCompleted, ""); err != nil {
		t.logger.Error("failed to mark task completed", "error", err)
		t.recordTaskError(ctx, fmt.Sprintf("Failed to mark task completed: %v", err))
		t.status = StatusFailed
		return fmt.Errorf("failed to mark task completed: %w", err)
	}

	t.appendEvent(ctx, domain.NewEvent("Agent completed task successfully", domain.EventTypeSuccess))

	t.status = StatusCompleted
	t.logger.Info("vendor outreach completed",
		"vendors", len(vendors),
		"emails_sent", result.EmailsSent)
	return nil
}

// appendEvent appends an informational event, logging on failure. The
// event timeline is an audit trail; losing one entry must not fail the job.
func (t *OutreachTask) appendEvent(ctx context.Context, event domain.Event) {
	if err := t.tasks.AppendEvent(ctx, t.taskID, event); err != nil {
		t.logger.Error("failed to append task event",
			"event_message", event.Message,
			"error", err)
	}
}

// recordTaskError best-effort marks the task as errored after the agent
// outcome is already determined. If even these writes fail, the outcome
// is unobservable to the client beyond whatever partial state persisted,
// so log and move on.
func (t *OutreachTask) recordTaskError(ctx context.Context, message string) {
	if err := t.tasks.UpdateStatus(ctx, t.taskID, domain.TaskStatusError, message); err != nil {
		t.logger.Error("failed to record task error state", "error", err)
		return
	}
	t.appendEvent(ctx, domain.NewEvent(message, domain.EventTypeError))
}

// correlateVendorEmails attaches, to each vendor, the subsequence of
// emails whose recipient equals that vendor's address. The join preserves
// email order, does not dedup, and makes no ordering promise between
// vendors that share an address.
func correlateVendorEmails(vendors []domain.Vendor, emails []domain.EmailRecord) []domain.Vendor {
	out := make([]domain.Vendor, len(vendors))
	for i, vendor := range vendors {
		matched := []domain.EmailRecord{}
		for _, email := range emails {
			if email.Recipient == vendor.Email {
				matched = append(matched, email)
			}
		}
		vendor.Emails = matched
		out[i] = vendor
	}
	return out
}
