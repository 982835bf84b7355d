package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// OutreachTaskFactory creates OutreachTask instances with their
// dependencies wired in. The hand-off event handler uses it for fresh
// submissions and the runner uses it to revive persisted jobs.
type OutreachTaskFactory struct {
	tasks   TaskStore
	invoker AgentInvoker
	logger  *slog.Logger
}

// NewOutreachTaskFactory creates a new task factory
func NewOutreachTaskFactory(
	tasks TaskStore,
	invoker AgentInvoker,
	logger *slog.Logger,
) *OutreachTaskFactory {
	return &OutreachTaskFactory{
		tasks:   tasks,
		invoker: invoker,
		logger:  logger,
	}
}

// CreateTask creates a new outreach job for the given task.
func (f *OutreachTaskFactory) CreateTask(taskID uuid.UUID, description string) (Task, error) {
	return NewOutreachTask(taskID, description, f.tasks, f.invoker, f.logger)
}

// ReviveTask rebuilds an outreach job from a persisted record, keeping
// the record's job id so status updates land on the original row.
func (f *OutreachTaskFactory) ReviveTask(record JobRecord) (Task, error) {
	if record.Type != TypeVendorOutreach {
		return nil, fmt.Errorf("unsupported job type %q", record.Type)
	}

	var payload OutreachPayload
	if err := json.Unmarshal(record.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode job payload: %w", err)
	}

	job, err := NewOutreachTask(payload.TaskID, payload.Description, f.tasks, f.invoker, f.logger)
	if err != nil {
		return nil, err
	}
	job.id = record.ID
	return job, nil
}
