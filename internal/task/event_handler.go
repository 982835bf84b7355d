package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/valro-hq/valro-api/internal/events"
)

// OutreachEventHandler implements the events.EventHandler interface: it
// turns task hand-off events into outreach jobs and submits them to the
// runner. This is the seam between synchronous intake and background
// processing.
type OutreachEventHandler struct {
	factory *OutreachTaskFactory
	runner  *Runner
	logger  *slog.Logger
}

// NewOutreachEventHandler creates a new event handler that uses the given
// factory to build jobs and submits them to the provided runner.
func NewOutreachEventHandler(
	factory *OutreachTaskFactory,
	runner *Runner,
	logger *slog.Logger,
) *OutreachEventHandler {
	return &OutreachEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "outreach_event_handler"),
	}
}

// HandleEvent processes a hand-off event by creating and submitting an
// outreach job. Events of other types are ignored without error so the
// emitter can fan out to multiple handlers.
func (h *OutreachEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != TypeVendorOutreach {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload OutreachPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.TaskID == uuid.Nil {
		h.logger.Error("event payload has no task id", "event_id", event.ID)
		return fmt.Errorf("event payload has no task id: %w", ErrEmptyTaskID)
	}

	job, err := h.factory.CreateTask(payload.TaskID, payload.Description)
	if err != nil {
		h.logger.Error("failed to create outreach job",
			"error", err,
			"task_id", payload.TaskID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create outreach job: %w", err)
	}

	if err := h.runner.Submit(ctx, job); err != nil {
		h.logger.Error("failed to submit outreach job",
			"error", err,
			"job_id", job.ID(),
			"task_id", payload.TaskID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit outreach job: %w", err)
	}

	h.logger.Info("outreach job submitted",
		"job_id", job.ID(),
		"task_id", payload.TaskID,
		"event_id", event.ID)
	return nil
}

// Ensure OutreachEventHandler implements events.EventHandler
var _ events.EventHandler = (*OutreachEventHandler)(nil)
