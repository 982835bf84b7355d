package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/valro-hq/valro-api/internal/domain"
	"github.com/valro-hq/valro-api/internal/events"
	"github.com/valro-hq/valro-api/internal/store"
	"github.com/valro-hq/valro-api/internal/task"
)

// TaskService provides task intake and read operations.
type TaskService interface {
	// CreateTaskAndEnqueue persists a new pending task and hands it off
	// for background processing. The returned task always carries a valid
	// id, even when the hand-off failed and the task was marked errored.
	CreateTaskAndEnqueue(ctx context.Context, description string) (*domain.Task, error)

	// GetTask retrieves a task by its ID. The id is taken as an opaque
	// string; anything that does not name a stored task yields
	// ErrTaskNotFound.
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	// ListTasks returns all tasks ordered newest-first by creation time.
	ListTasks(ctx context.Context) ([]*domain.Task, error)
}

// Common sentinel errors for TaskService
var (
	// ErrTaskNotFound indicates that the task does not exist
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidDescription indicates that the submitted description
	// failed validation
	ErrInvalidDescription = errors.New("task description is required")
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "list_tasks")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// It returns known sentinel errors directly without wrapping.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTaskNotFound) {
		return ErrTaskNotFound
	}

	if errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// listPageSize is how many tasks each store page fetch requests while
// assembling the full listing.
const listPageSize = 100

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskStore    store.TaskStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskStore cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore:    taskStore,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "task_service"),
	}, nil
}

// CreateTaskAndEnqueue creates a new task with pending status and emits a
// hand-off event for background processing. A failed emit does not undo the
// creation: the task is marked errored and still returned, so the caller
// always receives an id it can poll.
func (s *taskServiceImpl) CreateTaskAndEnqueue(
	ctx context.Context,
	description string,
) (*domain.Task, error) {
	newTask, err := domain.NewTask(description)
	if err != nil {
		s.logger.Warn("rejected task submission", "error", err)
		if errors.Is(err, domain.ErrEmptyTaskDescription) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDescription, err)
		}
		return nil, NewTaskServiceError("create_task", "failed to create task object", err)
	}

	if err := s.taskStore.CreateTask(ctx, newTask); err != nil {
		s.logger.Error("failed to save task",
			"error", err,
			"task_id", newTask.ID)
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	s.logger.Info("task created with pending status", "task_id", newTask.ID)

	event, err := events.NewTaskRequestEvent(task.TypeVendorOutreach, task.OutreachPayload{
		TaskID:      newTask.ID,
		Description: newTask.Description,
	})
	if err != nil {
		return s.failEnqueue(ctx, newTask, err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		return s.failEnqueue(ctx, newTask, err)
	}

	s.appendEvent(ctx, newTask, domain.NewEvent("Task queued for processing", domain.EventTypeInfo))

	s.logger.Info("task hand-off emitted",
		"task_id", newTask.ID,
		"event_id", event.ID)

	return newTask, nil
}

// failEnqueue records a failed hand-off on an already-created task. The task
// row exists and is returned so the client can observe the error state by id.
func (s *taskServiceImpl) failEnqueue(
	ctx context.Context,
	t *domain.Task,
	cause error,
) (*domain.Task, error) {
	s.logger.Error("failed to enqueue task for processing",
		"error", cause,
		"task_id", t.ID)

	message := fmt.Sprintf("Failed to enqueue task: %v", cause)
	if err := s.taskStore.UpdateStatus(ctx, t.ID, domain.TaskStatusError, message); err != nil {
		s.logger.Error("failed to mark task as errored",
			"error", err,
			"task_id", t.ID)
	} else {
		t.Status = domain.TaskStatusError
		t.ErrorMessage = message
	}

	s.appendEvent(ctx, t, domain.NewEvent(message, domain.EventTypeError))

	return t, nil
}

// appendEvent appends an event to the stored task and mirrors it on the
// in-memory copy so the creation response reflects it. Append failures are
// logged; the event timeline is an audit trail, not a correctness mechanism.
func (s *taskServiceImpl) appendEvent(ctx context.Context, t *domain.Task, event domain.Event) {
	if err := s.taskStore.AppendEvent(ctx, t.ID, event); err != nil {
		s.logger.Error("failed to append task event",
			"error", err,
			"task_id", t.ID,
			"event_message", event.Message)
		return
	}
	t.Events = append(t.Events, event)
}

// GetTask retrieves a task by its ID.
func (s *taskServiceImpl) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		// An id that never could have been issued reads the same as one
		// that was never stored.
		s.logger.Debug("lookup with malformed task id", "task_id", id)
		return nil, ErrTaskNotFound
	}

	t, err := s.taskStore.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to retrieve task",
			"error", err,
			"task_id", taskID)
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}

	return t, nil
}

// ListTasks returns all tasks, newest first. The store pages in its own
// order; ordering for clients is applied here.
func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	pageToken := ""

	for {
		page, nextToken, err := s.taskStore.ListTasks(ctx, listPageSize, pageToken)
		if err != nil {
			s.logger.Error("failed to list tasks", "error", err)
			return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
		}

		tasks = append(tasks, page...)
		if nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	return tasks, nil
}
