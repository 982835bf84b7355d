package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the processing state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
)

// EventType categorizes entries in a task's event timeline.
type EventType string

// Possible event types
const (
	EventTypeInfo    EventType = "info"
	EventTypeSuccess EventType = "success"
	EventTypeWarning EventType = "warning"
	EventTypeError   EventType = "error"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskDescription = errors.New("task description cannot be empty")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidTransition    = errors.New("invalid task status transition")
)

// Event is one append-only entry in a task's audit timeline.
// Events are never edited or removed once appended.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Message   string    `json:"message"`
	Type      EventType `json:"type"`
}

// NewEvent creates a timestamped event with the given message and type.
func NewEvent(message string, eventType EventType) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Message:   message,
		Type:      eventType,
	}
}

// EmailRecord captures one outreach email sent to a vendor.
type EmailRecord struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Vendor is a service provider contacted on the user's behalf, together
// with the emails that were sent to it.
type Vendor struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Service string        `json:"service"`
	City    string        `json:"city"`
	Emails  []EmailRecord `json:"emails"`
}

// Task represents one client-submitted home-service request and its
// processing lifecycle. The description is immutable after creation;
// vendors, emails_sent and agent_response are set at most once, when the
// agent collaborator completes successfully.
type Task struct {
	ID            uuid.UUID  `json:"id"`
	Description   string     `json:"description"`
	Status        TaskStatus `json:"status"`
	Vendors       []Vendor   `json:"vendors"`
	EmailsSent    int        `json:"emails_sent"`
	AgentResponse string     `json:"agent_response,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	Events        []Event    `json:"events"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewTask creates a new Task for the given description. It generates a
// fresh UUID, sets the status to pending, and seeds the event timeline
// with a single "created" entry.
// Returns an error if validation fails.
func NewTask(description string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Description: description,
		Status:      TaskStatusPending,
		Vendors:     []Vendor{},
		Events:      []Event{NewEvent("Task created", EventTypeInfo)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Description == "" {
		return ErrEmptyTaskDescription
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// UpdateStatus moves the task to the given status and refreshes the
// UpdatedAt timestamp. Only forward transitions are permitted; completed
// and error are terminal.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !status.IsValid() {
		return ErrInvalidTaskStatus
	}

	if !CanTransition(t.Status, status) {
		return ErrInvalidTransition
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// AppendEvent appends an event to the task's timeline and refreshes the
// UpdatedAt timestamp.
func (t *Task) AppendEvent(event Event) {
	t.Events = append(t.Events, event)
	t.UpdatedAt = time.Now().UTC()
}

// IsTerminal reports whether the status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// CanTransition reports whether the status machine permits moving from
// one status to another. Pending may move to processing or directly to
// error (hand-off failure at intake); processing may move to completed
// or error.
func CanTransition(from, to TaskStatus) bool {
	switch from {
	case TaskStatusPending:
		return to == TaskStatusProcessing || to == TaskStatusError
	case TaskStatusProcessing:
		return to == TaskStatusCompleted || to == TaskStatusError
	default:
		return false
	}
}

// IsValid reports whether the status is one of the defined TaskStatus values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusError:
		return true
	default:
		return false
	}
}
