package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valro-hq/valro-api/internal/domain"
	"github.com/valro-hq/valro-api/internal/platform/logger"
	"github.com/valro-hq/valro-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
// Vendors and events are stored as JSONB; event appends happen inside the
// database so concurrent appenders never lose entries.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// Ensure PostgresTaskStore implements store.TaskStore
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// CreateTask persists a task. Replayed creations with the same id are
// upserted, so the write is idempotent.
func (s *PostgresTaskStore) CreateTask(ctx context.Context, t *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	vendors, events, err := marshalTaskJSON(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, description, status, vendors, emails_sent,
			agent_response, error_message, events, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			vendors = EXCLUDED.vendors,
			emails_sent = EXCLUDED.emails_sent,
			agent_response = EXCLUDED.agent_response,
			error_message = EXCLUDED.error_message,
			events = EXCLUDED.events,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		t.ID,
		t.Description,
		t.Status,
		vendors,
		t.EmailsSent,
		t.AgentResponse,
		t.ErrorMessage,
		events,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save task", "task_id", t.ID, "error", err)
		return MapError(err)
	}

	return nil
}

// GetTask retrieves a task by its ID.
func (s *PostgresTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, description, status, vendors, emails_sent,
			agent_response, error_message, events, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if !IsNotFoundError(MapError(err)) {
			log.Error("failed to get task", "task_id", id, "error", err)
		}
		return nil, MapError(err)
	}

	return t, nil
}

// UpdateStatus sets a task's status and error message, refreshing updated_at.
func (s *PostgresTaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	errorMessage string,
) error {
	log := logger.FromContext(ctx)

	if !status.IsValid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus)
	}

	query := `
		UPDATE tasks
		SET status = $1, error_message = NULLIF($2, ''), updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, errorMessage, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", id,
			"status", status,
			"error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: update status", store.ErrTaskNotFound)
	}

	return nil
}

// ClaimTask atomically moves a pending task to processing. It reports whether
// this caller won the claim; losing just means another delivery of the same
// hand-off got there first, or the task already finished.
func (s *PostgresTaskStore) ClaimTask(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusProcessing,
		time.Now().UTC(),
		id,
		domain.TaskStatusPending,
	)
	if err != nil {
		log.Error("failed to claim task", "task_id", id, "error", err)
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return true, nil
	}

	// No row transitioned; distinguish "already claimed" from "missing".
	var exists bool
	err = s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).
		Scan(&exists)
	if err != nil {
		log.Error("failed to check task existence", "task_id", id, "error", err)
		return false, MapError(err)
	}
	if !exists {
		return false, fmt.Errorf("%w: claim", store.ErrTaskNotFound)
	}

	return false, nil
}

// SetAgentResult writes the outcome of a successful agent invocation.
func (s *PostgresTaskStore) SetAgentResult(
	ctx context.Context,
	id uuid.UUID,
	response string,
	vendors []domain.Vendor,
	emailsSent int,
) error {
	log := logger.FromContext(ctx)

	vendorsJSON, err := json.Marshal(vendors)
	if err != nil {
		return fmt.Errorf("failed to marshal vendors: %w", err)
	}

	query := `
		UPDATE tasks
		SET agent_response = $1, vendors = $2, emails_sent = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		response,
		vendorsJSON,
		emailsSent,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to set agent result", "task_id", id, "error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: set agent result", store.ErrTaskNotFound)
	}

	return nil
}

// AppendEvent appends one event to the task's audit trail. The append is a
// single JSONB concatenation in the database, so concurrent appenders cannot
// overwrite each other.
func (s *PostgresTaskStore) AppendEvent(ctx context.Context, id uuid.UUID, event domain.Event) error {
	log := logger.FromContext(ctx)

	eventJSON, err := json.Marshal([]domain.Event{event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	query := `
		UPDATE tasks
		SET events = events || $1::jsonb, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, eventJSON, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to append task event", "task_id", id, "error", err)
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: append event", store.ErrTaskNotFound)
	}

	return nil
}

// ListTasks returns one keyset-paginated page of tasks ordered by id. The
// page token is the last id of the previous page; callers that need a
// client-facing order sort the assembled result themselves.
func (s *PostgresTaskStore) ListTasks(
	ctx context.Context,
	limit int,
	pageToken string,
) ([]*domain.Task, string, error) {
	log := logger.FromContext(ctx)

	if limit <= 0 {
		limit = 100
	}

	afterID := uuid.Nil
	if pageToken != "" {
		parsed, err := uuid.Parse(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("%w: invalid page token", store.ErrInvalidEntity)
		}
		afterID = parsed
	}

	query := `
		SELECT id, description, status, vendors, emails_sent,
			agent_response, error_message, events, created_at, updated_at
		FROM tasks
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		log.Error("failed to list tasks", "error", err)
		return nil, "", MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", "error", err)
			return nil, "", MapError(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", "error", err)
		return nil, "", MapError(err)
	}

	nextToken := ""
	if len(tasks) == limit {
		nextToken = tasks[len(tasks)-1].ID.String()
	}

	return tasks, nextToken, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask reads one task row, decoding the JSONB columns.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t             domain.Task
		vendorsJSON   []byte
		eventsJSON    []byte
		agentResponse sql.NullString
		errorMessage  sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.Description,
		&t.Status,
		&vendorsJSON,
		&t.EmailsSent,
		&agentResponse,
		&errorMessage,
		&eventsJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.AgentResponse = agentResponse.String
	t.ErrorMessage = errorMessage.String

	if err := json.Unmarshal(vendorsJSON, &t.Vendors); err != nil {
		return nil, fmt.Errorf("failed to decode vendors: %w", err)
	}
	if err := json.Unmarshal(eventsJSON, &t.Events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return &t, nil
}

// marshalTaskJSON encodes the task's JSONB columns, normalizing nil slices to
// empty JSON arrays.
func marshalTaskJSON(t *domain.Task) (vendors []byte, events []byte, err error) {
	v := t.Vendors
	if v == nil {
		v = []domain.Vendor{}
	}
	vendors, err = json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal vendors: %w", err)
	}

	e := t.Events
	if e == nil {
		e = []domain.Event{}
	}
	events, err = json.Marshal(e)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal events: %w", err)
	}

	return vendors, events, nil
}
