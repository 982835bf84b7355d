package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valro-hq/valro-api/internal/platform/logger"
	"github.com/valro-hq/valro-api/internal/store"
	"github.com/valro-hq/valro-api/internal/task"
)

// PostgresJobStore implements the task.JobStore interface using PostgreSQL.
// The persisted rows are what make the hand-off recoverable across restarts.
type PostgresJobStore struct {
	db store.DBTX
}

// NewPostgresJobStore creates a new PostgresJobStore
func NewPostgresJobStore(db store.DBTX) *PostgresJobStore {
	return &PostgresJobStore{
		db: db,
	}
}

// Ensure PostgresJobStore implements task.JobStore
var _ task.JobStore = (*PostgresJobStore)(nil)

// SaveJob persists a job before it enters the in-memory queue.
func (s *PostgresJobStore) SaveJob(ctx context.Context, t task.Task) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO outreach_jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save job",
			"job_id", t.ID(),
			"job_type", t.Type(),
			"error", err)
		return MapError(err)
	}

	return nil
}

// UpdateJobStatus updates the status of a persisted job. A missing job is a
// no-op: the row may have been cleaned up while the in-memory copy was still
// in flight.
func (s *PostgresJobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status task.Status,
	errorMsg string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE outreach_jobs
		SET status = $1, error_message = NULLIF($2, ''), updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), jobID)
	if err != nil {
		log.Error("failed to update job status",
			"job_id", jobID,
			"status", status,
			"error", err)
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Warn("no job found to update status", "job_id", jobID)
	}

	return nil
}

// ListQueuedJobs retrieves all jobs with "queued" status.
func (s *PostgresJobStore) ListQueuedJobs(ctx context.Context) ([]task.JobRecord, error) {
	return s.listByStatus(ctx, task.StatusQueued, 0)
}

// ListProcessingJobs retrieves jobs with "processing" status, optionally
// restricted to those last touched before the given age.
func (s *PostgresJobStore) ListProcessingJobs(
	ctx context.Context,
	olderThan time.Duration,
) ([]task.JobRecord, error) {
	return s.listByStatus(ctx, task.StatusProcessing, olderThan)
}

// listByStatus fetches job records by status with an optional age filter.
func (s *PostgresJobStore) listByStatus(
	ctx context.Context,
	status task.Status,
	olderThan time.Duration,
) ([]task.JobRecord, error) {
	log := logger.FromContext(ctx)

	var (
		query string
		args  []interface{}
	)

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM outreach_jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM outreach_jobs
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status", "status", status, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []task.JobRecord
	for rows.Next() {
		var (
			record       task.JobRecord
			errorMessage sql.NullString
		)
		if err := rows.Scan(
			&record.ID,
			&record.Type,
			&record.Payload,
			&record.Status,
			&errorMessage,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			log.Error("failed to scan job row", "status", status, "error", err)
			return nil, MapError(err)
		}
		record.ErrorMessage = errorMessage.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows", "status", status, "error", err)
		return nil, MapError(err)
	}

	return records, nil
}
