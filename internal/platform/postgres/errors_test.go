package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valro-hq/valro-api/internal/platform/postgres"
	"github.com/valro-hq/valro-api/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{
			name:     "nil_error",
			err:      nil,
			sentinel: nil,
		},
		{
			name:     "no_rows_is_task_not_found",
			err:      sql.ErrNoRows,
			sentinel: store.ErrTaskNotFound,
		},
		{
			name:     "wrapped_no_rows",
			err:      fmt.Errorf("query: %w", sql.ErrNoRows),
			sentinel: store.ErrTaskNotFound,
		},
		{
			name:     "check_violation_is_invalid_entity",
			err:      &pgconn.PgError{Code: "23514", ConstraintName: "tasks_status_check"},
			sentinel: store.ErrInvalidEntity,
		},
		{
			name:     "not_null_violation_is_invalid_entity",
			err:      &pgconn.PgError{Code: "23502", ColumnName: "description"},
			sentinel: store.ErrInvalidEntity,
		},
		{
			name:     "invalid_text_representation_is_invalid_entity",
			err:      &pgconn.PgError{Code: "22P02"},
			sentinel: store.ErrInvalidEntity,
		},
		{
			name:     "connection_failure_is_store_unavailable",
			err:      errors.New("dial tcp: connection refused"),
			sentinel: store.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := postgres.MapError(tt.err)
			if tt.sentinel == nil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.sentinel)
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, postgres.IsNotFoundError(sql.ErrNoRows))
	assert.True(t, postgres.IsNotFoundError(store.ErrTaskNotFound))
	assert.True(t, postgres.IsNotFoundError(fmt.Errorf("get: %w", store.ErrNotFound)))
	assert.False(t, postgres.IsNotFoundError(errors.New("other failure")))
	assert.False(t, postgres.IsNotFoundError(nil))
}

// fakeResult implements sql.Result with a fixed rows-affected count.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Run("rows_affected_passes", func(t *testing.T) {
		assert.NoError(t, postgres.CheckRowsAffected(fakeResult{rows: 1}, "task"))
	})

	t.Run("zero_rows_is_not_found", func(t *testing.T) {
		err := postgres.CheckRowsAffected(fakeResult{rows: 0}, "task")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "task")
	})

	t.Run("rows_affected_error_is_propagated", func(t *testing.T) {
		err := postgres.CheckRowsAffected(fakeResult{err: errors.New("driver error")}, "task")
		require.Error(t, err)
		assert.NotErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("nil_result_is_error", func(t *testing.T) {
		assert.Error(t, postgres.CheckRowsAffected(nil, "task"))
	})
}
