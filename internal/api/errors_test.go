package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valro-hq/valro-api/internal/domain"
	"github.com/valro-hq/valro-api/internal/service"
	"github.com/valro-hq/valro-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "service_task_not_found",
			err:  service.ErrTaskNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "store_task_not_found",
			err:  store.ErrTaskNotFound,
			want: http.StatusNotFound,
		},
		{
			name: "wrapped_not_found",
			err:  fmt.Errorf("lookup: %w", service.ErrTaskNotFound),
			want: http.StatusNotFound,
		},
		{
			name: "invalid_description",
			err:  service.ErrInvalidDescription,
			want: http.StatusBadRequest,
		},
		{
			name: "empty_description_domain_error",
			err:  domain.ErrEmptyTaskDescription,
			want: http.StatusBadRequest,
		},
		{
			name: "invalid_entity",
			err:  store.ErrInvalidEntity,
			want: http.StatusBadRequest,
		},
		{
			name: "store_unavailable",
			err:  store.ErrStoreUnavailable,
			want: http.StatusInternalServerError,
		},
		{
			name: "unknown_error",
			err:  errors.New("something broke"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil_error",
			err:  nil,
			want: "An unexpected error occurred",
		},
		{
			name: "task_not_found",
			err:  service.ErrTaskNotFound,
			want: "Task not found",
		},
		{
			name: "invalid_description",
			err:  service.ErrInvalidDescription,
			want: "Description is required",
		},
		{
			name: "invalid_entity",
			err:  store.ErrInvalidEntity,
			want: "Invalid task data",
		},
		{
			name: "store_unavailable",
			err:  store.ErrStoreUnavailable,
			want: "Service temporarily unavailable",
		},
		{
			name: "unknown_error_hides_detail",
			err:  errors.New("pq: connection refused on db.internal:5432"),
			want: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Run("extracts_field_and_tag", func(t *testing.T) {
		err := errors.New(
			"Key: 'CreateTaskRequest.Description' Error:Field validation for 'Description' failed on the 'required' tag")
		got := SanitizeValidationError(err)
		assert.Equal(t, "Invalid Description: required field", got)
	})

	t.Run("non_validation_error_is_generic", func(t *testing.T) {
		got := SanitizeValidationError(errors.New("some internal failure at /srv/app"))
		assert.Equal(t, "Validation error", got)
		assert.NotContains(t, got, "/srv/app")
	})
}
