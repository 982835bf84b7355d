package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valro-hq/valro-api/internal/domain"
	"github.com/valro-hq/valro-api/internal/service"
)

// stubTaskService returns canned values for each TaskService operation.
type stubTaskService struct {
	createTask *domain.Task
	createErr  error
	getTask    *domain.Task
	getErr     error
	listTasks  []*domain.Task
	listErr    error

	createdWith string
}

func (s *stubTaskService) CreateTaskAndEnqueue(ctx context.Context, description string) (*domain.Task, error) {
	s.createdWith = description
	return s.createTask, s.createErr
}

func (s *stubTaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.getTask, s.getErr
}

func (s *stubTaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.listTasks, s.listErr
}

func newTestRouter(svc service.TaskService) http.Handler {
	handler := NewTaskHandler(svc)
	r := chi.NewRouter()
	r.Post("/tasks", handler.CreateTask)
	r.Get("/tasks", handler.ListTasks)
	r.Get("/tasks/{id}", handler.GetTask)
	return r
}

func mustNewTask(t *testing.T, description string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(description)
	require.NoError(t, err)
	return task
}

func TestCreateTaskHandler(t *testing.T) {
	t.Run("returns_202_with_task_id", func(t *testing.T) {
		task := mustNewTask(t, "Find me a plumber in Austin")
		svc := &stubTaskService{createTask: task}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"description": "Find me a plumber in Austin"}`)
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", body))

		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "Find me a plumber in Austin", svc.createdWith)

		var resp CreateTaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, task.ID.String(), resp.ID)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "Task queued for processing", resp.Message)
	})

	t.Run("handoff_failure_still_returns_202", func(t *testing.T) {
		task := mustNewTask(t, "Find me a plumber")
		task.Status = domain.TaskStatusError
		task.ErrorMessage = "Failed to enqueue task"
		svc := &stubTaskService{createTask: task}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"description": "Find me a plumber"}`)
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", body))

		require.Equal(t, http.StatusAccepted, w.Code)

		var resp CreateTaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, task.ID.String(), resp.ID)
		assert.Equal(t, "error", resp.Status)
		assert.Contains(t, resp.Message, "could not be queued")
	})

	t.Run("malformed_body_is_400", func(t *testing.T) {
		router := newTestRouter(&stubTaskService{})

		w := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"description": `)
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing_description_is_400", func(t *testing.T) {
		router := newTestRouter(&stubTaskService{})

		w := httptest.NewRecorder()
		body := bytes.NewBufferString(`{}`)
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", body))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Description is required")
	})

	t.Run("validation_rejection_from_service_is_400", func(t *testing.T) {
		svc := &stubTaskService{createErr: service.ErrInvalidDescription}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"description": " "}`)
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store_failure_is_500_without_detail", func(t *testing.T) {
		svc := &stubTaskService{createErr: errors.New("pq: connection refused on db.internal:5432")}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"description": "Find me a plumber"}`)
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", body))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db.internal")
		assert.Contains(t, w.Body.String(), "An unexpected error occurred")
	})
}

func TestListTasksHandler(t *testing.T) {
	t.Run("returns_task_array", func(t *testing.T) {
		newer := mustNewTask(t, "newer task")
		newer.CreatedAt = time.Now().UTC()
		older := mustNewTask(t, "older task")
		older.CreatedAt = newer.CreatedAt.Add(-time.Hour)

		svc := &stubTaskService{listTasks: []*domain.Task{newer, older}}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp []TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "newer task", resp[0].Description)
		assert.Equal(t, "older task", resp[1].Description)
	})

	t.Run("empty_list_is_json_array_not_null", func(t *testing.T) {
		router := newTestRouter(&stubTaskService{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("service_failure_is_500", func(t *testing.T) {
		svc := &stubTaskService{listErr: errors.New("store unavailable")}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetTaskHandler(t *testing.T) {
	t.Run("returns_full_task", func(t *testing.T) {
		task := mustNewTask(t, "Find me a landscaper in Charlotte")
		task.Status = domain.TaskStatusCompleted
		task.AgentResponse = "Outreach sent to 2 vendors."
		task.EmailsSent = 2
		task.Vendors = []domain.Vendor{{
			ID:      "vendor_1",
			Name:    "Greenline Lawn",
			Email:   "quotes@greenline.example.com",
			Service: "landscaping",
			City:    "Charlotte",
			Emails: []domain.EmailRecord{{
				Recipient: "quotes@greenline.example.com",
				Subject:   "Quote request",
			}},
		}}

		svc := &stubTaskService{getTask: task}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, task.ID.String(), resp.ID)
		assert.Equal(t, "completed", resp.Status)
		assert.Equal(t, "Outreach sent to 2 vendors.", resp.AgentResponse)
		assert.Equal(t, 2, resp.EmailsSent)
		require.Len(t, resp.Vendors, 1)
		assert.Len(t, resp.Vendors[0].Emails, 1)
		require.NotEmpty(t, resp.Events)
		assert.Equal(t, "Task created", resp.Events[0].Message)
	})

	t.Run("unknown_id_is_404_with_task_id_echo", func(t *testing.T) {
		svc := &stubTaskService{getErr: service.ErrTaskNotFound}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/does-not-exist", nil))

		require.Equal(t, http.StatusNotFound, w.Code)

		var resp NotFoundResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Task not found", resp.Error)
		assert.Equal(t, "does-not-exist", resp.TaskID)
	})

	t.Run("service_failure_is_500", func(t *testing.T) {
		svc := &stubTaskService{getErr: errors.New("store unavailable")}
		router := newTestRouter(svc)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/abc", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
