package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/valro-hq/valro-api/internal/api/shared"
	"github.com/valro-hq/valro-api/internal/domain"
	"github.com/valro-hq/valro-api/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// CreateTask handles POST /tasks requests. It responds 202 Accepted with the
// task id: processing happens in the background and the client polls for the
// outcome. A hand-off failure still yields a 202 carrying the id of the
// now-errored task.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Description is required")
		return
	}

	task, err := h.taskService.CreateTaskAndEnqueue(r.Context(), req.Description)
	if err != nil {
		slog.Error("failed to create task", "error", err)
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	message := "Task queued for processing"
	if task.Status == domain.TaskStatusError {
		message = "Task created but could not be queued for processing"
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, CreateTaskResponse{
		ID:      task.ID.String(),
		Status:  string(task.Status),
		Message: message,
	})
}

// ListTasks handles GET /tasks requests, returning all tasks newest-first.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListTasks(r.Context())
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		response = append(response, taskToDTOResponse(t))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	task, err := h.taskService.GetTask(r.Context(), taskID)
	if err != nil {
		status := MapErrorToStatusCode(err)
		if status == http.StatusNotFound {
			shared.RespondWithJSON(w, r, http.StatusNotFound, NotFoundResponse{
				Error:  "Task not found",
				TaskID: taskID,
			})
			return
		}
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToDTOResponse(task))
}
