package agentstub

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// invokeRequest is the runtime wire format for one turn request.
type invokeRequest struct {
	Prompt string `json:"prompt"`
}

// errorResponse is the wire format for a failed turn.
type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the runtime wire protocol over HTTP.
type Handler struct {
	agent  *Agent
	logger *slog.Logger
}

// NewHandler creates an HTTP handler backed by the given stub agent.
func NewHandler(agent *Agent, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		agent:  agent,
		logger: logger.With("component", "agent_stub_handler"),
	}
}

// Invoke handles POST / requests carrying {"prompt": ...} and responds with
// the turn result in the runtime wire format.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "Invalid request format"})
		return
	}
	if req.Prompt == "" {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "Prompt is required"})
		return
	}

	result, err := h.agent.RunTurn(r.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("agent turn failed", "error", err)
		h.respond(w, http.StatusInternalServerError, errorResponse{Error: "Agent turn failed"})
		return
	}

	h.respond(w, http.StatusOK, result)
}

func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
