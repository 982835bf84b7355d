package api

import (
	"time"

	"github.com/valro-hq/valro-api/internal/domain"
)

// Common request/response structures

// CreateTaskRequest defines the payload for the task creation endpoint.
type CreateTaskRequest struct {
	Description string `json:"description" validate:"required,min=1"`
}

// CreateTaskResponse defines the acknowledgement returned by task creation.
// Processing happens asynchronously; the client polls by id.
type CreateTaskResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// EventResponse is one entry of a task's audit trail.
type EventResponse struct {
	Timestamp time.Time `json:"ts"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
}

// EmailResponse is one outreach email recorded against a vendor.
type EmailResponse struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// VendorResponse is one vendor the agent contacted for a task.
type VendorResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Service string          `json:"service"`
	City    string          `json:"city"`
	Emails  []EmailResponse `json:"emails"`
}

// TaskResponse is the full task representation returned by the read endpoints.
type TaskResponse struct {
	ID            string           `json:"id"`
	Description   string           `json:"description"`
	Status        string           `json:"status"`
	Vendors       []VendorResponse `json:"vendors"`
	EmailsSent    int              `json:"emails_sent"`
	AgentResponse string           `json:"agent_response,omitempty"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	Events        []EventResponse  `json:"events"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NotFoundResponse is the body of a 404 on task lookup. It echoes the
// requested id so frontends can reconcile racing polls.
type NotFoundResponse struct {
	Error  string `json:"error"`
	TaskID string `json:"task_id"`
}

// taskToDTOResponse converts a domain.Task to a TaskResponse
func taskToDTOResponse(t *domain.Task) TaskResponse {
	vendors := make([]VendorResponse, 0, len(t.Vendors))
	for _, v := range t.Vendors {
		vendors = append(vendors, vendorToDTOResponse(v))
	}

	events := make([]EventResponse, 0, len(t.Events))
	for _, e := range t.Events {
		events = append(events, EventResponse{
			Timestamp: e.Timestamp,
			Message:   e.Message,
			Type:      string(e.Type),
		})
	}

	return TaskResponse{
		ID:            t.ID.String(),
		Description:   t.Description,
		Status:        string(t.Status),
		Vendors:       vendors,
		EmailsSent:    t.EmailsSent,
		AgentResponse: t.AgentResponse,
		ErrorMessage:  t.ErrorMessage,
		Events:        events,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// vendorToDTOResponse converts a domain.Vendor to a VendorResponse
func vendorToDTOResponse(v domain.Vendor) VendorResponse {
	emails := make([]EmailResponse, 0, len(v.Emails))
	for _, e := range v.Emails {
		emails = append(emails, EmailResponse{
			Recipient: e.Recipient,
			Subject:   e.Subject,
			Body:      e.Body,
			Timestamp: e.Timestamp,
		})
	}

	return VendorResponse{
		ID:      v.ID,
		Name:    v.Name,
		Email:   v.Email,
		Service: v.Service,
		City:    v.City,
		Emails:  emails,
	}
}
