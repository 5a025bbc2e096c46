package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	IssueID      string                `json:"issue_id" validate:"required,uuid4"`
	DepartmentID string                `json:"department_id" validate:"required,uuid4"`
	Priority     domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate      *time.Time            `json:"due_date,omitempty"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status  domain.TicketStatus `json:"status" validate:"required,oneof=open assigned in_progress resolved closed"`
	Comment string              `json:"comment,omitempty"`
}

// UpdateTicketPriorityRequest payload.
type UpdateTicketPriorityRequest struct {
	Priority domain.TicketPriority `json:"priority" validate:"required,oneof=low medium high urgent"`
}

// AssignTicketRequest payload. A nil assigned_to clears the assignee while
// keeping the department routing.
type AssignTicketRequest struct {
	AssignedTo   *string `json:"assigned_to" validate:"omitempty,uuid4"`
	DepartmentID string  `json:"department_id" validate:"required,uuid4"`
}

// SubmitFeedbackRequest payload.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	IssueID      string                `json:"issue_id"`
	DepartmentID string                `json:"department_id"`
	AssignedTo   *string               `json:"assigned_to,omitempty"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	DueDate      *time.Time            `json:"due_date,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// FeedbackResponse is the public view of a rating.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	CitizenID string    `json:"citizen_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		IssueID:      ticket.IssueID,
		DepartmentID: ticket.DepartmentID,
		AssignedTo:   ticket.AssignedTo,
		Priority:     ticket.Priority,
		Status:       ticket.Status,
		DueDate:      ticket.DueDate,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

// NewFeedbackResponse maps a domain feedback record.
func NewFeedbackResponse(feedback *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        feedback.ID,
		TicketID:  feedback.TicketID,
		CitizenID: feedback.CitizenID,
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt,
	}
}
