package events

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventIssueCreated        EventType = "issue_created"
	EventSLABreachDetected   EventType = "sla_breach_detected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID     string                `json:"ticket_id"`
	TicketNumber string                `json:"ticket_number"`
	IssueID      string                `json:"issue_id"`
	DepartmentID string                `json:"department_id"`
	Priority     domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  string              `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketID     string  `json:"ticket_id"`
	AssignedTo   *string `json:"assigned_to,omitempty"`
	DepartmentID string  `json:"department_id"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	IssueID    string `json:"issue_id"`
	CategoryID string `json:"category_id"`
	ReporterID string `json:"reporter_id"`
}

// SLABreachDetectedPayload carries one sweep's findings to the escalation
// collaborator. The detector itself never notifies anyone.
type SLABreachDetectedPayload struct {
	Report domain.BreachReport `json:"report"`
}
