package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusAssigned   TicketStatus = "assigned"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Ticket is the actionable unit of work derived from a citizen issue.
type Ticket struct {
	ID           string
	TicketNumber string
	IssueID      string
	DepartmentID string
	AssignedTo   *string
	Priority     TicketPriority
	Status       TicketStatus
	DueDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SLASettled reports whether the ticket reached a state that stops
// resolution-deadline tracking.
func (s TicketStatus) SLASettled() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// ValidTicketPriority reports whether p is a known priority value.
func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}
