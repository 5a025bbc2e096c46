package domain

import "time"

// HistoryAction captures what happened in an audit entry.
type HistoryAction string

const (
	ActionStatusChange   HistoryAction = "status_change"
	ActionAssignment     HistoryAction = "assignment"
	ActionPriorityChange HistoryAction = "priority_change"
	ActionSLAAttached    HistoryAction = "sla_attached"
	ActionSLABreached    HistoryAction = "sla_breached"
)

// HistoryEntry is an append-only audit record of an action performed on a
// ticket or issue. The breach sweep writes here too, so the trail covers
// system actions as well as staff ones.
type HistoryEntry struct {
	ID        string
	TicketID  *string
	IssueID   *string
	ActorID   *string
	Action    HistoryAction
	OldValue  map[string]any
	NewValue  map[string]any
	CreatedAt time.Time
}
