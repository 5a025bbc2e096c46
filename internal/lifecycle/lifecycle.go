// Package lifecycle holds the shared status-transition validator for tickets
// and issues. Both entities follow the same table-driven shape with different
// vocabularies; callers reject any edge not in the table before writing.
package lifecycle

import "github.com/spec-kit/grievance-service/internal/domain"

// Machine validates transitions over one status vocabulary.
type Machine[S ~string] struct {
	edges map[S][]S
}

// NewMachine builds a validator from an adjacency table.
func NewMachine[S ~string](edges map[S][]S) *Machine[S] {
	return &Machine[S]{edges: edges}
}

// CanTransition reports whether current -> next is an allowed edge. Unknown
// current states have no outgoing edges.
func (m *Machine[S]) CanTransition(current, next S) bool {
	for _, candidate := range m.edges[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Known reports whether s appears in the table at all.
func (m *Machine[S]) Known(s S) bool {
	_, ok := m.edges[s]
	return ok
}

// Tickets validates ticket status transitions. Administrative closure is
// allowed from every non-terminal state; resolved tickets may be reopened
// back to in_progress.
func Tickets() *Machine[domain.TicketStatus] {
	return NewMachine(map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusOpen:       {domain.TicketStatusAssigned, domain.TicketStatusClosed},
		domain.TicketStatusAssigned:   {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
		domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusClosed},
		domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
		domain.TicketStatusClosed:     {},
	})
}

// Issues validates issue status transitions. Open and in-progress issues may
// be cancelled; closed and cancelled are terminal.
func Issues() *Machine[domain.IssueStatus] {
	return NewMachine(map[domain.IssueStatus][]domain.IssueStatus{
		domain.IssueStatusOpen:       {domain.IssueStatusInProgress, domain.IssueStatusClosed, domain.IssueStatusCancelled},
		domain.IssueStatusInProgress: {domain.IssueStatusResolved, domain.IssueStatusClosed, domain.IssueStatusCancelled},
		domain.IssueStatusResolved:   {domain.IssueStatusClosed, domain.IssueStatusInProgress},
		domain.IssueStatusClosed:     {},
		domain.IssueStatusCancelled:  {},
	})
}
