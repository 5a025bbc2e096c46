package domain

import "time"

// Feedback is a citizen rating for one resolved or closed ticket. At most one
// record exists per (ticket, citizen).
type Feedback struct {
	ID        string
	TicketID  string
	CitizenID string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
