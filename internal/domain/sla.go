package domain

import "time"

// SLAPolicy maps a (category, priority) pair to promised response and
// resolution windows. At most one policy exists per pair. The interval
// strings use the shared grammar understood by ParseInterval.
type SLAPolicy struct {
	ID             string
	CategoryID     string
	Priority       TicketPriority
	ResponseTime   string
	ResolutionTime string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ResolvedPolicy is an SLA policy reduced to concrete durations, ready for
// deadline arithmetic. Fallback policies derived from a category default are
// represented here too, so callers and tests can observe which budget was
// applied.
type ResolvedPolicy struct {
	PolicyID   *string
	Source     PolicySource
	Response   time.Duration
	Resolution time.Duration
}

// PolicySource records where a resolved policy came from.
type PolicySource string

const (
	PolicySourceConfigured      PolicySource = "configured"
	PolicySourceCategoryDefault PolicySource = "category_default"
)

// TicketSLARecord pins resolved deadlines to one ticket. Due timestamps are
// fixed when the record is written; Breached only ever moves false -> true.
type TicketSLARecord struct {
	ID            string
	TicketID      string
	PolicyID      *string
	ResponseDue   time.Time
	ResolutionDue time.Time
	Breached      bool
	CreatedAt     time.Time
}

// BreachType distinguishes which promised window was missed.
type BreachType string

const (
	BreachTypeResponse   BreachType = "response_time"
	BreachTypeResolution BreachType = "resolution_time"
)

// BreachEvent describes one ticket whose deadline passed while the ticket
// had not reached the required status.
type BreachEvent struct {
	TicketID      string       `json:"ticket_id"`
	TicketNumber  string       `json:"ticket_number"`
	Types         []BreachType `json:"breach_types"`
	ResponseDue   time.Time    `json:"response_due"`
	ResolutionDue time.Time    `json:"resolution_due"`
	CurrentStatus TicketStatus `json:"current_status"`
}

// BreachReport is the outcome of one sweep. Failed lists tickets whose
// records could not be marked; they stay unbreached and are retried on the
// next sweep.
type BreachReport struct {
	SweptAt time.Time      `json:"swept_at"`
	Events  []BreachEvent  `json:"events"`
	Updated int            `json:"updated"`
	Failed  []SweepFailure `json:"failed,omitempty"`
}

// SweepFailure records a single record that could not be updated.
type SweepFailure struct {
	TicketID string `json:"ticket_id"`
	Reason   string `json:"reason"`
}
