package domain

import "time"

// IssueStatus enumerates lifecycle states for citizen-reported issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
	IssueStatusCancelled  IssueStatus = "cancelled"
)

// GeoPoint is an optional location attached to an issue.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Issue is a problem reported by a citizen. Tickets are raised against it.
type Issue struct {
	ID          string
	ReporterID  string
	Title       string
	Description string
	CategoryID  string
	Location    *GeoPoint
	Status      IssueStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
