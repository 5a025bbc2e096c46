package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string           `json:"title" validate:"required,min=3,max=200"`
	Description string           `json:"description" validate:"required"`
	CategoryID  string           `json:"category_id" validate:"required,uuid4"`
	Location    *domain.GeoPoint `json:"location,omitempty"`
}

// UpdateIssueStatusRequest payload.
type UpdateIssueStatusRequest struct {
	Status  domain.IssueStatus `json:"status" validate:"required,oneof=open in_progress resolved closed cancelled"`
	Comment string             `json:"comment,omitempty"`
}

// IssueResponse is the public view of an issue.
type IssueResponse struct {
	ID          string             `json:"id"`
	ReporterID  string             `json:"reporter_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	CategoryID  string             `json:"category_id"`
	Location    *domain.GeoPoint   `json:"location,omitempty"`
	Status      domain.IssueStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	ID        string               `json:"id"`
	TicketID  *string              `json:"ticket_id,omitempty"`
	IssueID   *string              `json:"issue_id,omitempty"`
	Action    domain.HistoryAction `json:"action"`
	ActorID   *string              `json:"actor_id,omitempty"`
	OldValue  map[string]any       `json:"old_value,omitempty"`
	NewValue  map[string]any       `json:"new_value,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewIssueResponse maps a domain issue.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:          issue.ID,
		ReporterID:  issue.ReporterID,
		Title:       issue.Title,
		Description: issue.Description,
		CategoryID:  issue.CategoryID,
		Location:    issue.Location,
		Status:      issue.Status,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
	}
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.HistoryEntry) []HistoryEntryResponse {
	resp := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, HistoryEntryResponse{
			ID:        entry.ID,
			TicketID:  entry.TicketID,
			IssueID:   entry.IssueID,
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}
