package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// CreatePolicyRequest payload.
type CreatePolicyRequest struct {
	CategoryID     string                `json:"category_id" validate:"required,uuid4"`
	Priority       domain.TicketPriority `json:"priority" validate:"required,oneof=low medium high urgent"`
	ResponseTime   string                `json:"response_time" validate:"required"`
	ResolutionTime string                `json:"resolution_time" validate:"required"`
}

// UpdatePolicyRequest payload. Category binding is immutable.
type UpdatePolicyRequest struct {
	Priority       domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ResponseTime   string                `json:"response_time" validate:"required"`
	ResolutionTime string                `json:"resolution_time" validate:"required"`
}

// PolicyResponse is the public view of an SLA policy.
type PolicyResponse struct {
	ID             string                `json:"id"`
	CategoryID     string                `json:"category_id"`
	Priority       domain.TicketPriority `json:"priority"`
	ResponseTime   string                `json:"response_time"`
	ResolutionTime string                `json:"resolution_time"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// SLARecordResponse is the public view of a ticket's SLA record.
type SLARecordResponse struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	PolicyID      *string   `json:"policy_id,omitempty"`
	ResponseDue   time.Time `json:"response_due"`
	ResolutionDue time.Time `json:"resolution_due"`
	Breached      bool      `json:"breached"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewPolicyResponse maps a domain policy.
func NewPolicyResponse(policy *domain.SLAPolicy) PolicyResponse {
	return PolicyResponse{
		ID:             policy.ID,
		CategoryID:     policy.CategoryID,
		Priority:       policy.Priority,
		ResponseTime:   policy.ResponseTime,
		ResolutionTime: policy.ResolutionTime,
		CreatedAt:      policy.CreatedAt,
		UpdatedAt:      policy.UpdatedAt,
	}
}

// NewSLARecordResponse maps a domain SLA record.
func NewSLARecordResponse(record *domain.TicketSLARecord) SLARecordResponse {
	return SLARecordResponse{
		ID:            record.ID,
		TicketID:      record.TicketID,
		PolicyID:      record.PolicyID,
		ResponseDue:   record.ResponseDue,
		ResolutionDue: record.ResolutionDue,
		Breached:      record.Breached,
		CreatedAt:     record.CreatedAt,
	}
}
