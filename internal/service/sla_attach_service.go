package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// PolicyResolver resolves the exact-match policy for a (category, priority)
// pair. NOT_FOUND is an expected branch here, not a failure.
type PolicyResolver interface {
	Resolve(ctx context.Context, categoryID string, priority domain.TicketPriority) (*domain.SLAPolicy, error)
}

// SLAAttachService is the deadline calculator: it resolves the applicable
// policy for a ticket, falls back to the category default when none is
// configured, computes absolute due timestamps from the ticket's creation
// time, and upserts the per-ticket SLA record.
type SLAAttachService struct {
	tickets    repository.TicketRepository
	issues     repository.IssueRepository
	categories repository.CategoryRepository
	records    repository.TicketSLARepository
	history    repository.HistoryRepository
	resolver   PolicyResolver
	logger     *zap.Logger

	// fallbackResponseFraction is the share of the category default used as
	// the response budget when no configured policy matches.
	fallbackResponseFraction float64
}

// NewSLAAttachService constructs the service.
func NewSLAAttachService(
	tickets repository.TicketRepository,
	issues repository.IssueRepository,
	categories repository.CategoryRepository,
	records repository.TicketSLARepository,
	history repository.HistoryRepository,
	resolver PolicyResolver,
	logger *zap.Logger,
	fallbackResponseFraction float64,
) *SLAAttachService {
	if fallbackResponseFraction <= 0 || fallbackResponseFraction > 1 {
		fallbackResponseFraction = 0.25
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAAttachService{
		tickets:                  tickets,
		issues:                   issues,
		categories:               categories,
		records:                  records,
		history:                  history,
		resolver:                 resolver,
		logger:                   logger,
		fallbackResponseFraction: fallbackResponseFraction,
	}
}

// ResolveEffective returns the concrete budgets that Attach would apply to a
// ticket of the given category and priority, naming their source. The
// fallback is a first-class value so callers and tests can observe it.
func (s *SLAAttachService) ResolveEffective(ctx context.Context, category *domain.Category, priority domain.TicketPriority) (*domain.ResolvedPolicy, error) {
	policy, err := s.resolver.Resolve(ctx, category.ID, priority)
	if err == nil {
		response, err := domain.ParseInterval(policy.ResponseTime)
		if err != nil {
			return nil, apperrors.NewInvalidArgument(err.Error(), map[string]any{"policy_id": policy.ID, "field": "response_time"})
		}
		resolution, err := domain.ParseInterval(policy.ResolutionTime)
		if err != nil {
			return nil, apperrors.NewInvalidArgument(err.Error(), map[string]any{"policy_id": policy.ID, "field": "resolution_time"})
		}
		return &domain.ResolvedPolicy{
			PolicyID:   &policy.ID,
			Source:     domain.PolicySourceConfigured,
			Response:   response,
			Resolution: resolution,
		}, nil
	}
	if !apperrors.IsCode(err, "NOT_FOUND") {
		return nil, err
	}

	if category.SLAHours <= 0 {
		return nil, apperrors.NewInvalidArgument("category has no default SLA hours", map[string]any{"category_id": category.ID})
	}
	resolution := time.Duration(category.SLAHours) * time.Hour
	response := time.Duration(float64(resolution) * s.fallbackResponseFraction)
	return &domain.ResolvedPolicy{
		Source:     domain.PolicySourceCategoryDefault,
		Response:   response,
		Resolution: resolution,
	}, nil
}

// Attach computes and persists the SLA record for a ticket. Re-attaching
// overwrites the due timestamps but a breached flag that is already true
// stays true.
func (s *SLAAttachService) Attach(ctx context.Context, ticketID string) (*domain.TicketSLARecord, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	issue, err := s.issues.GetByID(ctx, ticket.IssueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": ticket.IssueID})
		}
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, issue.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": issue.CategoryID})
		}
		return nil, err
	}

	resolved, err := s.ResolveEffective(ctx, category, ticket.Priority)
	if err != nil {
		return nil, err
	}

	record := &domain.TicketSLARecord{
		TicketID:      ticket.ID,
		PolicyID:      resolved.PolicyID,
		ResponseDue:   ticket.CreatedAt.Add(resolved.Response),
		ResolutionDue: ticket.CreatedAt.Add(resolved.Resolution),
	}
	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, err
	}

	if s.history != nil {
		entry := &domain.HistoryEntry{
			TicketID: &ticket.ID,
			Action:   domain.ActionSLAAttached,
			NewValue: map[string]any{
				"policy_source":  resolved.Source,
				"response_due":   record.ResponseDue,
				"resolution_due": record.ResolutionDue,
			},
		}
		if err := s.history.Append(ctx, entry); err != nil {
			s.logger.Warn("history append failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err),
			)
		}
	}
	return record, nil
}
