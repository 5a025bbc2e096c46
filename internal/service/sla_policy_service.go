package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// SLAPolicyService owns SLA policy configuration and exact-match resolution.
// Resolution never falls back to the category default: that decision belongs
// to the deadline calculator, so fallback behavior stays independently
// swappable and testable.
type SLAPolicyService struct {
	policies   repository.SLAPolicyRepository
	categories repository.CategoryRepository
	records    repository.TicketSLARepository
}

// SLAPolicyInput describes policy create/update payload.
type SLAPolicyInput struct {
	CategoryID     string
	Priority       domain.TicketPriority
	ResponseTime   string
	ResolutionTime string
}

// NewSLAPolicyService constructs the service.
func NewSLAPolicyService(policies repository.SLAPolicyRepository, categories repository.CategoryRepository, records repository.TicketSLARepository) *SLAPolicyService {
	return &SLAPolicyService{policies: policies, categories: categories, records: records}
}

// Resolve returns the policy for an exact (category, priority) match, or
// NOT_FOUND when none is configured.
func (s *SLAPolicyService) Resolve(ctx context.Context, categoryID string, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetByCategoryAndPriority(ctx, categoryID, priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla policy", map[string]any{
				"category_id": categoryID,
				"priority":    priority,
			})
		}
		return nil, err
	}
	return policy, nil
}

// Create validates and stores a new policy.
func (s *SLAPolicyService) Create(ctx context.Context, input SLAPolicyInput) (*domain.SLAPolicy, error) {
	if err := s.validateWindows(input.ResponseTime, input.ResolutionTime); err != nil {
		return nil, err
	}
	if !domain.ValidTicketPriority(input.Priority) {
		return nil, apperrors.NewInvalidArgument("unknown priority", map[string]any{"priority": input.Priority})
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, err
	}
	if _, err := s.policies.GetByCategoryAndPriority(ctx, input.CategoryID, input.Priority); err == nil {
		return nil, apperrors.NewConflict("sla policy already exists for this category and priority", map[string]any{
			"category_id": input.CategoryID,
			"priority":    input.Priority,
		})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	policy := &domain.SLAPolicy{
		CategoryID:     input.CategoryID,
		Priority:       input.Priority,
		ResponseTime:   input.ResponseTime,
		ResolutionTime: input.ResolutionTime,
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// Update validates and applies changes to an existing policy. The category
// binding is immutable; only priority and the windows may change.
func (s *SLAPolicyService) Update(ctx context.Context, id string, priority domain.TicketPriority, responseTime, resolutionTime string) (*domain.SLAPolicy, error) {
	if err := s.validateWindows(responseTime, resolutionTime); err != nil {
		return nil, err
	}
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla policy", nil)
		}
		return nil, err
	}
	if priority != "" && priority != policy.Priority {
		if !domain.ValidTicketPriority(priority) {
			return nil, apperrors.NewInvalidArgument("unknown priority", map[string]any{"priority": priority})
		}
		if existing, err := s.policies.GetByCategoryAndPriority(ctx, policy.CategoryID, priority); err == nil && existing.ID != id {
			return nil, apperrors.NewConflict("sla policy already exists for this category and priority", nil)
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		policy.Priority = priority
	}
	policy.ResponseTime = responseTime
	policy.ResolutionTime = resolutionTime
	if err := s.policies.Update(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// Delete removes a policy unless ticket SLA records still reference it.
func (s *SLAPolicyService) Delete(ctx context.Context, id string) error {
	if _, err := s.policies.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("sla policy", nil)
		}
		return err
	}
	count, err := s.records.CountByPolicy(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewFailedPrecondition("sla policy is referenced by ticket records", map[string]any{
			"ticket_records": count,
		})
	}
	return s.policies.Delete(ctx, id)
}

// Get returns one policy by id.
func (s *SLAPolicyService) Get(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("sla policy", nil)
		}
		return nil, err
	}
	return policy, nil
}

// List returns policies matching the filter.
func (s *SLAPolicyService) List(ctx context.Context, filter repository.SLAPolicyFilter) ([]domain.SLAPolicy, error) {
	return s.policies.List(ctx, filter)
}

// validateWindows ensures both intervals parse and response <= resolution.
func (s *SLAPolicyService) validateWindows(responseTime, resolutionTime string) error {
	response, err := domain.ParseInterval(responseTime)
	if err != nil {
		return apperrors.NewInvalidArgument(err.Error(), map[string]any{"field": "response_time"})
	}
	resolution, err := domain.ParseInterval(resolutionTime)
	if err != nil {
		return apperrors.NewInvalidArgument(err.Error(), map[string]any{"field": "resolution_time"})
	}
	if response > resolution {
		return apperrors.NewInvalidArgument("response_time must not exceed resolution_time", map[string]any{
			"response_time":   responseTime,
			"resolution_time": resolutionTime,
		})
	}
	return nil
}
