package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/lifecycle"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// IssueService coordinates citizen issue workflows.
type IssueService struct {
	issues      repository.IssueRepository
	categories  repository.CategoryRepository
	history     repository.HistoryRepository
	dispatcher  events.Dispatcher
	transitions *lifecycle.Machine[domain.IssueStatus]
	logger      *zap.Logger
}

// IssueCreateInput describes issue filing payload.
type IssueCreateInput struct {
	Title       string
	Description string
	CategoryID  string
	Location    *domain.GeoPoint
}

// NewIssueService constructs the service.
func NewIssueService(issues repository.IssueRepository, categories repository.CategoryRepository, history repository.HistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger) *IssueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:      issues,
		categories:  categories,
		history:     history,
		dispatcher:  dispatcher,
		transitions: lifecycle.Issues(),
		logger:      logger,
	}
}

// CreateIssue files a new citizen issue.
func (s *IssueService) CreateIssue(ctx context.Context, reporterID string, input IssueCreateInput) (*domain.Issue, error) {
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, err
	}
	if !category.IsActive {
		return nil, apperrors.NewFailedPrecondition("category inactive", nil)
	}

	issue := &domain.Issue{
		ReporterID:  reporterID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		CategoryID:  category.ID,
		Location:    input.Location,
		Status:      domain.IssueStatusOpen,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventIssueCreated,
			Timestamp: time.Now(),
			Payload: events.IssueCreatedPayload{
				IssueID:    issue.ID,
				CategoryID: issue.CategoryID,
				ReporterID: issue.ReporterID,
			},
		})
	}
	return issue, nil
}

// GetIssue fetches an issue by id.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, err
	}
	return issue, nil
}

// ListIssues returns issues matching the filter.
func (s *IssueService) ListIssues(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	return s.issues.ListWithFilter(ctx, filter)
}

// UpdateStatus applies a lifecycle-validated status transition with the same
// conditional-write discipline as tickets.
func (s *IssueService) UpdateStatus(ctx context.Context, actorID, issueID string, next domain.IssueStatus, comment string) (*domain.Issue, error) {
	issue, err := s.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !s.transitions.CanTransition(issue.Status, next) {
		return nil, apperrors.NewFailedPrecondition("status transition not allowed", map[string]any{
			"current": issue.Status,
			"next":    next,
		})
	}
	applied, err := s.issues.UpdateStatus(ctx, issue.ID, issue.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.NewFailedPrecondition("issue status changed concurrently", map[string]any{"next": next})
	}

	oldStatus := issue.Status
	issue.Status = next
	if s.history != nil {
		entry := &domain.HistoryEntry{
			IssueID:  &issue.ID,
			ActorID:  &actorID,
			Action:   domain.ActionStatusChange,
			OldValue: map[string]any{"status": oldStatus},
			NewValue: map[string]any{"status": next, "comment": comment},
		}
		if err := s.history.Append(ctx, entry); err != nil {
			s.logger.Warn("history append failed", zap.Error(err))
		}
	}
	return issue, nil
}

// ListHistory returns the audit trail for an issue.
func (s *IssueService) ListHistory(ctx context.Context, issueID string, limit, offset int) ([]domain.HistoryEntry, error) {
	if _, err := s.GetIssue(ctx, issueID); err != nil {
		return nil, err
	}
	return s.history.ListByIssue(ctx, issueID, limit, offset)
}
