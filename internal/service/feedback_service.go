package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// FeedbackService accepts citizen ratings for finished tickets.
type FeedbackService struct {
	feedback repository.FeedbackRepository
	tickets  repository.TicketRepository
	issues   repository.IssueRepository
}

// NewFeedbackService constructs the service.
func NewFeedbackService(feedback repository.FeedbackRepository, tickets repository.TicketRepository, issues repository.IssueRepository) *FeedbackService {
	return &FeedbackService{feedback: feedback, tickets: tickets, issues: issues}
}

// Submit records one rating per (ticket, citizen). Only the reporter of the
// underlying issue may rate, and only once the ticket is resolved or closed.
func (s *FeedbackService) Submit(ctx context.Context, citizenID, ticketID string, rating int, comment string) (*domain.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewInvalidArgument("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ticket.Status.SLASettled() {
		return nil, apperrors.NewFailedPrecondition("ticket is not resolved or closed", map[string]any{"status": ticket.Status})
	}
	issue, err := s.issues.GetByID(ctx, ticket.IssueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if issue.ReporterID != citizenID {
		return nil, apperrors.NewForbidden("only the reporting citizen may rate this ticket")
	}

	feedback := &domain.Feedback{
		TicketID:  ticket.ID,
		CitizenID: citizenID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		if errors.Is(err, repository.ErrDuplicateFeedback) {
			return nil, apperrors.NewConflict("feedback already submitted", nil)
		}
		return nil, err
	}
	return feedback, nil
}

// GetOwn returns the caller's rating for a ticket, if any.
func (s *FeedbackService) GetOwn(ctx context.Context, citizenID, ticketID string) (*domain.Feedback, error) {
	feedback, err := s.feedback.GetByTicketAndCitizen(ctx, ticketID, citizenID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return feedback, nil
}

// ListByTicket returns all feedback for a ticket.
func (s *FeedbackService) ListByTicket(ctx context.Context, ticketID string) ([]domain.Feedback, error) {
	return s.feedback.ListByTicket(ctx, ticketID)
}
