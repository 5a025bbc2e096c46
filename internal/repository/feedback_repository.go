package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// ErrDuplicateFeedback reports a second rating for the same (ticket, citizen).
var ErrDuplicateFeedback = errors.New("feedback already submitted for ticket")

// FeedbackRepository encapsulates feedback persistence.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	GetByTicketAndCitizen(ctx context.Context, ticketID, citizenID string) (*domain.Feedback, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Feedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository instantiates repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        INSERT INTO feedback (ticket_id, citizen_id, rating, comment)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (ticket_id, citizen_id) DO NOTHING
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		feedback.TicketID,
		feedback.CitizenID,
		feedback.Rating,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateFeedback
	}
	return err
}

func (r *feedbackRepository) GetByTicketAndCitizen(ctx context.Context, ticketID, citizenID string) (*domain.Feedback, error) {
	const query = `
        SELECT id, ticket_id, citizen_id, rating, comment, created_at
        FROM feedback WHERE ticket_id=$1 AND citizen_id=$2`
	var feedback domain.Feedback
	if err := r.pool.QueryRow(ctx, query, ticketID, citizenID).Scan(
		&feedback.ID,
		&feedback.TicketID,
		&feedback.CitizenID,
		&feedback.Rating,
		&feedback.Comment,
		&feedback.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Feedback, error) {
	const query = `
        SELECT id, ticket_id, citizen_id, rating, comment, created_at
        FROM feedback WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Feedback
	for rows.Next() {
		var feedback domain.Feedback
		if err := rows.Scan(
			&feedback.ID,
			&feedback.TicketID,
			&feedback.CitizenID,
			&feedback.Rating,
			&feedback.Comment,
			&feedback.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, feedback)
	}
	return result, rows.Err()
}
