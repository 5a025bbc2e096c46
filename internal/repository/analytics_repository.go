package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// TicketStat is the slice of a ticket the aggregator needs.
type TicketStat struct {
	Status       domain.TicketStatus
	Priority     domain.TicketPriority
	DepartmentID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IssueStat is the slice of an issue the aggregator needs.
type IssueStat struct {
	Status     domain.IssueStatus
	CategoryID string
	CreatedAt  time.Time
}

// UserStat is the slice of a user the aggregator needs.
type UserStat struct {
	Role         domain.UserRole
	DepartmentID *string
	CreatedAt    time.Time
}

// FeedbackStat is the slice of a feedback record the aggregator needs.
type FeedbackStat struct {
	Rating    int
	CreatedAt time.Time
}

// AnalyticsSnapshot is all raw material for one aggregation run read at a
// single point in time.
type AnalyticsSnapshot struct {
	Tickets     []TicketStat
	Issues      []IssueStat
	Users       []UserStat
	Feedback    []FeedbackStat
	Departments []domain.Department
	Categories  []domain.Category
}

// AnalyticsRepository produces consistent snapshots for the aggregator. All
// reads of one Snapshot call share a repeatable-read read-only transaction,
// so counts can never disagree about which point in time they observed.
type AnalyticsRepository interface {
	Snapshot(ctx context.Context, from, to time.Time) (*AnalyticsSnapshot, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository instantiates repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) Snapshot(ctx context.Context, from, to time.Time) (*AnalyticsSnapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	snapshot := &AnalyticsSnapshot{}

	if snapshot.Tickets, err = r.ticketStats(ctx, tx, from, to); err != nil {
		return nil, err
	}
	if snapshot.Issues, err = r.issueStats(ctx, tx, from, to); err != nil {
		return nil, err
	}
	if snapshot.Users, err = r.userStats(ctx, tx, from, to); err != nil {
		return nil, err
	}
	if snapshot.Feedback, err = r.feedbackStats(ctx, tx, from, to); err != nil {
		return nil, err
	}
	if snapshot.Departments, err = r.departments(ctx, tx); err != nil {
		return nil, err
	}
	if snapshot.Categories, err = r.categories(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *analyticsRepository) ticketStats(ctx context.Context, tx pgx.Tx, from, to time.Time) ([]TicketStat, error) {
	const query = `
        SELECT status, priority, department_id, created_at, updated_at
        FROM tickets WHERE created_at >= $1 AND created_at <= $2`
	rows, err := tx.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TicketStat
	for rows.Next() {
		var stat TicketStat
		if err := rows.Scan(&stat.Status, &stat.Priority, &stat.DepartmentID, &stat.CreatedAt, &stat.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, stat)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) issueStats(ctx context.Context, tx pgx.Tx, from, to time.Time) ([]IssueStat, error) {
	const query = `
        SELECT status, category_id, created_at
        FROM issues WHERE created_at >= $1 AND created_at <= $2`
	rows, err := tx.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []IssueStat
	for rows.Next() {
		var stat IssueStat
		if err := rows.Scan(&stat.Status, &stat.CategoryID, &stat.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, stat)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) userStats(ctx context.Context, tx pgx.Tx, from, to time.Time) ([]UserStat, error) {
	const query = `
        SELECT role, department_id, created_at
        FROM users WHERE created_at >= $1 AND created_at <= $2`
	rows, err := tx.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []UserStat
	for rows.Next() {
		var stat UserStat
		if err := rows.Scan(&stat.Role, &stat.DepartmentID, &stat.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, stat)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) feedbackStats(ctx context.Context, tx pgx.Tx, from, to time.Time) ([]FeedbackStat, error) {
	const query = `
        SELECT rating, created_at
        FROM feedback WHERE created_at >= $1 AND created_at <= $2`
	rows, err := tx.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FeedbackStat
	for rows.Next() {
		var stat FeedbackStat
		if err := rows.Scan(&stat.Rating, &stat.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, stat)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) departments(ctx context.Context, tx pgx.Tx) ([]domain.Department, error) {
	const query = `
        SELECT id, name, description, parent_id, is_active, created_at, updated_at
        FROM departments ORDER BY name`
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var department domain.Department
		if err := rows.Scan(
			&department.ID,
			&department.Name,
			&department.Description,
			&department.ParentID,
			&department.IsActive,
			&department.CreatedAt,
			&department.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, department)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) categories(ctx context.Context, tx pgx.Tx) ([]domain.Category, error) {
	const query = `
        SELECT id, name, description, department_id, parent_id, sla_hours, is_active, created_at, updated_at
        FROM ticket_categories ORDER BY name`
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}
