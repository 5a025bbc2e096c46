package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// HistoryRepository is the append-only audit trail for tickets and issues.
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.HistoryEntry, error)
	ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.HistoryEntry, error)
	ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository instantiates repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	oldValue, err := json.Marshal(entry.OldValue)
	if err != nil {
		return err
	}
	newValue, err := json.Marshal(entry.NewValue)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO history (ticket_id, issue_id, actor_id, action, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.IssueID,
		entry.ActorID,
		entry.Action,
		oldValue,
		newValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, issue_id, actor_id, action, old_value, new_value, created_at
        FROM history WHERE ticket_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, ticketID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *historyRepository) ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, issue_id, actor_id, action, old_value, new_value, created_at
        FROM history WHERE issue_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, issueID, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *historyRepository) ListRecent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, issue_id, actor_id, action, old_value, new_value, created_at
        FROM history ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistory(rows)
}

func (r *historyRepository) list(ctx context.Context, query string, args ...any) ([]domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]domain.HistoryEntry, error) {
	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var oldValue, newValue []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.IssueID,
			&entry.ActorID,
			&entry.Action,
			&oldValue,
			&newValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(oldValue) > 0 {
			_ = json.Unmarshal(oldValue, &entry.OldValue)
		}
		if len(newValue) > 0 {
			_ = json.Unmarshal(newValue, &entry.NewValue)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
