package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// UnbreachedRecord is one sweep candidate: an unbreached SLA record joined
// to the current status of its ticket.
type UnbreachedRecord struct {
	Record       domain.TicketSLARecord
	TicketNumber string
	TicketStatus domain.TicketStatus
}

// SLAStatRecord is one row for SLA statistics over a window.
type SLAStatRecord struct {
	Record       domain.TicketSLARecord
	TicketStatus domain.TicketStatus
}

// TicketSLARepository encapsulates ticket SLA record persistence. Upsert
// never lowers the breached flag; MarkBreached is conditional so overlapping
// sweeps converge without double-reporting.
type TicketSLARepository interface {
	Upsert(ctx context.Context, record *domain.TicketSLARecord) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.TicketSLARecord, error)
	MarkBreached(ctx context.Context, recordID string) (bool, error)
	ListUnbreached(ctx context.Context, afterID *string, limit int) ([]UnbreachedRecord, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]SLAStatRecord, error)
	CountByPolicy(ctx context.Context, policyID string) (int, error)
}

type ticketSLARepository struct {
	pool *pgxpool.Pool
}

// NewTicketSLARepository instantiates repository.
func NewTicketSLARepository(pool *pgxpool.Pool) TicketSLARepository {
	return &ticketSLARepository{pool: pool}
}

// Upsert writes the record keyed by ticket id. Re-attaching overwrites the
// due timestamps and policy reference but leaves an already-true breached
// flag alone; a breach fact never reverts.
func (r *ticketSLARepository) Upsert(ctx context.Context, record *domain.TicketSLARecord) error {
	const query = `
        INSERT INTO ticket_sla (ticket_id, policy_id, response_due, resolution_due, breached)
        VALUES ($1,$2,$3,$4,false)
        ON CONFLICT (ticket_id) DO UPDATE
            SET policy_id=EXCLUDED.policy_id,
                response_due=EXCLUDED.response_due,
                resolution_due=EXCLUDED.resolution_due
        RETURNING id, breached, created_at`
	return r.pool.QueryRow(ctx, query,
		record.TicketID,
		record.PolicyID,
		record.ResponseDue,
		record.ResolutionDue,
	).Scan(&record.ID, &record.Breached, &record.CreatedAt)
}

func (r *ticketSLARepository) GetByTicket(ctx context.Context, ticketID string) (*domain.TicketSLARecord, error) {
	const query = `
        SELECT id, ticket_id, policy_id, response_due, resolution_due, breached, created_at
        FROM ticket_sla WHERE ticket_id=$1`
	var record domain.TicketSLARecord
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&record.ID,
		&record.TicketID,
		&record.PolicyID,
		&record.ResponseDue,
		&record.ResolutionDue,
		&record.Breached,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkBreached flips the flag only when it is still false. Returns false
// without error when a concurrent sweep already marked the record.
func (r *ticketSLARepository) MarkBreached(ctx context.Context, recordID string) (bool, error) {
	const query = `UPDATE ticket_sla SET breached=true WHERE id=$1 AND breached=false`
	cmd, err := r.pool.Exec(ctx, query, recordID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ListUnbreached returns sweep candidates ordered by record id, so large
// result sets can be walked in chunks and a restarted sweep only revisits
// still-unmarked rows. A nil afterID starts from the beginning; the id column
// is a uuid, so the absent cursor must be SQL NULL rather than a sentinel
// string.
func (r *ticketSLARepository) ListUnbreached(ctx context.Context, afterID *string, limit int) ([]UnbreachedRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	const query = `
        SELECT s.id, s.ticket_id, s.policy_id, s.response_due, s.resolution_due, s.breached, s.created_at,
               t.ticket_number, t.status
        FROM ticket_sla s
        JOIN tickets t ON t.id = s.ticket_id
        WHERE s.breached=false AND ($1::uuid IS NULL OR s.id > $1)
        ORDER BY s.id
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []UnbreachedRecord
	for rows.Next() {
		var item UnbreachedRecord
		if err := rows.Scan(
			&item.Record.ID,
			&item.Record.TicketID,
			&item.Record.PolicyID,
			&item.Record.ResponseDue,
			&item.Record.ResolutionDue,
			&item.Record.Breached,
			&item.Record.CreatedAt,
			&item.TicketNumber,
			&item.TicketStatus,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *ticketSLARepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]SLAStatRecord, error) {
	const query = `
        SELECT s.id, s.ticket_id, s.policy_id, s.response_due, s.resolution_due, s.breached, s.created_at,
               t.status
        FROM ticket_sla s
        JOIN tickets t ON t.id = s.ticket_id
        WHERE s.created_at >= $1 AND s.created_at <= $2`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SLAStatRecord
	for rows.Next() {
		var item SLAStatRecord
		if err := rows.Scan(
			&item.Record.ID,
			&item.Record.TicketID,
			&item.Record.PolicyID,
			&item.Record.ResponseDue,
			&item.Record.ResolutionDue,
			&item.Record.Breached,
			&item.Record.CreatedAt,
			&item.TicketStatus,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *ticketSLARepository) CountByPolicy(ctx context.Context, policyID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_sla WHERE policy_id=$1`, policyID).Scan(&count)
	return count, err
}
