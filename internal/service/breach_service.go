package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
)

// BreachService is the breach detector. Each sweep walks unbreached SLA
// records in id-ordered chunks, classifies missed deadlines against the
// ticket's current status, and marks each record breached at most once via a
// conditional update. It only records facts; escalation and notification are
// the business of whoever consumes the report or the published event.
type BreachService struct {
	records    repository.TicketSLARepository
	history    repository.HistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	chunkSize  int
}

// NewBreachService constructs the detector.
func NewBreachService(records repository.TicketSLARepository, history repository.HistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger, chunkSize int) *BreachService {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreachService{
		records:    records,
		history:    history,
		dispatcher: dispatcher,
		logger:     logger,
		chunkSize:  chunkSize,
	}
}

// Sweep runs one reconciliation pass at the given instant. Safe to invoke
// concurrently with itself and with ticket status changes: records already
// marked by a racing sweep are skipped, and a status change that commits
// before the conditional mark simply removes the breach condition. A failed
// record never aborts the pass; it stays unbreached and is retried next time.
func (s *BreachService) Sweep(ctx context.Context, now time.Time) (*domain.BreachReport, error) {
	report := &domain.BreachReport{SweptAt: now, Events: []domain.BreachEvent{}}
	started := time.Now()

	// The cursor starts absent, not as an empty string: the record id column
	// is a uuid and only NULL compares cleanly on the first chunk.
	var afterID *string
	for {
		chunk, err := s.records.ListUnbreached(ctx, afterID, s.chunkSize)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		for _, candidate := range chunk {
			s.inspect(ctx, now, candidate, report)
		}
		last := chunk[len(chunk)-1].Record.ID
		afterID = &last
		if len(chunk) < s.chunkSize {
			break
		}
	}

	s.logger.Info("sla sweep finished",
		zap.Int("breaches", len(report.Events)),
		zap.Int("updated", report.Updated),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("took", time.Since(started)),
	)

	if s.dispatcher != nil && len(report.Events) > 0 {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSLABreachDetected,
			Timestamp: now,
			Payload:   events.SLABreachDetectedPayload{Report: *report},
		})
	}
	return report, nil
}

func (s *BreachService) inspect(ctx context.Context, now time.Time, candidate repository.UnbreachedRecord, report *domain.BreachReport) {
	record := candidate.Record
	status := candidate.TicketStatus

	var types []domain.BreachType
	if now.After(record.ResponseDue) && status == domain.TicketStatusOpen {
		types = append(types, domain.BreachTypeResponse)
	}
	if now.After(record.ResolutionDue) && !status.SLASettled() {
		types = append(types, domain.BreachTypeResolution)
	}
	if len(types) == 0 {
		return
	}

	marked, err := s.records.MarkBreached(ctx, record.ID)
	if err != nil {
		s.logger.Warn("failed to mark sla record breached",
			zap.String("ticket_id", record.TicketID),
			zap.Error(err),
		)
		report.Failed = append(report.Failed, domain.SweepFailure{
			TicketID: record.TicketID,
			Reason:   err.Error(),
		})
		return
	}
	if !marked {
		// A concurrent sweep got here first; it reported the breach.
		return
	}

	report.Updated++
	report.Events = append(report.Events, domain.BreachEvent{
		TicketID:      record.TicketID,
		TicketNumber:  candidate.TicketNumber,
		Types:         types,
		ResponseDue:   record.ResponseDue,
		ResolutionDue: record.ResolutionDue,
		CurrentStatus: status,
	})

	if s.history != nil {
		ticketID := record.TicketID
		entry := &domain.HistoryEntry{
			TicketID: &ticketID,
			Action:   domain.ActionSLABreached,
			NewValue: map[string]any{
				"breach_types":   types,
				"response_due":   record.ResponseDue,
				"resolution_due": record.ResolutionDue,
				"status_at_mark": status,
			},
		}
		if err := s.history.Append(ctx, entry); err != nil {
			s.logger.Warn("failed to append breach history",
				zap.String("ticket_id", record.TicketID),
				zap.Error(err),
			)
		}
	}
}
