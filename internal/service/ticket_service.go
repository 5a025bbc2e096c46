package service

import (
	"context"
	"errors"
	"strconv"
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

// SLAAttacher is the deadline-calculator seam the ticket workflow calls
// after creation and after priority changes.
type SLAAttacher interface {
	Attach(ctx context.Context, ticketID string) (*domain.TicketSLARecord, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	issues      repository.IssueRepository
	departments repository.DepartmentRepository
	history     repository.HistoryRepository
	attacher    SLAAttacher
	dispatcher  events.Dispatcher
	transitions *lifecycle.Machine[domain.TicketStatus]
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	IssueRepo      repository.IssueRepository
	DepartmentRepo repository.DepartmentRepository
	HistoryRepo    repository.HistoryRepository
	Attacher       SLAAttacher
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	IssueID      string
	DepartmentID string
	Priority     domain.TicketPriority
	DueDate      *time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		issues:      deps.IssueRepo,
		departments: deps.DepartmentRepo,
		history:     deps.HistoryRepo,
		attacher:    deps.Attacher,
		dispatcher:  deps.Dispatcher,
		transitions: lifecycle.Tickets(),
		logger:      logger,
	}
}

// CreateTicket converts an issue into an actionable ticket and attaches its
// SLA record. Ticket creation commits first; a failed SLA attach is logged
// and recovered by the explicit attach endpoint, never rolled into a partial
// write.
func (s *TicketService) CreateTicket(ctx context.Context, actorID string, input TicketCreateInput) (*domain.Ticket, error) {
	issue, err := s.issues.GetByID(ctx, input.IssueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": input.IssueID})
		}
		return nil, err
	}
	if issue.Status == domain.IssueStatusCancelled || issue.Status == domain.IssueStatusClosed {
		return nil, apperrors.NewFailedPrecondition("issue is closed", map[string]any{"issue_status": issue.Status})
	}
	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, err
	}
	if !dept.IsActive {
		return nil, apperrors.NewFailedPrecondition("department inactive", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !domain.ValidTicketPriority(input.Priority) {
		return nil, apperrors.NewInvalidArgument("unknown priority", map[string]any{"priority": input.Priority})
	}

	ticket := &domain.Ticket{
		TicketNumber: generateTicketNumber(),
		IssueID:      issue.ID,
		DepartmentID: dept.ID,
		Priority:     input.Priority,
		Status:       domain.TicketStatusOpen,
		DueDate:      input.DueDate,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if s.attacher != nil {
		if _, err := s.attacher.Attach(ctx, ticket.ID); err != nil {
			s.logger.Warn("sla attach after ticket create failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err),
			)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			IssueID:      ticket.IssueID,
			DepartmentID: ticket.DepartmentID,
			Priority:     ticket.Priority,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// GetTicketByNumber fetches a ticket by its human-facing number.
func (s *TicketService) GetTicketByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// UpdateStatus applies a lifecycle-validated status transition. The write is
// conditional on the status the caller saw; losing a race surfaces as a
// failed precondition with the fresh status.
func (s *TicketService) UpdateStatus(ctx context.Context, actorID, ticketID string, next domain.TicketStatus, comment string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.transitions.CanTransition(ticket.Status, next) {
		return nil, apperrors.NewFailedPrecondition("status transition not allowed", map[string]any{
			"current": ticket.Status,
			"next":    next,
		})
	}
	applied, err := s.tickets.UpdateStatus(ctx, ticket.ID, ticket.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		fresh, ferr := s.tickets.GetByID(ctx, ticket.ID)
		details := map[string]any{"next": next}
		if ferr == nil {
			details["current"] = fresh.Status
		}
		return nil, apperrors.NewFailedPrecondition("ticket status changed concurrently", details)
	}

	oldStatus := ticket.Status
	ticket.Status = next
	s.recordHistory(ctx, &domain.HistoryEntry{
		TicketID: &ticket.ID,
		ActorID:  &actorID,
		Action:   domain.ActionStatusChange,
		OldValue: map[string]any{"status": oldStatus},
		NewValue: map[string]any{"status": next, "comment": comment},
	})
	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketStatusChanged,
		Payload: events.TicketStatusChangedPayload{
			TicketID:  ticket.ID,
			OldStatus: oldStatus,
			NewStatus: next,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// UpdatePriority changes the priority and re-runs the deadline calculator.
// The upsert preserves an already-breached record, so a breach fact never
// disappears under a priority change.
func (s *TicketService) UpdatePriority(ctx context.Context, actorID, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if !domain.ValidTicketPriority(priority) {
		return nil, apperrors.NewInvalidArgument("unknown priority", map[string]any{"priority": priority})
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldPriority := ticket.Priority
	if oldPriority == priority {
		return ticket, nil
	}
	if err := s.tickets.UpdatePriority(ctx, ticket.ID, priority); err != nil {
		return nil, err
	}
	ticket.Priority = priority

	if s.attacher != nil {
		if _, err := s.attacher.Attach(ctx, ticket.ID); err != nil {
			s.logger.Warn("sla attach after priority change failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err),
			)
		}
	}

	s.recordHistory(ctx, &domain.HistoryEntry{
		TicketID: &ticket.ID,
		ActorID:  &actorID,
		Action:   domain.ActionPriorityChange,
		OldValue: map[string]any{"priority": oldPriority},
		NewValue: map[string]any{"priority": priority},
	})
	return ticket, nil
}

// AssignTicket routes a ticket to a staff member and department. An open
// ticket becomes assigned; already-worked tickets keep their status.
func (s *TicketService) AssignTicket(ctx context.Context, actorID, ticketID string, staffID *string, departmentID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, err
	}
	if !dept.IsActive {
		return nil, apperrors.NewFailedPrecondition("department inactive", nil)
	}

	if err := s.tickets.UpdateAssignment(ctx, ticket.ID, staffID, dept.ID); err != nil {
		return nil, err
	}
	oldAssignee := ticket.AssignedTo
	ticket.AssignedTo = staffID
	ticket.DepartmentID = dept.ID

	if ticket.Status == domain.TicketStatusOpen && staffID != nil {
		if applied, err := s.tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusOpen, domain.TicketStatusAssigned); err == nil && applied {
			ticket.Status = domain.TicketStatusAssigned
		}
	}

	s.recordHistory(ctx, &domain.HistoryEntry{
		TicketID: &ticket.ID,
		ActorID:  &actorID,
		Action:   domain.ActionAssignment,
		OldValue: map[string]any{"assigned_to": oldAssignee},
		NewValue: map[string]any{"assigned_to": staffID, "department_id": dept.ID},
	})
	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketAssigned,
		Payload: events.TicketAssignedPayload{
			TicketID:     ticket.ID,
			AssignedTo:   staffID,
			DepartmentID: dept.ID,
		},
	})
	return ticket, nil
}

// ListHistory returns the audit trail for a ticket.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, limit, offset int) ([]domain.HistoryEntry, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

func (s *TicketService) recordHistory(ctx context.Context, entry *domain.HistoryEntry) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Warn("history append failed", zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:3])
	return "TKT" + ts[len(ts)-6:] + suffix
}
