package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type recordingAttacher struct {
	calls []string
	err   error
}

func (a *recordingAttacher) Attach(_ context.Context, ticketID string) (*domain.TicketSLARecord, error) {
	a.calls = append(a.calls, ticketID)
	if a.err != nil {
		return nil, a.err
	}
	return &domain.TicketSLARecord{TicketID: ticketID}, nil
}

type ticketFixture struct {
	tickets  *fakeTicketRepo
	issues   *fakeIssueRepo
	depts    *fakeDepartmentRepo
	history  *fakeHistoryRepo
	attacher *recordingAttacher
	svc      *TicketService
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		tickets:  newFakeTicketRepo(),
		issues:   newFakeIssueRepo(),
		depts:    newFakeDepartmentRepo(),
		history:  newFakeHistoryRepo(),
		attacher: &recordingAttacher{},
	}
	f.depts.add(&domain.Department{ID: "dept-1", Name: "Public Works", IsActive: true})
	f.issues.add(&domain.Issue{ID: "issue-1", ReporterID: "citizen-1", CategoryID: "cat-1", Status: domain.IssueStatusOpen})
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		IssueRepo:      f.issues,
		DepartmentRepo: f.depts,
		HistoryRepo:    f.history,
		Attacher:       f.attacher,
	})
	return f
}

func TestCreateTicketDefaultsAndAttaches(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()

	ticket, err := f.svc.CreateTicket(context.Background(), "staff-1", TicketCreateInput{
		IssueID:      "issue-1",
		DepartmentID: "dept-1",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want open", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("priority = %s, want the medium default", ticket.Priority)
	}
	if !strings.HasPrefix(ticket.TicketNumber, "TKT") || len(ticket.TicketNumber) != 12 {
		t.Fatalf("ticket number %q should be TKT + 6 digits + 3 chars", ticket.TicketNumber)
	}
	if len(f.attacher.calls) != 1 || f.attacher.calls[0] != ticket.ID {
		t.Fatalf("attacher calls = %v, want one for %s", f.attacher.calls, ticket.ID)
	}
}

func TestCreateTicketGuards(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		prepare  func(*ticketFixture)
		input    TicketCreateInput
		wantCode string
	}{
		{
			name:     "missing issue",
			prepare:  func(*ticketFixture) {},
			input:    TicketCreateInput{IssueID: "issue-missing", DepartmentID: "dept-1"},
			wantCode: "NOT_FOUND",
		},
		{
			name: "closed issue",
			prepare: func(f *ticketFixture) {
				f.issues.issues["issue-1"].Status = domain.IssueStatusClosed
			},
			input:    TicketCreateInput{IssueID: "issue-1", DepartmentID: "dept-1"},
			wantCode: "FAILED_PRECONDITION",
		},
		{
			name: "cancelled issue",
			prepare: func(f *ticketFixture) {
				f.issues.issues["issue-1"].Status = domain.IssueStatusCancelled
			},
			input:    TicketCreateInput{IssueID: "issue-1", DepartmentID: "dept-1"},
			wantCode: "FAILED_PRECONDITION",
		},
		{
			name:     "missing department",
			prepare:  func(*ticketFixture) {},
			input:    TicketCreateInput{IssueID: "issue-1", DepartmentID: "dept-missing"},
			wantCode: "NOT_FOUND",
		},
		{
			name: "inactive department",
			prepare: func(f *ticketFixture) {
				f.depts.departments["dept-1"].IsActive = false
			},
			input:    TicketCreateInput{IssueID: "issue-1", DepartmentID: "dept-1"},
			wantCode: "FAILED_PRECONDITION",
		},
		{
			name:     "unknown priority",
			prepare:  func(*ticketFixture) {},
			input:    TicketCreateInput{IssueID: "issue-1", DepartmentID: "dept-1", Priority: "critical"},
			wantCode: "INVALID_ARGUMENT",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newTicketFixture()
			tc.prepare(f)
			_, err := f.svc.CreateTicket(context.Background(), "staff-1", tc.input)
			if !apperrors.IsCode(err, tc.wantCode) {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestCreateTicketSurvivesAttachFailure(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()
	f.attacher.err = apperrors.NewInternalError(nil)

	ticket, err := f.svc.CreateTicket(context.Background(), "staff-1", TicketCreateInput{
		IssueID:      "issue-1",
		DepartmentID: "dept-1",
	})
	if err != nil {
		t.Fatalf("ticket creation must commit despite attach failure, got %v", err)
	}
	if _, err := f.svc.GetTicket(context.Background(), ticket.ID); err != nil {
		t.Fatalf("ticket must be persisted: %v", err)
	}
}

func TestUpdateStatusValidatesLifecycle(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()
	ticket := f.tickets.add(&domain.Ticket{Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityMedium})

	_, err := f.svc.UpdateStatus(context.Background(), "staff-1", ticket.ID, domain.TicketStatusResolved, "")
	if !apperrors.IsCode(err, "FAILED_PRECONDITION") {
		t.Fatalf("open -> resolved must be rejected, got %v", err)
	}

	updated, err := f.svc.UpdateStatus(context.Background(), "staff-1", ticket.ID, domain.TicketStatusAssigned, "triaged")
	if err != nil {
		t.Fatalf("open -> assigned: %v", err)
	}
	if updated.Status != domain.TicketStatusAssigned {
		t.Fatalf("status = %s, want assigned", updated.Status)
	}
	actions := f.history.actions()
	if len(actions) != 1 || actions[0] != domain.ActionStatusChange {
		t.Fatalf("history = %v, want one status_change", actions)
	}
}

func TestUpdateStatusDetectsLostRace(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()
	ticket := f.tickets.add(&domain.Ticket{Status: domain.TicketStatusAssigned, Priority: domain.TicketPriorityMedium})

	// Another writer moves the ticket between our read and our write.
	f.tickets.afterGet = func() {
		f.tickets.tickets[ticket.ID].Status = domain.TicketStatusClosed
	}

	_, err := f.svc.UpdateStatus(context.Background(), "staff-1", ticket.ID, domain.TicketStatusInProgress, "")
	if !apperrors.IsCode(err, "FAILED_PRECONDITION") {
		t.Fatalf("lost race must surface as FAILED_PRECONDITION, got %v", err)
	}
	if f.tickets.tickets[ticket.ID].Status != domain.TicketStatusClosed {
		t.Fatal("the concurrent write must win")
	}
}

func TestUpdatePriorityReattaches(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()
	ticket := f.tickets.add(&domain.Ticket{Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityMedium})

	updated, err := f.svc.UpdatePriority(context.Background(), "staff-1", ticket.ID, domain.TicketPriorityUrgent)
	if err != nil {
		t.Fatalf("UpdatePriority: %v", err)
	}
	if updated.Priority != domain.TicketPriorityUrgent {
		t.Fatalf("priority = %s, want urgent", updated.Priority)
	}
	if len(f.attacher.calls) != 1 || f.attacher.calls[0] != ticket.ID {
		t.Fatalf("priority change must recompute deadlines, attacher calls = %v", f.attacher.calls)
	}

	// Same priority again is a no-op with no recompute.
	if _, err := f.svc.UpdatePriority(context.Background(), "staff-1", ticket.ID, domain.TicketPriorityUrgent); err != nil {
		t.Fatalf("no-op UpdatePriority: %v", err)
	}
	if len(f.attacher.calls) != 1 {
		t.Fatalf("no-op must not re-attach, calls = %v", f.attacher.calls)
	}
}

func TestAssignTicketMovesOpenToAssigned(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()
	ticket := f.tickets.add(&domain.Ticket{Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityMedium, DepartmentID: "dept-1"})
	staffID := "staff-7"

	updated, err := f.svc.AssignTicket(context.Background(), "admin-1", ticket.ID, &staffID, "dept-1")
	if err != nil {
		t.Fatalf("AssignTicket: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != staffID {
		t.Fatalf("assigned_to = %v, want %s", updated.AssignedTo, staffID)
	}
	if updated.Status != domain.TicketStatusAssigned {
		t.Fatalf("status = %s, want assigned", updated.Status)
	}
}

func TestAssignTicketKeepsWorkedStatus(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()
	ticket := f.tickets.add(&domain.Ticket{Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityMedium, DepartmentID: "dept-1"})
	staffID := "staff-7"

	updated, err := f.svc.AssignTicket(context.Background(), "admin-1", ticket.ID, &staffID, "dept-1")
	if err != nil {
		t.Fatalf("AssignTicket: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("reassignment must not regress status, got %s", updated.Status)
	}
}

func TestGenerateTicketNumberShape(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		number := generateTicketNumber()
		if !strings.HasPrefix(number, "TKT") || len(number) != 12 {
			t.Fatalf("bad ticket number %q", number)
		}
		seen[number] = true
		time.Sleep(time.Millisecond)
	}
	if len(seen) < 45 {
		t.Fatalf("ticket numbers collide too often: %d unique of 50", len(seen))
	}
}

func TestGetTicketByNumberNormalizesInput(t *testing.T) {
	t.Parallel()
	f := newTicketFixture()
	stored := f.tickets.add(&domain.Ticket{
		TicketNumber: "TKT123456ABC",
		IssueID:      "issue-1",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
	})

	ticket, err := f.svc.GetTicketByNumber(context.Background(), "  tkt123456abc ")
	if err != nil {
		t.Fatalf("GetTicketByNumber: %v", err)
	}
	if ticket.ID != stored.ID {
		t.Fatalf("got ticket %s, want %s", ticket.ID, stored.ID)
	}

	if _, err := f.svc.GetTicketByNumber(context.Background(), "TKT000000XXX"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND for unknown number, got %v", err)
	}
}
