package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type attachFixture struct {
	tickets  *fakeTicketRepo
	issues   *fakeIssueRepo
	cats     *fakeCategoryRepo
	records  *fakeSLARecordRepo
	history  *fakeHistoryRepo
	resolver *fakePolicyResolver
	svc      *SLAAttachService
}

func newAttachFixture(fraction float64) *attachFixture {
	f := &attachFixture{
		tickets:  newFakeTicketRepo(),
		issues:   newFakeIssueRepo(),
		cats:     newFakeCategoryRepo(),
		history:  newFakeHistoryRepo(),
		resolver: newFakePolicyResolver(),
	}
	f.records = newFakeSLARecordRepo(f.tickets)
	f.svc = NewSLAAttachService(f.tickets, f.issues, f.cats, f.records, f.history, f.resolver, nil, fraction)
	return f
}

func (f *attachFixture) seedTicket(priority domain.TicketPriority, createdAt time.Time, slaHours int) *domain.Ticket {
	category := f.cats.add(&domain.Category{ID: "cat-1", Name: "Roads", DepartmentID: "dept-1", SLAHours: slaHours, IsActive: true})
	issue := f.issues.add(&domain.Issue{ReporterID: "citizen-1", CategoryID: category.ID, Status: domain.IssueStatusOpen})
	return f.tickets.add(&domain.Ticket{
		TicketNumber: "TKT000001ABC",
		IssueID:      issue.ID,
		DepartmentID: "dept-1",
		Priority:     priority,
		Status:       domain.TicketStatusOpen,
		CreatedAt:    createdAt,
	})
}

func TestAttachUsesConfiguredPolicy(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.25)
	createdAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ticket := f.seedTicket(domain.TicketPriorityHigh, createdAt, 48)
	f.resolver.add(&domain.SLAPolicy{
		ID:             "policy-1",
		CategoryID:     "cat-1",
		Priority:       domain.TicketPriorityHigh,
		ResponseTime:   "4 hours",
		ResolutionTime: "2 days",
	})

	record, err := f.svc.Attach(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if record.PolicyID == nil || *record.PolicyID != "policy-1" {
		t.Fatalf("expected policy-1 binding, got %v", record.PolicyID)
	}
	if want := createdAt.Add(4 * time.Hour); !record.ResponseDue.Equal(want) {
		t.Fatalf("response due = %v, want %v", record.ResponseDue, want)
	}
	if want := createdAt.Add(48 * time.Hour); !record.ResolutionDue.Equal(want) {
		t.Fatalf("resolution due = %v, want %v", record.ResolutionDue, want)
	}
	if record.Breached {
		t.Fatal("fresh record must not be breached")
	}
}

func TestAttachFallsBackToCategoryDefault(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.25)
	createdAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ticket := f.seedTicket(domain.TicketPriorityLow, createdAt, 48)

	record, err := f.svc.Attach(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if record.PolicyID != nil {
		t.Fatalf("fallback record must not bind a policy, got %v", *record.PolicyID)
	}
	if want := createdAt.Add(12 * time.Hour); !record.ResponseDue.Equal(want) {
		t.Fatalf("response due = %v, want %v (48h * 0.25)", record.ResponseDue, want)
	}
	if want := createdAt.Add(48 * time.Hour); !record.ResolutionDue.Equal(want) {
		t.Fatalf("resolution due = %v, want %v", record.ResolutionDue, want)
	}
}

func TestResolveEffectiveNamesSource(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.5)
	category := f.cats.add(&domain.Category{ID: "cat-2", SLAHours: 24, IsActive: true})
	f.resolver.add(&domain.SLAPolicy{
		ID:             "policy-9",
		CategoryID:     "cat-2",
		Priority:       domain.TicketPriorityUrgent,
		ResponseTime:   "30 minutes",
		ResolutionTime: "4 hours",
	})

	configured, err := f.svc.ResolveEffective(context.Background(), category, domain.TicketPriorityUrgent)
	if err != nil {
		t.Fatalf("ResolveEffective(configured): %v", err)
	}
	if configured.Source != domain.PolicySourceConfigured {
		t.Fatalf("source = %s, want configured", configured.Source)
	}
	if configured.Response != 30*time.Minute || configured.Resolution != 4*time.Hour {
		t.Fatalf("unexpected budgets: %v / %v", configured.Response, configured.Resolution)
	}

	fallback, err := f.svc.ResolveEffective(context.Background(), category, domain.TicketPriorityLow)
	if err != nil {
		t.Fatalf("ResolveEffective(fallback): %v", err)
	}
	if fallback.Source != domain.PolicySourceCategoryDefault {
		t.Fatalf("source = %s, want category_default", fallback.Source)
	}
	if fallback.Resolution != 24*time.Hour || fallback.Response != 12*time.Hour {
		t.Fatalf("unexpected fallback budgets: %v / %v", fallback.Response, fallback.Resolution)
	}
}

func TestAttachRejectsMalformedPolicyInterval(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.25)
	ticket := f.seedTicket(domain.TicketPriorityHigh, time.Now(), 48)
	f.resolver.add(&domain.SLAPolicy{
		ID:             "policy-bad",
		CategoryID:     "cat-1",
		Priority:       domain.TicketPriorityHigh,
		ResponseTime:   "4 fortnights",
		ResolutionTime: "2 days",
	})

	_, err := f.svc.Attach(context.Background(), ticket.ID)
	if !apperrors.IsCode(err, "INVALID_ARGUMENT") {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestAttachRejectsCategoryWithoutDefault(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.25)
	ticket := f.seedTicket(domain.TicketPriorityLow, time.Now(), 0)

	_, err := f.svc.Attach(context.Background(), ticket.ID)
	if !apperrors.IsCode(err, "INVALID_ARGUMENT") {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestReattachPreservesBreachedFlag(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.25)
	createdAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ticket := f.seedTicket(domain.TicketPriorityLow, createdAt, 48)

	first, err := f.svc.Attach(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	if marked, err := f.records.MarkBreached(context.Background(), first.ID); err != nil || !marked {
		t.Fatalf("MarkBreached: marked=%v err=%v", marked, err)
	}

	f.resolver.add(&domain.SLAPolicy{
		ID:             "policy-2",
		CategoryID:     "cat-1",
		Priority:       domain.TicketPriorityLow,
		ResponseTime:   "1 hour",
		ResolutionTime: "8 hours",
	})
	second, err := f.svc.Attach(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("second Attach: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-attach must keep the record identity, got %s then %s", first.ID, second.ID)
	}
	if !second.Breached {
		t.Fatal("re-attach must not clear the breached flag")
	}
	if want := createdAt.Add(time.Hour); !second.ResponseDue.Equal(want) {
		t.Fatalf("re-attach must overwrite deadlines: response due = %v, want %v", second.ResponseDue, want)
	}
}

func TestAttachWritesHistory(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.25)
	ticket := f.seedTicket(domain.TicketPriorityLow, time.Now(), 48)

	if _, err := f.svc.Attach(context.Background(), ticket.ID); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	actions := f.history.actions()
	if len(actions) != 1 || actions[0] != domain.ActionSLAAttached {
		t.Fatalf("expected one sla_attached history entry, got %v", actions)
	}
}

func TestAttachSurvivesHistoryFailure(t *testing.T) {
	t.Parallel()
	f := newAttachFixture(0.25)
	ticket := f.seedTicket(domain.TicketPriorityLow, time.Now(), 48)
	f.history.failErr = errors.New("connection reset")

	record, err := f.svc.Attach(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if record == nil || record.TicketID != ticket.ID {
		t.Fatalf("record = %+v, want one for ticket %s", record, ticket.ID)
	}
	if _, err := f.records.GetByTicket(context.Background(), ticket.ID); err != nil {
		t.Fatalf("record must persist despite history failure: %v", err)
	}
}
