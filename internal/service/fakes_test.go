package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// In-memory repository fakes. Conditional updates mirror the SQL semantics
// so race-handling paths are testable without a database.

type fakeTicketRepo struct {
	seq     int
	tickets map[string]*domain.Ticket

	// afterGet, when set, runs once after the next GetByID. Tests use it to
	// slip a concurrent write between a service's read and its update.
	afterGet func()
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) add(ticket *domain.Ticket) *domain.Ticket {
	if ticket.ID == "" {
		r.seq++
		ticket.ID = fmt.Sprintf("ticket-%04d", r.seq)
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	r.tickets[ticket.ID] = ticket
	return ticket
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.add(ticket)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	if r.afterGet != nil {
		hook := r.afterGet
		r.afterGet = nil
		hook()
	}
	return &copied, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.TicketNumber == number {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, expected, next domain.TicketStatus) (bool, error) {
	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != expected {
		return false, nil
	}
	ticket.Status = next
	ticket.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeTicketRepo) UpdatePriority(_ context.Context, id string, priority domain.TicketPriority) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Priority = priority
	return nil
}

func (r *fakeTicketRepo) UpdateAssignment(_ context.Context, id string, staffID *string, departmentID string) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.AssignedTo = staffID
	ticket.DepartmentID = departmentID
	return nil
}

type fakeIssueRepo struct {
	seq    int
	issues map[string]*domain.Issue
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: map[string]*domain.Issue{}}
}

func (r *fakeIssueRepo) add(issue *domain.Issue) *domain.Issue {
	if issue.ID == "" {
		r.seq++
		issue.ID = fmt.Sprintf("issue-%04d", r.seq)
	}
	r.issues[issue.ID] = issue
	return issue
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.add(issue)
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (r *fakeIssueRepo) ListWithFilter(_ context.Context, _ repository.IssueFilter) ([]domain.Issue, error) {
	out := make([]domain.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		out = append(out, *issue)
	}
	return out, nil
}

func (r *fakeIssueRepo) UpdateStatus(_ context.Context, id string, expected, next domain.IssueStatus) (bool, error) {
	issue, ok := r.issues[id]
	if !ok || issue.Status != expected {
		return false, nil
	}
	issue.Status = next
	return true, nil
}

type fakeCategoryRepo struct {
	categories map[string]*domain.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[string]*domain.Category{}}
}

func (r *fakeCategoryRepo) add(category *domain.Category) *domain.Category {
	r.categories[category.ID] = category
	return category
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	if category.ID == "" {
		category.ID = fmt.Sprintf("cat-%04d", len(r.categories)+1)
	}
	r.add(category)
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func (r *fakeCategoryRepo) ListByDepartment(_ context.Context, departmentID string) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, category := range r.categories {
		if category.DepartmentID == departmentID {
			out = append(out, *category)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) ListAll(_ context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(r.categories))
	for _, category := range r.categories {
		out = append(out, *category)
	}
	return out, nil
}

type fakeDepartmentRepo struct {
	departments map[string]*domain.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{departments: map[string]*domain.Department{}}
}

func (r *fakeDepartmentRepo) add(department *domain.Department) *domain.Department {
	r.departments[department.ID] = department
	return department
}

func (r *fakeDepartmentRepo) Create(_ context.Context, department *domain.Department) error {
	if department.ID == "" {
		department.ID = fmt.Sprintf("dept-%04d", len(r.departments)+1)
	}
	r.add(department)
	return nil
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	department, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *department
	return &copied, nil
}

func (r *fakeDepartmentRepo) ListAll(_ context.Context) ([]domain.Department, error) {
	out := make([]domain.Department, 0, len(r.departments))
	for _, department := range r.departments {
		out = append(out, *department)
	}
	return out, nil
}

type fakeHistoryRepo struct {
	entries []domain.HistoryEntry
	failErr error
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Append(_ context.Context, entry *domain.HistoryEntry) error {
	if r.failErr != nil {
		return r.failErr
	}
	entry.ID = fmt.Sprintf("history-%04d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.HistoryEntry, error) {
	out := []domain.HistoryEntry{}
	for _, entry := range r.entries {
		if entry.TicketID != nil && *entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) ListByIssue(_ context.Context, issueID string, _, _ int) ([]domain.HistoryEntry, error) {
	out := []domain.HistoryEntry{}
	for _, entry := range r.entries {
		if entry.IssueID != nil && *entry.IssueID == issueID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) ListRecent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[len(r.entries)-limit:], nil
}

func (r *fakeHistoryRepo) actions() []domain.HistoryAction {
	out := make([]domain.HistoryAction, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

type fakeSLARecordRepo struct {
	seq     int
	records map[string]*domain.TicketSLARecord
	tickets *fakeTicketRepo

	markErrFor  map[string]error
	listCursors []*string
}

func newFakeSLARecordRepo(tickets *fakeTicketRepo) *fakeSLARecordRepo {
	return &fakeSLARecordRepo{
		records:    map[string]*domain.TicketSLARecord{},
		tickets:    tickets,
		markErrFor: map[string]error{},
	}
}

func (r *fakeSLARecordRepo) Upsert(_ context.Context, record *domain.TicketSLARecord) error {
	if existing, ok := r.records[record.TicketID]; ok {
		existing.PolicyID = record.PolicyID
		existing.ResponseDue = record.ResponseDue
		existing.ResolutionDue = record.ResolutionDue
		*record = *existing
		return nil
	}
	r.seq++
	record.ID = fmt.Sprintf("sla-%04d", r.seq)
	record.CreatedAt = time.Now()
	copied := *record
	r.records[record.TicketID] = &copied
	return nil
}

func (r *fakeSLARecordRepo) GetByTicket(_ context.Context, ticketID string) (*domain.TicketSLARecord, error) {
	record, ok := r.records[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

func (r *fakeSLARecordRepo) MarkBreached(_ context.Context, recordID string) (bool, error) {
	for _, record := range r.records {
		if record.ID != recordID {
			continue
		}
		if err, ok := r.markErrFor[record.TicketID]; ok && err != nil {
			return false, err
		}
		if record.Breached {
			return false, nil
		}
		record.Breached = true
		return true, nil
	}
	return false, nil
}

func (r *fakeSLARecordRepo) ListUnbreached(_ context.Context, afterID *string, limit int) ([]repository.UnbreachedRecord, error) {
	r.listCursors = append(r.listCursors, afterID)
	// The real column is a uuid; a present-but-empty cursor would not parse.
	if afterID != nil && *afterID == "" {
		return nil, fmt.Errorf("invalid input syntax for type uuid: %q", *afterID)
	}
	after := ""
	if afterID != nil {
		after = *afterID
	}
	candidates := []repository.UnbreachedRecord{}
	for _, record := range r.records {
		if record.Breached || (after != "" && record.ID <= after) {
			continue
		}
		ticket, ok := r.tickets.tickets[record.TicketID]
		if !ok {
			continue
		}
		candidates = append(candidates, repository.UnbreachedRecord{
			Record:       *record,
			TicketNumber: ticket.TicketNumber,
			TicketStatus: ticket.Status,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Record.ID < candidates[j].Record.ID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (r *fakeSLARecordRepo) ListCreatedBetween(_ context.Context, from, to time.Time) ([]repository.SLAStatRecord, error) {
	out := []repository.SLAStatRecord{}
	for _, record := range r.records {
		if record.CreatedAt.Before(from) || record.CreatedAt.After(to) {
			continue
		}
		ticket, ok := r.tickets.tickets[record.TicketID]
		if !ok {
			continue
		}
		out = append(out, repository.SLAStatRecord{Record: *record, TicketStatus: ticket.Status})
	}
	return out, nil
}

func (r *fakeSLARecordRepo) CountByPolicy(_ context.Context, policyID string) (int, error) {
	count := 0
	for _, record := range r.records {
		if record.PolicyID != nil && *record.PolicyID == policyID {
			count++
		}
	}
	return count, nil
}

type fakePolicyResolver struct {
	policies map[string]*domain.SLAPolicy
}

func newFakePolicyResolver() *fakePolicyResolver {
	return &fakePolicyResolver{policies: map[string]*domain.SLAPolicy{}}
}

func (r *fakePolicyResolver) add(policy *domain.SLAPolicy) {
	r.policies[policy.CategoryID+"|"+string(policy.Priority)] = policy
}

func (r *fakePolicyResolver) Resolve(_ context.Context, categoryID string, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	policy, ok := r.policies[categoryID+"|"+string(priority)]
	if !ok {
		return nil, apperrors.NewNotFound("sla policy", nil)
	}
	copied := *policy
	return &copied, nil
}

type fakePolicyRepo struct {
	seq      int
	policies map[string]*domain.SLAPolicy
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: map[string]*domain.SLAPolicy{}}
}

func (r *fakePolicyRepo) Create(_ context.Context, policy *domain.SLAPolicy) error {
	r.seq++
	policy.ID = fmt.Sprintf("policy-%04d", r.seq)
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = policy.CreatedAt
	copied := *policy
	r.policies[policy.ID] = &copied
	return nil
}

func (r *fakePolicyRepo) Update(_ context.Context, policy *domain.SLAPolicy) error {
	if _, ok := r.policies[policy.ID]; !ok {
		return pgx.ErrNoRows
	}
	policy.UpdatedAt = time.Now()
	copied := *policy
	r.policies[policy.ID] = &copied
	return nil
}

func (r *fakePolicyRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.policies[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.policies, id)
	return nil
}

func (r *fakePolicyRepo) GetByID(_ context.Context, id string) (*domain.SLAPolicy, error) {
	policy, ok := r.policies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *policy
	return &copied, nil
}

func (r *fakePolicyRepo) GetByCategoryAndPriority(_ context.Context, categoryID string, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	for _, policy := range r.policies {
		if policy.CategoryID == categoryID && policy.Priority == priority {
			copied := *policy
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePolicyRepo) List(_ context.Context, _ repository.SLAPolicyFilter) ([]domain.SLAPolicy, error) {
	out := make([]domain.SLAPolicy, 0, len(r.policies))
	for _, policy := range r.policies {
		out = append(out, *policy)
	}
	return out, nil
}

type fakeSnapshotRepo struct {
	snapshot *repository.AnalyticsSnapshot
	err      error
	calls    int
}

func (r *fakeSnapshotRepo) Snapshot(_ context.Context, _, _ time.Time) (*repository.AnalyticsSnapshot, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.snapshot, nil
}
