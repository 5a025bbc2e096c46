package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
)

// Window bounds one aggregation request. Zero values default to the last
// 30 days.
type Window struct {
	From time.Time
	To   time.Time
}

// Normalize fills defaults and orders the bounds.
func (w Window) Normalize(now time.Time) Window {
	if w.To.IsZero() {
		w.To = now
	}
	if w.From.IsZero() {
		w.From = w.To.AddDate(0, 0, -30)
	}
	if w.From.After(w.To) {
		w.From, w.To = w.To, w.From
	}
	return w
}

// field names below are wire contract used by the dashboard UI; keep stable.

// TicketCounts summarizes tickets in a window.
type TicketCounts struct {
	Total      int                           `json:"total"`
	ByStatus   map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority map[domain.TicketPriority]int `json:"by_priority"`
}

// IssueCounts summarizes issues in a window.
type IssueCounts struct {
	Total    int                        `json:"total"`
	ByStatus map[domain.IssueStatus]int `json:"by_status"`
}

// UserCounts summarizes users registered in a window.
type UserCounts struct {
	Total  int                     `json:"total"`
	ByRole map[domain.UserRole]int `json:"by_role"`
}

// FeedbackCounts summarizes citizen feedback in a window.
type FeedbackCounts struct {
	Total         int         `json:"total"`
	AverageRating float64     `json:"average_rating"`
	ByRating      map[int]int `json:"by_rating"`
}

// DailyTrend is one calendar-day bucket. The series has one bucket per day
// in the window even when all counts are zero.
type DailyTrend struct {
	Date     string `json:"date"`
	Tickets  int    `json:"tickets"`
	Issues   int    `json:"issues"`
	Users    int    `json:"users"`
	Feedback int    `json:"feedback"`
}

// DashboardSummary is the aggregated dashboard payload. Degraded is set when
// the snapshot query failed; zeroes with Degraded=false mean real quiet.
type DashboardSummary struct {
	Period      Period         `json:"period"`
	Tickets     TicketCounts   `json:"tickets"`
	Issues      IssueCounts    `json:"issues"`
	Users       UserCounts     `json:"users"`
	Feedback    FeedbackCounts `json:"feedback"`
	DailyTrends []DailyTrend   `json:"daily_trends"`
	Degraded    bool           `json:"degraded,omitempty"`
}

// Period echoes the effective window.
type Period struct {
	From time.Time `json:"start_date"`
	To   time.Time `json:"end_date"`
}

// DepartmentPerformance is one department's rollup.
type DepartmentPerformance struct {
	DepartmentID         string  `json:"department_id"`
	DepartmentName       string  `json:"department_name"`
	TotalTickets         int     `json:"total_tickets"`
	OpenTickets          int     `json:"open_tickets"`
	ResolvedTickets      int     `json:"resolved_tickets"`
	ClosedTickets        int     `json:"closed_tickets"`
	StaffCount           int     `json:"staff_count"`
	ResolutionRate       float64 `json:"resolution_rate"`
	AvgResolutionTimeHrs float64 `json:"average_resolution_time_hours"`
}

// DepartmentReport wraps the rollups with the degraded flag.
type DepartmentReport struct {
	Period      Period                  `json:"period"`
	Departments []DepartmentPerformance `json:"departments"`
	Degraded    bool                    `json:"degraded,omitempty"`
}

// CategoryPerformance is one category's issue rollup.
type CategoryPerformance struct {
	CategoryID     string  `json:"category_id"`
	CategoryName   string  `json:"category_name"`
	DepartmentName string  `json:"department_name"`
	TotalIssues    int     `json:"total_issues"`
	OpenIssues     int     `json:"open_issues"`
	ResolvedIssues int     `json:"resolved_issues"`
	ClosedIssues   int     `json:"closed_issues"`
	ResolutionRate float64 `json:"resolution_rate"`
}

// CategoryReport wraps the rollups with the degraded flag.
type CategoryReport struct {
	Period     Period                `json:"period"`
	Categories []CategoryPerformance `json:"categories"`
	Degraded   bool                  `json:"degraded,omitempty"`
}

// SLAStats summarizes SLA compliance over a window.
type SLAStats struct {
	Period             Period  `json:"period"`
	TotalRecords       int     `json:"total_records"`
	BreachedRecords    int     `json:"breached_records"`
	ResponseBreaches   int     `json:"response_breaches"`
	ResolutionBreaches int     `json:"resolution_breaches"`
	BreachRate         float64 `json:"breach_rate"`
	ComplianceRate     float64 `json:"compliance_rate"`
	Degraded           bool    `json:"degraded,omitempty"`
}

// AnalyticsService recomputes dashboard metrics on demand from a consistent
// snapshot. Nothing is persisted; a short-lived Redis cache absorbs repeated
// dashboard loads.
type AnalyticsService struct {
	snapshots repository.AnalyticsRepository
	slaStats  repository.TicketSLARepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyticsService constructs the service. cache may be nil.
func NewAnalyticsService(snapshots repository.AnalyticsRepository, slaStats repository.TicketSLARepository, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		snapshots: snapshots,
		slaStats:  slaStats,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// DashboardSummary aggregates tickets, issues, users and feedback created in
// the window, plus a gap-free daily trend series.
func (s *AnalyticsService) DashboardSummary(ctx context.Context, window Window) (*DashboardSummary, error) {
	window = window.Normalize(s.now())

	if cached := s.cachedDashboard(ctx, window); cached != nil {
		return cached, nil
	}

	snapshot, err := s.snapshots.Snapshot(ctx, window.From, window.To)
	if err != nil {
		s.logger.Error("dashboard snapshot failed", zap.Error(err))
		return &DashboardSummary{
			Period:      Period{From: window.From, To: window.To},
			Tickets:     TicketCounts{ByStatus: map[domain.TicketStatus]int{}, ByPriority: map[domain.TicketPriority]int{}},
			Issues:      IssueCounts{ByStatus: map[domain.IssueStatus]int{}},
			Users:       UserCounts{ByRole: map[domain.UserRole]int{}},
			Feedback:    FeedbackCounts{ByRating: map[int]int{}},
			DailyTrends: []DailyTrend{},
			Degraded:    true,
		}, nil
	}

	summary := &DashboardSummary{
		Period:   Period{From: window.From, To: window.To},
		Tickets:  TicketCounts{ByStatus: map[domain.TicketStatus]int{}, ByPriority: map[domain.TicketPriority]int{}},
		Issues:   IssueCounts{ByStatus: map[domain.IssueStatus]int{}},
		Users:    UserCounts{ByRole: map[domain.UserRole]int{}},
		Feedback: FeedbackCounts{ByRating: map[int]int{}},
	}

	for _, ticket := range snapshot.Tickets {
		summary.Tickets.Total++
		summary.Tickets.ByStatus[ticket.Status]++
		summary.Tickets.ByPriority[ticket.Priority]++
	}
	for _, issue := range snapshot.Issues {
		summary.Issues.Total++
		summary.Issues.ByStatus[issue.Status]++
	}
	for _, user := range snapshot.Users {
		summary.Users.Total++
		summary.Users.ByRole[user.Role]++
	}
	ratingSum := 0
	for _, feedback := range snapshot.Feedback {
		summary.Feedback.Total++
		summary.Feedback.ByRating[feedback.Rating]++
		ratingSum += feedback.Rating
	}
	if summary.Feedback.Total > 0 {
		summary.Feedback.AverageRating = round2(float64(ratingSum) / float64(summary.Feedback.Total))
	}
	summary.DailyTrends = buildDailyTrends(window, snapshot)

	s.storeDashboard(ctx, window, summary)
	return summary, nil
}

// buildDailyTrends pre-allocates one bucket per calendar day so the series
// never has gaps, then populates counts from the snapshot.
func buildDailyTrends(window Window, snapshot *repository.AnalyticsSnapshot) []DailyTrend {
	index := map[string]int{}
	trends := []DailyTrend{}
	for day := window.From.Truncate(24 * time.Hour); !day.After(window.To); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		index[date] = len(trends)
		trends = append(trends, DailyTrend{Date: date})
	}
	bump := func(at time.Time, field func(*DailyTrend)) {
		if i, ok := index[at.Format("2006-01-02")]; ok {
			field(&trends[i])
		}
	}
	for _, ticket := range snapshot.Tickets {
		bump(ticket.CreatedAt, func(t *DailyTrend) { t.Tickets++ })
	}
	for _, issue := range snapshot.Issues {
		bump(issue.CreatedAt, func(t *DailyTrend) { t.Issues++ })
	}
	for _, user := range snapshot.Users {
		bump(user.CreatedAt, func(t *DailyTrend) { t.Users++ })
	}
	for _, feedback := range snapshot.Feedback {
		bump(feedback.CreatedAt, func(t *DailyTrend) { t.Feedback++ })
	}
	return trends
}

// DepartmentPerformance rolls tickets up per department.
func (s *AnalyticsService) DepartmentPerformance(ctx context.Context, window Window) (*DepartmentReport, error) {
	window = window.Normalize(s.now())

	snapshot, err := s.snapshots.Snapshot(ctx, window.From, window.To)
	if err != nil {
		s.logger.Error("department snapshot failed", zap.Error(err))
		return &DepartmentReport{
			Period:      Period{From: window.From, To: window.To},
			Departments: []DepartmentPerformance{},
			Degraded:    true,
		}, nil
	}

	report := &DepartmentReport{
		Period:      Period{From: window.From, To: window.To},
		Departments: make([]DepartmentPerformance, 0, len(snapshot.Departments)),
	}
	for _, dept := range snapshot.Departments {
		perf := DepartmentPerformance{DepartmentID: dept.ID, DepartmentName: dept.Name}
		var resolutionSum time.Duration
		resolvedWithTime := 0
		for _, ticket := range snapshot.Tickets {
			if ticket.DepartmentID != dept.ID {
				continue
			}
			perf.TotalTickets++
			switch ticket.Status {
			case domain.TicketStatusOpen, domain.TicketStatusAssigned, domain.TicketStatusInProgress:
				perf.OpenTickets++
			case domain.TicketStatusResolved:
				perf.ResolvedTickets++
			case domain.TicketStatusClosed:
				perf.ClosedTickets++
			}
			if ticket.Status == domain.TicketStatusResolved && !ticket.UpdatedAt.IsZero() {
				resolutionSum += ticket.UpdatedAt.Sub(ticket.CreatedAt)
				resolvedWithTime++
			}
		}
		for _, user := range snapshot.Users {
			if user.DepartmentID != nil && *user.DepartmentID == dept.ID && user.Role.IsStaff() {
				perf.StaffCount++
			}
		}
		if perf.TotalTickets > 0 {
			perf.ResolutionRate = round2(float64(perf.ResolvedTickets+perf.ClosedTickets) / float64(perf.TotalTickets) * 100)
		}
		if resolvedWithTime > 0 {
			perf.AvgResolutionTimeHrs = round2(resolutionSum.Hours() / float64(resolvedWithTime))
		}
		report.Departments = append(report.Departments, perf)
	}
	return report, nil
}

// CategoryAnalytics rolls issues up per category.
func (s *AnalyticsService) CategoryAnalytics(ctx context.Context, window Window) (*CategoryReport, error) {
	window = window.Normalize(s.now())

	snapshot, err := s.snapshots.Snapshot(ctx, window.From, window.To)
	if err != nil {
		s.logger.Error("category snapshot failed", zap.Error(err))
		return &CategoryReport{
			Period:     Period{From: window.From, To: window.To},
			Categories: []CategoryPerformance{},
			Degraded:   true,
		}, nil
	}

	deptNames := make(map[string]string, len(snapshot.Departments))
	for _, dept := range snapshot.Departments {
		deptNames[dept.ID] = dept.Name
	}

	report := &CategoryReport{
		Period:     Period{From: window.From, To: window.To},
		Categories: make([]CategoryPerformance, 0, len(snapshot.Categories)),
	}
	for _, category := range snapshot.Categories {
		perf := CategoryPerformance{
			CategoryID:     category.ID,
			CategoryName:   category.Name,
			DepartmentName: deptNames[category.DepartmentID],
		}
		for _, issue := range snapshot.Issues {
			if issue.CategoryID != category.ID {
				continue
			}
			perf.TotalIssues++
			switch issue.Status {
			case domain.IssueStatusOpen, domain.IssueStatusInProgress:
				perf.OpenIssues++
			case domain.IssueStatusResolved:
				perf.ResolvedIssues++
			case domain.IssueStatusClosed:
				perf.ClosedIssues++
			}
		}
		if perf.TotalIssues > 0 {
			perf.ResolutionRate = round2(float64(perf.ResolvedIssues+perf.ClosedIssues) / float64(perf.TotalIssues) * 100)
		}
		report.Categories = append(report.Categories, perf)
	}
	return report, nil
}

// SLAStats summarizes breach compliance for SLA records created in the window.
func (s *AnalyticsService) SLAStats(ctx context.Context, window Window) (*SLAStats, error) {
	window = window.Normalize(s.now())
	now := s.now()

	rows, err := s.slaStats.ListCreatedBetween(ctx, window.From, window.To)
	if err != nil {
		s.logger.Error("sla stats query failed", zap.Error(err))
		return &SLAStats{Period: Period{From: window.From, To: window.To}, Degraded: true}, nil
	}

	stats := &SLAStats{Period: Period{From: window.From, To: window.To}}
	for _, row := range rows {
		stats.TotalRecords++
		if row.Record.Breached {
			stats.BreachedRecords++
		}
		if now.After(row.Record.ResponseDue) && row.TicketStatus == domain.TicketStatusOpen {
			stats.ResponseBreaches++
		}
		if now.After(row.Record.ResolutionDue) && !row.TicketStatus.SLASettled() {
			stats.ResolutionBreaches++
		}
	}
	if stats.TotalRecords > 0 {
		stats.BreachRate = round2(float64(stats.BreachedRecords) / float64(stats.TotalRecords) * 100)
		stats.ComplianceRate = round2(100 - float64(stats.BreachedRecords)/float64(stats.TotalRecords)*100)
	} else {
		stats.ComplianceRate = 100
	}
	return stats, nil
}

func (s *AnalyticsService) cachedDashboard(ctx context.Context, window Window) *DashboardSummary {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey(window)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var summary DashboardSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *AnalyticsService) storeDashboard(ctx context.Context, window Window, summary *DashboardSummary) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey(window), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

func dashboardCacheKey(window Window) string {
	return fmt.Sprintf("analytics:dashboard:%d:%d", window.From.Unix(), window.To.Unix())
}

// round2 rounds for presentation; internal math stays full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
