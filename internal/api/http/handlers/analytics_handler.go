package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/service"
)

// AnalyticsHandler exposes on-demand aggregation endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	history   repository.HistoryRepository
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, history repository.HistoryRepository) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, history: history}
}

// Dashboard GET /analytics/dashboard.
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	summary, err := h.analytics.DashboardSummary(c.UserContext(), parseWindow(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Departments GET /analytics/departments.
func (h *AnalyticsHandler) Departments(c *fiber.Ctx) error {
	report, err := h.analytics.DepartmentPerformance(c.UserContext(), parseWindow(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Categories GET /analytics/categories.
func (h *AnalyticsHandler) Categories(c *fiber.Ctx) error {
	report, err := h.analytics.CategoryAnalytics(c.UserContext(), parseWindow(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// SLA GET /analytics/sla.
func (h *AnalyticsHandler) SLA(c *fiber.Ctx) error {
	stats, err := h.analytics.SLAStats(c.UserContext(), parseWindow(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Activity GET /analytics/activity. Latest audit entries across tickets and
// issues, the feed dashboards render next to the aggregates.
func (h *AnalyticsHandler) Activity(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), 50)
	entries, err := h.history.ListRecent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}

func parseWindow(c *fiber.Ctx) service.Window {
	window := service.Window{}
	if from := parseTime(c.Query("start_date")); from != nil {
		window.From = *from
	}
	if to := parseTime(c.Query("end_date")); to != nil {
		window.To = *to
	}
	return window
}
