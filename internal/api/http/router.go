package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Catalog        *handlers.CatalogHandler
	Issues         *handlers.IssuesHandler
	Tickets        *handlers.TicketsHandler
	SLA            *handlers.SLAHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	departments := app.Group("/departments", cfg.AuthMiddleware.Handle)
	departments.Post("/", auth.RequireAdmin(), cfg.Catalog.CreateDepartment)
	departments.Get("/", cfg.Catalog.ListDepartments)

	categories := app.Group("/categories", cfg.AuthMiddleware.Handle)
	categories.Post("/", auth.RequireAdmin(), cfg.Catalog.CreateCategory)
	categories.Get("/", cfg.Catalog.ListCategories)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Post("/", cfg.Issues.Create)
	issues.Get("/", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Patch("/:id/status", auth.RequireStaff(), cfg.Issues.UpdateStatus)
	issues.Get("/:id/history", auth.RequireStaff(), cfg.Issues.History)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", auth.RequireStaff(), cfg.Tickets.Create)
	tickets.Get("/", auth.RequireStaff(), cfg.Tickets.List)
	tickets.Get("/number/:number", auth.RequireStaff(), cfg.Tickets.GetByNumber)
	tickets.Get("/:id", auth.RequireStaff(), cfg.Tickets.Get)
	tickets.Patch("/:id/status", auth.RequireStaff(), cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", auth.RequireStaff(), cfg.Tickets.UpdatePriority)
	tickets.Patch("/:id/assign", auth.RequireStaff(), cfg.Tickets.Assign)
	tickets.Get("/:id/history", auth.RequireStaff(), cfg.Tickets.History)
	tickets.Post("/:id/feedback", auth.RequireCitizen(), cfg.Tickets.SubmitFeedback)
	tickets.Get("/:id/feedback/me", auth.RequireCitizen(), cfg.Tickets.GetOwnFeedback)
	tickets.Get("/:id/feedback", auth.RequireStaff(), cfg.Tickets.ListFeedback)

	sla := app.Group("/sla", cfg.AuthMiddleware.Handle)
	sla.Post("/policies", auth.RequireAdmin(), cfg.SLA.CreatePolicy)
	sla.Get("/policies", auth.RequireStaff(), cfg.SLA.ListPolicies)
	sla.Get("/policies/:id", auth.RequireStaff(), cfg.SLA.GetPolicy)
	sla.Put("/policies/:id", auth.RequireAdmin(), cfg.SLA.UpdatePolicy)
	sla.Delete("/policies/:id", auth.RequireAdmin(), cfg.SLA.DeletePolicy)
	sla.Get("/tickets/:ticket_id", auth.RequireStaff(), cfg.SLA.GetTicketRecord)
	sla.Post("/tickets/:ticket_id/attach", auth.RequireStaff(), cfg.SLA.AttachTicket)
	sla.Post("/sweep", auth.RequireAdmin(), cfg.SLA.Sweep)
	sla.Get("/sweep/stats", auth.RequireAdmin(), cfg.SLA.SweepStats)

	analytics := app.Group("/analytics", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	analytics.Get("/dashboard", cfg.Analytics.Dashboard)
	analytics.Get("/departments", cfg.Analytics.Departments)
	analytics.Get("/categories", cfg.Analytics.Categories)
	analytics.Get("/sla", cfg.Analytics.SLA)
	analytics.Get("/activity", cfg.Analytics.Activity)
}
