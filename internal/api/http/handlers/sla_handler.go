package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// SLAHandler exposes policy administration, per-ticket SLA records and the
// on-demand breach sweep.
type SLAHandler struct {
	policies *service.SLAPolicyService
	attacher *service.SLAAttachService
	detector *service.BreachService
	records  repository.TicketSLARepository
	metrics  *observability.Metrics
}

// NewSLAHandler constructs handler.
func NewSLAHandler(policies *service.SLAPolicyService, attacher *service.SLAAttachService, detector *service.BreachService, records repository.TicketSLARepository, metrics *observability.Metrics) *SLAHandler {
	return &SLAHandler{policies: policies, attacher: attacher, detector: detector, records: records, metrics: metrics}
}

// CreatePolicy POST /sla/policies.
func (h *SLAHandler) CreatePolicy(c *fiber.Ctx) error {
	var req dto.CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	policy, err := h.policies.Create(c.UserContext(), service.SLAPolicyInput{
		CategoryID:     req.CategoryID,
		Priority:       req.Priority,
		ResponseTime:   req.ResponseTime,
		ResolutionTime: req.ResolutionTime,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// ListPolicies GET /sla/policies.
func (h *SLAHandler) ListPolicies(c *fiber.Ctx) error {
	filter := repository.SLAPolicyFilter{}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.TicketPriority(priorityStr)
		filter.Priority = &priority
	}
	filter.Limit, filter.Offset = parsePagination(c)

	policies, err := h.policies.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, dto.NewPolicyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetPolicy GET /sla/policies/:id.
func (h *SLAHandler) GetPolicy(c *fiber.Ctx) error {
	policy, err := h.policies.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// UpdatePolicy PUT /sla/policies/:id.
func (h *SLAHandler) UpdatePolicy(c *fiber.Ctx) error {
	var req dto.UpdatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	policy, err := h.policies.Update(c.UserContext(), c.Params("id"), req.Priority, req.ResponseTime, req.ResolutionTime)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPolicyResponse(policy)})
}

// DeletePolicy DELETE /sla/policies/:id.
func (h *SLAHandler) DeletePolicy(c *fiber.Ctx) error {
	if err := h.policies.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetTicketRecord GET /sla/tickets/:ticket_id.
func (h *SLAHandler) GetTicketRecord(c *fiber.Ctx) error {
	record, err := h.records.GetByTicket(c.UserContext(), c.Params("ticket_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("sla record", map[string]any{"ticket_id": c.Params("ticket_id")})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLARecordResponse(record)})
}

// AttachTicket POST /sla/tickets/:ticket_id/attach. Recomputes deadlines for
// one ticket, recovering from a failed attach at creation time.
func (h *SLAHandler) AttachTicket(c *fiber.Ctx) error {
	record, err := h.attacher.Attach(c.UserContext(), c.Params("ticket_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLARecordResponse(record)})
}

// Sweep POST /sla/sweep. Runs one breach detection pass immediately and
// returns the report.
func (h *SLAHandler) Sweep(c *fiber.Ctx) error {
	report, err := h.detector.Sweep(c.UserContext(), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// SweepStats GET /sla/sweep/stats. Cumulative counters across scheduled and
// on-demand sweeps since boot.
func (h *SLAHandler) SweepStats(c *fiber.Ctx) error {
	runs, breaches, failures := h.metrics.SweepStats()
	return c.JSON(fiber.Map{"data": fiber.Map{
		"runs":     runs,
		"breaches": breaches,
		"failures": failures,
	}})
}
