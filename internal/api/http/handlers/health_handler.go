package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/persistence"
)

const dependencyProbeTimeout = 2 * time.Second

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness by pinging postgres and redis. A single failed
// dependency makes the whole probe fail so the instance is pulled from
// rotation before requests hit broken storage.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), dependencyProbeTimeout)
	defer cancel()

	checks := fiber.Map{
		"postgres": probe(ctx, h.postgres.Ping),
		"redis":    probe(ctx, h.redis.Ping),
	}
	for _, result := range checks {
		if result.(fiber.Map)["status"] != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "DEPENDENCY_UNAVAILABLE",
					"message": "one or more dependencies unavailable",
					"details": checks,
				},
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": checks,
	})
}

func probe(ctx context.Context, ping func(context.Context) error) fiber.Map {
	start := time.Now()
	if err := ping(ctx); err != nil {
		return fiber.Map{"status": "error", "error": err.Error()}
	}
	return fiber.Map{"status": "ok", "latency_ms": time.Since(start).Milliseconds()}
}
