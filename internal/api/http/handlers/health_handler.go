package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/persistence"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name     string
	pinger   Pinger
	optional bool
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        []dependency
}

// NewHealthHandler returns a new handler instance. Postgres gates readiness.
// Redis gates it only when configured; pass nil to leave it out of the report.
func NewHealthHandler(serviceName, version string, postgres, redis Pinger) *HealthHandler {
	deps := []dependency{{name: "postgres", pinger: postgres}}
	if redis != nil {
		deps = append(deps, dependency{name: "redis", pinger: redis, optional: true})
	}
	return &HealthHandler{serviceName: serviceName, version: version, deps: deps}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	status := fiber.Map{}
	ready := true
	for _, dep := range h.deps {
		err := dep.pinger.Ping(ctx)
		switch {
		case err == nil:
			status[dep.name] = "ok"
		case dep.optional && errors.Is(err, persistence.ErrRedisDisabled):
			status[dep.name] = "disabled"
		default:
			status[dep.name] = err.Error()
			ready = false
		}
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": status,
			},
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": status})
}
