package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/goals-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	db      Pinger
	cache   Pinger
	plugins int
}

// NewHealthHandler builds the health check. A nil cache pinger reports the
// cache as disabled.
func NewHealthHandler(db, cache Pinger, plugins int) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, plugins: plugins}
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "ok"
}

// Check answers 200 while the database is reachable and 503 otherwise. The
// cache is optional and never fails the check.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        probe(ctx, h.db),
		Cache:     probe(ctx, h.cache),
		Plugins:   h.plugins,
	}
	if resp.DB != "ok" {
		resp.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
