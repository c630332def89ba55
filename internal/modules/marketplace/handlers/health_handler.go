package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	billing string
}

func NewHealthHandler(db Pinger, billingProvider string) *HealthHandler {
	return &HealthHandler{db: db, billing: billingProvider}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if API and database are alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "ok", fiber.StatusOK
	database := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		status, code = "degraded", fiber.StatusServiceUnavailable
		database = err.Error()
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"service":  "marketplace-api",
		"database": database,
		"billing":  h.billing,
	})
}
