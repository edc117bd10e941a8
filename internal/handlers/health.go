package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
	"github.com/soltixdb/anomalyeval/internal/models"
	"github.com/soltixdb/anomalyeval/internal/utils"
)

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:          "ok",
		Version:         utils.Version,
		UptimeSeconds:   time.Since(h.started).Seconds(),
		Detectors:       len(anomaly.ListDetectors()),
		DefaultDetector: h.service.DefaultDetector(),
		Publishing:      h.service.Publishing(),
	})
}
