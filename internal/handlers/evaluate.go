package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
	"github.com/soltixdb/anomalyeval/internal/models"
)

// Evaluate handles POST /v1/evaluate
//
// Body:
//
//	{
//	  "points": [{"time": "2024-01-01 00:00:00", "value": 1.5, "label": 0}, ...],
//	  "lag": 10,
//	  "detector": "sls"
//	}
//
// lag and detector fall back to the configured defaults.
func (h *Handler) Evaluate(c *fiber.Ctx) error {
	var req models.EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}

	report, err := h.service.Evaluate(c.UserContext(), &req)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(report)
}

// Score handles POST /v1/score
//
// Body:
//
//	{
//	  "labels": [{"time": "2024-01-01 00:00:00", "label": 0}, ...],
//	  "detections": [{"start": "...", "end": "...", "score": 0.9}, ...]
//	}
func (h *Handler) Score(c *fiber.Ctx) error {
	var req models.ScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}

	report, err := h.service.Score(c.UserContext(), &req)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(report)
}

// ListDetectors handles GET /v1/detectors
func (h *Handler) ListDetectors(c *fiber.Ctx) error {
	return c.JSON(models.DetectorListResponse{
		Detectors: anomaly.ListDetectors(),
		Default:   h.service.DefaultDetector(),
	})
}
