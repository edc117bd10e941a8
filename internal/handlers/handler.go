package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/anomalyeval/internal/logging"
	"github.com/soltixdb/anomalyeval/internal/models"
	"github.com/soltixdb/anomalyeval/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	service *services.EvaluationService
	started time.Time
}

// New creates a new handler instance
func New(logger *logging.Logger, service *services.EvaluationService) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		started: time.Now(),
	}
}

// handleError writes a ServiceError as an ErrorResponse. Anything else is
// left to the app error handler.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}

	status := svcErr.HTTPStatus()
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("Evaluation failed", "path", c.Path(), "code", svcErr.Code, "error", svcErr.Message)
	} else {
		h.logger.Debug("Evaluation rejected", "path", c.Path(), "code", svcErr.Code, "error", svcErr.Message)
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Path:    c.Path(),
			Details: svcErr.Details,
		},
	})
}

// NotFound answers requests that match no route
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: fmt.Sprintf("No route for %s %s", c.Method(), c.Path()),
			Path:    c.Path(),
		},
	})
}

func invalidJSON(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_JSON",
			Message: "Invalid JSON body: " + err.Error(),
			Path:    c.Path(),
		},
	})
}
