package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
	"github.com/soltixdb/anomalyeval/internal/config"
	"github.com/soltixdb/anomalyeval/internal/logging"
	"github.com/soltixdb/anomalyeval/internal/models"
	"github.com/soltixdb/anomalyeval/internal/queue"
	"github.com/soltixdb/anomalyeval/internal/services"
	"github.com/soltixdb/anomalyeval/internal/utils"
)

func healthApp(t *testing.T, publisher queue.Publisher) *fiber.App {
	t.Helper()

	logger := logging.NewNop()
	svc, err := services.NewEvaluationService(logger, config.DefaultConfig(), publisher, nil)
	require.NoError(t, err)

	h := New(logger, svc)
	app := fiber.New()
	app.Get("/health", h.Health)
	app.Use(h.NotFound)
	return app
}

func TestHandler_Health(t *testing.T) {
	status, body := doJSON(t, healthApp(t, nil), http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusOK, status)

	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, utils.Version, health.Version)
	assert.Equal(t, "sls", health.DefaultDetector)
	assert.Equal(t, len(anomaly.ListDetectors()), health.Detectors)
	assert.GreaterOrEqual(t, health.UptimeSeconds, 0.0)
	assert.False(t, health.Publishing)
}

func TestHandler_HealthPublishing(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()

	_, body := doJSON(t, healthApp(t, q), http.MethodGet, "/health", nil)

	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.True(t, health.Publishing)
}

func TestHandler_NotFound(t *testing.T) {
	status, body := doJSON(t, healthApp(t, nil), http.MethodPost, "/v2/evaluate", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "NOT_FOUND", errResp.Error.Code)
	assert.Equal(t, "No route for POST /v2/evaluate", errResp.Error.Message)
	assert.Equal(t, "/v2/evaluate", errResp.Error.Path)
}
