package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/anomalyeval/internal/config"
	"github.com/soltixdb/anomalyeval/internal/evaluation"
	"github.com/soltixdb/anomalyeval/internal/logging"
	"github.com/soltixdb/anomalyeval/internal/models"
	"github.com/soltixdb/anomalyeval/internal/queue"
)

const (
	reportsSubject = "anomalyeval.reports"
	jobsSubject    = "anomalyeval.jobs"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func stamp(i int) string {
	return start.Add(time.Duration(i) * time.Minute).Format("2006-01-02 15:04:05")
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte) error {
	return errors.New("broker unavailable")
}

func (failingPublisher) PublishBatch(context.Context, []queue.BatchMessage) (int, error) {
	return 0, errors.New("broker unavailable")
}

func (failingPublisher) Close() error { return nil }

func newTestService(t *testing.T, publisher queue.Publisher) *EvaluationService {
	t.Helper()
	svc, err := NewEvaluationService(logging.NewNop(), config.DefaultConfig(), publisher, nil)
	require.NoError(t, err)
	return svc
}

// spikeRequest has one anomalous window at minutes 6-7
func spikeRequest() *models.EvaluateRequest {
	values := []float64{10, 10, 10, 10, 10, 10, 100, 110, 10, 10, 10, 10}
	points := make([]models.PointInput, len(values))
	for i, v := range values {
		points[i] = models.PointInput{Time: stamp(i), Value: v}
	}
	points[6].Label = 1
	points[7].Label = 1
	return &models.EvaluateRequest{Points: points, Lag: 2, Detector: "zscore"}
}

func scoreRequest() *models.ScoreRequest {
	flags := []int{0, 0, 1, 1, 1, 0, 0, 1, 0, 0}
	labels := make([]models.LabelInput, len(flags))
	for i, f := range flags {
		labels[i] = models.LabelInput{Time: stamp(i), Label: f}
	}
	return &models.ScoreRequest{
		Labels: labels,
		Detections: []evaluation.DetectionRecord{
			{Start: stamp(6), End: stamp(8), Score: 0.4},
			{Start: stamp(2), End: stamp(4), Score: 0.9},
		},
	}
}

func decodeReports(t *testing.T, q *queue.MemoryQueue) []evaluation.Report {
	t.Helper()
	var reports []evaluation.Report
	for _, data := range q.Drain(reportsSubject) {
		var r evaluation.Report
		require.NoError(t, json.Unmarshal(data, &r))
		reports = append(reports, r)
	}
	return reports
}

func TestNewEvaluationService_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Detector.Algorithm = "arima"
	_, err := NewEvaluationService(logging.NewNop(), cfg, nil, nil)
	assert.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.Evaluation.Thresholds = nil
	_, err = NewEvaluationService(logging.NewNop(), cfg, nil, nil)
	assert.Error(t, err)
}

func TestEvaluationService_Evaluate(t *testing.T) {
	svc := newTestService(t, nil)

	report, err := svc.Evaluate(context.Background(), spikeRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "zscore", report.Detector)
	assert.Equal(t, 2, report.Lag)
	assert.Equal(t, 6, report.Detections)
	assert.InDelta(t, 1.0, report.MAP, 1e-12)
	assert.Len(t, report.PerThreshold, 5)
}

func TestEvaluationService_EvaluateDefaults(t *testing.T) {
	svc := newTestService(t, nil)
	assert.Equal(t, "sls", svc.DefaultDetector())

	req := spikeRequest()
	req.Detector = ""
	req.Lag = 0

	report, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "sls", report.Detector)
	assert.Equal(t, 10, report.Lag)
	assert.Equal(t, 1, report.Detections)
}

func TestEvaluationService_EvaluateErrors(t *testing.T) {
	svc := newTestService(t, nil)

	tests := []struct {
		name   string
		mutate func(*models.EvaluateRequest)
		code   string
		status int
	}{
		{"no points", func(r *models.EvaluateRequest) { r.Points = nil }, CodeInvalidRequest, 400},
		{"negative lag", func(r *models.EvaluateRequest) { r.Lag = -1 }, CodeInvalidRequest, 400},
		{"unknown detector", func(r *models.EvaluateRequest) { r.Detector = "arima" }, CodeUnknownDetector, 404},
		{"bad timestamp", func(r *models.EvaluateRequest) { r.Points[3].Time = "yesterday" }, CodeInvalidTimestamp, 400},
		{"bad label", func(r *models.EvaluateRequest) { r.Points[0].Label = 2 }, CodeInvalidLabels, 400},
		{"lag too large", func(r *models.EvaluateRequest) { r.Lag = 20 }, CodeInsufficientData, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := spikeRequest()
			tt.mutate(req)

			report, err := svc.Evaluate(context.Background(), req)
			assert.Nil(t, report)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.code, svcErr.Code)
			assert.Equal(t, tt.status, svcErr.HTTPStatus())
		})
	}
}

func TestEvaluationService_UnknownDetectorDetails(t *testing.T) {
	svc := newTestService(t, nil)

	req := spikeRequest()
	req.Detector = "arima"
	_, err := svc.Evaluate(context.Background(), req)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "arima", svcErr.Details["detector"])
	assert.Contains(t, svcErr.Details["available"], "zscore")
}

func TestEvaluationService_Score(t *testing.T) {
	svc := newTestService(t, nil)

	report, err := svc.Score(context.Background(), scoreRequest())
	require.NoError(t, err)

	assert.Empty(t, report.Detector)
	assert.Equal(t, 2, report.Detections)
	assert.Len(t, report.GroundTruth, 2)
	// only the best-ranked prefix is evaluated by default
	assert.InDelta(t, 6.0/11.0, report.MAP, 1e-12)
}

func TestEvaluationService_ScoreFullRanking(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Evaluation.IncludeFullRanking = true
	svc, err := NewEvaluationService(logging.NewNop(), cfg, nil, nil)
	require.NoError(t, err)

	report, err := svc.Score(context.Background(), scoreRequest())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.MAP, 1e-12)
}

func TestEvaluationService_ScoreMalformedDetection(t *testing.T) {
	svc := newTestService(t, nil)

	req := scoreRequest()
	req.Detections[1].End = "later"

	_, err := svc.Score(context.Background(), req)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, CodeInvalidTimestamp, svcErr.Code)
}

func TestEvaluationService_ScoreInvalidDetections(t *testing.T) {
	svc := newTestService(t, nil)

	reversed := scoreRequest()
	reversed.Detections = []evaluation.DetectionRecord{
		{Start: stamp(10), End: stamp(5), Score: 0.9},
		{Start: stamp(6), End: stamp(8), Score: 0.4},
	}
	notFinite := scoreRequest()
	notFinite.Detections[0].Score = math.NaN()

	for name, req := range map[string]*models.ScoreRequest{"reversed window": reversed, "nan score": notFinite} {
		t.Run(name, func(t *testing.T) {
			report, err := svc.Score(context.Background(), req)
			assert.Nil(t, report)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, CodeInvalidDetection, svcErr.Code)
			assert.Equal(t, 400, svcErr.HTTPStatus())
		})
	}
}

func TestEvaluationService_PublishesReports(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()
	svc := newTestService(t, q)

	report, err := svc.Score(context.Background(), scoreRequest())
	require.NoError(t, err)

	published := decodeReports(t, q)
	require.Len(t, published, 1)
	assert.Equal(t, report.ID, published[0].ID)
	assert.InDelta(t, report.MAP, published[0].MAP, 1e-12)
	assert.Len(t, published[0].PerThreshold, 5)
}

func TestEvaluationService_PublishFailureKeepsReport(t *testing.T) {
	svc := newTestService(t, failingPublisher{})

	report, err := svc.Score(context.Background(), scoreRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
}

func TestEvaluationService_HandleJob(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()
	svc := newTestService(t, q)

	job, err := json.Marshal(models.EvaluationJob{ID: "job-1", Score: scoreRequest()})
	require.NoError(t, err)

	require.NoError(t, svc.HandleJob(context.Background(), job))

	published := decodeReports(t, q)
	require.Len(t, published, 1)
	assert.Equal(t, "job-1", published[0].ID)
}

func TestEvaluationService_HandleJobDropsBadInput(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()
	svc := newTestService(t, q)

	bad := scoreRequest()
	bad.Labels[0].Label = 7
	invalidLabels, err := json.Marshal(models.EvaluationJob{ID: "job-2", Score: bad})
	require.NoError(t, err)
	bothSet, err := json.Marshal(models.EvaluationJob{ID: "job-3", Score: scoreRequest(), Evaluate: spikeRequest()})
	require.NoError(t, err)

	for _, payload := range [][]byte{[]byte("{not json"), invalidLabels, bothSet} {
		assert.NoError(t, svc.HandleJob(context.Background(), payload))
	}
	assert.Zero(t, q.PendingCount(reportsSubject))
}

func TestEvaluationService_HandleJobPublishFailure(t *testing.T) {
	svc := newTestService(t, failingPublisher{})

	job, err := json.Marshal(models.EvaluationJob{ID: "job-4", Evaluate: spikeRequest()})
	require.NoError(t, err)

	err = svc.HandleJob(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job-4")
}

func TestEvaluationService_StartJobConsumer(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()
	svc := newTestService(t, q)

	require.NoError(t, svc.StartJobConsumer(q, jobsSubject))
	assert.Error(t, svc.StartJobConsumer(q, jobsSubject))

	for i := 0; i < 3; i++ {
		job, err := json.Marshal(models.EvaluationJob{ID: fmt.Sprintf("job-%d", i), Score: scoreRequest()})
		require.NoError(t, err)
		require.NoError(t, q.Publish(context.Background(), jobsSubject, job))
	}

	require.Eventually(t, func() bool {
		return q.PendingCount(reportsSubject) == 3
	}, 2*time.Second, 10*time.Millisecond)
}
