package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
	"github.com/soltixdb/anomalyeval/internal/config"
	"github.com/soltixdb/anomalyeval/internal/evaluation"
	"github.com/soltixdb/anomalyeval/internal/logging"
	"github.com/soltixdb/anomalyeval/internal/metrics"
	"github.com/soltixdb/anomalyeval/internal/models"
	"github.com/soltixdb/anomalyeval/internal/queue"
	"github.com/soltixdb/anomalyeval/internal/utils"
)

// EvaluationService runs evaluations, records metrics and publishes reports
type EvaluationService struct {
	logger    *logging.Logger
	evalCfg   evaluation.Config
	layout    string
	detector  config.DetectorConfig
	publisher queue.Publisher
	subject   string
	metrics   *metrics.Metrics
}

// NewEvaluationService creates an EvaluationService. publisher may be nil
// to disable report publishing.
func NewEvaluationService(
	logger *logging.Logger,
	cfg *config.Config,
	publisher queue.Publisher,
	m *metrics.Metrics,
) (*EvaluationService, error) {
	evalCfg := EvaluationConfig(cfg.Evaluation)
	if err := evalCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluation config: %w", err)
	}
	if _, err := anomaly.GetDetector(cfg.Detector.Algorithm); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	if m == nil {
		m = metrics.New()
	}

	return &EvaluationService{
		logger:    logger,
		evalCfg:   evalCfg,
		layout:    cfg.Evaluation.TimeLayout,
		detector:  cfg.Detector,
		publisher: publisher,
		subject:   cfg.Queue.Subject,
		metrics:   m,
	}, nil
}

// EvaluationConfig maps the configuration section onto the core config
func EvaluationConfig(c config.EvaluationConfig) evaluation.Config {
	return evaluation.Config{
		Thresholds:         c.Thresholds,
		RecallLevels:       c.RecallLevels,
		IncludeFullRanking: c.IncludeFullRanking,
		Parallel:           c.Parallel,
	}
}

// DefaultDetector returns the configured detector name
func (s *EvaluationService) DefaultDetector() string {
	return s.detector.Algorithm
}

// Publishing reports whether finished reports are sent to a queue
func (s *EvaluationService) Publishing() bool {
	return s.publisher != nil
}

// Evaluate runs the requested (or default) detector over the points and
// scores its windows against the point labels. A report that fails to
// publish is still returned.
func (s *EvaluationService) Evaluate(ctx context.Context, req *models.EvaluateRequest) (*evaluation.Report, error) {
	report, err := s.evaluate(ctx, "", req)
	if report != nil {
		return report, nil
	}
	return nil, err
}

func (s *EvaluationService) evaluate(ctx context.Context, id string, req *models.EvaluateRequest) (*evaluation.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, s.reject(metrics.ModeDetect, err)
	}

	name := req.Detector
	if name == "" {
		name = s.detector.Algorithm
	}
	lag := req.Lag
	if lag == 0 {
		lag = s.detector.Lag
	}

	detector, err := anomaly.GetDetector(name)
	if err != nil {
		s.metrics.ObserveFailure(metrics.ModeDetect, metrics.StatusRejected)
		return nil, NewServiceErrorWithDetails(CodeUnknownDetector, err.Error(), map[string]interface{}{
			"detector":  name,
			"available": anomaly.ListDetectors(),
		})
	}

	data, labels, err := req.Series(s.layout)
	if err != nil {
		return nil, s.reject(metrics.ModeDetect, err)
	}

	evaluator, err := evaluation.NewEvaluator(s.evalCfg, detector, s.logger)
	if err != nil {
		return nil, s.reject(metrics.ModeDetect, err)
	}

	report, err := evaluator.MeanAveragePrecision(ctx, data, labels, lag)
	if err != nil {
		return nil, s.reject(metrics.ModeDetect, err)
	}

	return report, s.finish(ctx, metrics.ModeDetect, id, report)
}

// Score scores an externally produced detection table against labels
func (s *EvaluationService) Score(ctx context.Context, req *models.ScoreRequest) (*evaluation.Report, error) {
	report, err := s.score(ctx, "", req)
	if report != nil {
		return report, nil
	}
	return nil, err
}

func (s *EvaluationService) score(ctx context.Context, id string, req *models.ScoreRequest) (*evaluation.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, s.reject(metrics.ModeScore, err)
	}

	labels, err := req.LabelSeries(s.layout)
	if err != nil {
		return nil, s.reject(metrics.ModeScore, err)
	}
	detections, err := evaluation.ParseDetections(req.Detections, s.layout)
	if err != nil {
		return nil, s.reject(metrics.ModeScore, err)
	}

	evaluator, err := evaluation.NewEvaluator(s.evalCfg, nil, s.logger)
	if err != nil {
		return nil, s.reject(metrics.ModeScore, err)
	}

	report, err := evaluator.Score(ctx, detections, labels)
	if err != nil {
		return nil, s.reject(metrics.ModeScore, err)
	}

	return report, s.finish(ctx, metrics.ModeScore, id, report)
}

// HandleJob processes one queued EvaluationJob. Malformed or invalid jobs
// are dropped; a failed report publication is returned so the broker
// redelivers the job.
func (s *EvaluationService) HandleJob(ctx context.Context, data []byte) error {
	var job models.EvaluationJob
	if err := json.Unmarshal(data, &job); err != nil {
		s.metrics.ObserveFailure(metrics.ModeJob, metrics.StatusRejected)
		s.logger.Warn("Dropping malformed evaluation job", "error", err, "size", len(data))
		return nil
	}
	if err := job.Validate(); err != nil {
		s.metrics.ObserveFailure(metrics.ModeJob, metrics.StatusRejected)
		s.logger.Warn("Dropping invalid evaluation job", "job_id", job.ID, "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, utils.DefaultRequestTimeout)
	defer cancel()

	var report *evaluation.Report
	var err error
	if job.Evaluate != nil {
		report, err = s.evaluate(ctx, job.ID, job.Evaluate)
	} else {
		report, err = s.score(ctx, job.ID, job.Score)
	}

	if report != nil {
		// scored but not published
		return err
	}

	s.logger.Warn("Evaluation job failed", "job_id", job.ID, "error", err)
	return nil
}

// StartJobConsumer subscribes HandleJob to subject
func (s *EvaluationService) StartJobConsumer(sub queue.Subscriber, subject string) error {
	if err := sub.Subscribe(subject, s.HandleJob); err != nil {
		return fmt.Errorf("failed to subscribe to jobs: %w", err)
	}
	s.logger.Info("Consuming evaluation jobs", "subject", subject)
	return nil
}

// reject records and classifies a failed evaluation
func (s *EvaluationService) reject(mode string, err error) error {
	svcErr := classify(err)
	status := metrics.StatusRejected
	if svcErr.HTTPStatus() >= 500 {
		status = metrics.StatusError
	}
	s.metrics.ObserveFailure(mode, status)
	return svcErr
}

// finish assigns the report ID, records metrics and publishes the report.
// Only the publication can fail.
func (s *EvaluationService) finish(ctx context.Context, mode, id string, report *evaluation.Report) error {
	if id == "" {
		id = uuid.NewString()
	}
	report.ID = id

	aps := make([]float64, len(report.PerThreshold))
	for i, r := range report.PerThreshold {
		aps[i] = r.AP
	}
	s.metrics.ObserveEvaluation(mode, report.Detector, report.MAP, aps, len(report.GroundTruth), report.Duration)

	logger := s.logger.WithContext(logging.WithReportID(ctx, id))
	logger.Info("Report ready",
		"mode", mode,
		"detector", report.Detector,
		"map", report.MAP,
		"duration", report.Duration.String())

	if s.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	start := time.Now()
	if err := s.publisher.Publish(pubCtx, s.subject, payload); err != nil {
		s.metrics.ObservePublishFailure()
		logger.Error("Failed to publish report", "subject", s.subject, "error", err)
		return fmt.Errorf("failed to publish report %s: %w", id, err)
	}
	logger.Debug("Report published", "subject", s.subject, "elapsed", time.Since(start).String())
	return nil
}
