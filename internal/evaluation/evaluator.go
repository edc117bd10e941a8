// Package evaluation scores ranked anomaly windows against labelled ground
// truth with a windowed, overlap-tolerant mean average precision.
package evaluation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/anomalyeval/internal/analytics"
	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
	"github.com/soltixdb/anomalyeval/internal/logging"
)

// Report is the outcome of one evaluation
type Report struct {
	ID           string        `json:"id,omitempty"`
	Detector     string        `json:"detector,omitempty"`
	Lag          int           `json:"lag,omitempty"`
	MAP          float64       `json:"map"`
	PerThreshold []APResult    `json:"per_threshold"`
	GroundTruth  []Interval    `json:"ground_truth"`
	Detections   int           `json:"detections"`
	Degenerate   bool          `json:"degenerate"`
	CreatedAt    time.Time     `json:"created_at"`
	Duration     time.Duration `json:"duration_ns"`
}

// Evaluator computes mAP with a fixed configuration and detector
type Evaluator struct {
	cfg      Config
	detector anomaly.WindowDetector
	logger   *logging.Logger
}

// NewEvaluator creates an Evaluator. detector may be nil when only Score is used.
func NewEvaluator(cfg Config, detector anomaly.WindowDetector, logger *logging.Logger) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Evaluator{
		cfg:      cfg,
		detector: detector,
		logger:   logger,
	}, nil
}

// Config returns the evaluation configuration
func (e *Evaluator) Config() Config {
	return e.cfg
}

// MeanAveragePrecision runs the detector once over data, asking for
// len(data)/lag candidate windows, and averages AP over the configured
// thresholds.
func (e *Evaluator) MeanAveragePrecision(ctx context.Context, data []analytics.TimeSeriesPoint, labels []analytics.LabelPoint, lag int) (*Report, error) {
	if e.detector == nil {
		return nil, ErrNoDetector
	}
	if lag <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLag, lag)
	}
	if err := analytics.ValidateSeries(data); err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	if err := checkAligned(data, labels); err != nil {
		return nil, err
	}

	count := len(data) / lag
	windows, err := e.detector.DetectWindows(data, lag, count)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDetector, e.detector.Name(), err)
	}

	e.logger.Debug("Detector produced windows",
		"detector", e.detector.Name(),
		"lag", lag,
		"requested", count,
		"windows", len(windows))

	report, err := e.Score(ctx, FromWindows(windows), labels)
	if err != nil {
		return nil, err
	}
	report.Detector = e.detector.Name()
	report.Lag = lag
	return report, nil
}

// Score averages AP over the configured thresholds for an externally
// produced detection table. Detections are ranked by descending score first.
func (e *Evaluator) Score(ctx context.Context, detections []Detection, labels []analytics.LabelPoint) (*Report, error) {
	start := time.Now()

	if err := analytics.ValidateLabels(labels); err != nil {
		return nil, fmt.Errorf("invalid labels: %w", err)
	}
	if err := ValidateDetections(detections); err != nil {
		return nil, err
	}

	ranked := SortByScore(detections)
	groundTruth := ExtractGroundTruthWindows(labels)
	ious, covered := ScoreDetections(ranked, groundTruth)

	results, err := e.thresholdAPs(ctx, ious, covered, len(groundTruth))
	if err != nil {
		return nil, err
	}

	aps := make([]float64, len(results))
	degenerate := false
	for i, r := range results {
		aps[i] = r.AP
		degenerate = degenerate || r.Degenerate
		e.logger.Debug("Average precision",
			"threshold", r.Threshold,
			"ap", r.AP,
			"points", len(r.Curve))
	}

	report := &Report{
		MAP:          stat.Mean(aps, nil),
		PerThreshold: results,
		GroundTruth:  groundTruth,
		Detections:   len(ranked),
		Degenerate:   degenerate,
		CreatedAt:    start.UTC(),
		Duration:     time.Since(start),
	}

	e.logger.WithContext(ctx).Info("Evaluation completed",
		"map", report.MAP,
		"ground_truth_windows", len(groundTruth),
		"detections", len(ranked),
		"degenerate", degenerate)

	return report, nil
}

// thresholdAPs computes one APResult per threshold, in threshold order
func (e *Evaluator) thresholdAPs(ctx context.Context, ious []float64, covered [][]int, totalGroundTruth int) ([]APResult, error) {
	results := make([]APResult, len(e.cfg.Thresholds))

	if !e.cfg.Parallel {
		for i, th := range e.cfg.Thresholds {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = averagePrecision(ious, covered, totalGroundTruth, th, e.cfg)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, th := range e.cfg.Thresholds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = averagePrecision(ious, covered, totalGroundTruth, th, e.cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkAligned requires one label per data point at the same timestamp
func checkAligned(data []analytics.TimeSeriesPoint, labels []analytics.LabelPoint) error {
	if len(data) != len(labels) {
		return fmt.Errorf("%w: %d points, %d labels", ErrMisaligned, len(data), len(labels))
	}
	for i := range data {
		if !data[i].Time.Equal(labels[i].Time) {
			return fmt.Errorf("%w: point %d at %s, label at %s", ErrMisaligned, i,
				data[i].Time.Format(time.RFC3339), labels[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}
