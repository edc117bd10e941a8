package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/anomalyeval/internal/analytics"
	"github.com/soltixdb/anomalyeval/internal/evaluation"
)

// PointInput is one labelled data point of an evaluate request
type PointInput struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
	Label int     `json:"label"`
}

// EvaluateRequest asks the service to run a detector over a labelled series
// and score its windows. Zero Lag and empty Detector select the configured
// defaults.
type EvaluateRequest struct {
	Points   []PointInput `json:"points"`
	Lag      int          `json:"lag,omitempty"`
	Detector string       `json:"detector,omitempty"`
}

// Validate checks the request shape
func (r *EvaluateRequest) Validate() error {
	if len(r.Points) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "points is required")
	}
	if r.Lag < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "lag must be positive")
	}
	return nil
}

// Series parses the points into aligned data and label series
func (r *EvaluateRequest) Series(layout string) ([]analytics.TimeSeriesPoint, []analytics.LabelPoint, error) {
	data := make([]analytics.TimeSeriesPoint, len(r.Points))
	labels := make([]analytics.LabelPoint, len(r.Points))

	for i, p := range r.Points {
		ts, err := evaluation.ParseTimestamp(p.Time, layout)
		if err != nil {
			return nil, nil, fmt.Errorf("point %d: %w", i, err)
		}
		data[i] = analytics.TimeSeriesPoint{Time: ts, Value: p.Value}
		labels[i] = analytics.LabelPoint{Time: ts, Value: p.Label}
	}

	return data, labels, nil
}

// LabelInput is one ground-truth label of a score request
type LabelInput struct {
	Time  string `json:"time"`
	Label int    `json:"label"`
}

// ScoreRequest scores an externally produced detection table
type ScoreRequest struct {
	Labels     []LabelInput                 `json:"labels"`
	Detections []evaluation.DetectionRecord `json:"detections"`
}

// Validate checks the request shape
func (r *ScoreRequest) Validate() error {
	if len(r.Labels) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "labels is required")
	}
	return nil
}

// LabelSeries parses the labels
func (r *ScoreRequest) LabelSeries(layout string) ([]analytics.LabelPoint, error) {
	labels := make([]analytics.LabelPoint, len(r.Labels))
	for i, l := range r.Labels {
		ts, err := evaluation.ParseTimestamp(l.Time, layout)
		if err != nil {
			return nil, fmt.Errorf("label %d: %w", i, err)
		}
		labels[i] = analytics.LabelPoint{Time: ts, Value: l.Label}
	}
	return labels, nil
}

// EvaluationJob is an evaluation request delivered over the queue. Exactly
// one of Evaluate and Score is set. A non-empty ID becomes the report ID.
type EvaluationJob struct {
	ID       string           `json:"id,omitempty"`
	Evaluate *EvaluateRequest `json:"evaluate,omitempty"`
	Score    *ScoreRequest    `json:"score,omitempty"`
}

// Validate checks that the job carries exactly one request
func (j *EvaluationJob) Validate() error {
	switch {
	case j.Evaluate != nil && j.Score != nil:
		return fiber.NewError(fiber.StatusBadRequest, "job must carry either evaluate or score, not both")
	case j.Evaluate != nil:
		return j.Evaluate.Validate()
	case j.Score != nil:
		return j.Score.Validate()
	default:
		return fiber.NewError(fiber.StatusBadRequest, "job carries no request")
	}
}
