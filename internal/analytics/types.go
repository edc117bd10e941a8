// Package analytics provides the time-series and label types shared by the
// detector and evaluation packages.
package analytics

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidLabel is returned when a label value is not 0 or 1
	ErrInvalidLabel = errors.New("label must be 0 or 1")

	// ErrUnorderedSeries is returned when timestamps are not strictly increasing
	ErrUnorderedSeries = errors.New("timestamps must be strictly increasing")
)

// TimeSeriesPoint represents a single time-series data point with time and value.
type TimeSeriesPoint struct {
	Time  time.Time
	Value float64
}

// LabelPoint is the ground-truth label of one data point (1 = anomalous).
type LabelPoint struct {
	Time  time.Time
	Value int
}

// LabelSeries is an ordered sequence of labels aligned with a series
type LabelSeries []LabelPoint

// Anomalous counts the points labelled 1
func (ls LabelSeries) Anomalous() int {
	n := 0
	for _, p := range ls {
		if p.Value == 1 {
			n++
		}
	}
	return n
}

// ValidateLabels checks that every value is binary and the timestamps are
// strictly increasing.
func ValidateLabels(labels []LabelPoint) error {
	for i, p := range labels {
		if p.Value != 0 && p.Value != 1 {
			return fmt.Errorf("label %d (%s) = %d: %w", i, p.Time.Format(time.RFC3339), p.Value, ErrInvalidLabel)
		}
		if i > 0 && !p.Time.After(labels[i-1].Time) {
			return fmt.Errorf("label %d (%s): %w", i, p.Time.Format(time.RFC3339), ErrUnorderedSeries)
		}
	}
	return nil
}

// ValidateSeries checks that the data timestamps are strictly increasing
func ValidateSeries(data []TimeSeriesPoint) error {
	for i := 1; i < len(data); i++ {
		if !data[i].Time.After(data[i-1].Time) {
			return fmt.Errorf("point %d (%s): %w", i, data[i].Time.Format(time.RFC3339), ErrUnorderedSeries)
		}
	}
	return nil
}
