package evaluation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
)

// DefaultTimeLayout is the timestamp layout of detection tables
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Detection is a candidate anomaly window with its detector score
type Detection struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Score float64   `json:"score"`
}

// Interval returns the window of the detection
func (d Detection) Interval() Interval {
	return Interval{Start: d.Start, End: d.End}
}

// DetectionRecord is the textual form of a detection as produced by
// external detectors
type DetectionRecord struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Score float64 `json:"score"`
}

// ParseDetections parses detection records with the given layout, falling
// back to RFC3339. Records keep their order. An empty layout means
// DefaultTimeLayout.
func ParseDetections(records []DetectionRecord, layout string) ([]Detection, error) {
	if layout == "" {
		layout = DefaultTimeLayout
	}

	detections := make([]Detection, len(records))
	for i, r := range records {
		start, err := ParseTimestamp(r.Start, layout)
		if err != nil {
			return nil, fmt.Errorf("detection %d start: %w", i, err)
		}
		end, err := ParseTimestamp(r.End, layout)
		if err != nil {
			return nil, fmt.Errorf("detection %d end: %w", i, err)
		}
		detections[i] = Detection{Start: start, End: end, Score: r.Score}
		if err := detections[i].Validate(); err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
	}
	return detections, nil
}

// Validate requires End >= Start and a finite score. Ranking and the
// non-negative IoU both depend on it.
func (d Detection) Validate() error {
	if d.End.Before(d.Start) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidWindow,
			d.Start.Format(time.RFC3339), d.End.Format(time.RFC3339))
	}
	if math.IsNaN(d.Score) || math.IsInf(d.Score, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScore, d.Score)
	}
	return nil
}

// ValidateDetections validates every detection
func ValidateDetections(detections []Detection) error {
	for i, d := range detections {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("detection %d: %w", i, err)
		}
	}
	return nil
}

// ParseTimestamp parses s with layout, then RFC3339
func ParseTimestamp(s, layout string) (time.Time, error) {
	if t, err := time.Parse(layout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q does not match %q", ErrMalformedTimestamp, s, layout)
}

// FromWindows converts detector windows into detections
func FromWindows(windows []anomaly.Window) []Detection {
	detections := make([]Detection, len(windows))
	for i, w := range windows {
		detections[i] = Detection{Start: w.Start, End: w.End, Score: w.Score}
	}
	return detections
}

// SortByScore returns a copy ordered by descending score. Equal scores keep
// their input order.
func SortByScore(detections []Detection) []Detection {
	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}
