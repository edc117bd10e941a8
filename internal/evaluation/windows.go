package evaluation

import (
	"time"

	"github.com/soltixdb/anomalyeval/internal/analytics"
)

// Interval is a closed time range [Start, End]
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// ExtractGroundTruthWindows converts point-wise labels into the maximal runs
// of 1s. Endpoints are the timestamps of the first and last labelled point
// of each run. A run at index 0 opens at labels[0].Time and a run still open
// at the end closes at the last timestamp, including a run that starts on
// the final label. Fewer than two labels yield no windows.
func ExtractGroundTruthWindows(labels []analytics.LabelPoint) []Interval {
	if len(labels) < 2 {
		return []Interval{}
	}

	windows := make([]Interval, 0)
	var start time.Time
	if labels[0].Value == 1 {
		start = labels[0].Time
	}

	for i := 1; i < len(labels); i++ {
		prev, cur := labels[i-1], labels[i]
		switch {
		case prev.Value == 0 && cur.Value == 1:
			start = cur.Time
		case prev.Value == 1 && cur.Value == 0:
			windows = append(windows, Interval{Start: start, End: prev.Time})
		}
	}

	last := labels[len(labels)-1]
	if last.Value == 1 {
		windows = append(windows, Interval{Start: start, End: last.Time})
	}

	return windows
}
