package anomaly

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/soltixdb/anomalyeval/internal/analytics"
)

var (
	// ErrInvalidLag is returned when the lag is not a positive number of points
	ErrInvalidLag = errors.New("lag must be positive")

	// ErrInsufficientData is returned when the series is shorter than one lag
	ErrInsufficientData = errors.New("not enough data points for lag")
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// Window is a candidate anomalous interval with its anomaly score
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Score float64   `json:"score"` // Higher = more abnormal
}

// WindowDetector interface for all window-producing detection algorithms
type WindowDetector interface {
	// Name returns the algorithm name
	Name() string

	// DetectWindows scores the series and returns at most count windows
	// ordered by descending score
	DetectWindows(data []DataPoint, lag, count int) ([]Window, error)
}

// Registry holds available detectors
var detectorRegistry = make(map[string]WindowDetector)

// RegisterDetector adds a detector to the registry
func RegisterDetector(name string, detector WindowDetector) {
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (WindowDetector, error) {
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector: %s", name)
}

// ListDetectors returns the sorted list of available detector names
func ListDetectors() []string {
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkInput validates the arguments shared by every detector
func checkInput(data []DataPoint, lag int) error {
	if lag <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLag, lag)
	}
	if len(data) < lag {
		return fmt.Errorf("%w: have %d, lag %d", ErrInsufficientData, len(data), lag)
	}
	return nil
}

// RankWindows tiles the series into consecutive blocks of lag points, scores
// each block by the maximum of its point scores and returns the count
// highest-scoring blocks. Ties keep time order. A trailing partial block is
// scored like the others. count < 0 returns every block.
func RankWindows(data []DataPoint, scores []float64, lag, count int) []Window {
	if lag <= 0 || len(data) == 0 || len(scores) != len(data) {
		return nil
	}

	windows := make([]Window, 0, len(data)/lag+1)
	for start := 0; start < len(data); start += lag {
		end := start + lag - 1
		if end >= len(data) {
			end = len(data) - 1
		}

		best := scores[start]
		for j := start + 1; j <= end; j++ {
			if scores[j] > best {
				best = scores[j]
			}
		}

		windows = append(windows, Window{
			Start: data[start].Time,
			End:   data[end].Time,
			Score: best,
		})
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Score > windows[j].Score
	})

	if count >= 0 && count < len(windows) {
		windows = windows[:count]
	}
	return windows
}
