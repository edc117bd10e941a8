package anomaly

import (
	"math"
)

// MovingAverageDetector scores each point by its distance from the average
// of its neighbours. Good for sudden changes in trending data.
type MovingAverageDetector struct{}

func init() {
	RegisterDetector("moving_avg", &MovingAverageDetector{})
}

// Name returns the algorithm name
func (ma *MovingAverageDetector) Name() string {
	return "moving_avg"
}

// DetectWindows finds the windows whose points stray furthest from their local average
func (ma *MovingAverageDetector) DetectWindows(data []DataPoint, lag, count int) ([]Window, error) {
	if err := checkInput(data, lag); err != nil {
		return nil, err
	}
	return RankWindows(data, ma.Scores(data, lag), lag, count), nil
}

// Scores returns |value - local mean| where the local mean covers lag points
// around each point, excluding the point itself
func (ma *MovingAverageDetector) Scores(data []DataPoint, lag int) []float64 {
	half := lag / 2
	if half < 1 {
		half = 1
	}

	scores := make([]float64, len(data))
	for i := range data {
		start := i - half
		end := i + half

		if start < 0 {
			start = 0
		}
		if end >= len(data) {
			end = len(data) - 1
		}

		var sum float64
		count := 0
		for j := start; j <= end; j++ {
			if j != i {
				sum += data[j].Value
				count++
			}
		}

		if count == 0 {
			continue
		}
		scores[i] = math.Abs(data[i].Value - sum/float64(count))
	}

	return scores
}
