package anomaly

import "math"

// exponentialAlpha is the smoothing factor of the exponential detector
const exponentialAlpha = 0.3

// ExponentialDetector scores each point by its one-step-ahead error under
// simple exponential smoothing. lag only sets the window size.
type ExponentialDetector struct{}

func init() {
	RegisterDetector("exponential", &ExponentialDetector{})
}

// Name returns the algorithm name
func (e *ExponentialDetector) Name() string {
	return "exponential"
}

// DetectWindows finds the windows with the largest smoothing error
func (e *ExponentialDetector) DetectWindows(data []DataPoint, lag, count int) ([]Window, error) {
	if err := checkInput(data, lag); err != nil {
		return nil, err
	}
	return RankWindows(data, e.Scores(data), lag, count), nil
}

// Scores returns |value - smoothed forecast|. The first point seeds the
// level and scores 0.
func (e *ExponentialDetector) Scores(data []DataPoint) []float64 {
	scores := make([]float64, len(data))
	if len(data) == 0 {
		return scores
	}

	level := data[0].Value
	for i := 1; i < len(data); i++ {
		level = exponentialAlpha*data[i-1].Value + (1-exponentialAlpha)*level
		scores[i] = math.Abs(data[i].Value - level)
	}
	return scores
}
