package anomaly

import (
	"math"
)

// SLSDetector detects anomalies with streaming least squares.
// Each point is predicted by a line fitted to the previous lag points and
// scored by the absolute prediction residual.
type SLSDetector struct{}

func init() {
	RegisterDetector("sls", &SLSDetector{})
}

// Name returns the algorithm name
func (s *SLSDetector) Name() string {
	return "sls"
}

// DetectWindows finds the highest-residual windows
func (s *SLSDetector) DetectWindows(data []DataPoint, lag, count int) ([]Window, error) {
	if err := checkInput(data, lag); err != nil {
		return nil, err
	}
	return RankWindows(data, s.Scores(data, lag), lag, count), nil
}

// Scores returns the residual of every point. The first lag points have no
// history and score 0.
func (s *SLSDetector) Scores(data []DataPoint, lag int) []float64 {
	scores := make([]float64, len(data))
	if lag <= 0 {
		return scores
	}

	for i := lag; i < len(data); i++ {
		slope, intercept := FitLine(data[i-lag : i])
		predicted := intercept + slope*float64(lag)
		scores[i] = math.Abs(data[i].Value - predicted)
	}

	return scores
}

// FitLine fits value = intercept + slope*x by ordinary least squares, where x
// is the position of the point inside the window.
func FitLine(window []DataPoint) (slope, intercept float64) {
	n := float64(len(window))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, dp := range window {
		x := float64(i)
		sumX += x
		sumY += dp.Value
		sumXY += x * dp.Value
		sumX2 += x * x
	}

	meanX := sumX / n
	meanY := sumY / n

	// A single point (or constant x) has no slope
	denominator := sumX2 - n*meanX*meanX
	if denominator == 0 {
		return 0, meanY
	}

	slope = (sumXY - n*meanX*meanY) / denominator
	intercept = meanY - slope*meanX
	return slope, intercept
}
