package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ZScoreDetector detects anomalies using Z-Score (standard score)
// Z-Score measures how many standard deviations a point is from the mean
type ZScoreDetector struct{}

func init() {
	RegisterDetector("zscore", &ZScoreDetector{})
}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return "zscore"
}

// DetectWindows finds the windows holding the largest |z|
func (z *ZScoreDetector) DetectWindows(data []DataPoint, lag, count int) ([]Window, error) {
	if err := checkInput(data, lag); err != nil {
		return nil, err
	}
	return RankWindows(data, z.Scores(data), lag, count), nil
}

// Scores returns |z| for every point. A flat series scores 0 everywhere.
func (z *ZScoreDetector) Scores(data []DataPoint) []float64 {
	values := make([]float64, len(data))
	for i, dp := range data {
		values[i] = dp.Value
	}

	scores := make([]float64, len(data))
	if len(values) == 0 {
		return scores
	}
	mean, stdDev := stat.PopMeanStdDev(values, nil)

	for i, v := range values {
		scores[i] = math.Abs(CalculateZScore(v, mean, stdDev))
	}
	return scores
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
