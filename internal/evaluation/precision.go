package evaluation

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/anomalyeval/internal/analytics"
)

// PRPoint is the precision and recall of the top Rank detections
type PRPoint struct {
	Rank      int     `json:"rank"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// APResult is the average precision at one IoU threshold
type APResult struct {
	Threshold float64 `json:"threshold"`
	AP        float64 `json:"ap"`

	// Curve holds one point per ranked prefix
	Curve []PRPoint `json:"curve,omitempty"`

	// Interpolated holds the precision at each recall level, highest level first
	Interpolated []float64 `json:"interpolated"`

	// Degenerate is set when the ranking produced no curve points
	Degenerate bool `json:"degenerate"`
}

// PrecisionRecallCurve sweeps the ranked detections. At rank k the true
// positives are the detections among the first k whose IoU exceeds threshold;
// recall counts the distinct ground-truth windows those detections cover.
// Ranks run 1..N-1, or 1..N with includeFull.
func PrecisionRecallCurve(ious []float64, covered [][]int, totalGroundTruth int, threshold float64, includeFull bool) []PRPoint {
	last := len(ious) - 1
	if includeFull {
		last = len(ious)
	}
	if last < 1 {
		return []PRPoint{}
	}

	curve := make([]PRPoint, 0, last)
	seen := make(map[int]struct{})
	tp := 0

	for k := 1; k <= last; k++ {
		j := k - 1
		if ious[j] > threshold {
			tp++
			if j < len(covered) {
				for _, g := range covered[j] {
					seen[g] = struct{}{}
				}
			}
		}

		recall := 0.0
		if totalGroundTruth > 0 {
			recall = float64(len(seen)) / float64(totalGroundTruth)
		}

		curve = append(curve, PRPoint{
			Rank:      k,
			Precision: float64(tp) / float64(k),
			Recall:    recall,
		})
	}

	return curve
}

// InterpolatePrecision returns, for every recall level in descending order,
// the maximum precision among curve points whose recall reaches that level.
// Recall never decreases along the curve, so a single pointer walks the curve
// from its end while the running maximum carries over to lower levels.
func InterpolatePrecision(curve []PRPoint, levels []float64) []float64 {
	desc := make([]float64, len(levels))
	copy(desc, levels)
	sort.Sort(sort.Reverse(sort.Float64Slice(desc)))

	interpolated := make([]float64, len(desc))
	p := 0.0
	k := len(curve) - 1

	for i, level := range desc {
		for k >= 0 && curve[k].Recall >= level {
			if curve[k].Precision > p {
				p = curve[k].Precision
			}
			k--
		}
		interpolated[i] = p
	}

	return interpolated
}

// AveragePrecision scores detections (sorted by descending score) against
// the ground truth derived from labels at a single IoU threshold.
func AveragePrecision(detections []Detection, labels []analytics.LabelPoint, threshold float64, cfg Config) APResult {
	groundTruth := ExtractGroundTruthWindows(labels)
	ious, covered := ScoreDetections(detections, groundTruth)
	return averagePrecision(ious, covered, len(groundTruth), threshold, cfg)
}

func averagePrecision(ious []float64, covered [][]int, totalGroundTruth int, threshold float64, cfg Config) APResult {
	curve := PrecisionRecallCurve(ious, covered, totalGroundTruth, threshold, cfg.IncludeFullRanking)
	interpolated := InterpolatePrecision(curve, cfg.RecallLevels)

	ap := 0.0
	if len(interpolated) > 0 {
		ap = stat.Mean(interpolated, nil)
	}

	return APResult{
		Threshold:    threshold,
		AP:           ap,
		Curve:        curve,
		Interpolated: interpolated,
		Degenerate:   len(curve) == 0,
	}
}
