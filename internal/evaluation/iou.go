package evaluation

import (
	"time"
)

// smoothingMinutes is added to both overlap and union before dividing
const smoothingMinutes = 1.0

// ScoreOverlaps computes, for every detection, the generalized IoU against
// the ground truth and the indices of the ground-truth windows it covers.
// The IoU of a detection is the sum of its per-window ratios, so a wide
// detection covering several windows can exceed 1.
func ScoreOverlaps(detections, groundTruth []Interval) ([]float64, [][]int) {
	ious := make([]float64, len(detections))
	covered := make([][]int, len(detections))

	for i, d := range detections {
		regions := []int{}
		for j, g := range groundTruth {
			ratio, ok := overlapRatio(d, g)
			if !ok {
				continue
			}
			ious[i] += ratio
			regions = append(regions, j)
		}
		covered[i] = regions
	}

	return ious, covered
}

// ScoreDetections is ScoreOverlaps over detection records
func ScoreDetections(detections []Detection, groundTruth []Interval) ([]float64, [][]int) {
	intervals := make([]Interval, len(detections))
	for i, d := range detections {
		intervals[i] = d.Interval()
	}
	return ScoreOverlaps(intervals, groundTruth)
}

// overlapRatio classifies detection d against ground truth g. The first
// matching case wins:
//
//	left:    d.Start <= g.Start <= d.End
//	inside:  g.Start <= d.Start && d.End <= g.End
//	right:   d.Start <= g.End <= d.End
func overlapRatio(d, g Interval) (float64, bool) {
	var overlap, union time.Duration

	switch {
	case !d.Start.After(g.Start) && !d.End.Before(g.Start):
		overlap = minTime(g.End, d.End).Sub(g.Start)
		union = maxTime(g.End, d.End).Sub(d.Start)
	case !d.Start.Before(g.Start) && !d.End.After(g.End):
		overlap = d.End.Sub(d.Start)
		union = g.End.Sub(g.Start)
	case !d.Start.After(g.End) && !d.End.Before(g.End):
		overlap = g.End.Sub(d.Start)
		union = d.End.Sub(g.Start)
	default:
		return 0, false
	}

	return (smoothingMinutes + overlap.Minutes()) / (smoothingMinutes + union.Minutes()), true
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
