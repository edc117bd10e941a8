package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreOverlaps_IdenticalWindow(t *testing.T) {
	for _, d := range []int{0, 1, 5, 60} {
		g := interval(10, 10+d)
		ious, covered := ScoreOverlaps([]Interval{g}, []Interval{g})

		assert.InDelta(t, 1.0, ious[0], 1e-12, "duration %d", d)
		assert.Equal(t, []int{0}, covered[0])
	}
}

func TestScoreOverlaps_Cases(t *testing.T) {
	g := interval(10, 20)

	tests := []struct {
		name      string
		detection Interval
		want      float64
	}{
		{name: "inside", detection: interval(12, 18), want: (1.0 + 6) / (1.0 + 10)},
		{name: "left", detection: interval(5, 15), want: (1.0 + 5) / (1.0 + 15)},
		{name: "right", detection: interval(15, 25), want: (1.0 + 5) / (1.0 + 15)},
		// a containing detection falls into the left case
		{name: "containing", detection: interval(5, 25), want: (1.0 + 10) / (1.0 + 20)},
		{name: "touching start", detection: interval(0, 10), want: (1.0 + 0) / (1.0 + 20)},
		{name: "touching end", detection: interval(20, 30), want: (1.0 + 0) / (1.0 + 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ious, covered := ScoreOverlaps([]Interval{tt.detection}, []Interval{g})
			assert.InDelta(t, tt.want, ious[0], 1e-12)
			assert.Equal(t, []int{0}, covered[0])
		})
	}
}

func TestScoreOverlaps_Disjoint(t *testing.T) {
	ious, covered := ScoreOverlaps(
		[]Interval{interval(0, 5), interval(30, 40)},
		[]Interval{interval(10, 20)},
	)

	assert.Equal(t, []float64{0, 0}, ious)
	assert.Equal(t, [][]int{{}, {}}, covered)
}

func TestScoreOverlaps_EmptyGroundTruth(t *testing.T) {
	ious, covered := ScoreOverlaps([]Interval{interval(0, 5)}, nil)

	assert.Equal(t, []float64{0}, ious)
	require.Len(t, covered, 1)
	assert.NotNil(t, covered[0])
	assert.Empty(t, covered[0])
}

func TestScoreOverlaps_MonotoneInWidth(t *testing.T) {
	g := interval(10, 20)
	prev := 2.0

	for extra := 0; extra <= 30; extra++ {
		ious, _ := ScoreOverlaps([]Interval{interval(10, 20+extra)}, []Interval{g})
		assert.LessOrEqual(t, ious[0], prev, "extra %d", extra)
		prev = ious[0]
	}
}

func TestScoreOverlaps_SumsAcrossWindows(t *testing.T) {
	g1, g2 := interval(10, 12), interval(20, 22)
	d := interval(8, 25)

	single1, _ := ScoreOverlaps([]Interval{d}, []Interval{g1})
	single2, _ := ScoreOverlaps([]Interval{d}, []Interval{g2})
	both, covered := ScoreOverlaps([]Interval{d}, []Interval{g1, g2})

	assert.InDelta(t, single1[0]+single2[0], both[0], 1e-12)
	assert.Equal(t, []int{0, 1}, covered[0])
}

func TestScoreOverlaps_Scenario(t *testing.T) {
	groundTruth := []Interval{interval(2, 4), interval(7, 7)}
	ious, covered := ScoreOverlaps([]Interval{interval(2, 4), interval(6, 8)}, groundTruth)

	assert.InDelta(t, 1.0, ious[0], 1e-12)
	assert.InDelta(t, 1.0/3.0, ious[1], 1e-12)
	assert.Equal(t, [][]int{{0}, {1}}, covered)
}

func TestScoreDetections(t *testing.T) {
	detections := []Detection{
		{Start: minute(2), End: minute(4), Score: 0.9},
	}
	ious, covered := ScoreDetections(detections, []Interval{interval(2, 4)})

	assert.InDelta(t, 1.0, ious[0], 1e-12)
	assert.Equal(t, []int{0}, covered[0])
}
