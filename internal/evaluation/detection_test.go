package evaluation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
)

func TestParseDetections(t *testing.T) {
	records := []DetectionRecord{
		{Start: "2024-01-01 00:02:00", End: "2024-01-01 00:04:00", Score: 0.9},
		{Start: "2024-01-01T00:06:00Z", End: "2024-01-01T00:08:00Z", Score: 0.4},
	}

	detections, err := ParseDetections(records, "")
	require.NoError(t, err)
	require.Len(t, detections, 2)

	assert.Equal(t, minute(2), detections[0].Start)
	assert.Equal(t, minute(4), detections[0].End)
	assert.Equal(t, 0.9, detections[0].Score)
	assert.True(t, detections[1].Start.Equal(minute(6)))
}

func TestParseDetections_Malformed(t *testing.T) {
	records := []DetectionRecord{
		{Start: "2024-01-01 00:02:00", End: "2024-01-01 00:04:00", Score: 0.9},
		{Start: "2024-01-01 00:06:00", End: "yesterday", Score: 0.4},
	}

	_, err := ParseDetections(records, DefaultTimeLayout)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
	assert.Contains(t, err.Error(), "detection 1 end")
}

func TestParseDetections_EndBeforeStart(t *testing.T) {
	records := []DetectionRecord{
		{Start: "2024-01-01 00:10:00", End: "2024-01-01 00:05:00", Score: 0.9},
		{Start: "2024-01-01 00:06:00", End: "2024-01-01 00:08:00", Score: 0.4},
	}

	_, err := ParseDetections(records, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	assert.Contains(t, err.Error(), "detection 0")
}

func TestDetection_Validate(t *testing.T) {
	tests := []struct {
		name string
		d    Detection
		want error
	}{
		{"ordered", Detection{Start: minute(1), End: minute(3), Score: 0.5}, nil},
		{"single instant", Detection{Start: minute(1), End: minute(1), Score: 0}, nil},
		{"reversed", Detection{Start: minute(3), End: minute(1), Score: 0.5}, ErrInvalidWindow},
		{"nan score", Detection{Start: minute(1), End: minute(2), Score: math.NaN()}, ErrInvalidScore},
		{"infinite score", Detection{Start: minute(1), End: minute(2), Score: math.Inf(1)}, ErrInvalidScore},
		{"negative infinite score", Detection{Start: minute(1), End: minute(2), Score: math.Inf(-1)}, ErrInvalidScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseDetections_NonFiniteScore(t *testing.T) {
	records := []DetectionRecord{
		{Start: "2024-01-01 00:02:00", End: "2024-01-01 00:04:00", Score: 0.1},
		{Start: "2024-01-01 00:05:00", End: "2024-01-01 00:06:00", Score: math.NaN()},
	}

	_, err := ParseDetections(records, "")
	assert.ErrorIs(t, err, ErrInvalidScore)
	assert.Contains(t, err.Error(), "detection 1")
}

func TestParseTimestamp_CustomLayout(t *testing.T) {
	ts, err := ParseTimestamp("01/01/2024 00:05", "01/02/2006 15:04")
	require.NoError(t, err)
	assert.Equal(t, minute(5), ts)
}

func TestSortByScore(t *testing.T) {
	detections := []Detection{
		{Start: minute(0), Score: 0.1},
		{Start: minute(1), Score: 0.5},
		{Start: minute(2), Score: 0.5},
		{Start: minute(3), Score: 0.9},
	}

	sorted := SortByScore(detections)

	require.Len(t, sorted, 4)
	assert.Equal(t, minute(3), sorted[0].Start)
	assert.Equal(t, minute(1), sorted[1].Start)
	assert.Equal(t, minute(2), sorted[2].Start)
	assert.Equal(t, minute(0), sorted[3].Start)

	// input untouched
	assert.Equal(t, minute(0), detections[0].Start)
}

func TestFromWindows(t *testing.T) {
	windows := []anomaly.Window{
		{Start: minute(0), End: minute(2), Score: 3},
	}

	detections := FromWindows(windows)
	require.Len(t, detections, 1)
	assert.Equal(t, Detection{Start: minute(0), End: minute(2), Score: 3}, detections[0])
	assert.Equal(t, 2*time.Minute, detections[0].Interval().Duration())
}
