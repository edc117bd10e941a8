package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func labelsAt(values ...int) []LabelPoint {
	labels := make([]LabelPoint, len(values))
	for i, v := range values {
		labels[i] = LabelPoint{Time: baseTime.Add(time.Duration(i) * time.Minute), Value: v}
	}
	return labels
}

func TestLabelSeries_Anomalous(t *testing.T) {
	ls := LabelSeries(labelsAt(0, 1, 1, 0, 1))
	assert.Equal(t, 3, ls.Anomalous())
	assert.Zero(t, LabelSeries(nil).Anomalous())
}

func TestValidateLabels(t *testing.T) {
	require.NoError(t, ValidateLabels(labelsAt(0, 1, 0)))
	require.NoError(t, ValidateLabels(nil))

	err := ValidateLabels(labelsAt(0, 2, 0))
	assert.ErrorIs(t, err, ErrInvalidLabel)

	unordered := labelsAt(0, 1, 0)
	unordered[2].Time = unordered[1].Time
	assert.ErrorIs(t, ValidateLabels(unordered), ErrUnorderedSeries)
}

func TestValidateSeries(t *testing.T) {
	data := []TimeSeriesPoint{
		{Time: baseTime, Value: 1},
		{Time: baseTime.Add(time.Minute), Value: 2},
	}
	require.NoError(t, ValidateSeries(data))

	data[1].Time = baseTime.Add(-time.Minute)
	assert.ErrorIs(t, ValidateSeries(data), ErrUnorderedSeries)
}
