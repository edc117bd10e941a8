package models

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/anomalyeval/internal/evaluation"
)

func TestEvaluateRequest_Validate(t *testing.T) {
	req := &EvaluateRequest{}
	err := req.Validate()
	require.Error(t, err)
	var fiberErr *fiber.Error
	require.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusBadRequest, fiberErr.Code)

	req = &EvaluateRequest{Points: []PointInput{{Time: "2024-01-01 00:00:00"}}, Lag: -1}
	assert.Error(t, req.Validate())

	req.Lag = 0
	assert.NoError(t, req.Validate())
}

func TestEvaluateRequest_Series(t *testing.T) {
	req := &EvaluateRequest{Points: []PointInput{
		{Time: "2024-01-01 00:00:00", Value: 1.5, Label: 0},
		{Time: "2024-01-01T00:01:00Z", Value: 2.5, Label: 1},
	}}

	data, labels, err := req.Series(evaluation.DefaultTimeLayout)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, 2.5, data[1].Value)
	assert.Equal(t, 1, labels[1].Value)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), labels[1].Time)

	req.Points[1].Time = "tomorrow"
	_, _, err = req.Series(evaluation.DefaultTimeLayout)
	assert.ErrorIs(t, err, evaluation.ErrMalformedTimestamp)
}

func TestScoreRequest(t *testing.T) {
	req := &ScoreRequest{}
	assert.Error(t, req.Validate())

	req.Labels = []LabelInput{{Time: "2024-01-01 00:00:00", Label: 1}}
	require.NoError(t, req.Validate())

	labels, err := req.LabelSeries(evaluation.DefaultTimeLayout)
	require.NoError(t, err)
	assert.Equal(t, 1, labels[0].Value)

	req.Labels[0].Time = ""
	_, err = req.LabelSeries(evaluation.DefaultTimeLayout)
	assert.ErrorIs(t, err, evaluation.ErrMalformedTimestamp)
}

func TestEvaluationJob_Validate(t *testing.T) {
	points := []PointInput{{Time: "2024-01-01 00:00:00"}}
	labels := []LabelInput{{Time: "2024-01-01 00:00:00"}}

	assert.Error(t, (&EvaluationJob{}).Validate())
	assert.Error(t, (&EvaluationJob{
		Evaluate: &EvaluateRequest{Points: points},
		Score:    &ScoreRequest{Labels: labels},
	}).Validate())
	assert.NoError(t, (&EvaluationJob{Evaluate: &EvaluateRequest{Points: points}}).Validate())
	assert.NoError(t, (&EvaluationJob{Score: &ScoreRequest{Labels: labels}}).Validate())
	assert.Error(t, (&EvaluationJob{Score: &ScoreRequest{}}).Validate())
}
