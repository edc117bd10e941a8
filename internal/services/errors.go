// Package services holds the evaluation business logic between the HTTP
// handlers, the queue consumer and the evaluation core.
package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/anomalyeval/internal/analytics"
	"github.com/soltixdb/anomalyeval/internal/analytics/anomaly"
	"github.com/soltixdb/anomalyeval/internal/evaluation"
)

// Service error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidTimestamp = "INVALID_TIMESTAMP"
	CodeInvalidLabels    = "INVALID_LABELS"
	CodeInvalidDetection = "INVALID_DETECTION"
	CodeMisaligned       = "MISALIGNED_SERIES"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeUnknownDetector  = "UNKNOWN_DETECTOR"
	CodeDetectorFailed   = "DETECTOR_FAILED"
	CodeEvaluationFailed = "EVALUATION_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// HTTPStatus maps the error code to a response status
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeDetectorFailed, CodeEvaluationFailed:
		return fiber.StatusInternalServerError
	case CodeUnknownDetector:
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadRequest
	}
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// classify converts an evaluation error into a ServiceError. Input errors
// are checked before ErrDetector since detectors wrap their input errors.
func classify(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return NewServiceError(CodeInvalidRequest, fiberErr.Message)
	case errors.Is(err, evaluation.ErrMalformedTimestamp):
		return NewServiceError(CodeInvalidTimestamp, err.Error())
	case errors.Is(err, analytics.ErrInvalidLabel), errors.Is(err, analytics.ErrUnorderedSeries):
		return NewServiceError(CodeInvalidLabels, err.Error())
	case errors.Is(err, evaluation.ErrInvalidWindow), errors.Is(err, evaluation.ErrInvalidScore):
		return NewServiceError(CodeInvalidDetection, err.Error())
	case errors.Is(err, evaluation.ErrMisaligned):
		return NewServiceError(CodeMisaligned, err.Error())
	case errors.Is(err, evaluation.ErrInvalidLag), errors.Is(err, anomaly.ErrInvalidLag):
		return NewServiceError(CodeInvalidRequest, err.Error())
	case errors.Is(err, anomaly.ErrInsufficientData):
		return NewServiceError(CodeInsufficientData, err.Error())
	case errors.Is(err, evaluation.ErrDetector):
		return NewServiceError(CodeDetectorFailed, err.Error())
	default:
		return NewServiceError(CodeEvaluationFailed, err.Error())
	}
}
