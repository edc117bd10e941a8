package evaluation

import "errors"

var (
	// ErrMalformedTimestamp is returned when a detection start or end cannot be parsed
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrInvalidWindow is returned when a detection ends before it starts
	ErrInvalidWindow = errors.New("detection ends before it starts")

	// ErrInvalidScore is returned when a detection score is NaN or infinite
	ErrInvalidScore = errors.New("detection score must be finite")

	// ErrInvalidLag is returned when the detector lag is not positive
	ErrInvalidLag = errors.New("lag must be positive")

	// ErrMisaligned is returned when data and labels do not share timestamps
	ErrMisaligned = errors.New("data and labels are not aligned")

	// ErrDetector wraps failures of the detector collaborator
	ErrDetector = errors.New("detector failed")

	// ErrNoDetector is returned by MeanAveragePrecision on an Evaluator built without a detector
	ErrNoDetector = errors.New("no detector configured")
)
