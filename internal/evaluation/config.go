package evaluation

import (
	"fmt"
)

// Config holds the constants of an evaluation
type Config struct {
	// Thresholds are the IoU values above which a detection counts as a true positive
	Thresholds []float64

	// RecallLevels are the recall points at which precision is interpolated
	RecallLevels []float64

	// IncludeFullRanking extends the prefix sweep to k = N. By default the
	// last detection never enters a prefix (k = 1..N-1).
	IncludeFullRanking bool

	// Parallel computes the per-threshold AP values concurrently
	Parallel bool
}

// DefaultThresholds are the IoU thresholds averaged into mAP
func DefaultThresholds() []float64 {
	return []float64{0.05, 0.10, 0.15, 0.20, 0.25}
}

// DefaultRecallLevels are the 11 standard recall points 0.0, 0.1, ..., 1.0
func DefaultRecallLevels() []float64 {
	return []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
}

// DefaultConfig returns the standard 5-threshold, 11-point configuration
func DefaultConfig() Config {
	return Config{
		Thresholds:   DefaultThresholds(),
		RecallLevels: DefaultRecallLevels(),
	}
}

// Validate validates the evaluation configuration
func (c Config) Validate() error {
	if len(c.Thresholds) == 0 {
		return fmt.Errorf("at least one IoU threshold is required")
	}
	for _, th := range c.Thresholds {
		if th < 0 {
			return fmt.Errorf("invalid IoU threshold: %v", th)
		}
	}

	if len(c.RecallLevels) == 0 {
		return fmt.Errorf("at least one recall level is required")
	}
	for _, level := range c.RecallLevels {
		if level < 0 || level > 1 {
			return fmt.Errorf("recall level must be within [0, 1]: %v", level)
		}
	}

	return nil
}
