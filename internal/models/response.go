package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status          string  `json:"status"`
	Version         string  `json:"version"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	Detectors       int     `json:"detectors"`
	DefaultDetector string  `json:"default_detector"`
	Publishing      bool    `json:"publishing"`
}

// DetectorListResponse lists the registered detectors
type DetectorListResponse struct {
	Detectors []string `json:"detectors"`
	Default   string   `json:"default"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
