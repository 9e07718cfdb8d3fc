package models

// EvaluateRequest asks the API to evaluate a student script against a key.
type EvaluateRequest struct {
	StudentURL string `json:"student_url" binding:"required"`
	KeyURL     string `json:"key_url,omitempty"`
	FastMode   bool   `json:"fast_mode,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}
