package models

const (
	LabelHuman = "Human"
	LabelAI    = "AI-generated"
	LabelError = "error"
)

// DetectionRequest is the canonical form of a /detect style request after
// alias resolution. Language is informational only and never affects the
// classification.
type DetectionRequest struct {
	AudioBase64 string `json:"audio_base64"`
	AudioFormat string `json:"audio_format"`
	Language    string `json:"language"`
}

type ClassificationResult struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Explanation    string  `json:"explanation"`
}

type OutcomeStatus int

const (
	OutcomeSuccess OutcomeStatus = iota
	OutcomeTimeout
	OutcomeUnavailable
	OutcomeFailure
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "failure"
	}
}

// ModelOutcome lives only within a single request; it is never persisted.
type ModelOutcome struct {
	Status        OutcomeStatus
	Label         string
	RawConfidence float64
	Err           error
}

type HealthStatus struct {
	Status      string  `json:"status"`
	ModelLoaded bool    `json:"model_loaded"`
	Uptime      float64 `json:"uptime"`
	Timestamp   string  `json:"timestamp"`
}

type RootStatus struct {
	Status      string   `json:"status"`
	ModelLoaded bool     `json:"model_loaded"`
	Version     string   `json:"version"`
	Endpoints   []string `json:"endpoints"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp int64  `json:"timestamp"`
	Code      string `json:"code,omitempty"`
}
