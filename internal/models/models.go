package models

import "time"

// Detection is one row of the optional history store. The core detection
// contract does not depend on it; rows are written best-effort after the
// response is already decided.
type Detection struct {
	ID             int64     `json:"id"`
	Endpoint       string    `json:"endpoint"`
	Classification string    `json:"classification"`
	Confidence     float64   `json:"confidence"`
	Explanation    string    `json:"explanation"`
	ModelUsed      bool      `json:"model_used"`
	LatencyMs      int64     `json:"latency_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
