package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssessmentRecord is one stored analyzer invocation.
type AssessmentRecord struct {
	ID            uuid.UUID       `json:"id"`
	Analyzer      AnalyzerKind    `json:"analyzer"`
	InputDigest   string          `json:"input_digest"`
	OutcomeLevel  string          `json:"outcome_level"`
	Result        json.RawMessage `json:"result"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AssessmentResponse is the envelope returned by the HTTP API for every
// analyzer call.
type AssessmentResponse struct {
	CorrelationID string       `json:"correlation_id"`
	Analyzer      AnalyzerKind `json:"analyzer"`
	InputDigest   string       `json:"input_digest"`
	Result        any          `json:"result"`
}
