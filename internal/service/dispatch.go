package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cds-scoring-engine/internal/domain"
)

// ErrMalformedRequest wraps payloads that are not valid JSON for the
// analyzer's request type.
var ErrMalformedRequest = errors.New("malformed request")

// Request is one of the boundary request types in the domain package.
type Request interface {
	Validate() error
}

// NewRequest returns an empty request value for kind, ready to be decoded into.
func NewRequest(kind domain.AnalyzerKind) (Request, error) {
	switch kind {
	case domain.AnalyzerAdherence:
		return &domain.AdherenceRequest{}, nil
	case domain.AnalyzerHealthRisk:
		return &domain.RiskRequest{}, nil
	case domain.AnalyzerDrugInteraction:
		return &domain.InteractionRequest{}, nil
	case domain.AnalyzerSymptom:
		return &domain.SymptomRequest{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAnalyzer, kind)
	}
}

// Dispatch decodes a JSON request for the given analyzer, validates it and runs
// it through a. It is shared by the HTTP handlers, the websocket stream and
// the CLI. Decode failures wrap ErrMalformedRequest; missing fields are
// reported as *domain.ValidationError.
func Dispatch(ctx context.Context, a domain.Assessor, kind domain.AnalyzerKind, payload []byte) (*domain.AssessmentResponse, error) {
	req, err := NewRequest(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return Evaluate(ctx, a, req)
}

// Evaluate validates an already decoded request and runs the matching analyzer.
func Evaluate(ctx context.Context, a domain.Assessor, req Request) (*domain.AssessmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case *domain.AdherenceRequest:
		return respond(ctx, a, domain.AnalyzerAdherence, r.Input(), a.PredictAdherence)
	case *domain.RiskRequest:
		return respond(ctx, a, domain.AnalyzerHealthRisk, r.Input(), a.AssessHealthRisk)
	case *domain.InteractionRequest:
		return respond(ctx, a, domain.AnalyzerDrugInteraction, r.Input(), a.CheckDrugInteractions)
	case *domain.SymptomRequest:
		return respond(ctx, a, domain.AnalyzerSymptom, r.Input(), a.AnalyzeSymptoms)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrInvalidAnalyzer, req)
	}
}

func respond[In any, Out any](ctx context.Context, a domain.Assessor, kind domain.AnalyzerKind, in In, run func(context.Context, In) (*Out, error)) (*domain.AssessmentResponse, error) {
	result, err := run(ctx, in)
	if err != nil {
		return nil, err
	}
	return &domain.AssessmentResponse{
		CorrelationID: domain.CorrelationIDFromContext(ctx),
		Analyzer:      kind,
		InputDigest:   a.Digest(kind, in),
		Result:        result,
	}, nil
}
