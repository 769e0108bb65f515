// Package feedback stores clinician feedback on analyzer outcomes: whether a
// clinician agreed with the level an analyzer reported for a given input, and
// which level they would have chosen instead.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cds-scoring-engine/internal/domain"
)

// ErrNotFound is returned by Get, GetByID and Delete when no entry matches.
var ErrNotFound = domain.ErrNotFound

const (
	// DefaultListLimit applies when List is called with a non-positive limit.
	DefaultListLimit = 50

	exportVersion  = "1.0"
	maxExportLimit = 1000000
)

// Feedback is a clinician's verdict on one analyzer outcome. Entries are
// unique on (Analyzer, InputDigest, PatientRef); saving again updates.
type Feedback struct {
	ID             int64               `json:"id,omitempty"`
	Analyzer       domain.AnalyzerKind `json:"analyzer"`
	InputDigest    string              `json:"input_digest"`
	PatientRef     string              `json:"patient_ref,omitempty"`
	SuggestedLevel string              `json:"suggested_level"` // what the analyzer reported
	ClinicianLevel string              `json:"clinician_level"` // what the clinician chose
	Agreed         bool                `json:"agreed"`
	Notes          string              `json:"notes,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Validate checks the analyzer, the digest and that both levels are labels the
// analyzer can produce.
func (f *Feedback) Validate() error {
	if !f.Analyzer.IsValid() {
		return domain.NewValidationError("analyzer", "unknown analyzer", f.Analyzer)
	}
	if strings.TrimSpace(f.InputDigest) == "" {
		return domain.NewValidationError("input_digest", "field is required", nil)
	}
	if !domain.IsValidOutcomeLevel(f.Analyzer, f.SuggestedLevel) {
		return domain.NewValidationError("suggested_level", fmt.Sprintf("not a %s outcome level", f.Analyzer), f.SuggestedLevel)
	}
	if !domain.IsValidOutcomeLevel(f.Analyzer, f.ClinicianLevel) {
		return domain.NewValidationError("clinician_level", fmt.Sprintf("not a %s outcome level", f.Analyzer), f.ClinicianLevel)
	}
	return nil
}

// Submission is the boundary form of Feedback accepted by the HTTP API and the
// MCP tools. Agreed is derived from the two levels when omitted.
type Submission struct {
	Analyzer       string `json:"analyzer" jsonschema:"analyzer name: medication_adherence, health_risk, drug_interaction or symptom"`
	InputDigest    string `json:"input_digest" jsonschema:"input digest returned with the assessment"`
	PatientRef     string `json:"patient_ref,omitempty" jsonschema:"optional opaque patient reference"`
	SuggestedLevel string `json:"suggested_level" jsonschema:"outcome level the analyzer reported"`
	ClinicianLevel string `json:"clinician_level" jsonschema:"outcome level the clinician chose"`
	Agreed         *bool  `json:"agreed,omitempty" jsonschema:"whether the clinician agreed; derived from the levels when omitted"`
	Notes          string `json:"notes,omitempty" jsonschema:"free text notes"`
}

// Feedback converts and validates a submission. Analyzer aliases accepted by
// domain.ParseAnalyzerKind are allowed and levels are case-folded.
func (s *Submission) Feedback() (*Feedback, error) {
	kind, err := domain.ParseAnalyzerKind(s.Analyzer)
	if err != nil {
		return nil, domain.NewValidationError("analyzer", "unknown analyzer", s.Analyzer)
	}

	fb := &Feedback{
		Analyzer:       kind,
		InputDigest:    strings.TrimSpace(s.InputDigest),
		PatientRef:     strings.TrimSpace(s.PatientRef),
		SuggestedLevel: strings.ToLower(strings.TrimSpace(s.SuggestedLevel)),
		ClinicianLevel: strings.ToLower(strings.TrimSpace(s.ClinicianLevel)),
		Notes:          s.Notes,
	}
	if s.Agreed != nil {
		fb.Agreed = *s.Agreed
	} else {
		fb.Agreed = fb.SuggestedLevel == fb.ClinicianLevel
	}

	if err := fb.Validate(); err != nil {
		return nil, err
	}
	return fb, nil
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores feedback, updating the entry with the same analyzer, digest
	// and patient reference if one exists. ID and timestamps are set on fb.
	Save(ctx context.Context, fb *Feedback) error

	// Get returns the entry for an analyzer outcome, or ErrNotFound.
	Get(ctx context.Context, analyzer domain.AnalyzerKind, inputDigest, patientRef string) (*Feedback, error)

	// GetByID returns one entry, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Feedback, error)

	// List returns entries newest first.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	Count(ctx context.Context) (int64, error)

	// Delete removes an entry by ID, or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// ExportJSON writes every entry in the FeedbackExport format.
	ExportJSON(ctx context.Context, w io.Writer) error

	// ImportJSON reads a FeedbackExport. Entries that fail validation or
	// already exist are skipped.
	ImportJSON(ctx context.Context, r io.Reader) (imported int, skipped int, err error)

	Close() error
}

// FeedbackExport represents the JSON export format.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// exportAll is shared by the Store implementations.
func exportAll(ctx context.Context, s Store, w io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list feedback: %w", err)
	}
	if all == nil {
		all = []*Feedback{}
	}

	export := &FeedbackExport{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(all),
		Feedback:   all,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// importAll is shared by the Store implementations.
func importAll(ctx context.Context, s Store, r io.Reader) (imported int, skipped int, err error) {
	var export FeedbackExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, fb := range export.Feedback {
		if fb == nil || fb.Validate() != nil {
			skipped++
			continue
		}

		_, err := s.Get(ctx, fb.Analyzer, fb.InputDigest, fb.PatientRef)
		switch {
		case err == nil:
			skipped++
			continue
		case !errors.Is(err, ErrNotFound):
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		fb.ID = 0
		if err := s.Save(ctx, fb); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}
