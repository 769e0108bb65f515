package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cds-scoring-engine/internal/domain"
)

func TestSubmissionFeedback(t *testing.T) {
	agreed := true

	tests := []struct {
		name       string
		submission Submission
		wantErr    string
		want       *Feedback
	}{
		{
			name:       "agreement derived from matching levels",
			submission: Submission{Analyzer: "symptom", InputDigest: " d1 ", SuggestedLevel: "High", ClinicianLevel: "high"},
			want:       &Feedback{Analyzer: domain.AnalyzerSymptom, InputDigest: "d1", SuggestedLevel: "high", ClinicianLevel: "high", Agreed: true},
		},
		{
			name:       "disagreement derived from differing levels",
			submission: Submission{Analyzer: "risk", InputDigest: "d2", PatientRef: "p-1", SuggestedLevel: "medium", ClinicianLevel: "high"},
			want:       &Feedback{Analyzer: domain.AnalyzerHealthRisk, InputDigest: "d2", PatientRef: "p-1", SuggestedLevel: "medium", ClinicianLevel: "high"},
		},
		{
			name:       "explicit agreement wins",
			submission: Submission{Analyzer: "drug_interaction", InputDigest: "d3", SuggestedLevel: "severe", ClinicianLevel: "moderate", Agreed: &agreed, Notes: "close enough"},
			want:       &Feedback{Analyzer: domain.AnalyzerDrugInteraction, InputDigest: "d3", SuggestedLevel: "severe", ClinicianLevel: "moderate", Agreed: true, Notes: "close enough"},
		},
		{
			name:       "interaction none level",
			submission: Submission{Analyzer: "interactions", InputDigest: "d4", SuggestedLevel: "none", ClinicianLevel: "mild"},
			want:       &Feedback{Analyzer: domain.AnalyzerDrugInteraction, InputDigest: "d4", SuggestedLevel: "none", ClinicianLevel: "mild"},
		},
		{
			name:       "unknown analyzer",
			submission: Submission{Analyzer: "genomics", InputDigest: "d", SuggestedLevel: "low", ClinicianLevel: "low"},
			wantErr:    "analyzer",
		},
		{
			name:       "missing digest",
			submission: Submission{Analyzer: "symptom", SuggestedLevel: "low", ClinicianLevel: "low"},
			wantErr:    "input_digest",
		},
		{
			name:       "severity is not a risk level",
			submission: Submission{Analyzer: "adherence", InputDigest: "d", SuggestedLevel: "severe", ClinicianLevel: "low"},
			wantErr:    "suggested_level",
		},
		{
			name:       "risk level is not a severity",
			submission: Submission{Analyzer: "drug_interaction", InputDigest: "d", SuggestedLevel: "mild", ClinicianLevel: "high"},
			wantErr:    "clinician_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.submission.Feedback()

			if tt.wantErr != "" {
				require.Error(t, err)
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantErr, verr.Field)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, normalizeLimit(0))
	assert.Equal(t, DefaultListLimit, normalizeLimit(-3))
	assert.Equal(t, 7, normalizeLimit(7))
}
