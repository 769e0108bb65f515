package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/feedback"
	"github.com/cds-scoring-engine/internal/service"
)

// Tool names.
const (
	ToolPredictAdherence      = "predict_adherence"
	ToolAssessHealthRisk      = "assess_health_risk"
	ToolCheckDrugInteractions = "check_drug_interactions"
	ToolAnalyzeSymptoms       = "analyze_symptoms"
	ToolSubmitFeedback        = "submit_feedback"
	ToolQueryFeedback         = "query_feedback"
	ToolListFeedback          = "list_feedback"
	ToolExportFeedback        = "export_feedback"
	ToolImportFeedback        = "import_feedback"
)

const maxListLimit = 500

// FeedbackRecord is the tool output form of feedback.Feedback.
type FeedbackRecord struct {
	ID             int64  `json:"id"`
	Analyzer       string `json:"analyzer"`
	InputDigest    string `json:"input_digest"`
	PatientRef     string `json:"patient_ref,omitempty"`
	SuggestedLevel string `json:"suggested_level"`
	ClinicianLevel string `json:"clinician_level"`
	Agreed         bool   `json:"agreed"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func newFeedbackRecord(f *feedback.Feedback) FeedbackRecord {
	return FeedbackRecord{
		ID:             f.ID,
		Analyzer:       string(f.Analyzer),
		InputDigest:    f.InputDigest,
		PatientRef:     f.PatientRef,
		SuggestedLevel: f.SuggestedLevel,
		ClinicianLevel: f.ClinicianLevel,
		Agreed:         f.Agreed,
		Notes:          f.Notes,
		CreatedAt:      f.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      f.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SubmitFeedbackResult is returned by submit_feedback.
type SubmitFeedbackResult struct {
	Message  string         `json:"message"`
	Feedback FeedbackRecord `json:"feedback"`
}

// QueryFeedbackParams selects one feedback entry.
type QueryFeedbackParams struct {
	Analyzer    string `json:"analyzer" jsonschema:"analyzer name or alias"`
	InputDigest string `json:"input_digest" jsonschema:"input digest returned with the assessment"`
	PatientRef  string `json:"patient_ref,omitempty" jsonschema:"patient reference used when the feedback was submitted"`
}

// ListFeedbackParams pages through stored feedback, newest first.
type ListFeedbackParams struct {
	Limit  int `json:"limit,omitempty" jsonschema:"maximum entries to return, default 50, at most 500"`
	Offset int `json:"offset,omitempty" jsonschema:"entries to skip"`
}

// ListFeedbackResult is returned by list_feedback.
type ListFeedbackResult struct {
	Feedback []FeedbackRecord `json:"feedback"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ExportFeedbackParams controls where export_feedback writes.
type ExportFeedbackParams struct {
	Upload bool   `json:"upload,omitempty" jsonschema:"also upload the export to the configured S3 bucket"`
	S3Key  string `json:"s3_key,omitempty" jsonschema:"object key for the upload; generated when empty"`
}

// ExportFeedbackResult is returned by export_feedback.
type ExportFeedbackResult struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
	S3URI string `json:"s3_uri,omitempty"`
}

// ImportFeedbackParams names a file produced by export_feedback.
type ImportFeedbackParams struct {
	Path string `json:"path" jsonschema:"path of a JSON export file"`
}

// ImportFeedbackResult is returned by import_feedback.
type ImportFeedbackResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func (s *LiteServer) registerTools() {
	addAssessmentTool[domain.AdherenceRequest](s, ToolPredictAdherence,
		"Predict the risk that a patient will not adhere to their medication regimen.")
	addAssessmentTool[domain.RiskRequest](s, ToolAssessHealthRisk,
		"Score cardiovascular and metabolic health risk from vitals, history and lifestyle.")
	addAssessmentTool[domain.InteractionRequest](s, ToolCheckDrugInteractions,
		"Screen a medication list for known pairwise drug interactions.")
	addAssessmentTool[domain.SymptomRequest](s, ToolAnalyzeSymptoms,
		"Match reported symptoms to possible conditions and assign an urgency level.")

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolSubmitFeedback,
		Description: "Record whether a clinician agreed with an analyzer outcome. Resubmitting for the same input updates the entry.",
	}, s.submitFeedback)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolQueryFeedback,
		Description: "Look up stored feedback for an analyzer input digest.",
	}, s.queryFeedback)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListFeedback,
		Description: "List stored feedback, newest first.",
	}, s.listFeedback)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolExportFeedback,
		Description: "Export all feedback to a JSON file in the data directory, optionally uploading it to S3.",
	}, s.exportFeedback)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolImportFeedback,
		Description: "Import feedback from a JSON export. Invalid and already present entries are skipped.",
	}, s.importFeedback)

	s.logger.WithField("tool_count", 9).Info("Successfully registered all tools")
}

// addAssessmentTool registers an analyzer tool whose input is the request type
// R. *R must implement service.Request.
func addAssessmentTool[R any, PR interface {
	*R
	service.Request
}](s *LiteServer, name, description string) {
	mcp.AddTool(s.mcpServer, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in R) (*mcp.CallToolResult, domain.AssessmentResponse, error) {
			start := time.Now()
			resp, err := service.Evaluate(ctx, s.assessor, PR(&in))
			if err != nil {
				s.logger.WithError(err).WithField("tool", name).Warn("Assessment tool failed")
				return nil, domain.AssessmentResponse{}, err
			}
			s.logger.WithFields(logrus.Fields{
				"tool":        name,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Debug("Assessment tool completed")
			return nil, *resp, nil
		})
}

func (s *LiteServer) submitFeedback(ctx context.Context, _ *mcp.CallToolRequest, in feedback.Submission) (*mcp.CallToolResult, SubmitFeedbackResult, error) {
	fb, err := in.Feedback()
	if err != nil {
		return nil, SubmitFeedbackResult{}, err
	}
	if err := s.feedbackStore.Save(ctx, fb); err != nil {
		s.logger.WithError(err).Error("Failed to save feedback")
		return nil, SubmitFeedbackResult{}, fmt.Errorf("failed to save feedback: %w", err)
	}

	message := "Feedback recorded: clinician agreed with the analyzer"
	if !fb.Agreed {
		message = fmt.Sprintf("Feedback recorded: clinician corrected %s to %s", fb.SuggestedLevel, fb.ClinicianLevel)
	}
	s.logger.WithFields(logrus.Fields{
		"analyzer": fb.Analyzer,
		"agreed":   fb.Agreed,
	}).Info("Feedback submitted")

	return nil, SubmitFeedbackResult{Message: message, Feedback: newFeedbackRecord(fb)}, nil
}

func (s *LiteServer) queryFeedback(ctx context.Context, _ *mcp.CallToolRequest, in QueryFeedbackParams) (*mcp.CallToolResult, FeedbackRecord, error) {
	kind, err := domain.ParseAnalyzerKind(in.Analyzer)
	if err != nil {
		return nil, FeedbackRecord{}, domain.NewValidationError("analyzer", "unknown analyzer", in.Analyzer)
	}
	fb, err := s.feedbackStore.Get(ctx, kind, in.InputDigest, in.PatientRef)
	if err != nil {
		return nil, FeedbackRecord{}, fmt.Errorf("query feedback: %w", err)
	}
	return nil, newFeedbackRecord(fb), nil
}

func (s *LiteServer) listFeedback(ctx context.Context, _ *mcp.CallToolRequest, in ListFeedbackParams) (*mcp.CallToolResult, ListFeedbackResult, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = feedback.DefaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := max(in.Offset, 0)

	entries, err := s.feedbackStore.List(ctx, limit, offset)
	if err != nil {
		return nil, ListFeedbackResult{}, fmt.Errorf("list feedback: %w", err)
	}
	total, err := s.feedbackStore.Count(ctx)
	if err != nil {
		return nil, ListFeedbackResult{}, fmt.Errorf("count feedback: %w", err)
	}

	records := make([]FeedbackRecord, 0, len(entries))
	for _, fb := range entries {
		records = append(records, newFeedbackRecord(fb))
	}
	return nil, ListFeedbackResult{Feedback: records, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *LiteServer) exportFeedback(ctx context.Context, _ *mcp.CallToolRequest, in ExportFeedbackParams) (*mcp.CallToolResult, ExportFeedbackResult, error) {
	if in.Upload && s.uploader == nil {
		return nil, ExportFeedbackResult{}, fmt.Errorf("no S3 bucket configured")
	}

	exportDir := s.config.ExportDir()
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return nil, ExportFeedbackResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	var buf bytes.Buffer
	if err := s.feedbackStore.ExportJSON(ctx, &buf); err != nil {
		return nil, ExportFeedbackResult{}, fmt.Errorf("export feedback: %w", err)
	}

	filename := fmt.Sprintf("feedback_export_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(exportDir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, ExportFeedbackResult{}, fmt.Errorf("failed to write export: %w", err)
	}

	count, err := s.feedbackStore.Count(ctx)
	if err != nil {
		return nil, ExportFeedbackResult{}, fmt.Errorf("count feedback: %w", err)
	}
	result := ExportFeedbackResult{Path: path, Count: count}

	if in.Upload {
		key, err := s.uploader.UploadFeedback(ctx, s.feedbackStore, in.S3Key)
		if err != nil {
			return nil, ExportFeedbackResult{}, err
		}
		result.S3URI = fmt.Sprintf("s3://%s/%s", s.uploader.Bucket(), key)
	}

	s.logger.WithFields(logrus.Fields{"path": path, "count": count}).Info("Feedback exported")
	return nil, result, nil
}

func (s *LiteServer) importFeedback(ctx context.Context, _ *mcp.CallToolRequest, in ImportFeedbackParams) (*mcp.CallToolResult, ImportFeedbackResult, error) {
	if in.Path == "" {
		return nil, ImportFeedbackResult{}, domain.NewValidationError("path", "field is required", nil)
	}
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, ImportFeedbackResult{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	imported, skipped, err := s.feedbackStore.ImportJSON(ctx, f)
	if err != nil {
		return nil, ImportFeedbackResult{}, fmt.Errorf("import feedback: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"imported": imported, "skipped": skipped}).Info("Feedback imported")
	return nil, ImportFeedbackResult{Imported: imported, Skipped: skipped}, nil
}
