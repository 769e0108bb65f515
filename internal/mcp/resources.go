package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/service"
)

// Resource URIs.
const (
	ResourceInteractions = "cds://knowledge-base/interactions"
	ResourceSymptoms     = "cds://knowledge-base/symptoms"
	ResourceAnalyzers    = "cds://analyzers"
)

// PromptReviewAssessment asks the model to review one assessment with a clinician.
const PromptReviewAssessment = "review_assessment"

type interactionEntry struct {
	DrugA       string          `json:"drug_a"`
	DrugB       string          `json:"drug_b"`
	Severity    domain.Severity `json:"severity"`
	Description string          `json:"description"`
}

type conditionEntry struct {
	Condition       string         `json:"condition"`
	BaseProbability float64        `json:"base_probability"`
	Urgency         domain.Urgency `json:"urgency"`
}

type analyzerEntry struct {
	Name   domain.AnalyzerKind `json:"name"`
	Tool   string              `json:"tool"`
	Levels []string            `json:"levels"`
}

func (s *LiteServer) registerResources() {
	s.addJSONResource(ResourceInteractions, "interaction-knowledge-base",
		"Known drug interaction pairs with severity and description.", interactionSnapshot)
	s.addJSONResource(ResourceSymptoms, "symptom-table",
		"Conditions considered for each recognized symptom.", symptomSnapshot)
	s.addJSONResource(ResourceAnalyzers, "analyzers",
		"Analyzers, the tools that run them and the outcome levels they report.", analyzerSnapshot)

	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        PromptReviewAssessment,
		Description: "Walk a clinician through reviewing an analyzer outcome and recording feedback.",
		Arguments: []*mcp.PromptArgument{
			{Name: "analyzer", Description: "analyzer name or alias", Required: true},
			{Name: "input_digest", Description: "input digest returned with the assessment", Required: true},
			{Name: "level", Description: "outcome level the analyzer reported"},
		},
	}, s.reviewAssessmentPrompt)
}

func (s *LiteServer) addJSONResource(uri, name, description string, snapshot func() any) {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uri,
		Name:        name,
		Description: description,
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := json.MarshalIndent(snapshot(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", uri, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "application/json", Text: string(data)}},
		}, nil
	})
}

func interactionSnapshot() any {
	pairs := service.DefaultInteractionKnowledgeBase().Pairs()
	out := make([]interactionEntry, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, interactionEntry{DrugA: p.Pair.A, DrugB: p.Pair.B, Severity: p.Severity, Description: p.Description})
	}
	return out
}

func symptomSnapshot() any {
	table := service.DefaultSymptomTable()
	out := make(map[string][]conditionEntry, len(table))
	for symptom, weights := range table {
		entries := make([]conditionEntry, 0, len(weights))
		for _, w := range weights {
			entries = append(entries, conditionEntry{Condition: w.Condition, BaseProbability: w.BaseProbability, Urgency: w.Urgency})
		}
		out[symptom] = entries
	}
	return out
}

func analyzerSnapshot() any {
	risk := []string{string(domain.RiskLevelLow), string(domain.RiskLevelMedium), string(domain.RiskLevelHigh)}
	return []analyzerEntry{
		{Name: domain.AnalyzerAdherence, Tool: ToolPredictAdherence, Levels: risk},
		{Name: domain.AnalyzerHealthRisk, Tool: ToolAssessHealthRisk, Levels: risk},
		{Name: domain.AnalyzerDrugInteraction, Tool: ToolCheckDrugInteractions, Levels: []string{
			domain.OutcomeNone, string(domain.SeverityMild), string(domain.SeverityModerate), string(domain.SeveritySevere),
		}},
		{Name: domain.AnalyzerSymptom, Tool: ToolAnalyzeSymptoms, Levels: []string{
			string(domain.UrgencyLow), string(domain.UrgencyMedium), string(domain.UrgencyHigh),
		}},
	}
}

func (s *LiteServer) reviewAssessmentPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	kind, err := domain.ParseAnalyzerKind(args["analyzer"])
	if err != nil {
		return nil, err
	}
	digest := strings.TrimSpace(args["input_digest"])
	if digest == "" {
		return nil, fmt.Errorf("input_digest is required")
	}

	var levels []string
	for _, a := range analyzerSnapshot().([]analyzerEntry) {
		if a.Name == kind {
			levels = a.Levels
		}
	}
	sort.Strings(levels)

	var b strings.Builder
	fmt.Fprintf(&b, "Review the %s assessment with input digest %s.\n", kind, digest)
	if level := strings.TrimSpace(args["level"]); level != "" {
		fmt.Fprintf(&b, "The analyzer reported %q.\n", level)
	}
	b.WriteString("Summarize the factors that drove the outcome and ask the clinician whether they agree.\n")
	fmt.Fprintf(&b, "Valid levels are: %s.\n", strings.Join(levels, ", "))
	fmt.Fprintf(&b, "Record the clinician's answer with the %s tool, passing the same analyzer and input_digest.", ToolSubmitFeedback)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of a %s assessment", kind),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: b.String()}},
		},
	}, nil
}
