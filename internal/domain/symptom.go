package domain

import "strings"

// SymptomInput is the list of reported symptoms. PatientHistory is accepted for
// forward compatibility and is not used by the scoring algorithm.
type SymptomInput struct {
	Symptoms       []string       `json:"symptoms"`
	PatientHistory map[string]any `json:"patient_history,omitempty"`
}

// ConditionCandidate is one possible condition with its accumulated probability.
type ConditionCandidate struct {
	Condition   string  `json:"condition"`
	Probability float64 `json:"probability"`
	Urgency     Urgency `json:"urgency"`
}

// SymptomResult holds at most three candidates, most probable first.
type SymptomResult struct {
	PossibleConditions []ConditionCandidate `json:"possible_conditions"`
	Recommendations    []string             `json:"recommendations"`
	UrgencyLevel       Urgency              `json:"urgency_level"`
}

// OutcomeLevel implements Outcome.
func (r SymptomResult) OutcomeLevel() string {
	return string(r.UrgencyLevel)
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
