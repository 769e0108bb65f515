package domain

// InteractionInput is the medication list to screen. Names are free text and
// matched case-insensitively.
type InteractionInput struct {
	Medications []string `json:"medications"`
}

// InteractionPair is one flagged combination. Drug1 and Drug2 keep the casing
// the caller supplied.
type InteractionPair struct {
	Drug1       string   `json:"drug1"`
	Drug2       string   `json:"drug2"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// InteractionResult lists interactions in discovery order.
type InteractionResult struct {
	HasInteractions bool              `json:"has_interactions"`
	Interactions    []InteractionPair `json:"interactions"`
	Recommendations []string          `json:"recommendations"`
}

// HighestSeverity returns the most serious severity found, or "" when there
// are no interactions.
func (r InteractionResult) HighestSeverity() Severity {
	var highest Severity
	for _, pair := range r.Interactions {
		if pair.Severity.Rank() > highest.Rank() {
			highest = pair.Severity
		}
	}
	return highest
}

// OutcomeLevel implements Outcome. It is the highest severity found, or "none".
func (r InteractionResult) OutcomeLevel() string {
	if highest := r.HighestSeverity(); highest != "" {
		return string(highest)
	}
	return OutcomeNone
}
