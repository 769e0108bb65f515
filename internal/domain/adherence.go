package domain

// AdherenceInput describes a patient's medication regimen and circumstances.
// Ranges are documented, not enforced: out-of-range values are evaluated as given.
type AdherenceInput struct {
	Age                   float64 `json:"age"`                     // years, >= 0
	MedicationCount       int     `json:"medication_count"`        // >= 0
	SideEffectsSeverity   int     `json:"side_effects_severity"`   // 1-5
	SocialSupportScore    int     `json:"social_support_score"`    // 1-5
	PreviousAdherenceRate float64 `json:"previous_adherence_rate"` // 0.0-1.0
	ReminderFrequency     float64 `json:"reminder_frequency"`      // reminders per day, >= 0
}

// AdherenceResult is the outcome of a medication adherence prediction.
type AdherenceResult struct {
	AdherenceProbability float64   `json:"adherence_probability"`
	RiskLevel            RiskLevel `json:"risk_level"`
	Recommendations      []string  `json:"recommendations"`
}

// OutcomeLevel implements Outcome.
func (r AdherenceResult) OutcomeLevel() string {
	return string(r.RiskLevel)
}
