package domain

// BloodPressure is a single systolic/diastolic reading in mmHg.
type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// RiskInput carries the attributes scored by the health risk assessment.
type RiskInput struct {
	Age             int           `json:"age"`
	BMI             float64       `json:"bmi"`
	BloodPressure   BloodPressure `json:"blood_pressure"`
	Cholesterol     int           `json:"cholesterol"` // mg/dL
	SmokingStatus   bool          `json:"smoking_status"`
	DiabetesHistory bool          `json:"diabetes_history"`
	FamilyHistory   []string      `json:"family_history"` // condition tags, e.g. "heart_disease"
}

// HasFamilyHistory reports whether tag is present in FamilyHistory, ignoring
// case and surrounding whitespace.
func (in RiskInput) HasFamilyHistory(tag string) bool {
	want := normalizeTag(tag)
	for _, t := range in.FamilyHistory {
		if normalizeTag(t) == want {
			return true
		}
	}
	return false
}

// RiskResult is the outcome of a health risk assessment. All lists preserve the
// order in which the scoring rules fired.
type RiskResult struct {
	OverallRisk       RiskLevel `json:"overall_risk"`
	RiskFactors       []string  `json:"risk_factors"`
	Recommendations   []string  `json:"recommendations"`
	ScreeningSchedule []string  `json:"screening_schedule"`
}

// OutcomeLevel implements Outcome.
func (r RiskResult) OutcomeLevel() string {
	return string(r.OverallRisk)
}
