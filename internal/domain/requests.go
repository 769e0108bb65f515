package domain

// Request types are the boundary form of the analyzer inputs used by the HTTP
// API, the MCP tools and the CLI. Scalar fields are pointers so that a missing
// field can be told apart from a zero value; Validate fails fast on structurally
// invalid input and never substitutes defaults. Numeric ranges are not checked.

// AdherenceRequest is the boundary form of AdherenceInput.
type AdherenceRequest struct {
	Age                   *float64 `json:"age" jsonschema:"patient age in years"`
	MedicationCount       *int     `json:"medication_count" jsonschema:"number of prescribed medications"`
	SideEffectsSeverity   *int     `json:"side_effects_severity" jsonschema:"side effect severity from 1 (none) to 5 (severe)"`
	SocialSupportScore    *int     `json:"social_support_score" jsonschema:"social support from 1 (none) to 5 (strong)"`
	PreviousAdherenceRate *float64 `json:"previous_adherence_rate" jsonschema:"historical adherence rate between 0.0 and 1.0"`
	ReminderFrequency     *float64 `json:"reminder_frequency" jsonschema:"medication reminders per day"`
}

// Validate checks that every field is present.
func (r *AdherenceRequest) Validate() error {
	switch {
	case r.Age == nil:
		return missingField("age")
	case r.MedicationCount == nil:
		return missingField("medication_count")
	case r.SideEffectsSeverity == nil:
		return missingField("side_effects_severity")
	case r.SocialSupportScore == nil:
		return missingField("social_support_score")
	case r.PreviousAdherenceRate == nil:
		return missingField("previous_adherence_rate")
	case r.ReminderFrequency == nil:
		return missingField("reminder_frequency")
	}
	return nil
}

// Input converts a validated request. Call Validate first.
func (r *AdherenceRequest) Input() AdherenceInput {
	return AdherenceInput{
		Age:                   *r.Age,
		MedicationCount:       *r.MedicationCount,
		SideEffectsSeverity:   *r.SideEffectsSeverity,
		SocialSupportScore:    *r.SocialSupportScore,
		PreviousAdherenceRate: *r.PreviousAdherenceRate,
		ReminderFrequency:     *r.ReminderFrequency,
	}
}

// BloodPressureRequest is the boundary form of BloodPressure.
type BloodPressureRequest struct {
	Systolic  *int `json:"systolic" jsonschema:"systolic pressure in mmHg"`
	Diastolic *int `json:"diastolic" jsonschema:"diastolic pressure in mmHg"`
}

// RiskRequest is the boundary form of RiskInput. FamilyHistory may be omitted.
type RiskRequest struct {
	Age             *int                  `json:"age" jsonschema:"patient age in years"`
	BMI             *float64              `json:"bmi" jsonschema:"body mass index"`
	BloodPressure   *BloodPressureRequest `json:"blood_pressure" jsonschema:"most recent blood pressure reading"`
	Cholesterol     *int                  `json:"cholesterol" jsonschema:"total cholesterol in mg/dL"`
	SmokingStatus   *bool                 `json:"smoking_status" jsonschema:"whether the patient currently smokes"`
	DiabetesHistory *bool                 `json:"diabetes_history" jsonschema:"whether the patient has a history of diabetes"`
	FamilyHistory   []string              `json:"family_history,omitempty" jsonschema:"family history condition tags such as heart_disease"`
}

// Validate checks that every required field is present.
func (r *RiskRequest) Validate() error {
	switch {
	case r.Age == nil:
		return missingField("age")
	case r.BMI == nil:
		return missingField("bmi")
	case r.BloodPressure == nil:
		return missingField("blood_pressure")
	case r.BloodPressure.Systolic == nil:
		return missingField("blood_pressure.systolic")
	case r.BloodPressure.Diastolic == nil:
		return missingField("blood_pressure.diastolic")
	case r.Cholesterol == nil:
		return missingField("cholesterol")
	case r.SmokingStatus == nil:
		return missingField("smoking_status")
	case r.DiabetesHistory == nil:
		return missingField("diabetes_history")
	}
	return nil
}

// Input converts a validated request. Call Validate first.
func (r *RiskRequest) Input() RiskInput {
	history := make([]string, len(r.FamilyHistory))
	copy(history, r.FamilyHistory)

	return RiskInput{
		Age: *r.Age,
		BMI: *r.BMI,
		BloodPressure: BloodPressure{
			Systolic:  *r.BloodPressure.Systolic,
			Diastolic: *r.BloodPressure.Diastolic,
		},
		Cholesterol:     *r.Cholesterol,
		SmokingStatus:   *r.SmokingStatus,
		DiabetesHistory: *r.DiabetesHistory,
		FamilyHistory:   history,
	}
}

// InteractionRequest is the boundary form of InteractionInput.
type InteractionRequest struct {
	Medications []string `json:"medications" jsonschema:"medication names to screen, case-insensitive"`
}

// Validate checks that the medication list is present. An empty list is valid.
func (r *InteractionRequest) Validate() error {
	if r.Medications == nil {
		return missingField("medications")
	}
	return nil
}

// Input converts a validated request. Call Validate first.
func (r *InteractionRequest) Input() InteractionInput {
	meds := make([]string, len(r.Medications))
	copy(meds, r.Medications)
	return InteractionInput{Medications: meds}
}

// SymptomRequest is the boundary form of SymptomInput.
type SymptomRequest struct {
	Symptoms       []string       `json:"symptoms" jsonschema:"reported symptoms, e.g. chest pain"`
	PatientHistory map[string]any `json:"patient_history,omitempty" jsonschema:"optional patient history, currently not used for scoring"`
}

// Validate checks that the symptom list is present. An empty list is valid.
func (r *SymptomRequest) Validate() error {
	if r.Symptoms == nil {
		return missingField("symptoms")
	}
	return nil
}

// Input converts a validated request. Call Validate first.
func (r *SymptomRequest) Input() SymptomInput {
	symptoms := make([]string, len(r.Symptoms))
	copy(symptoms, r.Symptoms)
	return SymptomInput{Symptoms: symptoms, PatientHistory: r.PatientHistory}
}

func missingField(field string) error {
	return NewValidationError(field, "field is required", nil)
}
