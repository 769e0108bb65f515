package service

import (
	"math"

	"github.com/cds-scoring-engine/internal/domain"
)

// Adherence recommendation lines, in evaluation order.
const (
	RecIncreaseReminders   = "Increase medication reminder frequency"
	RecConsultSideEffects  = "Consult your doctor about managing side effects"
	RecInvolveSupport      = "Involve family members or a support network in your medication routine"
	RecSimplifyMedications = "Discuss simplifying your medication regimen with your doctor"
	RecContinueRoutine     = "Continue your current medication routine"
)

// Adherence thresholds.
const (
	adherenceLowRiskThreshold    = 0.80
	adherenceMediumRiskThreshold = 0.60
	reminderProbabilityThreshold = 0.70
	sideEffectsThreshold         = 3
	socialSupportThreshold       = 3
	medicationCountThreshold     = 5
)

// AdherenceWeights are the fixed logistic regression coefficients.
type AdherenceWeights struct {
	Age                  float64
	MedicationComplexity float64
	SideEffects          float64
	SocialSupport        float64
	PreviousAdherence    float64
	ReminderFrequency    float64
}

// AdherenceModel is the read-only configuration of the adherence predictor.
type AdherenceModel struct {
	Weights AdherenceWeights
	Bias    float64
}

// DefaultAdherenceModel returns the production coefficients.
func DefaultAdherenceModel() AdherenceModel {
	return AdherenceModel{
		Weights: AdherenceWeights{
			Age:                  0.15,
			MedicationComplexity: -0.30,
			SideEffects:          -0.25,
			SocialSupport:        0.20,
			PreviousAdherence:    0.40,
			ReminderFrequency:    0.10,
		},
		Bias: 0.10,
	}
}

// AdherencePredictor estimates the probability that a patient follows their
// medication schedule.
type AdherencePredictor struct {
	model AdherenceModel
}

// NewAdherencePredictor captures model by value.
func NewAdherencePredictor(model AdherenceModel) *AdherencePredictor {
	return &AdherencePredictor{model: model}
}

// Predict scores the input. It never fails; out-of-range values are evaluated
// as given.
func (p *AdherencePredictor) Predict(in domain.AdherenceInput) domain.AdherenceResult {
	probability := roundTo2(p.probability(in))

	return domain.AdherenceResult{
		AdherenceProbability: probability,
		RiskLevel:            adherenceRiskLevel(probability),
		Recommendations:      adherenceRecommendations(in, probability),
	}
}

func (p *AdherencePredictor) probability(in domain.AdherenceInput) float64 {
	w := p.model.Weights
	z := w.Age*(in.Age/100) +
		w.MedicationComplexity*float64(in.MedicationCount) +
		w.SideEffects*float64(in.SideEffectsSeverity) +
		w.SocialSupport*float64(in.SocialSupportScore) +
		w.PreviousAdherence*in.PreviousAdherenceRate +
		w.ReminderFrequency*in.ReminderFrequency +
		p.model.Bias

	return clamp01(sigmoid(z))
}

// adherenceRiskLevel maps a high adherence probability to a low risk of
// non-adherence.
func adherenceRiskLevel(probability float64) domain.RiskLevel {
	switch {
	case probability >= adherenceLowRiskThreshold:
		return domain.RiskLevelLow
	case probability >= adherenceMediumRiskThreshold:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelHigh
	}
}

func adherenceRecommendations(in domain.AdherenceInput, probability float64) []string {
	recommendations := []string{}

	if probability < reminderProbabilityThreshold {
		recommendations = append(recommendations, RecIncreaseReminders)
	}
	if in.SideEffectsSeverity > sideEffectsThreshold {
		recommendations = append(recommendations, RecConsultSideEffects)
	}
	if in.SocialSupportScore < socialSupportThreshold {
		recommendations = append(recommendations, RecInvolveSupport)
	}
	if in.MedicationCount > medicationCountThreshold {
		recommendations = append(recommendations, RecSimplifyMedications)
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, RecContinueRoutine)
	}

	return recommendations
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// clamp01 also maps NaN to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
