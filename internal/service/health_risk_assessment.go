package service

import (
	"github.com/cds-scoring-engine/internal/domain"
)

// Risk factor labels.
const (
	FactorAdvancedAge     = "advanced age"
	FactorObesity         = "obesity"
	FactorOverweight      = "overweight"
	FactorHypertension    = "hypertension"
	FactorHighCholesterol = "high cholesterol"
	FactorSmoking         = "smoking"
	FactorDiabetesHistory = "diabetes history"
	FactorFamilyHeart     = "family history of heart disease"
)

// Lifestyle recommendations.
const (
	RecWeightManagement      = "weight management"
	RecMaintainHealthyWeight = "maintain healthy weight"
	RecBloodPressure         = "BP management"
	RecCholesterol           = "cholesterol management"
	RecSmokingCessation      = "smoking cessation"
)

// Screening schedule entries.
const (
	ScreenAnnualComprehensive = "annual comprehensive screening"
	ScreenBiennial            = "biennial screening"
	ScreenMonthlyBP           = "monthly BP checks"
	ScreenQuarterlyHbA1c      = "quarterly HbA1c"
	ScreenAnnualCardiac       = "annual cardiac screening"
)

// FamilyHistoryHeartDisease is the family history tag scored by the assessment.
const FamilyHistoryHeartDisease = "heart_disease"

const (
	highRiskScore   = 6
	mediumRiskScore = 3
)

// riskRule is one block of the accumulating score. Rules in the same exclusive
// group are alternatives: only the first matching rule of a group fires.
type riskRule struct {
	group          string
	points         int
	factor         string
	recommendation string
	schedule       string
	applies        func(in domain.RiskInput) bool
}

// HealthRiskAssessment classifies overall cardiometabolic risk from an
// accumulating integer score.
type HealthRiskAssessment struct {
	rules []riskRule
}

// NewHealthRiskAssessment builds the rule list in evaluation order.
func NewHealthRiskAssessment() *HealthRiskAssessment {
	a := &HealthRiskAssessment{}
	a.initializeRules()
	return a
}

// Assess evaluates every rule in order and classifies the accumulated score.
func (a *HealthRiskAssessment) Assess(in domain.RiskInput) domain.RiskResult {
	result := domain.RiskResult{
		RiskFactors:       []string{},
		Recommendations:   []string{},
		ScreeningSchedule: []string{},
	}

	score, fired := a.evaluate(in)
	for _, rule := range fired {
		if rule.factor != "" {
			result.RiskFactors = append(result.RiskFactors, rule.factor)
		}
		if rule.recommendation != "" {
			result.Recommendations = append(result.Recommendations, rule.recommendation)
		}
		if rule.schedule != "" {
			result.ScreeningSchedule = append(result.ScreeningSchedule, rule.schedule)
		}
	}

	result.OverallRisk = classifyRiskScore(score)
	return result
}

// Score returns the accumulated integer score behind the classification.
func (a *HealthRiskAssessment) Score(in domain.RiskInput) int {
	score, _ := a.evaluate(in)
	return score
}

func (a *HealthRiskAssessment) evaluate(in domain.RiskInput) (int, []riskRule) {
	score := 0
	var fired []riskRule
	groups := make(map[string]bool)

	for _, rule := range a.rules {
		if rule.group != "" && groups[rule.group] {
			continue
		}
		if !rule.applies(in) {
			continue
		}
		if rule.group != "" {
			groups[rule.group] = true
		}
		score += rule.points
		fired = append(fired, rule)
	}

	return score, fired
}

func classifyRiskScore(score int) domain.RiskLevel {
	switch {
	case score >= highRiskScore:
		return domain.RiskLevelHigh
	case score >= mediumRiskScore:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

func (a *HealthRiskAssessment) initializeRules() {
	a.addRule(riskRule{
		group: "age", points: 2,
		factor:   FactorAdvancedAge,
		schedule: ScreenAnnualComprehensive,
		applies:  func(in domain.RiskInput) bool { return in.Age > 65 },
	})
	a.addRule(riskRule{
		group: "age", points: 1,
		schedule: ScreenBiennial,
		applies:  func(in domain.RiskInput) bool { return in.Age > 45 },
	})
	a.addRule(riskRule{
		group: "bmi", points: 2,
		factor:         FactorObesity,
		recommendation: RecWeightManagement,
		applies:        func(in domain.RiskInput) bool { return in.BMI > 30 },
	})
	a.addRule(riskRule{
		group: "bmi", points: 1,
		factor:         FactorOverweight,
		recommendation: RecMaintainHealthyWeight,
		applies:        func(in domain.RiskInput) bool { return in.BMI > 25 },
	})
	a.addRule(riskRule{
		points: 2,
		factor:         FactorHypertension,
		recommendation: RecBloodPressure,
		schedule:       ScreenMonthlyBP,
		applies: func(in domain.RiskInput) bool {
			return in.BloodPressure.Systolic > 140 || in.BloodPressure.Diastolic > 90
		},
	})
	a.addRule(riskRule{
		points: 2,
		factor:         FactorHighCholesterol,
		recommendation: RecCholesterol,
		applies:        func(in domain.RiskInput) bool { return in.Cholesterol > 240 },
	})
	a.addRule(riskRule{
		points: 3,
		factor:         FactorSmoking,
		recommendation: RecSmokingCessation,
		applies:        func(in domain.RiskInput) bool { return in.SmokingStatus },
	})
	a.addRule(riskRule{
		points: 2,
		factor:   FactorDiabetesHistory,
		schedule: ScreenQuarterlyHbA1c,
		applies:  func(in domain.RiskInput) bool { return in.DiabetesHistory },
	})
	a.addRule(riskRule{
		points: 1,
		factor:   FactorFamilyHeart,
		schedule: ScreenAnnualCardiac,
		applies:  func(in domain.RiskInput) bool { return in.HasFamilyHistory(FamilyHistoryHeartDisease) },
	})
}

func (a *HealthRiskAssessment) addRule(rule riskRule) {
	a.rules = append(a.rules, rule)
}
