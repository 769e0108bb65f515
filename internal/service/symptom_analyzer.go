package service

import (
	"sort"
	"strings"

	"github.com/cds-scoring-engine/internal/domain"
)

// Symptom keys, case-folded.
const (
	SymptomChestPain         = "chest pain"
	SymptomFever             = "fever"
	SymptomHeadache          = "headache"
	SymptomShortnessOfBreath = "shortness of breath"
)

// Condition names.
const (
	ConditionHeartAttack        = "Heart Attack"
	ConditionAngina             = "Angina"
	ConditionMuscleStrain       = "Muscle Strain"
	ConditionViralInfection     = "Viral Infection"
	ConditionBacterialInfection = "Bacterial Infection"
	ConditionCOVID19            = "COVID-19"
	ConditionTensionHeadache    = "Tension Headache"
	ConditionMigraine           = "Migraine"
	ConditionClusterHeadache    = "Cluster Headache"
	ConditionAsthma             = "Asthma"
	ConditionHeartFailure       = "Heart Failure"
	ConditionAnxiety            = "Anxiety"
)

// Urgency recommendations.
const (
	RecSeekImmediateCare   = "seek immediate medical attention"
	RecCallEmergency       = "consider calling emergency services"
	RecScheduleAppointment = "schedule appointment within 24–48h"
	RecMonitorClosely      = "monitor symptoms closely"
	RecRestOTC             = "rest and OTC remedies"
	RecContactIfWorse      = "contact doctor if symptoms worsen"
)

const (
	maxConditionCandidates = 3
	accumulationFactor     = 0.5
)

// ConditionWeight is one (condition, base probability, urgency) triple.
type ConditionWeight struct {
	Condition       string
	BaseProbability float64
	Urgency         domain.Urgency
}

// SymptomTable maps a case-folded symptom to its candidate conditions.
type SymptomTable map[string][]ConditionWeight

// DefaultSymptomTable returns the seed symptom table.
func DefaultSymptomTable() SymptomTable {
	return SymptomTable{
		SymptomChestPain: {
			{ConditionHeartAttack, 0.3, domain.UrgencyHigh},
			{ConditionAngina, 0.4, domain.UrgencyMedium},
			{ConditionMuscleStrain, 0.3, domain.UrgencyLow},
		},
		SymptomFever: {
			{ConditionViralInfection, 0.6, domain.UrgencyLow},
			{ConditionBacterialInfection, 0.3, domain.UrgencyMedium},
			{ConditionCOVID19, 0.1, domain.UrgencyMedium},
		},
		SymptomHeadache: {
			{ConditionTensionHeadache, 0.7, domain.UrgencyLow},
			{ConditionMigraine, 0.2, domain.UrgencyMedium},
			{ConditionClusterHeadache, 0.1, domain.UrgencyHigh},
		},
		SymptomShortnessOfBreath: {
			{ConditionAsthma, 0.4, domain.UrgencyMedium},
			{ConditionHeartFailure, 0.3, domain.UrgencyHigh},
			{ConditionAnxiety, 0.3, domain.UrgencyLow},
		},
	}
}

// SymptomAnalyzer ranks possible conditions for a set of reported symptoms.
type SymptomAnalyzer struct {
	table SymptomTable
}

// NewSymptomAnalyzer copies table with case-folded keys. A nil table selects
// the default.
func NewSymptomAnalyzer(table SymptomTable) *SymptomAnalyzer {
	if table == nil {
		table = DefaultSymptomTable()
	}

	owned := make(SymptomTable, len(table))
	for symptom, weights := range table {
		key := foldSymptom(symptom)
		owned[key] = append(owned[key], weights...)
	}
	return &SymptomAnalyzer{table: owned}
}

// Analyze accumulates condition probabilities across symptoms and keeps the
// three most probable. A condition seen again adds half its base probability,
// capped at 1.
func (a *SymptomAnalyzer) Analyze(in domain.SymptomInput) domain.SymptomResult {
	var candidates []domain.ConditionCandidate
	index := make(map[string]int)

	for _, symptom := range in.Symptoms {
		for _, w := range a.table[foldSymptom(symptom)] {
			if i, ok := index[w.Condition]; ok {
				candidates[i].Probability = clamp01(candidates[i].Probability + w.BaseProbability*accumulationFactor)
				continue
			}
			index[w.Condition] = len(candidates)
			candidates = append(candidates, domain.ConditionCandidate{
				Condition:   w.Condition,
				Probability: clamp01(w.BaseProbability),
				Urgency:     w.Urgency,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})
	if len(candidates) > maxConditionCandidates {
		candidates = candidates[:maxConditionCandidates]
	}

	urgency := domain.UrgencyLow
	for _, c := range candidates {
		if c.Urgency.Rank() > urgency.Rank() {
			urgency = c.Urgency
		}
	}

	kept := make([]domain.ConditionCandidate, len(candidates))
	copy(kept, candidates)

	return domain.SymptomResult{
		PossibleConditions: kept,
		Recommendations:    urgencyRecommendations(urgency),
		UrgencyLevel:       urgency,
	}
}

func urgencyRecommendations(urgency domain.Urgency) []string {
	switch urgency {
	case domain.UrgencyHigh:
		return []string{RecSeekImmediateCare, RecCallEmergency}
	case domain.UrgencyMedium:
		return []string{RecScheduleAppointment, RecMonitorClosely}
	default:
		return []string{RecRestOTC, RecContactIfWorse}
	}
}

func foldSymptom(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
