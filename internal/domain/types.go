// Package domain contains the value records and shared vocabularies of the clinical
// decision support scoring engine: analyzer inputs, analyzer results and the
// three-level classifications they report.
//
// Every record is an immutable value constructed fresh per call. Nothing in this
// package performs I/O.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RiskLevel is the three-level classification reported by the adherence predictor
// and the health risk assessment.
//
// For adherence, "low" means low risk of non-adherence, i.e. a high adherence
// probability. Callers depend on these exact labels.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Severity grades a known drug-drug interaction.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Urgency indicates how quickly a condition should be evaluated by a clinician.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// AnalyzerKind names one of the four analyzers. It is used for cache keys,
// metrics labels, assessment history and clinician feedback.
type AnalyzerKind string

const (
	AnalyzerAdherence       AnalyzerKind = "medication_adherence"
	AnalyzerHealthRisk      AnalyzerKind = "health_risk"
	AnalyzerDrugInteraction AnalyzerKind = "drug_interaction"
	AnalyzerSymptom         AnalyzerKind = "symptom"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRiskLevel = errors.New("invalid risk level")
	ErrInvalidSeverity  = errors.New("invalid interaction severity")
	ErrInvalidUrgency   = errors.New("invalid urgency")
	ErrInvalidAnalyzer  = errors.New("invalid analyzer")
)

// IsValid reports whether the level is one of low, medium or high.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	default:
		return false
	}
}

func (l RiskLevel) String() string {
	return string(l)
}

// IsValid reports whether the severity is one of mild, moderate or severe.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

func (s Severity) String() string {
	return string(s)
}

// Rank orders severities so that severe > moderate > mild. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether the urgency is one of low, medium or high.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	default:
		return false
	}
}

func (u Urgency) String() string {
	return string(u)
}

// Rank orders urgencies so that high > medium > low. Unknown values rank 0.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether the analyzer kind is known.
func (k AnalyzerKind) IsValid() bool {
	switch k {
	case AnalyzerAdherence, AnalyzerHealthRisk, AnalyzerDrugInteraction, AnalyzerSymptom:
		return true
	default:
		return false
	}
}

func (k AnalyzerKind) String() string {
	return string(k)
}

// AllAnalyzers lists the analyzers in a stable order.
func AllAnalyzers() []AnalyzerKind {
	return []AnalyzerKind{AnalyzerAdherence, AnalyzerHealthRisk, AnalyzerDrugInteraction, AnalyzerSymptom}
}

// ParseAnalyzerKind accepts the canonical names plus the short aliases used on
// the command line (adherence, risk, interactions, symptoms).
func ParseAnalyzerKind(s string) (AnalyzerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(AnalyzerAdherence), "adherence":
		return AnalyzerAdherence, nil
	case string(AnalyzerHealthRisk), "risk":
		return AnalyzerHealthRisk, nil
	case string(AnalyzerDrugInteraction), "interaction", "interactions":
		return AnalyzerDrugInteraction, nil
	case string(AnalyzerSymptom), "symptoms":
		return AnalyzerSymptom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAnalyzer, s)
	}
}

// ParseRiskLevel parses a case-insensitive low/medium/high label.
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRiskLevel, s)
	}
	return level, nil
}

// Outcome is implemented by every analyzer result. OutcomeLevel is the single
// label a result is summarised by in metrics, history and feedback.
type Outcome interface {
	OutcomeLevel() string
}

// OutcomeNone is the outcome level of an interaction check that found nothing.
const OutcomeNone = "none"

// IsValidOutcomeLevel reports whether level is a label the given analyzer can
// produce. Interaction checks report a severity or "none"; the other analyzers
// report low, medium or high.
func IsValidOutcomeLevel(kind AnalyzerKind, level string) bool {
	switch kind {
	case AnalyzerDrugInteraction:
		return level == OutcomeNone || Severity(level).IsValid()
	case AnalyzerAdherence, AnalyzerHealthRisk:
		return RiskLevel(level).IsValid()
	case AnalyzerSymptom:
		return Urgency(level).IsValid()
	default:
		return false
	}
}
