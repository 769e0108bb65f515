package service

import (
	"sort"
	"strings"

	"github.com/cds-scoring-engine/internal/domain"
)

// Drug names known to the interaction table, case-folded.
const (
	DrugWarfarin             = "warfarin"
	DrugAspirin              = "aspirin"
	DrugIbuprofen            = "ibuprofen"
	DrugNaproxen             = "naproxen"
	DrugMetformin            = "metformin"
	DrugAlcohol              = "alcohol"
	DrugContrastDye          = "contrast_dye"
	DrugLisinopril           = "lisinopril"
	DrugPotassiumSupplements = "potassium_supplements"
	DrugNSAIDs               = "nsaids"
	DrugSimvastatin          = "simvastatin"
	DrugGrapefruit           = "grapefruit"
	DrugCyclosporine         = "cyclosporine"
)

// Interaction descriptions and recommendations.
const (
	DescriptionBleedingRisk   = "increased risk of bleeding"
	DescriptionMonitorClosely = "potential interaction — monitor closely"

	RecContactProvider     = "contact your healthcare provider immediately"
	RecConsultInteractions = "consult your doctor about interactions"
	RecMonitorSymptoms     = "monitor for unusual symptoms"
)

// DrugPair is an unordered, case-folded pair of drug names.
type DrugPair struct {
	A, B string
}

// NewDrugPair canonicalises the pair so that (x, y) and (y, x) are equal.
func NewDrugPair(x, y string) DrugPair {
	x, y = foldDrug(x), foldDrug(y)
	if y < x {
		x, y = y, x
	}
	return DrugPair{A: x, B: y}
}

// InteractionEntry lists the drugs a drug is known to interact with. Entries
// are one-directional; lookups check both directions.
type InteractionEntry struct {
	Drug          string
	InteractsWith []string
}

// InteractionProfile overrides the default severity and description of a pair.
type InteractionProfile struct {
	Pair        DrugPair
	Severity    domain.Severity
	Description string
}

// InteractionKnowledgeBase is the read-only interaction table.
type InteractionKnowledgeBase struct {
	adjacency map[string]map[string]struct{}
	profiles  map[DrugPair]InteractionProfile
}

// NewInteractionKnowledgeBase indexes entries and profiles. Names are
// case-folded; the inputs are not retained.
func NewInteractionKnowledgeBase(entries []InteractionEntry, profiles []InteractionProfile) *InteractionKnowledgeBase {
	kb := &InteractionKnowledgeBase{
		adjacency: make(map[string]map[string]struct{}, len(entries)),
		profiles:  make(map[DrugPair]InteractionProfile, len(profiles)),
	}

	for _, entry := range entries {
		drug := foldDrug(entry.Drug)
		targets, ok := kb.adjacency[drug]
		if !ok {
			targets = make(map[string]struct{}, len(entry.InteractsWith))
			kb.adjacency[drug] = targets
		}
		for _, other := range entry.InteractsWith {
			targets[foldDrug(other)] = struct{}{}
		}
	}

	for _, profile := range profiles {
		pair := NewDrugPair(profile.Pair.A, profile.Pair.B)
		profile.Pair = pair
		kb.profiles[pair] = profile
	}

	return kb
}

// DefaultInteractionKnowledgeBase returns the seed interaction table.
func DefaultInteractionKnowledgeBase() *InteractionKnowledgeBase {
	return NewInteractionKnowledgeBase(
		[]InteractionEntry{
			{Drug: DrugWarfarin, InteractsWith: []string{DrugAspirin, DrugIbuprofen, DrugNaproxen}},
			{Drug: DrugMetformin, InteractsWith: []string{DrugAlcohol, DrugContrastDye}},
			{Drug: DrugLisinopril, InteractsWith: []string{DrugPotassiumSupplements, DrugNSAIDs}},
			{Drug: DrugSimvastatin, InteractsWith: []string{DrugGrapefruit, DrugCyclosporine}},
		},
		[]InteractionProfile{
			{
				Pair:        NewDrugPair(DrugWarfarin, DrugAspirin),
				Severity:    domain.SeveritySevere,
				Description: DescriptionBleedingRisk,
			},
		},
	)
}

// Interacts reports whether the two drugs are listed in either direction.
func (kb *InteractionKnowledgeBase) Interacts(x, y string) bool {
	x, y = foldDrug(x), foldDrug(y)
	if _, ok := kb.adjacency[x][y]; ok {
		return true
	}
	_, ok := kb.adjacency[y][x]
	return ok
}

// Profile returns the severity and description for a known pair.
func (kb *InteractionKnowledgeBase) Profile(pair DrugPair) (domain.Severity, string) {
	if profile, ok := kb.profiles[pair]; ok {
		return profile.Severity, profile.Description
	}
	return domain.SeverityModerate, DescriptionMonitorClosely
}

// Drugs returns the number of drugs with outgoing entries.
func (kb *InteractionKnowledgeBase) Drugs() int {
	return len(kb.adjacency)
}

// Pairs lists every known pair with its resolved severity and description,
// sorted by drug names.
func (kb *InteractionKnowledgeBase) Pairs() []InteractionProfile {
	seen := make(map[DrugPair]struct{})
	var pairs []InteractionProfile
	for drug, targets := range kb.adjacency {
		for other := range targets {
			pair := NewDrugPair(drug, other)
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			severity, description := kb.Profile(pair)
			pairs = append(pairs, InteractionProfile{Pair: pair, Severity: severity, Description: description})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Pair.A != pairs[j].Pair.A {
			return pairs[i].Pair.A < pairs[j].Pair.A
		}
		return pairs[i].Pair.B < pairs[j].Pair.B
	})
	return pairs
}

// DrugInteractionChecker screens a medication list against the knowledge base.
type DrugInteractionChecker struct {
	kb *InteractionKnowledgeBase
}

// NewDrugInteractionChecker uses kb, or the default table when kb is nil.
func NewDrugInteractionChecker(kb *InteractionKnowledgeBase) *DrugInteractionChecker {
	if kb == nil {
		kb = DefaultInteractionKnowledgeBase()
	}
	return &DrugInteractionChecker{kb: kb}
}

// Check enumerates every pair (i, j) with i < j in input order. A pair whose
// case-folded names were already reported is not reported again.
func (c *DrugInteractionChecker) Check(in domain.InteractionInput) domain.InteractionResult {
	result := domain.InteractionResult{
		Interactions:    []domain.InteractionPair{},
		Recommendations: []string{},
	}

	seen := make(map[DrugPair]struct{})
	severe := false
	meds := in.Medications

	for i := 0; i < len(meds); i++ {
		for j := i + 1; j < len(meds); j++ {
			if !c.kb.Interacts(meds[i], meds[j]) {
				continue
			}

			pair := NewDrugPair(meds[i], meds[j])
			if _, dup := seen[pair]; dup {
				continue
			}
			seen[pair] = struct{}{}

			severity, description := c.kb.Profile(pair)
			if severity == domain.SeveritySevere {
				severe = true
			}
			result.Interactions = append(result.Interactions, domain.InteractionPair{
				Drug1:       meds[i],
				Drug2:       meds[j],
				Severity:    severity,
				Description: description,
			})
		}
	}

	result.HasInteractions = len(result.Interactions) > 0
	if result.HasInteractions {
		if severe {
			result.Recommendations = append(result.Recommendations, RecContactProvider)
		}
		result.Recommendations = append(result.Recommendations, RecConsultInteractions, RecMonitorSymptoms)
	}

	return result
}

func foldDrug(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
