package timeline

import "solar-ops-portal/internal/models"

// StepCount is the number of fixed timeline steps
const StepCount = 12

// AggregatedPairCount limits statistical aggregation to the first N
// consecutive pairs; summary pairs are narrative-only
const AggregatedPairCount = 10

// DocDate selects which document date a step reads
type DocDate string

const (
	DocDateSubmitted DocDate = "submitted"
	DocDateIssued    DocDate = "issued"
)

// StepSource declares how a step finds its date. Exactly one of the three
// variants applies per step.
type StepSource interface {
	isStepSource()
}

// DirectField reads one of the project's own milestone date columns
type DirectField struct {
	Field models.MilestoneField
}

// DocumentWithFallback reads the project field first; when that is empty it
// falls back to a matching document's submitted date
type DocumentWithFallback struct {
	Field  models.MilestoneField
	Codes  []string
	Labels []string
}

// DocumentOnly resolves purely through document search
type DocumentOnly struct {
	Codes  []string
	Labels []string
	Date   DocDate
}

func (DirectField) isStepSource()          {}
func (DocumentWithFallback) isStepSource() {}
func (DocumentOnly) isStepSource()         {}

// Step is one fixed checkpoint in the regulatory/construction lifecycle
type Step struct {
	Index  int
	Key    string
	Label  string
	Source StepSource
}

// Steps is the immutable timeline step catalog, ordered by index.
// Never mutated at runtime; stage customization layers on top at read time.
var Steps = [StepCount]Step{
	{Index: 0, Key: "initial_survey", Label: "Initial Survey",
		Source: DirectField{Field: models.FieldSurveyDate}},
	{Index: 1, Key: "contract_signed", Label: "Contract Signed",
		Source: DirectField{Field: models.FieldContractSignedDate}},
	{Index: 2, Key: "grid_application", Label: "Grid Connection Application",
		Source: DocumentOnly{
			Codes:  []string{models.DocTypeGridApplication},
			Labels: []string{"grid connection application", "grid application"},
			Date:   DocDateSubmitted,
		}},
	{Index: 3, Key: "grid_approval", Label: "Grid Connection Approval",
		Source: DocumentOnly{
			Codes:  []string{models.DocTypeGridApproval},
			Labels: []string{"grid connection approval", "grid approval"},
			Date:   DocDateIssued,
		}},
	{Index: 4, Key: "structural_certification", Label: "Structural Certification",
		Source: DocumentWithFallback{
			Field:  models.FieldStructuralCertDate,
			Codes:  []string{models.DocTypeStructuralCert},
			Labels: []string{"structural certification", "structural cert"},
		}},
	{Index: 5, Key: "electrical_certification", Label: "Electrical Certification",
		Source: DocumentWithFallback{
			Field:  models.FieldElectricalCertDate,
			Codes:  []string{models.DocTypeElectricalCert},
			Labels: []string{"electrical certification", "electrical cert"},
		}},
	{Index: 6, Key: "construction_start", Label: "Construction Start",
		Source: DirectField{Field: models.FieldConstructionStartDate}},
	{Index: 7, Key: "completion_inspection", Label: "Completion Inspection",
		Source: DocumentOnly{
			Codes:  []string{models.DocTypeCompletionReport},
			Labels: []string{"completion inspection", "completion report"},
			Date:   DocDateSubmitted,
		}},
	{Index: 8, Key: "meter_installation", Label: "Meter Installation",
		Source: DirectField{Field: models.FieldMeterInstalledDate}},
	{Index: 9, Key: "utility_acceptance", Label: "Utility Acceptance",
		Source: DocumentOnly{
			Codes:  []string{models.DocTypeUtilityAcceptance},
			Labels: []string{"utility acceptance"},
			Date:   DocDateIssued,
		}},
	{Index: 10, Key: "subsidy_application", Label: "Subsidy Application",
		Source: DocumentOnly{
			Codes:  []string{models.DocTypeSubsidyApp},
			Labels: []string{"subsidy application"},
			Date:   DocDateSubmitted,
		}},
	{Index: 11, Key: "commissioning", Label: "Commissioning",
		Source: DocumentOnly{
			Codes:  []string{models.DocTypeCommissioningCert},
			Labels: []string{"commissioning certificate", "commissioning"},
			Date:   DocDateIssued,
		}},
}

// PairKind distinguishes consecutive-step intervals from multi-step phases
type PairKind string

const (
	PairConsecutive PairKind = "consecutive"
	PairSummary     PairKind = "summary"
)

// Pair is a named (fromStep, toStep) interval of interest
type Pair struct {
	Key   string
	Label string
	From  int
	To    int
	Kind  PairKind
}

// Pairs is the immutable comparison pair catalog: every consecutive step
// interval followed by the four summary phases
var Pairs = buildPairs()

func buildPairs() []Pair {
	pairs := make([]Pair, 0, StepCount+3)
	for i := 1; i < StepCount; i++ {
		pairs = append(pairs, Pair{
			Key:   Steps[i-1].Key + "_to_" + Steps[i].Key,
			Label: Steps[i-1].Label + " → " + Steps[i].Label,
			From:  i - 1,
			To:    i,
			Kind:  PairConsecutive,
		})
	}
	pairs = append(pairs,
		Pair{Key: "signing_to_grid_approval", Label: "Signing to Grid Approval", From: 1, To: 3, Kind: PairSummary},
		Pair{Key: "signing_to_construction", Label: "Signing to Construction Start", From: 1, To: 6, Kind: PairSummary},
		Pair{Key: "construction_to_commissioning", Label: "Construction to Commissioning", From: 6, To: 11, Kind: PairSummary},
		Pair{Key: "signing_to_commissioning", Label: "Signing to Commissioning", From: 1, To: 11, Kind: PairSummary},
	)
	return pairs
}

// ConsecutivePairs returns the consecutive-step pairs in step order
func ConsecutivePairs() []Pair {
	out := make([]Pair, 0, StepCount-1)
	for _, p := range Pairs {
		if p.Kind == PairConsecutive {
			out = append(out, p)
		}
	}
	return out
}

// SummaryPairs returns the multi-step summary pairs
func SummaryPairs() []Pair {
	out := make([]Pair, 0, 4)
	for _, p := range Pairs {
		if p.Kind == PairSummary {
			out = append(out, p)
		}
	}
	return out
}

// PairByKey looks up a pair definition by its key
func PairByKey(key string) (Pair, bool) {
	for _, p := range Pairs {
		if p.Key == key {
			return p, true
		}
	}
	return Pair{}, false
}
