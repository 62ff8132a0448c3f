package matching

import (
	"fmt"
	"math"

	"claims-intake-platform/models"
)

// Scorable field names as they appear in matched-field lists and
// confidence maps
const (
	FieldClaimNumber       = "claimNumber"
	FieldClaimantName      = "claimantName"
	FieldDateOfInjury      = "dateOfInjury"
	FieldEmployerName      = "employerName"
	FieldInjuryDescription = "injuryDescription"
	FieldPhysicianName     = "physicianName"
)

// Weights holds the per-field scoring weights. The source system grew
// several mutually inconsistent weight tables; here they are configuration
// with one canonical default set, overridable per deployment.
type Weights struct {
	ClaimNumber       float64
	ClaimantName      float64
	DateOfInjury      float64
	EmployerName      float64
	InjuryDescription float64
	PhysicianName     float64
}

// Total returns the maximum attainable weighted score
func (w Weights) Total() float64 {
	return w.ClaimNumber + w.ClaimantName + w.DateOfInjury +
		w.EmployerName + w.InjuryDescription + w.PhysicianName
}

// Thresholds holds fuzzy-match cutoffs and the two score gates: the
// recommendation threshold (confidently correct) and the suggestion floor
// (worth surfacing for human review).
type Thresholds struct {
	ClaimantName      float64
	EmployerName      float64
	PhysicianName     float64
	InjuryDescription float64
	Recommend         float64 // percentage score
	MinScore          float64 // percentage score
}

// Config is the complete matching configuration
type Config struct {
	Weights    Weights
	Thresholds Thresholds
}

// DefaultConfig returns the canonical weight and threshold set
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			ClaimNumber:       30,
			ClaimantName:      30,
			DateOfInjury:      20,
			EmployerName:      15,
			InjuryDescription: 15,
			PhysicianName:     10,
		},
		Thresholds: Thresholds{
			ClaimantName:      0.90,
			EmployerName:      0.85,
			PhysicianName:     0.85,
			InjuryDescription: 0.80,
			Recommend:         60,
			MinScore:          40,
		},
	}
}

// MatchResult is the outcome of scoring one (bundle, claim) pair
type MatchResult struct {
	Score         float64             `json:"score"`
	MatchedFields []string            `json:"matched_fields"`
	Confidence    map[string]float64  `json:"confidence"`
	IsRecommended bool                `json:"is_recommended"`
	Claim         models.ClaimSummary `json:"claim"`
}

// Scorer applies the field comparator across all scorable fields and folds
// per-field weights into one confidence percentage.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given configuration
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score compares one entity bundle against one claim. A claim missing its
// required identity fields is rejected so a single malformed record cannot
// poison a store-wide scan.
func (s *Scorer) Score(bundle *models.EntityBundle, claim *models.Claim) (MatchResult, error) {
	if claim.ClaimNumber == "" || claim.Name == "" {
		return MatchResult{}, fmt.Errorf("claim %s missing required fields", claim.ID.Hex())
	}

	w := s.cfg.Weights
	th := s.cfg.Thresholds

	earned := 0.0
	matched := []string{}
	confidence := map[string]float64{}

	record := func(field string, weight, conf float64) {
		earned += weight
		matched = append(matched, field)
		confidence[field] = conf
	}

	if CompareExact(bundle.ClaimNumbers, claim.ClaimNumber, NormalizeID) {
		record(FieldClaimNumber, w.ClaimNumber, 1.0)
	}

	if sim, ok := CompareFuzzy(bundle.ClaimantNames, claim.Name, th.ClaimantName, nameSimilarity); ok {
		record(FieldClaimantName, w.ClaimantName, sim)
	}

	if claim.Date != nil {
		dateStr := claim.Date.Format("01/02/2006")
		if CompareExact(bundle.DatesOfInjury, dateStr, NormalizeDate) {
			record(FieldDateOfInjury, w.DateOfInjury, 1.0)
		}
	}

	if sim, ok := CompareFuzzy(bundle.EmployerNames, claim.EmployerName, th.EmployerName, nameSimilarity); ok {
		record(FieldEmployerName, w.EmployerName, sim)
	}

	if sim, ok := CompareFuzzy(bundle.InjuryDescriptions, claim.InjuryDescription, th.InjuryDescription, longTextSimilarity); ok {
		record(FieldInjuryDescription, w.InjuryDescription, sim)
	}

	if sim, ok := CompareFuzzy(bundle.PhysicianNames, claim.PhysicianName, th.PhysicianName, nameSimilarity); ok {
		record(FieldPhysicianName, w.PhysicianName, sim)
	}

	score := round2(earned / w.Total() * 100)

	return MatchResult{
		Score:         score,
		MatchedFields: matched,
		Confidence:    confidence,
		IsRecommended: score >= th.Recommend,
		Claim:         claim.Summary(),
	}, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
