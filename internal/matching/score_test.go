package matching

import (
	"math"
	"testing"
	"time"

	"claims-intake-platform/models"
)

func testClaim() *models.Claim {
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return &models.Claim{
		ClaimNumber:       "WC-2024-1001",
		Name:              "Michael Thompson",
		Date:              &date,
		EmployerName:      "Acme Manufacturing",
		PhysicianName:     "Dr. Sarah Chen",
		InjuryDescription: "lower back strain from lifting",
	}
}

func TestScoreExactClaimNumberOnly(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{ClaimNumbers: []string{"WC-2024-1001"}}

	result, err := scorer.Score(bundle, testClaim())
	if err != nil {
		t.Fatalf("score error: %v", err)
	}

	// 30 of 120 total weight
	if math.Abs(result.Score-25.0) > 0.001 {
		t.Errorf("score = %.2f, want 25.00", result.Score)
	}
	if len(result.MatchedFields) != 1 || result.MatchedFields[0] != FieldClaimNumber {
		t.Errorf("matched fields = %v, want [%s]", result.MatchedFields, FieldClaimNumber)
	}
	if result.Confidence[FieldClaimNumber] != 1.0 {
		t.Errorf("claim number confidence = %f, want 1.0", result.Confidence[FieldClaimNumber])
	}
	if result.IsRecommended {
		t.Error("25-point match must not be recommended")
	}
}

func TestScoreClaimNumberFormattingIgnored(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{ClaimNumbers: []string{"wc 2024 1001"}}

	result, err := scorer.Score(bundle, testClaim())
	if err != nil {
		t.Fatalf("score error: %v", err)
	}
	if len(result.MatchedFields) != 1 {
		t.Errorf("differently formatted claim number did not match: %v", result.MatchedFields)
	}
}

func TestScoreRecommendation(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{
		ClaimNumbers:  []string{"WC-2024-1001"},
		ClaimantNames: []string{"Michael Thompson"},
		DatesOfInjury: []string{"3/4/2024"},
	}

	result, err := scorer.Score(bundle, testClaim())
	if err != nil {
		t.Fatalf("score error: %v", err)
	}

	// 80 of 120 total weight
	want := math.Round(80.0/120.0*100*100) / 100
	if math.Abs(result.Score-want) > 0.001 {
		t.Errorf("score = %.2f, want %.2f", result.Score, want)
	}
	if !result.IsRecommended {
		t.Errorf("%.2f-point match should be recommended", result.Score)
	}
}

func TestScoreFuzzyClaimantName(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{ClaimantNames: []string{"Micheal Thompsen"}}

	result, err := scorer.Score(bundle, testClaim())
	if err != nil {
		t.Fatalf("score error: %v", err)
	}
	if len(result.MatchedFields) != 1 || result.MatchedFields[0] != FieldClaimantName {
		t.Fatalf("matched fields = %v, want [%s]", result.MatchedFields, FieldClaimantName)
	}
	conf := result.Confidence[FieldClaimantName]
	if conf <= 0.90 || conf > 1.0 {
		t.Errorf("claimant confidence = %.4f, want in (0.90, 1.0]", conf)
	}
}

func TestScoreUnrelatedNameRejected(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{ClaimantNames: []string{"Greta Svensson"}}

	result, err := scorer.Score(bundle, testClaim())
	if err != nil {
		t.Fatalf("score error: %v", err)
	}
	if len(result.MatchedFields) != 0 {
		t.Errorf("unrelated name matched: %v", result.MatchedFields)
	}
	if result.Score != 0 {
		t.Errorf("score = %.2f, want 0", result.Score)
	}
}

func TestScoreDateFormats(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	for _, form := range []string{"03/04/2024", "3-4-24", "3.4.2024"} {
		bundle := &models.EntityBundle{DatesOfInjury: []string{form}}
		result, err := scorer.Score(bundle, testClaim())
		if err != nil {
			t.Fatalf("score error: %v", err)
		}
		if len(result.MatchedFields) != 1 || result.MatchedFields[0] != FieldDateOfInjury {
			t.Errorf("date form %q did not match: %v", form, result.MatchedFields)
		}
	}
}

func TestScoreRejectsMalformedClaim(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{ClaimNumbers: []string{"WC-2024-1001"}}

	claim := testClaim()
	claim.Name = ""
	if _, err := scorer.Score(bundle, claim); err == nil {
		t.Fatal("expected error for claim missing claimant name")
	}

	claim = testClaim()
	claim.ClaimNumber = ""
	if _, err := scorer.Score(bundle, claim); err == nil {
		t.Fatal("expected error for claim missing claim number")
	}
}

func TestScoreBounds(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{
		ClaimNumbers:       []string{"WC-2024-1001"},
		ClaimantNames:      []string{"Michael Thompson"},
		DatesOfInjury:      []string{"03/04/2024"},
		EmployerNames:      []string{"Acme Manufacturing"},
		PhysicianNames:     []string{"Dr. Sarah Chen"},
		InjuryDescriptions: []string{"lower back strain from lifting"},
	}

	result, err := scorer.Score(bundle, testClaim())
	if err != nil {
		t.Fatalf("score error: %v", err)
	}
	if math.Abs(result.Score-100.0) > 0.001 {
		t.Errorf("all-field score = %.2f, want 100.00", result.Score)
	}
	if len(result.MatchedFields) != 6 {
		t.Errorf("matched %d fields, want 6", len(result.MatchedFields))
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	bundle := &models.EntityBundle{
		ClaimNumbers:  []string{"WC-2024-1001"},
		ClaimantNames: []string{"Micheal Thompsen"},
	}

	first, err := scorer.Score(bundle, testClaim())
	if err != nil {
		t.Fatalf("score error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := scorer.Score(bundle, testClaim())
		if err != nil {
			t.Fatalf("score error: %v", err)
		}
		if again.Score != first.Score {
			t.Fatalf("score not deterministic: %.4f vs %.4f", again.Score, first.Score)
		}
	}
}
