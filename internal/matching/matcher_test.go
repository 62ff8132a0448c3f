package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"claims-intake-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type staticClaimSource struct {
	claims []models.Claim
	err    error
}

func (s *staticClaimSource) FindAll(ctx context.Context) ([]models.Claim, error) {
	return s.claims, s.err
}

func makeClaim(id byte, number, name string) models.Claim {
	var oid primitive.ObjectID
	oid[11] = id
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return models.Claim{
		ID:          oid,
		ClaimNumber: number,
		Name:        name,
		Date:        &date,
	}
}

func TestFindMatchesEmptyBundle(t *testing.T) {
	matcher := NewMatcher(&staticClaimSource{}, DefaultConfig())

	_, err := matcher.FindMatches(context.Background(), &models.EntityBundle{}, 0)
	if !errors.Is(err, ErrNoEntities) {
		t.Fatalf("expected ErrNoEntities, got %v", err)
	}
}

func TestFindMatchesSourceError(t *testing.T) {
	matcher := NewMatcher(&staticClaimSource{err: errors.New("store down")}, DefaultConfig())

	bundle := &models.EntityBundle{ClaimNumbers: []string{"WC-2024-1001"}}
	if _, err := matcher.FindMatches(context.Background(), bundle, 0); err == nil {
		t.Fatal("expected error when claim source fails")
	}
}

func TestFindMatchesRanking(t *testing.T) {
	source := &staticClaimSource{claims: []models.Claim{
		makeClaim(1, "WC-2024-1001", "Michael Thompson"),
		makeClaim(2, "WC-2024-1002", "Maria Gonzalez"),
		makeClaim(3, "WC-2024-1003", "Mychael Thomson"),
	}}
	matcher := NewMatcher(source, DefaultConfig())

	bundle := &models.EntityBundle{
		ClaimNumbers:  []string{"WC-2024-1001"},
		ClaimantNames: []string{"Michael Thompson"},
	}
	results, err := matcher.FindMatches(context.Background(), bundle, 0)
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}

	if results[0].Claim.ClaimNumber != "WC-2024-1001" {
		t.Errorf("top match = %s, want WC-2024-1001", results[0].Claim.ClaimNumber)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by score: %.2f before %.2f",
				results[i-1].Score, results[i].Score)
		}
	}
}

func TestFindMatchesTieBreaksOnClaimID(t *testing.T) {
	// identical claims produce identical scores; order must be id ascending
	source := &staticClaimSource{claims: []models.Claim{
		makeClaim(9, "WC-2024-1001", "Michael Thompson"),
		makeClaim(1, "WC-2024-1001", "Michael Thompson"),
		makeClaim(5, "WC-2024-1001", "Michael Thompson"),
	}}
	matcher := NewMatcher(source, DefaultConfig())

	bundle := &models.EntityBundle{ClaimNumbers: []string{"WC-2024-1001"}}
	results, err := matcher.FindMatches(context.Background(), bundle, 0)
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Claim.ID < results[i-1].Claim.ID {
			t.Errorf("tie not broken by claim id: %s before %s",
				results[i-1].Claim.ID, results[i].Claim.ID)
		}
	}
}

func TestFindMatchesMinScoreFilter(t *testing.T) {
	source := &staticClaimSource{claims: []models.Claim{
		makeClaim(1, "WC-2024-1001", "Michael Thompson"),
		makeClaim(2, "WC-2024-1002", "Maria Gonzalez"),
	}}
	matcher := NewMatcher(source, DefaultConfig())

	// claim number alone scores 25; filter at 40 must drop everything
	bundle := &models.EntityBundle{ClaimNumbers: []string{"WC-2024-1001"}}
	results, err := matcher.FindMatches(context.Background(), bundle, 40)
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results above threshold 40, want 0", len(results))
	}

	results, err = matcher.FindMatches(context.Background(), bundle, 25)
	if err != nil {
		t.Fatalf("match error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results at threshold 25, want 1", len(results))
	}
}

func TestFindMatchesSkipsMalformedClaim(t *testing.T) {
	broken := makeClaim(2, "", "")
	source := &staticClaimSource{claims: []models.Claim{
		makeClaim(1, "WC-2024-1001", "Michael Thompson"),
		broken,
		makeClaim(3, "WC-2024-1003", "James O'Connor"),
	}}
	matcher := NewMatcher(source, DefaultConfig())

	bundle := &models.EntityBundle{ClaimNumbers: []string{"WC-2024-1001"}}
	results, err := matcher.FindMatches(context.Background(), bundle, 0)
	if err != nil {
		t.Fatalf("malformed claim aborted scan: %v", err)
	}
	for _, r := range results {
		if r.Claim.ClaimNumber == "" {
			t.Error("malformed claim leaked into results")
		}
	}
}
