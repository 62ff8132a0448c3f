package services

import (
	"context"
	"errors"
	"testing"

	"claims-intake-platform/internal/matching"
	"claims-intake-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeDocumentMatchStore struct {
	history    map[string][]models.MatchHistoryEntry
	best       map[string]models.BestMatch
	historyErr error
	bestErr    error
}

func newFakeDocumentMatchStore() *fakeDocumentMatchStore {
	return &fakeDocumentMatchStore{
		history: map[string][]models.MatchHistoryEntry{},
		best:    map[string]models.BestMatch{},
	}
}

func (f *fakeDocumentMatchStore) AppendMatchHistory(ctx context.Context, externalID string, entry models.MatchHistoryEntry) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	f.history[externalID] = append(f.history[externalID], entry)
	return nil
}

func (f *fakeDocumentMatchStore) UpdateBestMatch(ctx context.Context, externalID string, candidate models.BestMatch) (bool, error) {
	if f.bestErr != nil {
		return false, f.bestErr
	}
	current, exists := f.best[externalID]
	if exists && candidate.Score <= current.Score {
		return false, nil
	}
	f.best[externalID] = candidate
	return true, nil
}

type fakeClaimMatchStore struct {
	history map[string][]models.MatchHistoryEntry
	err     error
}

func newFakeClaimMatchStore() *fakeClaimMatchStore {
	return &fakeClaimMatchStore{history: map[string][]models.MatchHistoryEntry{}}
}

func (f *fakeClaimMatchStore) AppendMatchHistory(ctx context.Context, claimID string, entry models.MatchHistoryEntry) error {
	if f.err != nil {
		return f.err
	}
	f.history[claimID] = append(f.history[claimID], entry)
	return nil
}

func matchResult(id byte, score float64, recommended bool) matching.MatchResult {
	var oid primitive.ObjectID
	oid[11] = id
	return matching.MatchResult{
		Score:         score,
		MatchedFields: []string{matching.FieldClaimNumber},
		Confidence:    map[string]float64{matching.FieldClaimNumber: 1.0},
		IsRecommended: recommended,
		Claim:         models.ClaimSummary{ID: oid.Hex(), ClaimNumber: "WC-2024-1001"},
	}
}

func TestRecordAppendsDocumentHistory(t *testing.T) {
	docs := newFakeDocumentMatchStore()
	claims := newFakeClaimMatchStore()
	r := &MatchRecorder{documents: docs, claims: claims}

	result := matchResult(1, 45, false)
	if err := r.Record(context.Background(), "doc-1", result); err != nil {
		t.Fatalf("record error: %v", err)
	}

	entries := docs.history["doc-1"]
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if entries[0].Score != 45 {
		t.Errorf("entry score = %.2f, want 45", entries[0].Score)
	}
	if entries[0].CounterpartID != result.Claim.ID {
		t.Errorf("counterpart = %s, want %s", entries[0].CounterpartID, result.Claim.ID)
	}
	// below the recommendation gate: no claim-side mirror
	if len(claims.history) != 0 {
		t.Errorf("claim history written for non-recommended match")
	}
}

func TestRecordMirrorsRecommendedOntoClaim(t *testing.T) {
	docs := newFakeDocumentMatchStore()
	claims := newFakeClaimMatchStore()
	r := &MatchRecorder{documents: docs, claims: claims}

	result := matchResult(1, 85, true)
	if err := r.Record(context.Background(), "doc-1", result); err != nil {
		t.Fatalf("record error: %v", err)
	}

	claimEntries := claims.history[result.Claim.ID]
	if len(claimEntries) != 1 {
		t.Fatalf("claim history entries = %d, want 1", len(claimEntries))
	}
	if claimEntries[0].CounterpartID != "doc-1" {
		t.Errorf("claim counterpart = %s, want doc-1", claimEntries[0].CounterpartID)
	}
}

func TestRecordBestMatchMonotonic(t *testing.T) {
	docs := newFakeDocumentMatchStore()
	claims := newFakeClaimMatchStore()
	r := &MatchRecorder{documents: docs, claims: claims}

	ctx := context.Background()
	if err := r.Record(ctx, "doc-1", matchResult(1, 70, true)); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := r.Record(ctx, "doc-1", matchResult(2, 55, false)); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := r.Record(ctx, "doc-1", matchResult(3, 70, true)); err != nil {
		t.Fatalf("record error: %v", err)
	}

	best := docs.best["doc-1"]
	if best.Score != 70 {
		t.Errorf("best score = %.2f, want 70", best.Score)
	}
	// equal score never replaces: first writer holds
	want := matchResult(1, 70, true).Claim.ID
	if best.ClaimID != want {
		t.Errorf("best claim = %s, want %s (strictly-greater semantics)", best.ClaimID, want)
	}
	// all three attempts land in history regardless
	if len(docs.history["doc-1"]) != 3 {
		t.Errorf("history entries = %d, want 3", len(docs.history["doc-1"]))
	}
}

func TestRecordHistoryFailureAborts(t *testing.T) {
	docs := newFakeDocumentMatchStore()
	docs.historyErr = errors.New("write failed")
	r := &MatchRecorder{documents: docs, claims: newFakeClaimMatchStore()}

	if err := r.Record(context.Background(), "doc-1", matchResult(1, 80, true)); err == nil {
		t.Fatal("expected error when history append fails")
	}
	if len(docs.best) != 0 {
		t.Error("best match written despite failed history append")
	}
}

func TestRecordClaimMirrorFailureKeepsDocumentRecord(t *testing.T) {
	docs := newFakeDocumentMatchStore()
	claims := newFakeClaimMatchStore()
	claims.err = errors.New("claim store down")
	r := &MatchRecorder{documents: docs, claims: claims}

	err := r.Record(context.Background(), "doc-1", matchResult(1, 80, true))
	if err == nil {
		t.Fatal("expected error when claim mirror fails")
	}
	// the document-side write stays durable
	if len(docs.history["doc-1"]) != 1 {
		t.Errorf("document history entries = %d, want 1", len(docs.history["doc-1"]))
	}
}

func TestRecordAllWritesInRankedOrder(t *testing.T) {
	docs := newFakeDocumentMatchStore()
	r := &MatchRecorder{documents: docs, claims: newFakeClaimMatchStore()}

	results := []matching.MatchResult{
		matchResult(1, 90, true),
		matchResult(2, 60, true),
		matchResult(3, 42, false),
	}
	if err := r.RecordAll(context.Background(), "doc-1", results); err != nil {
		t.Fatalf("record all error: %v", err)
	}

	entries := docs.history["doc-1"]
	if len(entries) != 3 {
		t.Fatalf("history entries = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			t.Errorf("history out of ranked order: %.2f after %.2f",
				entries[i].Score, entries[i-1].Score)
		}
	}
	if docs.best["doc-1"].Score != 90 {
		t.Errorf("best score = %.2f, want 90", docs.best["doc-1"].Score)
	}
}
