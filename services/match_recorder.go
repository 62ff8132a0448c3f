package services

import (
	"context"
	"fmt"
	"time"

	"claims-intake-platform/internal/logger"
	"claims-intake-platform/internal/matching"
	"claims-intake-platform/models"
)

// documentMatchStore is the slice of DocumentService the recorder needs.
type documentMatchStore interface {
	AppendMatchHistory(ctx context.Context, externalID string, entry models.MatchHistoryEntry) error
	UpdateBestMatch(ctx context.Context, externalID string, candidate models.BestMatch) (bool, error)
}

// claimMatchStore is the slice of ClaimService the recorder needs.
type claimMatchStore interface {
	AppendMatchHistory(ctx context.Context, claimID string, entry models.MatchHistoryEntry) error
}

// MatchRecorder persists the outcome of a matching run: it appends to the
// document's history, raises the document's best match when the new score
// beats it, and mirrors recommended matches onto the claim's history.
type MatchRecorder struct {
	documents documentMatchStore
	claims    claimMatchStore
}

func NewMatchRecorder(documents *DocumentService, claims *ClaimService) *MatchRecorder {
	return &MatchRecorder{documents: documents, claims: claims}
}

// Record writes one match result against a document. The document history
// append is the primary write; best-match and claim-side writes are derived
// and must not lose the history entry when they fail.
func (r *MatchRecorder) Record(ctx context.Context, documentExternalID string, result matching.MatchResult) error {
	now := time.Now()
	claimID := result.Claim.ID

	docEntry := models.MatchHistoryEntry{
		MatchedAt:     now,
		Score:         result.Score,
		MatchedFields: result.MatchedFields,
		Confidence:    result.Confidence,
		CounterpartID: claimID,
		IsRecommended: result.IsRecommended,
	}
	if err := r.documents.AppendMatchHistory(ctx, documentExternalID, docEntry); err != nil {
		return fmt.Errorf("failed to record match for document %s: %w", documentExternalID, err)
	}

	updated, err := r.documents.UpdateBestMatch(ctx, documentExternalID, models.BestMatch{
		Score:     result.Score,
		ClaimID:   claimID,
		MatchedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to update best match for document %s: %w", documentExternalID, err)
	}
	if updated {
		logger.Info("document best match raised",
			"document_id", documentExternalID,
			"claim_id", claimID,
			"score", result.Score)
	}

	if !result.IsRecommended {
		return nil
	}

	claimEntry := models.MatchHistoryEntry{
		MatchedAt:     now,
		Score:         result.Score,
		MatchedFields: result.MatchedFields,
		Confidence:    result.Confidence,
		CounterpartID: documentExternalID,
		IsRecommended: true,
	}
	if err := r.claims.AppendMatchHistory(ctx, claimID, claimEntry); err != nil {
		// the document-side record is already durable; surface but do not
		// unwind it
		return fmt.Errorf("failed to mirror match onto claim %s: %w", claimID, err)
	}
	return nil
}

// RecordAll records every result from a matching run against one document.
// Results are written in ranked order so histories read top match first.
func (r *MatchRecorder) RecordAll(ctx context.Context, documentExternalID string, results []matching.MatchResult) error {
	for _, result := range results {
		if err := r.Record(ctx, documentExternalID, result); err != nil {
			return err
		}
	}
	return nil
}
