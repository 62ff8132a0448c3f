package matching

import (
	"context"
	"fmt"
	"sort"

	"claims-intake-platform/internal/logger"
	"claims-intake-platform/models"
)

// ClaimSource yields the claims to scan. Claim stores are small (hundreds to
// low thousands), so a full linear scan per document is acceptable; this is
// a documented scaling limit.
type ClaimSource interface {
	FindAll(ctx context.Context) ([]models.Claim, error)
}

// Matcher runs the scorer over an entire claim store for one document
type Matcher struct {
	scorer *Scorer
	claims ClaimSource
	cfg    Config
}

// NewMatcher creates a claim matcher backed by the given claim source
func NewMatcher(claims ClaimSource, cfg Config) *Matcher {
	return &Matcher{
		scorer: NewScorer(cfg),
		claims: claims,
		cfg:    cfg,
	}
}

// Config returns the active matching configuration
func (m *Matcher) Config() Config {
	return m.cfg
}

// FindMatches scores the bundle against every claim, drops results below
// minScore, and returns the rest sorted by score descending with claim id
// as the deterministic tiebreaker. A malformed claim record is logged and
// skipped; it never aborts the scan.
func (m *Matcher) FindMatches(ctx context.Context, bundle *models.EntityBundle, minScore float64) ([]MatchResult, error) {
	if bundle.IsEmpty() {
		return nil, fmt.Errorf("entity bundle is empty: %w", ErrNoEntities)
	}

	claims, err := m.claims.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}

	results := make([]MatchResult, 0, len(claims))
	for i := range claims {
		result, err := m.scorer.Score(bundle, &claims[i])
		if err != nil {
			logger.Warn("skipping malformed claim during match scan",
				"claim_id", claims[i].ID.Hex(), "error", err)
			continue
		}
		if result.Score >= minScore {
			results = append(results, result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Claim.ID < results[j].Claim.ID
	})

	return results, nil
}
