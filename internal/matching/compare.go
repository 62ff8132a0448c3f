package matching

// CompareExact reports whether any candidate equals the claim value after
// normalization. Used for identifier-like fields where partial similarity
// is meaningless. Confidence is binary: callers record 1.0 on a match.
func CompareExact(candidates []string, claimValue string, normalize func(string) string) bool {
	normClaim := normalize(claimValue)
	if normClaim == "" {
		return false
	}
	for _, cand := range candidates {
		if normalize(cand) == normClaim {
			return true
		}
	}
	return false
}

// CompareFuzzy returns the best similarity between the claim value and any
// candidate, and whether it clears the threshold. A field with no candidates
// or an empty claim value is skipped (matched=false, similarity 0).
func CompareFuzzy(candidates []string, claimValue string, threshold float64, sim func(string, string) float64) (float64, bool) {
	normClaim := NormalizeText(claimValue)
	if normClaim == "" || len(candidates) == 0 {
		return 0, false
	}

	best := 0.0
	for _, cand := range candidates {
		normCand := NormalizeText(cand)
		if normCand == "" {
			continue
		}
		if s := sim(normClaim, normCand); s > best {
			best = s
		}
	}
	return best, best > threshold
}

// nameSimilarity scores short person/organization names
func nameSimilarity(a, b string) float64 {
	return JaroWinkler(a, b)
}

// longTextSimilarity scores free-text fields. Jaro-Winkler's match window
// breaks down on long strings, so the larger of JW and a Levenshtein ratio
// is used.
func longTextSimilarity(a, b string) float64 {
	jw := JaroWinkler(a, b)
	lev := LevenshteinRatio(a, b)
	if lev > jw {
		return lev
	}
	return jw
}
