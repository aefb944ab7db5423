package vector

import (
	"math"
	"strconv"
	"strings"

	"docsim/internal/constants"
)

// Classify flags scores strictly above DuplicateThreshold.
func Classify(score float64) string {
	if score > constants.DuplicateThreshold {
		return constants.StatusDuplicate
	}
	return constants.StatusUnique
}

// FormatPercent renders score as a percentage rounded to two decimals,
// always with at least one decimal digit: 1 -> "100.0%", 0.87654 -> "87.65%".
func FormatPercent(score float64) string {
	pct := math.Round(score*100*100) / 100
	if pct == 0 {
		pct = 0 // no "-0.0%"
	}
	s := strconv.FormatFloat(pct, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}

// Results turns matches into client facing rows. entries is indexed by
// Match.Index.
func Results(matches []Match, entries []constants.Abstract) []constants.SimilarityResult {
	out := make([]constants.SimilarityResult, 0, len(matches))
	for _, m := range matches {
		if m.Index < 0 || m.Index >= len(entries) {
			continue
		}
		entry := entries[m.Index]
		out = append(out, constants.SimilarityResult{
			Abstract:        entry.Abstract,
			Category:        entry.CategoryOrDefault(),
			SimilarityScore: FormatPercent(m.Score),
			Status:          Classify(m.Score),
			Score:           m.Score,
			Index:           m.Index,
		})
	}
	return out
}
