// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/mark-search/internal/query"
)

// SimilarityFunc returns the similarity of two mark names in [0,1]. It must
// be symmetric and deterministic.
type SimilarityFunc func(a, b string) float64

// NameSimilarity is the default SimilarityFunc: the larger of the normalized
// edit similarity and the token overlap of the folded names. Empty names
// are similar to nothing.
func NameSimilarity(a, b string) float64 {
	a, b = query.Fold(a), query.Fold(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return max(editSimilarity(a, b), tokenOverlap(a, b))
}

// editSimilarity is 1 - levenshtein(a,b)/max(len(a),len(b)), with distance
// and lengths counted in runes so every script is measured alike.
func editSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	d := levenshtein.ComputeDistance(a, b)
	if d >= longest {
		return 0
	}
	return 1 - float64(d)/float64(longest)
}

// tokenOverlap is the Jaccard index of the whitespace-separated tokens.
func tokenOverlap(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
