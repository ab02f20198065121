// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"math"
	"sort"

	"github.com/pdiddy/mark-search/pkg/types"
)

// DefaultWeights are the scoring weights for name similarity, registry
// similarity and status.
var DefaultWeights = types.Weights{Name: 0.6, Raw: 0.25, Status: 0.15}

// statusBoost ranks live marks above dead ones.
var statusBoost = map[types.Status]float64{
	types.StatusRegistered:       1.0,
	types.StatusPublished:        0.9,
	types.StatusUnderExamination: 0.75,
	types.StatusSubmitted:        0.6,
	types.StatusUnknown:          0.4,
	types.StatusDraft:            0.3,
	types.StatusExpired:          0.2,
	types.StatusRejected:         0.1,
	types.StatusAbandoned:        0.1,
}

// StatusBoost returns the status component of the score.
func StatusBoost(s types.Status) float64 {
	if b, ok := statusBoost[s]; ok {
		return b
	}
	return statusBoost[types.StatusUnknown]
}

// Scorer computes composite relevance.
type Scorer struct {
	Weights types.Weights

	// Similarity compares the query text with display names; nil uses
	// NameSimilarity.
	Similarity SimilarityFunc
}

// Score combines the name similarity of the query and the display name,
// the mean registry-reported similarity of the members and the status
// boost. When no member reports a similarity its weight is dropped and the
// other two are renormalized. The result is clamped to [0,1].
func (s *Scorer) Score(c types.CompositeResult, q types.NormalizedQuery) float64 {
	sim := s.Similarity
	if sim == nil {
		sim = NameSimilarity
	}
	w := s.Weights
	if w == (types.Weights{}) {
		w = DefaultWeights
	}

	total := w.Name + w.Status
	sum := w.Name*sim(q.Text(), c.DisplayName) + w.Status*StatusBoost(c.Status)

	var raw float64
	var n int
	for _, m := range c.Members {
		if m.RawSimilarity != nil {
			raw += *m.RawSimilarity
			n++
		}
	}
	if n > 0 {
		total += w.Raw
		sum += w.Raw * (raw / float64(n))
	}

	if total <= 0 {
		return 0
	}
	return clamp01(sum / total)
}

// ScoreAll sets CompositeScore on every composite.
func (s *Scorer) ScoreAll(cs []types.CompositeResult, q types.NormalizedQuery) {
	for i := range cs {
		cs[i].CompositeScore = s.Score(cs[i], q)
	}
}

// Rank sorts composites by score descending. Ties fall back to display
// name, jurisdiction and the first member's identity, so the order does
// not depend on the input order.
func Rank(cs []types.CompositeResult) {
	sort.SliceStable(cs, func(i, j int) bool {
		return rankLess(cs[i], cs[j])
	})
}

func rankLess(a, b types.CompositeResult) bool {
	if a.CompositeScore != b.CompositeScore {
		return a.CompositeScore > b.CompositeScore
	}
	if a.DisplayName != b.DisplayName {
		return a.DisplayName < b.DisplayName
	}
	if a.Jurisdiction != b.Jurisdiction {
		return a.Jurisdiction < b.Jurisdiction
	}
	if len(a.Members) > 0 && len(b.Members) > 0 {
		ma, mb := a.Members[0], b.Members[0]
		if memberLess(ma, mb) || memberLess(mb, ma) {
			return memberLess(ma, mb)
		}
	}
	return len(a.Members) < len(b.Members)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
