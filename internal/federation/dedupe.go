// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/mark-search/pkg/types"
)

// LocalSourceID is the source whose name is preferred as a composite's
// display name.
const LocalSourceID = "local"

// DefaultThreshold is the name similarity at or above which two results
// are the same mark.
const DefaultThreshold = 0.85

// Deduper merges results that different registries report for the same
// mark.
type Deduper struct {
	// Threshold is the minimum name similarity for a fuzzy match.
	Threshold float64

	// Similarity compares two names; nil uses NameSimilarity.
	Similarity SimilarityFunc

	// TrustRanks maps source id to trust rank. Higher ranks win field
	// conflicts; unknown sources rank 0.
	TrustRanks map[string]int
}

// Dedupe groups results into composites. Two results from different
// sources are linked when their jurisdictions agree (or either is empty)
// and either their registration numbers are equal or their names are at
// least Threshold similar with intersecting class sets. Linking is
// transitive: every connected group becomes one composite.
//
// Composites come out ordered by the position of their first input result;
// their scores are left at zero.
func (d *Deduper) Dedupe(results []types.NormalizedResult) []types.CompositeResult {
	n := len(results)
	if n == 0 {
		return nil
	}
	sim := d.Similarity
	if sim == nil {
		sim = NameSimilarity
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			if d.sameMark(results[i], results[j], sim) {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	var roots []int
	for i := 0; i < n; i++ {
		r := uf.find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}

	out := make([]types.CompositeResult, 0, len(roots))
	for _, r := range roots {
		members := make([]types.NormalizedResult, len(groups[r]))
		for k, idx := range groups[r] {
			members[k] = results[idx]
		}
		out = append(out, d.merge(members))
	}
	return out
}

func (d *Deduper) sameMark(a, b types.NormalizedResult, sim SimilarityFunc) bool {
	if a.SourceID == b.SourceID {
		return false
	}
	if a.Jurisdiction != "" && b.Jurisdiction != "" && !strings.EqualFold(a.Jurisdiction, b.Jurisdiction) {
		return false
	}
	if a.RegistrationNumber != "" && a.RegistrationNumber == b.RegistrationNumber {
		return true
	}
	// Degenerate names only merge by registration number.
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(b.Name) == "" {
		return false
	}
	if !classesIntersect(a.ClassCodes, b.ClassCodes) {
		return false
	}
	return sim(a.Name, b.Name) >= d.Threshold
}

// classesIntersect reports whether two sorted class sets share a code. An
// empty set intersects everything.
func classesIntersect(a, b []int) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// merge builds a composite from a connected group.
func (d *Deduper) merge(members []types.NormalizedResult) types.CompositeResult {
	sort.SliceStable(members, func(i, j int) bool {
		return memberLess(members[i], members[j])
	})

	c := types.CompositeResult{Members: members}

	c.DisplayName = members[0].Name
	for _, m := range members {
		if m.SourceID == LocalSourceID {
			c.DisplayName = m.Name
			break
		}
	}

	var classes []int
	for _, m := range members {
		classes = append(classes, m.ClassCodes...)
	}
	c.ClassCodes = types.SortedClassSet(classes)

	// Conflicting fields come from the most trusted member that has them.
	pref := make([]types.NormalizedResult, len(members))
	copy(pref, members)
	sort.SliceStable(pref, func(i, j int) bool {
		ti, tj := d.TrustRanks[pref[i].SourceID], d.TrustRanks[pref[j].SourceID]
		if ti != tj {
			return ti > tj
		}
		if fi, fj := pref[i].FilingDate, pref[j].FilingDate; !sameTime(fi, fj) {
			return laterTime(fi, fj)
		}
		return memberLess(pref[i], pref[j])
	})

	c.Status = types.StatusUnknown
	c.MarkType = types.MarkOther
	statusSet, typeSet := false, false
	for _, m := range pref {
		if !statusSet && m.Status != "" && m.Status != types.StatusUnknown {
			c.Status = m.Status
			statusSet = true
		}
		if !typeSet && m.MarkType != "" && m.MarkType != types.MarkOther {
			c.MarkType = m.MarkType
			typeSet = true
		}
		if c.Jurisdiction == "" {
			c.Jurisdiction = m.Jurisdiction
		}
		if c.ApplicationNumber == "" {
			c.ApplicationNumber = m.ApplicationNumber
		}
		if c.RegistrationNumber == "" {
			c.RegistrationNumber = m.RegistrationNumber
		}
		if c.FilingDate == nil {
			c.FilingDate = m.FilingDate
		}
		if c.RegistrationDate == nil {
			c.RegistrationDate = m.RegistrationDate
		}
	}
	return c
}

// memberLess orders members by source id, then external id, then the
// remaining identifying fields so the order is total.
func memberLess(a, b types.NormalizedResult) bool {
	if a.SourceID != b.SourceID {
		return a.SourceID < b.SourceID
	}
	if a.ExternalID != b.ExternalID {
		return a.ExternalID < b.ExternalID
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.RegistrationNumber != b.RegistrationNumber {
		return a.RegistrationNumber < b.RegistrationNumber
	}
	return a.ApplicationNumber < b.ApplicationNumber
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// laterTime reports whether a is after b; a missing date sorts last.
func laterTime(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// unionFind is a disjoint-set forest with path halving and union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}
