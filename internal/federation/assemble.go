// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/pkg/types"
)

// ErrInvalidPageRequest is returned for a negative offset or a limit
// outside 1..MaxPageSize.
var ErrInvalidPageRequest = errors.New("invalid page request")

// DefaultMaxPageSize bounds the page limit when none is configured.
const DefaultMaxPageSize = 100

// Page selects a window of the ranked results.
type Page struct {
	Offset int
	Limit  int
}

// Assembler paginates ranked composites into a SearchResponse.
type Assembler struct {
	MaxPageSize int
}

// Validate checks a page request. Limits above the maximum are rejected,
// not clamped.
func (a Assembler) Validate(p Page) error {
	maxSize := a.MaxPageSize
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}
	if p.Offset < 0 {
		return errors.Mark(errors.Newf("offset %d is negative", p.Offset), ErrInvalidPageRequest)
	}
	if p.Limit < 1 || p.Limit > maxSize {
		return errors.Mark(errors.Newf("limit %d outside 1-%d", p.Limit, maxSize), ErrInvalidPageRequest)
	}
	return nil
}

// Assemble cuts one page out of ranked and attaches the per-source stats.
// An offset at or beyond the total yields an empty page. Degraded is set
// when any stats entry records a failure.
func (a Assembler) Assemble(q types.NormalizedQuery, ranked []types.CompositeResult, stats map[string]types.SourceStats, p Page) (*types.SearchResponse, error) {
	if err := a.Validate(p); err != nil {
		return nil, err
	}

	page := []types.CompositeResult{}
	if p.Offset < len(ranked) {
		end := min(p.Offset+p.Limit, len(ranked))
		page = append(page, ranked[p.Offset:end]...)
	}

	resp := &types.SearchResponse{
		Query:          q,
		Results:        page,
		TotalMatched:   len(ranked),
		Offset:         p.Offset,
		Limit:          p.Limit,
		PerSourceStats: make(map[string]types.SourceStats, len(stats)),
	}
	for id, st := range stats {
		resp.PerSourceStats[id] = st
		if st.Failed() {
			resp.Degraded = true
		}
	}
	return resp, nil
}
