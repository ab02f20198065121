// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"github.com/pdiddy/mark-search/internal/logger"
	"github.com/pdiddy/mark-search/internal/registry"
	"github.com/pdiddy/mark-search/pkg/types"
)

// normalizeBatch maps every raw record through the adapter. Records that
// fail to normalize, or come back without a name, are dropped and logged;
// the number dropped is returned alongside the survivors.
func normalizeBatch(a registry.Adapter, raws []registry.RawResult, log *logger.Logger) ([]types.NormalizedResult, int) {
	id := a.ID()
	out := make([]types.NormalizedResult, 0, len(raws))
	dropped := 0
	for i, raw := range raws {
		r, err := a.NormalizeResult(raw)
		if err != nil {
			log.Warn("dropping malformed record", "source", id, "index", i, "error", err)
			dropped++
			continue
		}
		r.SourceID = id
		r.ClassCodes = types.SortedClassSet(r.ClassCodes)
		if !r.Valid() {
			log.Warn("dropping record without a name", "source", id, "index", i, "external_id", r.ExternalID)
			dropped++
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}

// matchesFilters applies the query's mark type and status filters.
func matchesFilters(r types.NormalizedResult, q types.NormalizedQuery) bool {
	if mt := q.MarkType(); mt != "" && r.MarkType != mt {
		return false
	}
	if st := q.Status(); st != "" && r.Status != st {
		return false
	}
	return true
}
