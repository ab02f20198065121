// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"

	"github.com/pdiddy/mark-search/pkg/types"
)

// TMview searches the TMview aggregator, which mirrors many national and
// regional registers. It covers every jurisdiction.
type TMview struct {
	src httpSource
}

// NewTMview creates a TMview adapter. The API key, when set, is sent as
// X-API-Key.
func NewTMview(id string, o HTTPOptions) *TMview {
	var headers map[string]string
	if o.APIKey != "" {
		headers = map[string]string{"X-API-Key": o.APIKey}
	}
	return &TMview{src: newHTTPSource(id, o, headers)}
}

// ID implements Adapter.
func (t *TMview) ID() string { return t.src.id }

// Search implements Adapter.
func (t *TMview) Search(ctx context.Context, q types.NormalizedQuery) ([]RawResult, error) {
	params := baseParams(q)
	if j := q.Jurisdiction(); j != "" {
		params.Set("jurisdiction", j)
	}
	return t.src.fetch(ctx, params)
}

// NormalizeResult implements Adapter.
func (t *TMview) NormalizeResult(raw RawResult) (types.NormalizedResult, error) {
	return normalizeOffice(t.src.id, raw, "")
}
