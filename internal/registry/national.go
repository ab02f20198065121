// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"strings"

	"github.com/pdiddy/mark-search/pkg/types"
)

// National searches one national trademark office. Its jurisdiction comes
// from configuration and is stamped on records that do not carry one.
type National struct {
	src          httpSource
	jurisdiction string
}

// NewNational creates a national office adapter. The first configured
// jurisdiction is the office's own. The API key is sent as X-API-Key.
func NewNational(id string, o HTTPOptions) *National {
	var headers map[string]string
	if o.APIKey != "" {
		headers = map[string]string{"X-API-Key": o.APIKey}
	}
	var jurisdiction string
	if len(o.Jurisdictions) > 0 {
		jurisdiction = strings.ToUpper(strings.TrimSpace(o.Jurisdictions[0]))
	}
	return &National{src: newHTTPSource(id, o, headers), jurisdiction: jurisdiction}
}

// ID implements Adapter.
func (n *National) ID() string { return n.src.id }

// Covers implements Scoped.
func (n *National) Covers(jurisdiction string) bool {
	return coversAll(n.src.jurisdictions, jurisdiction)
}

// Search implements Adapter.
func (n *National) Search(ctx context.Context, q types.NormalizedQuery) ([]RawResult, error) {
	return n.src.fetch(ctx, baseParams(q))
}

// NormalizeResult implements Adapter.
func (n *National) NormalizeResult(raw RawResult) (types.NormalizedResult, error) {
	return normalizeOffice(n.src.id, raw, n.jurisdiction)
}
