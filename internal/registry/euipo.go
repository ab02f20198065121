// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"

	"github.com/pdiddy/mark-search/pkg/types"
)

// EUIPOJurisdiction is the jurisdiction code of EU trademarks.
const EUIPOJurisdiction = "EU"

// EUIPO searches the European Union Intellectual Property Office register.
// It only holds EU trademarks, so it is skipped for other jurisdictions.
type EUIPO struct {
	src httpSource
}

// NewEUIPO creates an EUIPO adapter. The API key is sent as X-IBM-Client-Id.
func NewEUIPO(id string, o HTTPOptions) *EUIPO {
	var headers map[string]string
	if o.APIKey != "" {
		headers = map[string]string{"X-IBM-Client-Id": o.APIKey}
	}
	if len(o.Jurisdictions) == 0 {
		o.Jurisdictions = []string{EUIPOJurisdiction, "EM"}
	}
	return &EUIPO{src: newHTTPSource(id, o, headers)}
}

// ID implements Adapter.
func (e *EUIPO) ID() string { return e.src.id }

// Covers implements Scoped.
func (e *EUIPO) Covers(jurisdiction string) bool {
	return coversAll(e.src.jurisdictions, jurisdiction)
}

// Search implements Adapter.
func (e *EUIPO) Search(ctx context.Context, q types.NormalizedQuery) ([]RawResult, error) {
	return e.src.fetch(ctx, baseParams(q))
}

// NormalizeResult implements Adapter.
func (e *EUIPO) NormalizeResult(raw RawResult) (types.NormalizedResult, error) {
	r, err := normalizeOffice(e.src.id, raw, EUIPOJurisdiction)
	if err != nil {
		return r, err
	}
	if r.Jurisdiction == "EM" {
		r.Jurisdiction = EUIPOJurisdiction
	}
	return r, nil
}
