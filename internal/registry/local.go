// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/internal/localreg"
	"github.com/pdiddy/mark-search/pkg/types"
)

// MarkFinder is the part of the local register the adapter needs.
type MarkFinder interface {
	Search(ctx context.Context, q types.NormalizedQuery) ([]localreg.Mark, error)
}

// Local serves the operator's own register. Its records carry the highest
// trust rank by default.
type Local struct {
	id    string
	store MarkFinder
}

// NewLocal creates a local register adapter.
func NewLocal(id string, store MarkFinder) *Local {
	return &Local{id: id, store: store}
}

// ID implements Adapter.
func (l *Local) ID() string { return l.id }

// Search implements Adapter.
func (l *Local) Search(ctx context.Context, q types.NormalizedQuery) ([]RawResult, error) {
	marks, err := l.store.Search(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, classifyTransport(ctx, l.id, err)
		}
		return nil, NewSourceError(types.FailureUnreachable, l.id, "local register query failed", err)
	}
	out := make([]RawResult, len(marks))
	for i, m := range marks {
		out[i] = m
	}
	return out, nil
}

// NormalizeResult implements Adapter.
func (l *Local) NormalizeResult(raw RawResult) (types.NormalizedResult, error) {
	m, ok := raw.(localreg.Mark)
	if !ok {
		return types.NormalizedResult{}, errors.Newf("unexpected record type %T", raw)
	}
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return types.NormalizedResult{}, errors.Newf("mark %q has no name", m.ID)
	}
	markType, _ := types.ParseMarkType(m.MarkType)
	status, _ := types.ParseStatus(m.Status)
	return types.NormalizedResult{
		SourceID:           l.id,
		ExternalID:         m.ID,
		Name:               name,
		MarkType:           markType,
		Status:             status,
		Jurisdiction:       m.Jurisdiction,
		ClassCodes:         validClasses(m.ClassCodes),
		ApplicationNumber:  m.ApplicationNumber,
		RegistrationNumber: m.RegistrationNumber,
		FilingDate:         parseDate(m.FilingDate),
		RegistrationDate:   parseDate(m.RegistrationDate),
		Owner:              m.Owner,
		GoodsServices:      m.GoodsServices,
		ImageURL:           m.ImageURL,
	}, nil
}
