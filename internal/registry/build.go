// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/internal/secrets"
	"github.com/pdiddy/mark-search/pkg/types"
)

// Build creates the adapter set described by cfg.Sources. Disabled sources
// are left out. local is required when a local source is configured.
// Credentials are looked up in keys by secrets.KeyName.
func Build(cfg types.Config, keys map[string]string, local MarkFinder, client *http.Client) (*Set, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTP.Timeout}
	}
	set := NewSet()
	for _, src := range cfg.Sources {
		if src.Disabled {
			continue
		}
		a, err := newAdapter(src, cfg.HTTP, keys, local, client)
		if err != nil {
			return nil, err
		}
		opts := Options{Timeout: src.Timeout, TrustRank: src.EffectiveTrustRank()}
		if err := set.Add(a, opts); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func newAdapter(src types.SourceConfig, h types.HTTPConfig, keys map[string]string, local MarkFinder, client *http.Client) (Adapter, error) {
	o := HTTPOptions{
		BaseURL:       src.BaseURL,
		Client:        client,
		UserAgent:     h.UserAgent,
		MaxRetries:    h.MaxRetries,
		RatePerSecond: src.RatePerSecond,
		Burst:         src.Burst,
		APIKey:        secrets.For(keys, src),
		Jurisdictions: src.Jurisdictions,
	}
	switch src.Kind {
	case types.SourceLocal:
		if local == nil {
			return nil, errors.Newf("source %s: local register is not open", src.ID)
		}
		return NewLocal(src.ID, local), nil
	case types.SourceTMview:
		return NewTMview(src.ID, o), nil
	case types.SourceEUIPO:
		return NewEUIPO(src.ID, o), nil
	case types.SourceWIPO:
		return NewWIPO(src.ID, o), nil
	case types.SourceNational:
		if len(src.Jurisdictions) == 0 {
			return nil, errors.Newf("source %s: national office needs a jurisdiction", src.ID)
		}
		return NewNational(src.ID, o), nil
	default:
		return nil, errors.Newf("source %s: unknown kind %q", src.ID, src.Kind)
	}
}
