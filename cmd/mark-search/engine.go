// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pdiddy/mark-search/internal/cache"
	"github.com/pdiddy/mark-search/internal/federation"
	"github.com/pdiddy/mark-search/internal/localreg"
	"github.com/pdiddy/mark-search/internal/metrics"
	"github.com/pdiddy/mark-search/internal/registry"
	"github.com/pdiddy/mark-search/pkg/types"
)

// engine is a search service with the resources it holds open.
type engine struct {
	service  *federation.Service
	registry *prometheus.Registry
	closers  []func() error
}

func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			log.Warn("closing resource", "error", err)
		}
	}
}

// openEngine opens the local register when a local source is enabled,
// builds the adapter set, the result cache and the metrics registry.
func openEngine(ctx context.Context) (*engine, error) {
	e := &engine{registry: prometheus.NewRegistry()}
	e.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var finder registry.MarkFinder
	if usesLocal(cfg.Sources) {
		store, err := localreg.Open(cfg.Local)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, store.Close)
		finder = store
	}

	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	set, err := registry.Build(cfg, loadedSecrets, finder, client)
	if err != nil {
		e.Close()
		return nil, err
	}

	opts := []federation.Option{
		federation.WithLogger(log),
		federation.WithMetrics(metrics.New(e.registry)),
	}
	if cfg.Cache.Enabled {
		var backend cache.Store
		if cfg.Cache.RedisURL != "" {
			rs, err := cache.OpenRedisStore(ctx, cfg.Cache.RedisURL, cfg.Cache.KeyPrefix)
			if err != nil {
				e.Close()
				return nil, err
			}
			e.closers = append(e.closers, rs.Close)
			backend = rs
		} else {
			backend = cache.NewMemoryStore()
		}
		opts = append(opts, federation.WithCache(cache.New(backend, cfg.Cache.TTL, cfg.Cache.StaleFor)))
	}

	svc, err := federation.NewService(cfg.Federation, set, opts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.service = svc
	return e, nil
}

func usesLocal(sources []types.SourceConfig) bool {
	for _, s := range sources {
		if s.Kind == types.SourceLocal && !s.Disabled {
			return true
		}
	}
	return false
}
