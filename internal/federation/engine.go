// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pdiddy/mark-search/internal/cache"
	"github.com/pdiddy/mark-search/internal/logger"
	"github.com/pdiddy/mark-search/internal/metrics"
	"github.com/pdiddy/mark-search/internal/query"
	"github.com/pdiddy/mark-search/internal/registry"
	"github.com/pdiddy/mark-search/internal/tracing"
	"github.com/pdiddy/mark-search/pkg/types"
)

// Request is a search as received from a caller.
type Request struct {
	Text         string
	Jurisdiction string
	ClassCodes   []int
	MarkType     string
	Status       string

	// Offset and Limit select the page. A zero Limit uses the configured
	// default page size.
	Offset int
	Limit  int

	// CallerID is an opaque caller identity. It is only logged, hashed.
	CallerID string
}

// Service runs searches end to end: normalization, the result cache,
// federation, deduplication, scoring and assembly.
type Service struct {
	cfg     types.FederationConfig
	sources *registry.Set
	cache   *cache.ResultCache
	log     *logger.Logger
	metrics *metrics.Metrics

	orchestrator Orchestrator
	deduper      Deduper
	scorer       Scorer
	assembler    Assembler
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the result cache.
func WithCache(c *cache.ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics sets the collectors searches are recorded on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSimilarity replaces the name similarity used for deduplication and
// scoring.
func WithSimilarity(f SimilarityFunc) Option {
	return func(s *Service) {
		s.deduper.Similarity = f
		s.scorer.Similarity = f
	}
}

// WithTrustRanks overrides the trust ranks taken from the source set.
func WithTrustRanks(ranks map[string]int) Option {
	return func(s *Service) { s.deduper.TrustRanks = ranks }
}

// NewService creates a Service over sources. Zero-valued settings in cfg
// take their defaults. It fails with ErrNoSources when sources is empty.
func NewService(cfg types.FederationConfig, sources *registry.Set, opts ...Option) (*Service, error) {
	if sources == nil || sources.Len() == 0 {
		return nil, ErrNoSources
	}
	cfg = types.Config{Federation: cfg}.WithDefaults().Federation

	s := &Service{
		cfg:       cfg,
		sources:   sources,
		log:       logger.Nop(),
		deduper:   Deduper{Threshold: cfg.SimilarityThreshold, TrustRanks: sources.TrustRanks()},
		scorer:    Scorer{Weights: cfg.Weights},
		assembler: Assembler{MaxPageSize: cfg.MaxPageSize},
	}
	for _, o := range opts {
		o(s)
	}
	s.orchestrator = Orchestrator{SourceTimeout: cfg.SourceTimeout, Log: s.log, Metrics: s.metrics}
	return s, nil
}

// Sources returns the ids of the registered sources in registration order.
func (s *Service) Sources() []string {
	entries := s.sources.Entries()
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Adapter.ID()
	}
	return ids
}

// Search answers one request. Invalid queries and page requests fail
// before any registry is contacted. A fresh cache entry answers without
// federation. When every registry fails, a retained cache entry is served
// marked Stale and Degraded; without one the error is marked
// ErrAllSourcesFailed.
func (s *Service) Search(ctx context.Context, req Request) (*types.SearchResponse, error) {
	ctx, span := tracing.Tracer().Start(ctx, "federation.search")
	defer span.End()

	log := s.log
	if req.CallerID != "" {
		log = log.With("caller_id", req.CallerID)
	}
	start := time.Now()

	q, err := query.Normalize(query.Raw{
		Text:         req.Text,
		Jurisdiction: req.Jurisdiction,
		ClassCodes:   req.ClassCodes,
		MarkType:     req.MarkType,
		Status:       req.Status,
	})
	if err != nil {
		s.metrics.ObserveSearch(metrics.SearchInvalid)
		span.SetStatus(codes.Error, "invalid query")
		return nil, err
	}

	page := Page{Offset: req.Offset, Limit: req.Limit}
	if page.Limit == 0 {
		page.Limit = s.cfg.DefaultPageSize
	}
	if err := s.assembler.Validate(page); err != nil {
		s.metrics.ObserveSearch(metrics.SearchInvalid)
		span.SetStatus(codes.Error, "invalid page")
		return nil, err
	}
	span.SetAttributes(attribute.String("search.query", q.Text()), attribute.String("search.jurisdiction", q.Jurisdiction()))

	if s.cache != nil {
		e, ok, err := s.cache.Get(ctx, q)
		switch {
		case err != nil:
			s.metrics.ObserveCache(metrics.CacheError)
			log.Warn("cache lookup failed", "error", err)
		case ok:
			s.metrics.ObserveCache(metrics.CacheHit)
			resp, err := s.assembler.Assemble(q, e.Results, e.Stats, page)
			if err != nil {
				return nil, err
			}
			resp.Cached = true
			s.metrics.ObserveSearch(metrics.SearchCached)
			span.SetAttributes(attribute.Bool("search.cached", true))
			log.Info("search served from cache", "query", q.Text(), "total", resp.TotalMatched)
			return resp, nil
		default:
			s.metrics.ObserveCache(metrics.CacheMiss)
		}
	}

	e, err := s.run(ctx, q, log)
	if err != nil {
		if errors.Is(err, ErrAllSourcesFailed) {
			if resp := s.staleFallback(ctx, q, e.Stats, page, log); resp != nil {
				span.SetAttributes(attribute.Bool("search.stale", true))
				return resp, nil
			}
		}
		s.metrics.ObserveSearch(metrics.SearchFailed)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("search failed", "query", q.Text(), "error", err, "stats", e.Stats)
		return nil, err
	}

	resp, err := s.assembler.Assemble(q, e.Results, e.Stats, page)
	if err != nil {
		return nil, err
	}
	if resp.Degraded {
		s.metrics.ObserveSearch(metrics.SearchDegraded)
	} else {
		s.metrics.ObserveSearch(metrics.SearchOK)
	}
	span.SetAttributes(attribute.Int("search.total", resp.TotalMatched), attribute.Bool("search.degraded", resp.Degraded))
	log.Info("search complete",
		"query", q.Text(),
		"total", resp.TotalMatched,
		"degraded", resp.Degraded,
		"elapsed", time.Since(start))
	return resp, nil
}

// run federates q, coalescing with identical in-flight searches when the
// cache is enabled. On failure the returned entry still carries the stats
// of the pass.
func (s *Service) run(ctx context.Context, q types.NormalizedQuery, log *logger.Logger) (cache.Entry, error) {
	compute := func(ctx context.Context) (cache.Entry, error) {
		out, err := s.orchestrator.Federate(ctx, q, s.sources, s.cfg.GlobalDeadline)
		if err != nil {
			return cache.Entry{Stats: out.Stats, Degraded: true}, err
		}

		composites := s.deduper.Dedupe(out.Results)
		s.scorer.ScoreAll(composites, q)
		Rank(composites)
		log.Debug("federation merged results",
			"query", q.Text(),
			"normalized", len(out.Results),
			"composites", len(composites))

		e := cache.Entry{Results: composites, Stats: out.Stats, Degraded: out.Degraded}
		if s.cache != nil {
			if err := s.cache.Put(ctx, q, e); err != nil {
				log.Warn("cache store failed", "error", err)
			}
		}
		return e, nil
	}

	if s.cache == nil {
		return compute(ctx)
	}
	return s.cache.Do(ctx, q.Key(), compute)
}

// staleFallback serves a retained cache entry with the stats of the failed
// pass, or returns nil when there is none.
func (s *Service) staleFallback(ctx context.Context, q types.NormalizedQuery, stats map[string]types.SourceStats, page Page, log *logger.Logger) *types.SearchResponse {
	if s.cache == nil {
		return nil
	}
	e, ok, err := s.cache.GetStale(ctx, q)
	if err != nil {
		s.metrics.ObserveCache(metrics.CacheError)
		log.Warn("stale cache lookup failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	if stats == nil {
		stats = e.Stats
	}
	resp, err := s.assembler.Assemble(q, e.Results, stats, page)
	if err != nil {
		return nil
	}
	resp.Stale = true
	resp.Degraded = true
	s.metrics.ObserveCache(metrics.CacheStale)
	s.metrics.ObserveSearch(metrics.SearchStale)
	log.Warn("every registry failed; serving stale results",
		"query", q.Text(),
		"stored_at", e.StoredAt,
		"total", resp.TotalMatched)
	return resp
}
