// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package federation fans one trademark query out to every registry,
// merges what comes back into composite marks, scores and ranks them, and
// assembles the paginated response.
//
// Only the orchestrator (Federate) runs concurrently. Normalization,
// deduplication, scoring and assembly are synchronous transformations over
// collected data.
package federation

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdiddy/mark-search/internal/logger"
	"github.com/pdiddy/mark-search/internal/metrics"
	"github.com/pdiddy/mark-search/internal/registry"
	"github.com/pdiddy/mark-search/internal/tracing"
	"github.com/pdiddy/mark-search/pkg/types"
)

// ErrAllSourcesFailed is returned when every consulted registry failed and
// no cached answer could stand in.
var ErrAllSourcesFailed = errors.New("all sources failed")

// ErrNoSources is returned when no registry is configured.
var ErrNoSources = errors.New("no registry sources configured")

// Outcome is what a federation pass collected.
type Outcome struct {
	// Results holds the normalized results of every successful source, in
	// source registration order.
	Results []types.NormalizedResult

	// Stats has one entry per registered source, skipped ones included.
	Stats map[string]types.SourceStats

	// Degraded is set when at least one consulted source failed.
	Degraded bool
}

// Orchestrator dispatches a query to registry adapters concurrently.
type Orchestrator struct {
	// SourceTimeout bounds sources that have no timeout of their own.
	SourceTimeout time.Duration

	Log     *logger.Logger
	Metrics *metrics.Metrics
}

type unitOutcome struct {
	idx     int
	results []types.NormalizedResult
	stats   types.SourceStats
}

// Federate runs one unit of work per adapter, each bound by the smaller of
// globalDeadline and the adapter's own timeout, and waits until every unit
// settles or the global deadline passes. Units still running at the
// deadline are recorded as Timeout (Cancelled when ctx was cancelled) and
// their results discarded. Adapters whose Covers rejects the query
// jurisdiction are not consulted and are recorded as skipped.
//
// When every consulted adapter failed, Federate returns the outcome with
// its stats and an error marked ErrAllSourcesFailed.
func (o *Orchestrator) Federate(ctx context.Context, q types.NormalizedQuery, set *registry.Set, globalDeadline time.Duration) (Outcome, error) {
	entries := set.Entries()
	if len(entries) == 0 {
		return Outcome{}, ErrNoSources
	}
	log := o.logger()

	if globalDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, globalDeadline)
		defer cancel()
	}
	ctx, span := tracing.Tracer().Start(ctx, "federation.federate")
	defer span.End()

	start := time.Now()
	stats := make(map[string]types.SourceStats, len(entries))
	settled := make([]bool, len(entries))
	perSource := make([][]types.NormalizedResult, len(entries))
	outcomes := make(chan unitOutcome, len(entries))

	attempted := 0
	for i, e := range entries {
		if sc, ok := e.Adapter.(registry.Scoped); ok && !sc.Covers(q.Jurisdiction()) {
			stats[e.Adapter.ID()] = types.SourceStats{Skipped: true}
			settled[i] = true
			continue
		}
		attempted++
		go func(i int, e registry.Entry) {
			outcomes <- o.runUnit(ctx, i, e, q, log)
		}(i, e)
	}

	record := func(out unitOutcome) {
		settled[out.idx] = true
		perSource[out.idx] = out.results
		stats[entries[out.idx].Adapter.ID()] = out.stats
	}

	remaining := attempted
wait:
	for remaining > 0 {
		select {
		case out := <-outcomes:
			record(out)
			remaining--
		case <-ctx.Done():
			break wait
		}
	}

	if remaining > 0 {
		// Units that finished in the same instant as the deadline still count.
	drain:
		for remaining > 0 {
			select {
			case out := <-outcomes:
				record(out)
				remaining--
			default:
				break drain
			}
		}

		kind := types.FailureTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			kind = types.FailureCancelled
		}
		elapsed := time.Since(start)
		for i, e := range entries {
			if settled[i] {
				continue
			}
			id := e.Adapter.ID()
			stats[id] = types.SourceStats{Elapsed: elapsed, Failure: kind, Error: "no answer before the search deadline"}
			o.Metrics.ObserveSource(id, kind, elapsed)
			log.Warn("registry abandoned at deadline", "source", id, "failure", kind, "elapsed", elapsed)
		}
	}

	var out Outcome
	out.Stats = stats
	failed := 0
	for i, e := range entries {
		st := stats[e.Adapter.ID()]
		if st.Failed() {
			failed++
			continue
		}
		out.Results = append(out.Results, perSource[i]...)
	}
	out.Degraded = failed > 0

	span.SetAttributes(
		attribute.Int("federation.attempted", attempted),
		attribute.Int("federation.failed", failed),
		attribute.Int("federation.results", len(out.Results)),
	)

	if attempted > 0 && failed == attempted {
		span.SetStatus(codes.Error, "all sources failed")
		return out, errors.Mark(errors.Newf("all %d consulted sources failed", attempted), ErrAllSourcesFailed)
	}
	return out, nil
}

// runUnit searches one adapter and normalizes its batch. It never returns
// an error: failures become stats.
func (o *Orchestrator) runUnit(ctx context.Context, idx int, e registry.Entry, q types.NormalizedQuery, log *logger.Logger) unitOutcome {
	id := e.Adapter.ID()
	timeout := e.Options.Timeout
	if timeout <= 0 {
		timeout = o.SourceTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx, span := tracing.Tracer().Start(ctx, "registry.search", withSource(id))
	defer span.End()

	start := time.Now()
	raws, err := e.Adapter.Search(ctx, q)
	elapsed := time.Since(start)

	if err != nil {
		kind := registry.KindOf(err)
		span.SetStatus(codes.Error, string(kind))
		o.Metrics.ObserveSource(id, kind, elapsed)
		log.Warn("registry failed", "source", id, "failure", kind, "elapsed", elapsed, "error", err)
		return unitOutcome{idx: idx, stats: types.SourceStats{Elapsed: elapsed, Failure: kind, Error: err.Error()}}
	}

	results, dropped := normalizeBatch(e.Adapter, raws, log)
	o.Metrics.ObserveDropped(id, dropped)
	if len(raws) > 0 && len(results) == 0 {
		kind := types.FailureMalformedResponse
		span.SetStatus(codes.Error, string(kind))
		o.Metrics.ObserveSource(id, kind, elapsed)
		log.Warn("registry returned only malformed records", "source", id, "records", len(raws))
		return unitOutcome{idx: idx, stats: types.SourceStats{
			Elapsed: elapsed,
			Failure: kind,
			Error:   "no record could be normalized",
			Dropped: dropped,
		}}
	}

	filtered := results[:0]
	for _, r := range results {
		if matchesFilters(r, q) {
			filtered = append(filtered, r)
		}
	}

	span.SetAttributes(attribute.Int("registry.results", len(filtered)), attribute.Int("registry.dropped", dropped))
	o.Metrics.ObserveSource(id, types.FailureNone, elapsed)
	log.Debug("registry answered", "source", id, "results", len(filtered), "dropped", dropped, "elapsed", elapsed)
	return unitOutcome{idx: idx, results: filtered, stats: types.SourceStats{
		Count:   len(filtered),
		Elapsed: elapsed,
		Dropped: dropped,
	}}
}

func (o *Orchestrator) logger() *logger.Logger {
	if o.Log == nil {
		return logger.Nop()
	}
	return o.Log
}

func withSource(id string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("registry.source", id))
}
