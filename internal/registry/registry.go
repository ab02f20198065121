// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry adapts trademark registries to a single search contract.
// Each registry (the local database, TMview, EUIPO, WIPO Madrid, national
// offices) implements Adapter; all registry-specific request building and
// record parsing stays behind that interface.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/pkg/types"
)

// RawResult is one registry-native record. Only the adapter that produced
// it knows its shape.
type RawResult any

// Adapter searches a single registry.
type Adapter interface {
	// ID returns the stable source identifier.
	ID() string

	// Search queries the registry. It must return before the context
	// deadline, with a *SourceError of kind Timeout if the registry did not
	// answer in time. Zero results is success.
	Search(ctx context.Context, q types.NormalizedQuery) ([]RawResult, error)

	// NormalizeResult maps one record produced by Search onto the common
	// shape.
	NormalizeResult(raw RawResult) (types.NormalizedResult, error)
}

// Scoped is implemented by adapters that only hold marks for some
// jurisdictions. The federation skips a scoped adapter whose Covers returns
// false for the query jurisdiction.
type Scoped interface {
	Covers(jurisdiction string) bool
}

// Options are the static per-source settings the federation applies around
// an adapter.
type Options struct {
	// Timeout bounds each Search call; zero uses the federation default.
	Timeout time.Duration

	// TrustRank orders sources when merged records disagree. Higher wins.
	TrustRank int
}

// Entry is a registered adapter with its options.
type Entry struct {
	Adapter Adapter
	Options Options
}

// Set is the ordered collection of adapters consulted by the federation.
// It is built once at startup and read-only afterwards.
type Set struct {
	entries []Entry
	byID    map[string]int
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{byID: make(map[string]int)}
}

// Add registers an adapter. Ids must be non-empty and unique.
func (s *Set) Add(a Adapter, opts Options) error {
	id := a.ID()
	if strings.TrimSpace(id) == "" {
		return errors.New("adapter has an empty source id")
	}
	if _, exists := s.byID[id]; exists {
		return errors.Newf("source %s already registered", id)
	}
	s.byID[id] = len(s.entries)
	s.entries = append(s.entries, Entry{Adapter: a, Options: opts})
	return nil
}

// Entries returns the adapters in registration order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry registered under id.
func (s *Set) Get(id string) (Entry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of registered adapters.
func (s *Set) Len() int { return len(s.entries) }

// TrustRanks returns source id → trust rank.
func (s *Set) TrustRanks() map[string]int {
	out := make(map[string]int, len(s.entries))
	for _, e := range s.entries {
		out[e.Adapter.ID()] = e.Options.TrustRank
	}
	return out
}

// coversAll reports whether a jurisdiction list admits j. An empty list or
// an empty j (all jurisdictions) always matches.
func coversAll(list []string, j string) bool {
	if j == "" || len(list) == 0 {
		return true
	}
	for _, c := range list {
		if strings.EqualFold(c, j) {
			return true
		}
	}
	return false
}
