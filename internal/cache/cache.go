// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps recent federation results keyed by normalized query.
// Fresh entries answer repeated queries without contacting registries;
// expired entries are retained a while longer as a fallback for searches in
// which every registry failed.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/mark-search/pkg/types"
)

// Entry is a cached federation result: scored, deduplicated composites in
// rank order plus the stats of the pass that produced them.
type Entry struct {
	Results  []types.CompositeResult      `json:"results"`
	Stats    map[string]types.SourceStats `json:"stats"`
	Degraded bool                         `json:"degraded"`
	StoredAt time.Time                    `json:"stored_at"`
}

// Store is a cache backend. Load reports found=false for missing or expired
// keys. Save keeps the entry for at least retain.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, e Entry, retain time.Duration) error
}

// ResultCache applies TTL and staleness rules over a Store and coalesces
// concurrent identical searches.
type ResultCache struct {
	store    Store
	ttl      time.Duration
	staleFor time.Duration
	now      func() time.Time

	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
}

// New creates a cache. Entries are fresh for ttl and retained for a further
// staleFor.
func New(store Store, ttl, staleFor time.Duration) *ResultCache {
	return &ResultCache{
		store:    store,
		ttl:      ttl,
		staleFor: staleFor,
		now:      time.Now,
		flights:  make(map[string]*flight),
	}
}

// Get returns a fresh entry for q. Degraded entries are never served fresh:
// a query that lost a registry is retried on the next request.
func (c *ResultCache) Get(ctx context.Context, q types.NormalizedQuery) (Entry, bool, error) {
	e, ok, err := c.store.Load(ctx, q.Key())
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if e.Degraded || c.now().Sub(e.StoredAt) > c.ttl {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// GetStale returns any retained entry for q, fresh or expired.
func (c *ResultCache) GetStale(ctx context.Context, q types.NormalizedQuery) (Entry, bool, error) {
	e, ok, err := c.store.Load(ctx, q.Key())
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if c.now().Sub(e.StoredAt) > c.ttl+c.staleFor {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put stores e for q, stamping StoredAt when unset.
func (c *ResultCache) Put(ctx context.Context, q types.NormalizedQuery, e Entry) error {
	if e.StoredAt.IsZero() {
		e.StoredAt = c.now()
	}
	if err := c.store.Save(ctx, q.Key(), e, c.ttl+c.staleFor); err != nil {
		return errors.Wrap(err, "saving cache entry")
	}
	return nil
}

// flight is the shared context of one coalesced computation. It is
// cancelled when its computation ends or when every waiter has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	done    bool
}

// Do runs fn once for all concurrent callers with the same key and hands
// each of them its result. fn receives a context detached from any single
// caller: it carries the first caller's values but is cancelled only when
// every waiting caller has gone. A caller whose own context ends stops
// waiting and gets its context error.
func (c *ResultCache) Do(ctx context.Context, key string, fn func(context.Context) (Entry, error)) (Entry, error) {
	f := c.join(ctx, key)
	defer c.leave(key, f)

	ch := c.group.DoChan(key, func() (any, error) {
		defer c.finish(key, f)
		return fn(f.ctx)
	})

	select {
	case res := <-ch:
		e, _ := res.Val.(Entry)
		return e, res.Err
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

func (c *ResultCache) join(ctx context.Context, key string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok || f.done {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	return f
}

func (c *ResultCache) leave(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters == 0 {
		f.cancel()
		if c.flights[key] == f {
			delete(c.flights, key)
		}
		if !f.done {
			// The abandoned computation must not answer later callers.
			c.group.Forget(key)
		}
	}
}

func (c *ResultCache) finish(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.done = true
	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
}
