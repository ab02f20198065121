package federation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/internal/registry"
	"github.com/pdiddy/mark-search/pkg/types"
)

// fakeAdapter returns canned records. A raw record that is a string fails
// normalization.
type fakeAdapter struct {
	id    string
	calls atomic.Int32

	mu      sync.Mutex
	raws    []registry.RawResult
	err     error
	delay   time.Duration
	block   chan struct{}
	ignores bool // keep running past the context deadline
}

func newFake(id string, results ...types.NormalizedResult) *fakeAdapter {
	f := &fakeAdapter{id: id}
	for _, r := range results {
		f.raws = append(f.raws, r)
	}
	return f
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) Search(ctx context.Context, _ types.NormalizedQuery) ([]registry.RawResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	raws, err, delay, block, ignores := f.raws, f.err, f.delay, f.block, f.ignores
	f.mu.Unlock()

	if block != nil {
		if ignores {
			<-block
		} else {
			select {
			case <-block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return raws, nil
}

func (f *fakeAdapter) NormalizeResult(raw registry.RawResult) (types.NormalizedResult, error) {
	r, ok := raw.(types.NormalizedResult)
	if !ok {
		return types.NormalizedResult{}, errors.Newf("unexpected record %v", raw)
	}
	return r, nil
}

func (f *fakeAdapter) fail(kind types.FailureKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = registry.NewSourceError(kind, f.id, "injected", nil)
}

func (f *fakeAdapter) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = nil
}

// hangUntilCancelled makes Search wait for its context.
func (f *fakeAdapter) hangUntilCancelled() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = make(chan struct{})
}

// scopedFake only covers the listed jurisdictions.
type scopedFake struct {
	*fakeAdapter
	covers []string
}

func (s scopedFake) Covers(j string) bool {
	if j == "" {
		return true
	}
	for _, c := range s.covers {
		if c == j {
			return true
		}
	}
	return false
}

func newSet(adapters ...registry.Adapter) *registry.Set {
	s := registry.NewSet()
	for _, a := range adapters {
		if err := s.Add(a, registry.Options{TrustRank: types.TrustAggregator}); err != nil {
			panic(err)
		}
	}
	return s
}

func mark(source, name string, classes ...int) types.NormalizedResult {
	return types.NormalizedResult{
		SourceID:   source,
		ExternalID: source + "-" + name,
		Name:       name,
		MarkType:   types.MarkWord,
		Status:     types.StatusRegistered,
		ClassCodes: classes,
	}
}

// tableSimilarity returns the listed similarity for a pair of names, 1 for
// equal names and 0 otherwise.
func tableSimilarity(pairs map[[2]string]float64) SimilarityFunc {
	return func(a, b string) float64 {
		if a == b {
			return 1
		}
		if v, ok := pairs[[2]string{a, b}]; ok {
			return v
		}
		if v, ok := pairs[[2]string{b, a}]; ok {
			return v
		}
		return 0
	}
}

func ptr[T any](v T) *T { return &v }

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}
