// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/pdiddy/mark-search/internal/httputil"
	"github.com/pdiddy/mark-search/pkg/types"
)

// HTTPOptions configures an HTTP registry adapter.
type HTTPOptions struct {
	// BaseURL is the registry API root; "/search" is appended.
	BaseURL string

	Client     *http.Client
	UserAgent  string
	MaxRetries int

	// RatePerSecond and Burst configure the client-side token bucket. Zero
	// RatePerSecond disables it.
	RatePerSecond float64
	Burst         int

	// APIKey is sent in the registry's credential header when non-empty.
	APIKey string

	// Jurisdictions lists what the registry covers; empty means all.
	Jurisdictions []string
}

// httpSource holds what every HTTP registry adapter shares: the client,
// the rate limiter and the search envelope decoding.
type httpSource struct {
	id            string
	baseURL       string
	client        *http.Client
	userAgent     string
	maxRetries    int
	limiter       *rate.Limiter
	headers       map[string]string
	jurisdictions []string
}

func newHTTPSource(id string, o HTTPOptions, headers map[string]string) httpSource {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	var limiter *rate.Limiter
	if o.RatePerSecond > 0 {
		burst := o.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(o.RatePerSecond), burst)
	}
	return httpSource{
		id:            id,
		baseURL:       strings.TrimRight(o.BaseURL, "/"),
		client:        client,
		userAgent:     o.UserAgent,
		maxRetries:    o.MaxRetries,
		limiter:       limiter,
		headers:       headers,
		jurisdictions: o.Jurisdictions,
	}
}

// searchEnvelope is the response wrapper shared by the registry APIs:
// {"total_results": N, "results": [...]}.
type searchEnvelope struct {
	TotalResults int               `json:"total_results"`
	Results      []json.RawMessage `json:"results"`
}

// fetch waits for a rate-limit token, issues GET {base}/search?params and
// returns the undecoded records.
func (s *httpSource) fetch(ctx context.Context, params url.Values) ([]RawResult, error) {
	if s.baseURL == "" {
		return nil, NewSourceError(types.FailureUnreachable, s.id, "no base URL configured", nil)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, classifyTransport(ctx, s.id, ctx.Err())
			}
			// The next token arrives after the deadline.
			return nil, NewSourceError(types.FailureRateLimited, s.id, "client-side rate limit", err)
		}
	}

	reqURL := s.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, NewSourceError(types.FailureUnreachable, s.id, "creating request", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.maxRetries)
	if err != nil {
		return nil, classifyTransport(ctx, s.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(s.id, resp.StatusCode)
	}

	var env searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if ctx.Err() != nil {
			return nil, classifyTransport(ctx, s.id, ctx.Err())
		}
		return nil, NewSourceError(types.FailureMalformedResponse, s.id, "decoding response", err)
	}

	out := make([]RawResult, len(env.Results))
	for i, r := range env.Results {
		out[i] = r
	}
	return out, nil
}

// baseParams builds the query parameters every registry understands.
func baseParams(q types.NormalizedQuery) url.Values {
	params := url.Values{"q": {q.Text()}}
	if codes := q.ClassCodes(); len(codes) > 0 {
		parts := make([]string, len(codes))
		for i, c := range codes {
			parts[i] = strconv.Itoa(c)
		}
		params.Set("classes", strings.Join(parts, ","))
	}
	return params
}

// decodeRecord unmarshals a raw JSON record into v.
func decodeRecord(raw RawResult, v any) error {
	msg, ok := raw.(json.RawMessage)
	if !ok {
		return errors.Newf("unexpected record type %T", raw)
	}
	if err := json.Unmarshal(msg, v); err != nil {
		return errors.Wrap(err, "decoding record")
	}
	return nil
}

// parseDate accepts "2006-01-02" and RFC 3339 dates. Empty or unparseable
// input yields nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// validClasses drops codes outside the Nice range and returns a sorted set.
func validClasses(codes []int) []int {
	var out []int
	for _, c := range codes {
		if c >= types.MinClassCode && c <= types.MaxClassCode {
			out = append(out, c)
		}
	}
	return types.SortedClassSet(out)
}

// clampScore bounds a registry score to [0,1]. Scores reported as
// percentages are scaled down first.
func clampScore(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v > 1 && v <= 100 {
		v /= 100
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}
