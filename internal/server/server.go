// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the federation engine over HTTP: GET /v1/search
// returns a SearchResponse as JSON, /healthz lists the configured sources
// and /metrics serves the Prometheus registry.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/mark-search/internal/federation"
	"github.com/pdiddy/mark-search/internal/logger"
	"github.com/pdiddy/mark-search/internal/query"
	"github.com/pdiddy/mark-search/pkg/types"
)

// Header names.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderCallerID  = "X-Caller-ID"
)

// Searcher runs searches. *federation.Service implements it.
type Searcher interface {
	Search(ctx context.Context, req federation.Request) (*types.SearchResponse, error)
	Sources() []string
}

// Server holds the HTTP handlers.
type Server struct {
	searcher Searcher
	log      *logger.Logger
	gatherer prometheus.Gatherer
}

// New creates a server. A nil gatherer disables /metrics.
func New(searcher Searcher, log *logger.Logger, gatherer prometheus.Gatherer) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{searcher: searcher, log: log, gatherer: gatherer}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/search", s.handleSearch)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving http")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down http server")
	}
	return nil
}

type requestIDKey struct{}

// requestID stamps every request with an id, reusing the caller's when it
// sends one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sources": s.searcher.Sources(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.log.With("request_id", requestIDFrom(ctx))

	req, err := parseSearchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.CallerID = r.Header.Get(HeaderCallerID)

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			log.Warn("search failed", "caller_id", req.CallerID, "status", status, "error", err)
		}
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseSearchRequest reads q, jurisdiction, class (repeated or
// comma-separated), type, status, offset and limit.
func parseSearchRequest(r *http.Request) (federation.Request, error) {
	v := r.URL.Query()
	req := federation.Request{
		Text:         v.Get("q"),
		Jurisdiction: v.Get("jurisdiction"),
		MarkType:     v.Get("type"),
		Status:       v.Get("status"),
	}
	for _, raw := range v["class"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			c, err := strconv.Atoi(part)
			if err != nil {
				return req, errors.Newf("class %q is not a number", part)
			}
			req.ClassCodes = append(req.ClassCodes, c)
		}
	}
	var err error
	if req.Offset, err = intParam(v.Get("offset")); err != nil {
		return req, errors.Wrap(err, "offset")
	}
	if req.Limit, err = intParam(v.Get("limit")); err != nil {
		return req, errors.Wrap(err, "limit")
	}
	return req, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Newf("%q is not a number", s)
	}
	return n, nil
}

// classify maps a search error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, query.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid_query"
	case errors.Is(err, federation.ErrInvalidPageRequest):
		return http.StatusBadRequest, "invalid_page"
	case errors.Is(err, federation.ErrAllSourcesFailed):
		return http.StatusServiceUnavailable, "all_sources_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if status < http.StatusInternalServerError {
		body["error_description"] = description
	}
	writeJSON(w, status, body)
}
