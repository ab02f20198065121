// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the federation engine:
// the normalized query, per-registry results, merged composites and the
// assembled search response.
package types

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// MarkType enumerates the kinds of trademark a registry can report.
type MarkType string

const (
	MarkWord       MarkType = "word"
	MarkFigurative MarkType = "figurative"
	MarkCombined   MarkType = "combined"
	Mark3D         MarkType = "3d"
	MarkSound      MarkType = "sound"
	MarkColor      MarkType = "color"
	MarkOther      MarkType = "other"
)

// ParseMarkType maps a registry-native type label onto a MarkType.
// Unrecognized labels map to MarkOther and ok=false.
func ParseMarkType(s string) (MarkType, bool) {
	switch normalizeLabel(s) {
	case "word", "verbal":
		return MarkWord, true
	case "figurative", "image", "logo", "device":
		return MarkFigurative, true
	case "combined", "mixed", "composite":
		return MarkCombined, true
	case "3d", "three_dimensional", "shape", "threedimensional":
		return Mark3D, true
	case "sound", "audio":
		return MarkSound, true
	case "color", "colour":
		return MarkColor, true
	case "other":
		return MarkOther, true
	}
	return MarkOther, false
}

// Status enumerates the lifecycle states of a trademark.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusUnderExamination Status = "under_examination"
	StatusPublished        Status = "published"
	StatusRegistered       Status = "registered"
	StatusRejected         Status = "rejected"
	StatusAbandoned        Status = "abandoned"
	StatusExpired          Status = "expired"
	StatusUnknown          Status = "unknown"
)

// ParseStatus maps a registry-native status label onto a Status. Registries
// use different vocabularies ("PENDING", "EXAMINATION", "REFUSED"); anything
// unrecognized maps to StatusUnknown and ok=false.
func ParseStatus(s string) (Status, bool) {
	switch normalizeLabel(s) {
	case "draft":
		return StatusDraft, true
	case "submitted", "filed", "pending", "application_filed":
		return StatusSubmitted, true
	case "under_examination", "examination", "examined", "in_examination":
		return StatusUnderExamination, true
	case "published", "opposition", "opposition_period":
		return StatusPublished, true
	case "registered", "active", "live":
		return StatusRegistered, true
	case "rejected", "refused":
		return StatusRejected, true
	case "abandoned", "withdrawn", "surrendered":
		return StatusAbandoned, true
	case "expired", "lapsed", "cancelled", "canceled", "ended":
		return StatusExpired, true
	case "unknown":
		return StatusUnknown, true
	}
	return StatusUnknown, false
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

// MinClassCode and MaxClassCode bound the Nice classification.
const (
	MinClassCode = 1
	MaxClassCode = 45
)

// NormalizedQuery is the canonical form of a search request. Construct it
// through query.Normalize; the zero value matches everything and is only
// useful in tests. Fields are unexported so a constructed query cannot be
// mutated.
type NormalizedQuery struct {
	text         string
	jurisdiction string
	classCodes   []int
	markType     MarkType
	status       Status
}

// NewNormalizedQuery builds a query from already-canonical parts. Class codes
// are copied, sorted and deduplicated.
func NewNormalizedQuery(text, jurisdiction string, classCodes []int, markType MarkType, status Status) NormalizedQuery {
	return NormalizedQuery{
		text:         text,
		jurisdiction: jurisdiction,
		classCodes:   SortedClassSet(classCodes),
		markType:     markType,
		status:       status,
	}
}

// Text returns the folded mark name.
func (q NormalizedQuery) Text() string { return q.text }

// Jurisdiction returns the uppercase jurisdiction filter, or "" for all.
func (q NormalizedQuery) Jurisdiction() string { return q.jurisdiction }

// ClassCodes returns a copy of the class filter.
func (q NormalizedQuery) ClassCodes() []int {
	if len(q.classCodes) == 0 {
		return nil
	}
	out := make([]int, len(q.classCodes))
	copy(out, q.classCodes)
	return out
}

// MarkType returns the mark type filter, or "" for any.
func (q NormalizedQuery) MarkType() MarkType { return q.markType }

// Status returns the status filter, or "" for any.
func (q NormalizedQuery) Status() Status { return q.status }

// Key returns a canonical string identifying the query. Queries with equal
// fields have equal keys; each field is length-prefixed so no two distinct
// queries share a key.
func (q NormalizedQuery) Key() string {
	codes := make([]string, len(q.classCodes))
	for i, c := range q.classCodes {
		codes[i] = strconv.Itoa(c)
	}
	var b strings.Builder
	for _, f := range []string{
		q.text,
		q.jurisdiction,
		strings.Join(codes, ","),
		string(q.markType),
		string(q.status),
	} {
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
	}
	return b.String()
}

// Equal reports whether two queries have equal fields.
func (q NormalizedQuery) Equal(o NormalizedQuery) bool { return q.Key() == o.Key() }

// queryJSON is the serialized form of NormalizedQuery.
type queryJSON struct {
	Text         string   `json:"text" yaml:"text"`
	Jurisdiction string   `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	ClassCodes   []int    `json:"class_codes,omitempty" yaml:"class_codes,omitempty"`
	MarkType     MarkType `json:"mark_type,omitempty" yaml:"mark_type,omitempty"`
	Status       Status   `json:"status,omitempty" yaml:"status,omitempty"`
}

func (q NormalizedQuery) toJSON() queryJSON {
	return queryJSON{
		Text:         q.text,
		Jurisdiction: q.jurisdiction,
		ClassCodes:   q.ClassCodes(),
		MarkType:     q.markType,
		Status:       q.status,
	}
}

func (q *NormalizedQuery) fromJSON(v queryJSON) {
	*q = NewNormalizedQuery(v.Text, v.Jurisdiction, v.ClassCodes, v.MarkType, v.Status)
}

// SortedClassSet returns a sorted copy of codes with duplicates removed.
func SortedClassSet(codes []int) []int {
	if len(codes) == 0 {
		return nil
	}
	out := make([]int, len(codes))
	copy(out, codes)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// NormalizedResult is one registry record mapped onto the common shape.
type NormalizedResult struct {
	// SourceID identifies the registry adapter that produced the record.
	SourceID string `json:"source_id" yaml:"source_id"`

	// ExternalID is the registry-native identifier; it may be empty.
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty"`

	Name               string     `json:"name" yaml:"name"`
	MarkType           MarkType   `json:"mark_type" yaml:"mark_type"`
	Status             Status     `json:"status" yaml:"status"`
	Jurisdiction       string     `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	ClassCodes         []int      `json:"class_codes,omitempty" yaml:"class_codes,omitempty"`
	ApplicationNumber  string     `json:"application_number,omitempty" yaml:"application_number,omitempty"`
	RegistrationNumber string     `json:"registration_number,omitempty" yaml:"registration_number,omitempty"`
	FilingDate         *time.Time `json:"filing_date,omitempty" yaml:"filing_date,omitempty"`
	RegistrationDate   *time.Time `json:"registration_date,omitempty" yaml:"registration_date,omitempty"`

	// RawSimilarity is the registry's own relevance score in [0,1], when it
	// reports one.
	RawSimilarity *float64 `json:"raw_similarity,omitempty" yaml:"raw_similarity,omitempty"`

	Owner               string   `json:"owner,omitempty" yaml:"owner,omitempty"`
	GoodsServices       string   `json:"goods_services,omitempty" yaml:"goods_services,omitempty"`
	ImageURL            string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	DesignatedCountries []string `json:"designated_countries,omitempty" yaml:"designated_countries,omitempty"`
}

// Valid reports whether the result satisfies the minimum invariant: a
// non-empty source and name.
func (r NormalizedResult) Valid() bool {
	return r.SourceID != "" && strings.TrimSpace(r.Name) != ""
}

// CompositeResult is one real-world mark as reported by one or more
// registries.
type CompositeResult struct {
	Members            []NormalizedResult `json:"members" yaml:"members"`
	DisplayName        string             `json:"display_name" yaml:"display_name"`
	ClassCodes         []int              `json:"class_codes,omitempty" yaml:"class_codes,omitempty"`
	MarkType           MarkType           `json:"mark_type" yaml:"mark_type"`
	Status             Status             `json:"status" yaml:"status"`
	Jurisdiction       string             `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	ApplicationNumber  string             `json:"application_number,omitempty" yaml:"application_number,omitempty"`
	RegistrationNumber string             `json:"registration_number,omitempty" yaml:"registration_number,omitempty"`
	FilingDate         *time.Time         `json:"filing_date,omitempty" yaml:"filing_date,omitempty"`
	RegistrationDate   *time.Time         `json:"registration_date,omitempty" yaml:"registration_date,omitempty"`
	CompositeScore     float64            `json:"composite_score" yaml:"composite_score"`
}

// Sources returns the distinct source ids of the members in member order.
func (c CompositeResult) Sources() []string {
	var out []string
	seen := make(map[string]bool, len(c.Members))
	for _, m := range c.Members {
		if !seen[m.SourceID] {
			seen[m.SourceID] = true
			out = append(out, m.SourceID)
		}
	}
	return out
}

// FailureKind names why a registry did not contribute to a search. The
// empty kind means the source succeeded.
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureTimeout           FailureKind = "timeout"
	FailureRateLimited       FailureKind = "rate_limited"
	FailureUnreachable       FailureKind = "unreachable"
	FailureMalformedResponse FailureKind = "malformed_response"
	FailureUnauthorized      FailureKind = "unauthorized"
	FailureCancelled         FailureKind = "cancelled"
)

// SourceStats records how one registry fared during a search.
type SourceStats struct {
	// Count is the number of normalized results the source contributed.
	Count int `json:"count" yaml:"count"`

	// Elapsed is the wall time spent on the source, recorded on failure too.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Failure is the failure kind, or empty on success.
	Failure FailureKind `json:"failure,omitempty" yaml:"failure,omitempty"`

	// Error is a human-readable description of the failure.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Skipped is set when the source does not cover the query jurisdiction
	// and was not consulted.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Dropped counts records discarded because they could not be normalized.
	Dropped int `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// Failed reports whether the source was attempted and failed.
func (s SourceStats) Failed() bool { return s.Failure != FailureNone }

// SearchResponse is the assembled answer to one search request.
type SearchResponse struct {
	Query          NormalizedQuery        `json:"query" yaml:"query"`
	Results        []CompositeResult      `json:"results" yaml:"results"`
	TotalMatched   int                    `json:"total_matched" yaml:"total_matched"`
	Offset         int                    `json:"offset" yaml:"offset"`
	Limit          int                    `json:"limit" yaml:"limit"`
	PerSourceStats map[string]SourceStats `json:"per_source_stats" yaml:"per_source_stats"`

	// Degraded is set when at least one attempted source failed.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Stale is set when every source failed and the results come from an
	// expired cache entry.
	Stale bool `json:"stale" yaml:"stale"`

	// Cached is set when the results were served from a fresh cache entry
	// without contacting the registries.
	Cached bool `json:"cached" yaml:"cached"`
}
