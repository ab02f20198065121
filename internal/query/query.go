// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query canonicalizes raw search input into a NormalizedQuery.
// Normalization is pure and idempotent: normalizing the text of an already
// normalized query yields the same query, which keeps cache keys stable.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/mark-search/pkg/types"
)

// ErrInvalidQuery is returned for input rejected before any registry is
// contacted.
var ErrInvalidQuery = errors.New("invalid query")

// Raw is the caller's query payload as received at the boundary.
type Raw struct {
	Text         string
	Jurisdiction string
	ClassCodes   []int
	MarkType     string
	Status       string
}

// jurisdictionCode matches an office or country code such as "EU", "GR" or
// "WO".
var jurisdictionCode = regexp.MustCompile(`^[A-Z]{2,3}$`)

// Normalize validates raw and returns its canonical form. It fails with
// ErrInvalidQuery when the text folds to empty, the jurisdiction is not a
// two or three letter code, a class code lies outside 1-45, or a
// type/status filter is not recognized.
func Normalize(raw Raw) (types.NormalizedQuery, error) {
	text := Fold(raw.Text)
	if text == "" {
		return types.NormalizedQuery{}, errors.Mark(errors.New("query text is empty"), ErrInvalidQuery)
	}

	jurisdiction := Jurisdiction(raw.Jurisdiction)
	if jurisdiction != "" && !jurisdictionCode.MatchString(jurisdiction) {
		return types.NormalizedQuery{}, errors.Mark(
			errors.Newf("jurisdiction %q is not a two or three letter code", raw.Jurisdiction),
			ErrInvalidQuery)
	}

	for _, c := range raw.ClassCodes {
		if c < types.MinClassCode || c > types.MaxClassCode {
			return types.NormalizedQuery{}, errors.Mark(
				errors.Newf("class code %d outside %d-%d", c, types.MinClassCode, types.MaxClassCode),
				ErrInvalidQuery)
		}
	}

	var markType types.MarkType
	if s := strings.TrimSpace(raw.MarkType); s != "" {
		mt, ok := types.ParseMarkType(s)
		if !ok {
			return types.NormalizedQuery{}, errors.Mark(errors.Newf("unknown mark type %q", s), ErrInvalidQuery)
		}
		markType = mt
	}

	var status types.Status
	if s := strings.TrimSpace(raw.Status); s != "" {
		st, ok := types.ParseStatus(s)
		if !ok {
			return types.NormalizedQuery{}, errors.Mark(errors.Newf("unknown status %q", s), ErrInvalidQuery)
		}
		status = st
	}

	return types.NewNormalizedQuery(text, jurisdiction, raw.ClassCodes, markType, status), nil
}

// maxFoldPasses bounds the passes Fold makes while waiting for its output
// to stop changing.
const maxFoldPasses = 4

// Fold canonicalizes a mark name: compatibility decomposition, combining
// marks removed, Unicode case folding then lowercasing, whitespace
// collapsed. " Açme  " and "ACME" fold to "acme". Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	out := foldPass(s)
	for i := 1; i < maxFoldPasses; i++ {
		next := foldPass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// foldPass runs the folding chain once. Case folding maps some scripts
// (Cherokee) to capitals, so a lowercase step follows it.
func foldPass(s string) string {
	nonSpacing := runes.In(unicode.Mn)
	t := transform.Chain(norm.NFKD, runes.Remove(nonSpacing), cases.Fold(),
		cases.Lower(language.Und), norm.NFKD, runes.Remove(nonSpacing), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Jurisdiction canonicalizes a jurisdiction code: trimmed and uppercase.
// "all" and "*" mean no filter.
func Jurisdiction(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "ALL" || s == "*" {
		return ""
	}
	return s
}
