package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"REGISTERED", StatusRegistered, true},
		{"Pending", StatusSubmitted, true},
		{"EXAMINATION", StatusUnderExamination, true},
		{"under examination", StatusUnderExamination, true},
		{"opposition-period", StatusPublished, true},
		{"refused", StatusRejected, true},
		{"lapsed", StatusExpired, true},
		{"in limbo", StatusUnknown, false},
		{"", StatusUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		assert.Equal(t, tt.want, got, "status %q", tt.in)
		assert.Equal(t, tt.ok, ok, "status %q", tt.in)
	}
}

func TestParseMarkType(t *testing.T) {
	tests := []struct {
		in   string
		want MarkType
		ok   bool
	}{
		{"WORD", MarkWord, true},
		{"Combined", MarkCombined, true},
		{"logo", MarkFigurative, true},
		{"three-dimensional", Mark3D, true},
		{"colour", MarkColor, true},
		{"hologram", MarkOther, false},
	}
	for _, tt := range tests {
		got, ok := ParseMarkType(tt.in)
		assert.Equal(t, tt.want, got, "type %q", tt.in)
		assert.Equal(t, tt.ok, ok, "type %q", tt.in)
	}
}

func TestQueryKeyIdentity(t *testing.T) {
	a := NewNormalizedQuery("acme", "EU", []int{42, 9, 9}, MarkWord, "")
	b := NewNormalizedQuery("acme", "EU", []int{9, 42}, MarkWord, "")
	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))

	for _, other := range []NormalizedQuery{
		NewNormalizedQuery("acme", "US", []int{9, 42}, MarkWord, ""),
		NewNormalizedQuery("acme", "EU", []int{9}, MarkWord, ""),
		NewNormalizedQuery("acme", "EU", []int{9, 42}, "", ""),
		NewNormalizedQuery("acme", "EU", []int{9, 42}, MarkWord, StatusRegistered),
		NewNormalizedQuery("acme tools", "EU", []int{9, 42}, MarkWord, ""),
	} {
		assert.NotEqual(t, a.Key(), other.Key(), other.Key())
	}

	// Separators inside a field must not shift it into the next one.
	pairs := [][2]NormalizedQuery{
		{NewNormalizedQuery("acme|", "", []int{9}, "", ""), NewNormalizedQuery("acme", "|", []int{9}, "", "")},
		{NewNormalizedQuery("acme", "", nil, "", "word"), NewNormalizedQuery("acme", "", nil, "word", "")},
		{NewNormalizedQuery("a:b", "", nil, "", ""), NewNormalizedQuery("a", "b", nil, "", "")},
		{NewNormalizedQuery("", "EU", nil, "", ""), NewNormalizedQuery("EU", "", nil, "", "")},
	}
	for _, p := range pairs {
		assert.NotEqual(t, p[0].Key(), p[1].Key())
		assert.False(t, p[0].Equal(p[1]))
	}
}

func TestQueryIsImmutable(t *testing.T) {
	codes := []int{9, 42}
	q := NewNormalizedQuery("acme", "", codes, "", "")
	codes[0] = 1
	got := q.ClassCodes()
	got[1] = 2
	assert.Equal(t, []int{9, 42}, q.ClassCodes())
}

func TestQueryCodecs(t *testing.T) {
	q := NewNormalizedQuery("acme", "EU", []int{9, 42}, MarkCombined, StatusPublished)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"acme","jurisdiction":"EU","class_codes":[9,42],"mark_type":"combined","status":"published"}`, string(data))

	var fromJSON NormalizedQuery
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.True(t, q.Equal(fromJSON))

	out, err := yaml.Marshal(q)
	require.NoError(t, err)
	var fromYAML NormalizedQuery
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	assert.True(t, q.Equal(fromYAML))
}

func TestSortedClassSet(t *testing.T) {
	assert.Nil(t, SortedClassSet(nil))
	assert.Equal(t, []int{3, 9, 42}, SortedClassSet([]int{42, 9, 3, 9, 42}))
}

func TestNormalizedResultValid(t *testing.T) {
	assert.True(t, NormalizedResult{SourceID: "local", Name: "acme"}.Valid())
	assert.False(t, NormalizedResult{SourceID: "local", Name: "  "}.Valid())
	assert.False(t, NormalizedResult{Name: "acme"}.Valid())
}

func TestCompositeSources(t *testing.T) {
	c := CompositeResult{Members: []NormalizedResult{
		{SourceID: "local"}, {SourceID: "tmview"}, {SourceID: "tmview"}, {SourceID: "wipo"},
	}}
	assert.Equal(t, []string{"local", "tmview", "wipo"}, c.Sources())
}

func TestConfigWithDefaults(t *testing.T) {
	c := Config{
		Federation: FederationConfig{GlobalDeadline: 3 * time.Second},
		Cache:      CacheConfig{StaleFor: -time.Minute},
		Local:      LocalConfig{Driver: "postgres", DSN: "postgres://localhost/marks"},
	}.WithDefaults()

	assert.Equal(t, 3*time.Second, c.Federation.GlobalDeadline)
	assert.Equal(t, 5*time.Second, c.Federation.SourceTimeout)
	assert.Equal(t, 0.85, c.Federation.SimilarityThreshold)
	assert.Equal(t, Weights{Name: 0.6, Raw: 0.25, Status: 0.15}, c.Federation.Weights)
	assert.Equal(t, 100, c.Federation.MaxPageSize)
	assert.Equal(t, time.Duration(0), c.Cache.StaleFor)
	assert.Equal(t, "postgres", c.Local.Driver)
	assert.Equal(t, ".secrets/", c.SecretsDir)
	assert.Empty(t, c.Sources, "sources are never defaulted in")
}

func TestEffectiveTrustRank(t *testing.T) {
	assert.Greater(t, SourceConfig{Kind: SourceLocal}.EffectiveTrustRank(), SourceConfig{Kind: SourceNational}.EffectiveTrustRank())
	assert.Greater(t, SourceConfig{Kind: SourceNational}.EffectiveTrustRank(), SourceConfig{Kind: SourceEUIPO}.EffectiveTrustRank())
	assert.Greater(t, SourceConfig{Kind: SourceWIPO}.EffectiveTrustRank(), SourceConfig{Kind: SourceTMview}.EffectiveTrustRank())
	assert.Equal(t, 7, SourceConfig{Kind: SourceTMview, TrustRank: 7}.EffectiveTrustRank())
}
