package federation

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mark-search/pkg/types"
)

func TestDedupeTransitiveGroups(t *testing.T) {
	d := Deduper{
		Threshold: DefaultThreshold,
		Similarity: tableSimilarity(map[[2]string]float64{
			{"alpha", "alphb"}: 0.9,
			{"alphb", "alphc"}: 0.9,
			{"alpha", "alphc"}: 0.5,
		}),
	}
	got := d.Dedupe([]types.NormalizedResult{
		mark("tmview", "alphb", 9),
		mark("local", "alpha", 9),
		mark("euipo", "alphc", 9),
	})

	require.Len(t, got, 1)
	assert.Len(t, got[0].Members, 3)
	assert.Equal(t, "alpha", got[0].DisplayName, "local name is preferred")
	assert.Equal(t, []string{"euipo", "local", "tmview"}, got[0].Sources())
}

func TestDedupeThresholdBoundary(t *testing.T) {
	tests := []struct {
		name   string
		sim    float64
		groups int
	}{
		{"at threshold merges", 0.85, 1},
		{"just below does not", 0.849, 2},
		{"above merges", 0.99, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Deduper{
				Threshold:  DefaultThreshold,
				Similarity: tableSimilarity(map[[2]string]float64{{"acme", "akme"}: tt.sim}),
			}
			got := d.Dedupe([]types.NormalizedResult{
				mark("local", "acme", 9),
				mark("tmview", "akme", 9),
			})
			assert.Len(t, got, tt.groups)
		})
	}
}

func TestDedupeMeasuresNamesInCharacters(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		groups int
	}{
		{"greek marks one letter per word apart", "ΖΗΤΑ ΒΗΤΑ", "ΖΗΤΟ ΒΗΤΟ", 2},
		{"latin marks one letter per word apart", "zeta beta", "zeto beto", 2},
		{"greek accents fold away", "ΑΘΗΝΑ", "Αθηνά", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Deduper{Threshold: DefaultThreshold, Similarity: NameSimilarity}
			got := d.Dedupe([]types.NormalizedResult{
				mark("obi-gr", tt.a, 9),
				mark("tmview", tt.b, 9),
			})
			assert.Len(t, got, tt.groups)
		})
	}
}

func TestDedupeMatchRules(t *testing.T) {
	withReg := func(r types.NormalizedResult, reg, jur string) types.NormalizedResult {
		r.RegistrationNumber = reg
		r.Jurisdiction = jur
		return r
	}
	similar := tableSimilarity(map[[2]string]float64{{"acme", "acme corp"}: 0.95})

	tests := []struct {
		name   string
		a, b   types.NormalizedResult
		groups int
	}{
		{
			name:   "same source never merges",
			a:      mark("local", "acme", 9),
			b:      mark("local", "acme", 9),
			groups: 2,
		},
		{
			name:   "registration number overrides name and classes",
			a:      withReg(mark("local", "zeta", 9), "123", "EU"),
			b:      withReg(mark("tmview", "omega", 25), "123", "EU"),
			groups: 1,
		},
		{
			name:   "jurisdiction mismatch blocks registration number",
			a:      withReg(mark("local", "acme", 9), "123", "EU"),
			b:      withReg(mark("tmview", "acme", 9), "123", "US"),
			groups: 2,
		},
		{
			name:   "empty jurisdiction is compatible",
			a:      withReg(mark("local", "acme", 9), "", "EU"),
			b:      mark("tmview", "acme corp", 9),
			groups: 1,
		},
		{
			name:   "disjoint classes block a fuzzy match",
			a:      mark("local", "acme", 9),
			b:      mark("tmview", "acme corp", 25),
			groups: 2,
		},
		{
			name:   "empty class set intersects",
			a:      mark("local", "acme"),
			b:      mark("tmview", "acme corp", 25),
			groups: 1,
		},
		{
			name:   "empty names merge only by registration number",
			a:      withReg(mark("local", "", 9), "777", ""),
			b:      withReg(mark("tmview", "", 9), "777", ""),
			groups: 1,
		},
		{
			name:   "empty names without registration number stay apart",
			a:      mark("local", "", 9),
			b:      mark("tmview", "", 9),
			groups: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Deduper{Threshold: DefaultThreshold, Similarity: similar}
			got := d.Dedupe([]types.NormalizedResult{tt.a, tt.b})
			assert.Len(t, got, tt.groups)
		})
	}
}

func TestDedupeMergePrefersTrustedFields(t *testing.T) {
	local := mark("local", "Acme", 9)
	local.Status = types.StatusUnknown
	local.MarkType = types.MarkOther

	tmview := mark("tmview", "ACME", 9, 42)
	tmview.ApplicationNumber = "T-1"
	tmview.Status = types.StatusRegistered
	tmview.Jurisdiction = "EU"

	euipo := mark("euipo", "ACME", 9)
	euipo.ApplicationNumber = "E-1"
	euipo.Status = types.StatusPublished
	euipo.MarkType = types.MarkFigurative
	euipo.FilingDate = day("2020-05-01")

	d := Deduper{
		Threshold:  DefaultThreshold,
		Similarity: NameSimilarity,
		TrustRanks: map[string]int{"local": types.TrustLocal, "euipo": types.TrustRegional, "tmview": types.TrustAggregator},
	}
	got := d.Dedupe([]types.NormalizedResult{tmview, local, euipo})
	require.Len(t, got, 1)
	c := got[0]

	assert.Equal(t, "Acme", c.DisplayName)
	assert.Equal(t, types.StatusPublished, c.Status, "unknown status is skipped")
	assert.Equal(t, types.MarkFigurative, c.MarkType, "other type is skipped")
	assert.Equal(t, "E-1", c.ApplicationNumber)
	assert.Equal(t, "EU", c.Jurisdiction)
	assert.Equal(t, []int{9, 42}, c.ClassCodes)
	assert.Equal(t, day("2020-05-01"), c.FilingDate)
	assert.Zero(t, c.CompositeScore)
}

func TestDedupeTrustTieUsesLatestFiling(t *testing.T) {
	older := mark("tmview", "acme", 9)
	older.Status = types.StatusExpired
	older.FilingDate = day("2001-01-01")

	newer := mark("wipo", "acme", 9)
	newer.Status = types.StatusRegistered
	newer.FilingDate = day("2019-01-01")

	d := Deduper{Threshold: DefaultThreshold, TrustRanks: map[string]int{"tmview": 2, "wipo": 2}}
	got := d.Dedupe([]types.NormalizedResult{older, newer})
	require.Len(t, got, 1)
	assert.Equal(t, types.StatusRegistered, got[0].Status)
}

func TestDedupeKeepsInputOrder(t *testing.T) {
	d := Deduper{Threshold: DefaultThreshold}
	got := d.Dedupe([]types.NormalizedResult{
		mark("local", "zebra"),
		mark("local", "apple"),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "zebra", got[0].DisplayName)
	assert.Equal(t, "apple", got[1].DisplayName)

	assert.Nil(t, d.Dedupe(nil))
}

// fixture decodes a small integer into a result so gopter can generate
// whole batches from integer slices.
func fixture(n int) types.NormalizedResult {
	names := []string{"acme", "acme corp", "akme", "zenith"}
	sources := []string{"local", "tmview", "euipo"}
	statuses := []types.Status{types.StatusRegistered, types.StatusExpired, types.StatusUnknown}
	r := mark(sources[(n/4)%3], names[n%4], (n/12)%3+1)
	r.Status = statuses[(n/7)%3]
	if n%5 == 0 {
		r.RawSimilarity = ptr(float64(n%10) / 10)
	}
	return r
}

func pipeline(results []types.NormalizedResult, q types.NormalizedQuery) []types.CompositeResult {
	in := make([]types.NormalizedResult, len(results))
	copy(in, results)
	d := Deduper{Threshold: DefaultThreshold, TrustRanks: map[string]int{"local": 4, "euipo": 2, "tmview": 1}}
	cs := d.Dedupe(in)
	s := Scorer{Weights: DefaultWeights}
	s.ScoreAll(cs, q)
	Rank(cs)
	return cs
}

func TestPipelineIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	q := types.NewNormalizedQuery("acme", "", nil, "", "")

	properties.Property("dedupe, score and rank are repeatable", prop.ForAll(
		func(codes []int) bool {
			results := make([]types.NormalizedResult, len(codes))
			for i, c := range codes {
				results[i] = fixture(c)
			}
			return reflect.DeepEqual(pipeline(results, q), pipeline(results, q))
		},
		gen.SliceOf(gen.IntRange(0, 63)),
	))

	properties.Property("every input result lands in exactly one composite", prop.ForAll(
		func(codes []int) bool {
			results := make([]types.NormalizedResult, len(codes))
			for i, c := range codes {
				results[i] = fixture(c)
			}
			members := 0
			for _, c := range pipeline(results, q) {
				members += len(c.Members)
			}
			return members == len(results)
		},
		gen.SliceOf(gen.IntRange(0, 63)),
	))

	properties.Property("ranked scores never increase", prop.ForAll(
		func(codes []int) bool {
			results := make([]types.NormalizedResult, len(codes))
			for i, c := range codes {
				results[i] = fixture(c)
			}
			cs := pipeline(results, q)
			for i := 1; i < len(cs); i++ {
				if cs[i].CompositeScore > cs[i-1].CompositeScore {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 63)),
	))

	properties.TestingRun(t)
}
