package localreg

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mark-search/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.LocalConfig{
		Driver:     "sqlite3",
		DSN:        filepath.Join(t.TempDir(), "data", "registry.db"),
		MaxResults: 50,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const sampleFile = `marks:
  - id: L-1
    name: "Açme Widgets"
    mark_type: WORD
    status: REGISTERED
    jurisdiction: gr
    class_codes: [9, 42, 9]
    application_number: "GR-2019-0001"
    registration_number: "GR-123"
    filing_date: "2019-03-04"
    owner: Acme Hellas SA
  - id: L-2
    name: Nimbus
    mark_type: combined
    status: pending
    jurisdiction: EU
    class_codes: [35]
  - id: L-3
    name: "acme_tools 100%"
    jurisdiction: GR
    class_codes: [7]
`

func writeImport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func importSample(t *testing.T, s *Store) {
	t.Helper()
	var out bytes.Buffer
	sum, err := s.ImportYAML(context.Background(), writeImport(t, sampleFile), &out)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Imported, out.String())
}

// --- tests ---

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	s, err := Open(types.LocalConfig{DSN: filepath.Join(dir, "r.db")})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dir)
	assert.NoError(t, err)
	assert.Equal(t, 200, s.maxResults)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(types.LocalConfig{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestImportYAML_CanonicalizesMarks(t *testing.T) {
	s := testStore(t)
	importSample(t, s)

	marks, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, marks, 3)

	m := marks[0]
	assert.Equal(t, "L-1", m.ID)
	assert.Equal(t, "Açme Widgets", m.Name)
	assert.Equal(t, "word", m.MarkType)
	assert.Equal(t, "registered", m.Status)
	assert.Equal(t, "GR", m.Jurisdiction)
	assert.Equal(t, []int{9, 42}, m.ClassCodes)
	assert.Equal(t, "2019-03-04", m.FilingDate)

	assert.Equal(t, "submitted", marks[1].Status)
}

func TestImportYAML_SkipsUnchangedFile(t *testing.T) {
	s := testStore(t)
	path := writeImport(t, sampleFile)

	var out bytes.Buffer
	_, err := s.ImportYAML(context.Background(), path, &out)
	require.NoError(t, err)

	out.Reset()
	sum, err := s.ImportYAML(context.Background(), path, &out)
	require.NoError(t, err)
	assert.True(t, sum.Unchanged)
	assert.Contains(t, out.String(), "unchanged")

	// A newer modification time triggers a re-import that upserts.
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	sum, err = s.ImportYAML(context.Background(), path, &out)
	require.NoError(t, err)
	assert.False(t, sum.Unchanged)
	assert.Equal(t, 3, sum.Imported)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImportYAML_ReportsInvalidMarks(t *testing.T) {
	s := testStore(t)
	content := `marks:
  - id: ok
    name: Valid
  - name: no id
  - id: bad-type
    name: X
    mark_type: hologram
  - id: bad-class
    name: Y
    class_codes: [46]
  - id: bad-date
    name: Z
    filing_date: "04/03/2019"
`
	var out bytes.Buffer
	sum, err := s.ImportYAML(context.Background(), writeImport(t, content), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, 4, sum.Failed)
	assert.Contains(t, out.String(), "unknown mark type")
	assert.Contains(t, out.String(), "class code 46")
}

func TestImportYAML_ParseError(t *testing.T) {
	s := testStore(t)
	_, err := s.ImportYAML(context.Background(), writeImport(t, "marks: [unterminated"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestSearch(t *testing.T) {
	s := testStore(t)
	importSample(t, s)

	tests := []struct {
		name    string
		query   types.NormalizedQuery
		wantIDs []string
	}{
		{
			name:    "matches folded names",
			query:   types.NewNormalizedQuery("acme", "", nil, "", ""),
			wantIDs: []string{"L-1", "L-3"},
		},
		{
			name:    "any token matches",
			query:   types.NewNormalizedQuery("nimbus widgets", "", nil, "", ""),
			wantIDs: []string{"L-1", "L-2"},
		},
		{
			name:    "jurisdiction filter",
			query:   types.NewNormalizedQuery("acme", "GR", nil, "", ""),
			wantIDs: []string{"L-1", "L-3"},
		},
		{
			name:    "jurisdiction excludes",
			query:   types.NewNormalizedQuery("nimbus", "GR", nil, "", ""),
			wantIDs: nil,
		},
		{
			name:    "class filter keeps intersecting marks",
			query:   types.NewNormalizedQuery("acme", "", []int{42, 45}, "", ""),
			wantIDs: []string{"L-1"},
		},
		{
			name:    "type and status filters",
			query:   types.NewNormalizedQuery("acme nimbus", "", nil, types.MarkWord, types.StatusRegistered),
			wantIDs: []string{"L-1"},
		},
		{
			name:    "like wildcards are literal",
			query:   types.NewNormalizedQuery("100%", "", nil, "", ""),
			wantIDs: []string{"L-3"},
		},
		{
			name:    "underscore is literal",
			query:   types.NewNormalizedQuery("e_t", "", nil, "", ""),
			wantIDs: []string{"L-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marks, err := s.Search(context.Background(), tt.query)
			require.NoError(t, err)
			var ids []string
			for _, m := range marks {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSearch_CapAppliesAfterClassFilter(t *testing.T) {
	s, err := Open(types.LocalConfig{
		Driver:     "sqlite3",
		DSN:        filepath.Join(t.TempDir(), "registry.db"),
		MaxResults: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.ImportYAML(context.Background(), writeImport(t, `marks:
  - {id: A, name: Acme Apparel, class_codes: [25]}
  - {id: B, name: Acme Boots, class_codes: [25]}
  - {id: C, name: Acme Chips, class_codes: [9]}
  - {id: D, name: Acme Drones, class_codes: [9, 12]}
  - {id: E, name: Acme Electronics, class_codes: [9]}
`), &bytes.Buffer{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		classes []int
		wantIDs []string
	}{
		{"no class filter stops at the cap", nil, []string{"A", "B"}},
		{"matches past the first page are found", []int{9}, []string{"C", "D"}},
		{"fewer matches than the cap", []int{12}, []string{"D"}},
		{"no matches", []int{45}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marks, err := s.Search(context.Background(), types.NewNormalizedQuery("acme", "", tt.classes, "", ""))
			require.NoError(t, err)
			var ids []string
			for _, m := range marks {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	s := testStore(t)
	importSample(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Search(ctx, types.NewNormalizedQuery("acme", "", nil, "", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: driverPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &Store{driver: driverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
