// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package localreg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mark-search/internal/query"
	"github.com/pdiddy/mark-search/pkg/types"
)

// ImportFile is the YAML document accepted by ImportYAML.
type ImportFile struct {
	Marks []Mark `yaml:"marks"`
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported int
	Failed   int

	// Unchanged is set when the file was already imported with the same
	// modification time and nothing was read.
	Unchanged bool
}

// ImportYAML loads marks from a YAML file into the register. Marks are
// upserted by id. A file whose modification time matches the last import is
// skipped. Marks without an id or name, or with an unparseable type, status
// or date, are reported on w and counted as failed; the rest of the file is
// still imported.
func (s *Store) ImportYAML(ctx context.Context, path string, w io.Writer) (ImportSummary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ImportSummary{}, errors.Wrapf(err, "resolving %s", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return ImportSummary{}, errors.Wrapf(err, "reading %s", path)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	var stored string
	err = s.db.QueryRowContext(ctx,
		s.rebind(`SELECT file_mod_time FROM import_status WHERE path = ?`), abs,
	).Scan(&stored)
	switch {
	case err == nil && stored == modTime:
		fmt.Fprintf(w, "unchanged %s\n", path)
		return ImportSummary{Unchanged: true}, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return ImportSummary{}, errors.Wrap(err, "checking import status")
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return ImportSummary{}, errors.Wrapf(err, "reading %s", path)
	}
	var file ImportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ImportSummary{}, errors.Wrapf(err, "parsing %s", path)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportSummary{}, errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO marks (id, name, name_folded, mark_type, status, jurisdiction, class_codes,
			application_number, registration_number, filing_date, registration_date,
			owner, goods_services, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, name_folded=excluded.name_folded,
			mark_type=excluded.mark_type, status=excluded.status,
			jurisdiction=excluded.jurisdiction, class_codes=excluded.class_codes,
			application_number=excluded.application_number,
			registration_number=excluded.registration_number,
			filing_date=excluded.filing_date, registration_date=excluded.registration_date,
			owner=excluded.owner, goods_services=excluded.goods_services,
			image_url=excluded.image_url`))
	if err != nil {
		return ImportSummary{}, errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	var summary ImportSummary
	for i, m := range file.Marks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		m, err := canonicalMark(m)
		if err != nil {
			fmt.Fprintf(w, "failed  mark %d: %v\n", i+1, err)
			summary.Failed++
			continue
		}
		classJSON, _ := json.Marshal(m.ClassCodes)
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.Name, query.Fold(m.Name), m.MarkType, m.Status, m.Jurisdiction, string(classJSON),
			m.ApplicationNumber, m.RegistrationNumber, m.FilingDate, m.RegistrationDate,
			m.Owner, m.GoodsServices, m.ImageURL,
		); err != nil {
			return summary, errors.Wrapf(err, "inserting mark %s", m.ID)
		}
		fmt.Fprintf(w, "imported %s %s\n", m.ID, m.Name)
		summary.Imported++
	}

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO import_status (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`),
		abs, modTime,
	); err != nil {
		return summary, errors.Wrap(err, "updating import status")
	}
	if err := tx.Commit(); err != nil {
		return summary, errors.Wrap(err, "committing import")
	}

	fmt.Fprintf(w, "\nimported: %d, failed: %d\n", summary.Imported, summary.Failed)
	return summary, nil
}

// canonicalMark validates m and rewrites its labels to the canonical
// vocabulary.
func canonicalMark(m Mark) (Mark, error) {
	m.ID = strings.TrimSpace(m.ID)
	m.Name = strings.TrimSpace(m.Name)
	if m.ID == "" {
		return m, errors.New("missing id")
	}
	if m.Name == "" {
		return m, errors.Newf("%s: missing name", m.ID)
	}
	if m.MarkType != "" {
		mt, ok := types.ParseMarkType(m.MarkType)
		if !ok {
			return m, errors.Newf("%s: unknown mark type %q", m.ID, m.MarkType)
		}
		m.MarkType = string(mt)
	}
	if m.Status != "" {
		st, ok := types.ParseStatus(m.Status)
		if !ok {
			return m, errors.Newf("%s: unknown status %q", m.ID, m.Status)
		}
		m.Status = string(st)
	}
	for _, d := range []string{m.FilingDate, m.RegistrationDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return m, errors.Newf("%s: date %q is not YYYY-MM-DD", m.ID, d)
		}
	}
	for _, c := range m.ClassCodes {
		if c < types.MinClassCode || c > types.MaxClassCode {
			return m, errors.Newf("%s: class code %d outside %d-%d", m.ID, c, types.MinClassCode, types.MaxClassCode)
		}
	}
	m.ClassCodes = types.SortedClassSet(m.ClassCodes)
	m.Jurisdiction = query.Jurisdiction(m.Jurisdiction)
	return m, nil
}
