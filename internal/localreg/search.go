// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package localreg

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/pkg/types"
)

const markColumns = `id, name, mark_type, status, jurisdiction, class_codes,
	application_number, registration_number, filing_date, registration_date,
	owner, goods_services, image_url`

// Search returns marks whose folded name contains any token of the query
// text, restricted to the query jurisdiction, mark type and status when
// set. The class filter is applied after loading: a mark matches when it
// shares at least one class with the query. Results are ordered by folded
// name then id and capped at the store's MaxResults after class filtering.
func (s *Store) Search(ctx context.Context, q types.NormalizedQuery) ([]Mark, error) {
	tokens := strings.Fields(q.Text())
	if len(tokens) == 0 {
		return nil, nil
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT ` + markColumns + ` FROM marks WHERE (`)
	for i, tok := range tokens {
		if i > 0 {
			qb.WriteString(` OR `)
		}
		qb.WriteString(`name_folded LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(tok)+"%")
	}
	qb.WriteString(`)`)

	if j := q.Jurisdiction(); j != "" {
		qb.WriteString(` AND jurisdiction = ?`)
		args = append(args, j)
	}
	if mt := q.MarkType(); mt != "" {
		qb.WriteString(` AND mark_type = ?`)
		args = append(args, string(mt))
	}
	if st := q.Status(); st != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(st))
	}
	qb.WriteString(` ORDER BY name_folded, id LIMIT ? OFFSET ?`)
	stmt := qb.String()

	// Classes live in a JSON column, so the class filter runs on each page
	// and paging continues until the cap is met or the rows run out.
	classes := q.ClassCodes()
	var marks []Mark
	for offset := 0; ; offset += s.maxResults {
		pageArgs := append(args[:len(args):len(args)], s.maxResults, offset)
		page, err := s.query(ctx, stmt, pageArgs...)
		if err != nil {
			return nil, errors.Wrap(err, "searching local register")
		}
		marks = append(marks, filterClasses(page, classes)...)
		if len(marks) >= s.maxResults {
			return marks[:s.maxResults], nil
		}
		if len(page) < s.maxResults {
			return marks, nil
		}
	}
}

// List returns up to limit marks ordered by id. A non-positive limit uses
// the store default.
func (s *Store) List(ctx context.Context, limit int) ([]Mark, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	marks, err := s.query(ctx, `SELECT `+markColumns+` FROM marks ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing local register")
	}
	return marks, nil
}

// Count returns the number of stored marks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM marks`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "counting marks")
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Mark, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var marks []Mark
	for rows.Next() {
		var (
			m         Mark
			classJSON sql.NullString
		)
		if err := rows.Scan(
			&m.ID, &m.Name, &m.MarkType, &m.Status, &m.Jurisdiction, &classJSON,
			&m.ApplicationNumber, &m.RegistrationNumber, &m.FilingDate, &m.RegistrationDate,
			&m.Owner, &m.GoodsServices, &m.ImageURL,
		); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		if classJSON.Valid && classJSON.String != "" {
			if err := json.Unmarshal([]byte(classJSON.String), &m.ClassCodes); err != nil {
				return nil, errors.Wrapf(err, "decoding class codes of %s", m.ID)
			}
		}
		marks = append(marks, m)
	}
	return marks, rows.Err()
}

func filterClasses(marks []Mark, classes []int) []Mark {
	if len(classes) == 0 {
		return marks
	}
	want := make(map[int]bool, len(classes))
	for _, c := range classes {
		want[c] = true
	}
	out := marks[:0]
	for _, m := range marks {
		for _, c := range m.ClassCodes {
			if want[c] {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
