// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package localreg persists the operator's own trademark register and serves
// it to the federation as the "local" registry. The store runs on SQLite
// (default) or PostgreSQL; the SQL is kept to the dialect both accept.
package localreg

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mark-search/pkg/types"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// Mark is one row of the local register. It doubles as the record shape of
// YAML import files; dates are "2006-01-02" strings.
type Mark struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	MarkType           string   `json:"mark_type,omitempty" yaml:"mark_type,omitempty"`
	Status             string   `json:"status,omitempty" yaml:"status,omitempty"`
	Jurisdiction       string   `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	ClassCodes         []int    `json:"class_codes,omitempty" yaml:"class_codes,omitempty"`
	ApplicationNumber  string   `json:"application_number,omitempty" yaml:"application_number,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty" yaml:"registration_number,omitempty"`
	FilingDate         string   `json:"filing_date,omitempty" yaml:"filing_date,omitempty"`
	RegistrationDate   string   `json:"registration_date,omitempty" yaml:"registration_date,omitempty"`
	Owner              string   `json:"owner,omitempty" yaml:"owner,omitempty"`
	GoodsServices      string   `json:"goods_services,omitempty" yaml:"goods_services,omitempty"`
	ImageURL           string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Store manages the local register database.
type Store struct {
	db         *sql.DB
	driver     string
	maxResults int
}

// Open opens or creates the local register described by cfg and creates the
// schema if it does not exist. For SQLite the parent directory of the
// database file is created.
func Open(cfg types.LocalConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = driverSQLite
	}

	var dsn string
	switch driver {
	case driverSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "creating database directory")
			}
		}
		dsn = cfg.DSN + "?_journal_mode=WAL&_busy_timeout=5000"
	case driverPostgres:
		dsn = cfg.DSN
	default:
		return nil, errors.Newf("unsupported local registry driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 200
	}

	s := &Store{db: db, driver: driver, maxResults: maxResults}
	if err := s.createSchema(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS marks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			name_folded TEXT NOT NULL,
			mark_type TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			jurisdiction TEXT NOT NULL DEFAULT '',
			class_codes TEXT NOT NULL DEFAULT '[]',
			application_number TEXT NOT NULL DEFAULT '',
			registration_number TEXT NOT NULL DEFAULT '',
			filing_date TEXT NOT NULL DEFAULT '',
			registration_date TEXT NOT NULL DEFAULT '',
			owner TEXT NOT NULL DEFAULT '',
			goods_services TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_marks_name_folded ON marks(name_folded)`,
		`CREATE INDEX IF NOT EXISTS idx_marks_jurisdiction ON marks(jurisdiction)`,
		`CREATE TABLE IF NOT EXISTS import_status (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
