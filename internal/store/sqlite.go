package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/evidence-cli/internal/model"
)

// sqliteTime is fixed width so text ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL DEFAULT '',
	input_name    TEXT NOT NULL,
	resolved_name TEXT NOT NULL,
	profile       TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_run_id ON profiles(run_id);
CREATE INDEX IF NOT EXISTS idx_profiles_resolved_name ON profiles(resolved_name);
CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at);
`

// Migrate creates the profiles table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveProfile inserts p. An existing id is ErrExists.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p *model.CompanyProfile) error {
	if err := validate(p); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, run_id, input_name, resolved_name, profile, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		p.ID, p.RunID, p.InputName, p.Canonical.Name(), string(data), p.CreatedAt.UTC().Format(sqliteTime),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

// GetProfile loads one profile by id.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*model.CompanyProfile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT profile FROM profiles WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get profile")
	}
	var p model.CompanyProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	return &p, nil
}

// ListProfiles returns matching profiles, newest first.
func (s *SQLiteStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.CompanyProfile, error) {
	var (
		where []string
		args  []any
	)
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Name != "" {
		where = append(where, "(lower(resolved_name) LIKE ? OR lower(input_name) LIKE ?)")
		like := "%" + strings.ToLower(filter.Name) + "%"
		args = append(args, like, like)
	}

	query := `SELECT profile FROM profiles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.CompanyProfile{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		var p model.CompanyProfile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal profile")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate profiles")
}
