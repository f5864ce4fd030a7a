package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/db"
	"github.com/sells-group/evidence-cli/internal/model"
)

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to connString.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL DEFAULT '',
	input_name    TEXT NOT NULL,
	resolved_name TEXT NOT NULL,
	profile       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_profiles_run_id ON profiles(run_id);
CREATE INDEX IF NOT EXISTS idx_profiles_resolved_name ON profiles(lower(resolved_name));
CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at DESC);
`

// Migrate creates the profiles table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveProfile inserts p. An existing id is ErrExists.
func (s *PostgresStore) SaveProfile(ctx context.Context, p *model.CompanyProfile) error {
	if err := validate(p); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, run_id, input_name, resolved_name, profile, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
		p.ID, p.RunID, p.InputName, p.Canonical.Name(), data, p.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: save profile")
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

// GetProfile loads one profile by id.
func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*model.CompanyProfile, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT profile FROM profiles WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get profile")
	}
	var p model.CompanyProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	return &p, nil
}

// ListProfiles returns matching profiles, newest first.
func (s *PostgresStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.CompanyProfile, error) {
	query := `SELECT profile FROM profiles WHERE true`
	args := []any{}
	argIdx := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, argIdx)
		args = append(args, filter.RunID)
		argIdx++
	}
	if filter.Name != "" {
		query += fmt.Sprintf(` AND (lower(resolved_name) LIKE $%d OR lower(input_name) LIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list profiles")
	}
	defer rows.Close()

	out := []model.CompanyProfile{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		var p model.CompanyProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal profile")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate profiles")
}
