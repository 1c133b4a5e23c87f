// README: Append-only cost settings history in PostgreSQL (cost_settings_versions).
package costsettings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	defaultHistoryLimit = 50
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Append inserts a new version. Rows are never updated; a second insert of
// the same (route, version) returns ErrVersionConflict.
func (s *Store) Append(ctx context.Context, cs CostSettings) error {
	rates, err := json.Marshal(cs.rates)
	if err != nil {
		return fmt.Errorf("append settings: marshal rates: %w", err)
	}
	m := cs.meta
	_, err = s.db.Exec(ctx, `
		INSERT INTO cost_settings_versions (
			settings_id, route_id, version_major, version_minor, rates,
			created_at, created_by, modified_at, modified_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.RouteID, m.Version.Major, m.Version.Minor, rates,
		m.CreatedAt, m.CreatedBy, m.ModifiedAt, m.ModifiedBy,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("append settings: %w", err)
	}
	return nil
}

// Latest returns the newest version for a scope. An empty routeID is the
// global defaults scope.
func (s *Store) Latest(ctx context.Context, routeID string) (CostSettings, error) {
	row := s.db.QueryRow(ctx, `
		SELECT settings_id, route_id, version_major, version_minor, rates,
		       created_at, created_by, modified_at, modified_by
		FROM cost_settings_versions
		WHERE route_id = $1
		ORDER BY version_major DESC, version_minor DESC
		LIMIT 1`, routeID,
	)
	cs, err := scanSettings(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return CostSettings{}, ErrNotFound
	}
	return cs, err
}

// History lists versions for a scope, newest first.
func (s *Store) History(ctx context.Context, routeID string, limit int) ([]CostSettings, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT settings_id, route_id, version_major, version_minor, rates,
		       created_at, created_by, modified_at, modified_by
		FROM cost_settings_versions
		WHERE route_id = $1
		ORDER BY version_major DESC, version_minor DESC
		LIMIT $2`, routeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("settings history: %w", err)
	}
	defer rows.Close()

	var out []CostSettings
	for rows.Next() {
		cs, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func scanSettings(row pgx.Row) (CostSettings, error) {
	var m Meta
	var raw []byte
	var createdBy, modifiedBy *string
	var createdAt, modifiedAt time.Time
	if err := row.Scan(
		&m.ID, &m.RouteID, &m.Version.Major, &m.Version.Minor, &raw,
		&createdAt, &createdBy, &modifiedAt, &modifiedBy,
	); err != nil {
		return CostSettings{}, err
	}
	m.CreatedAt, m.ModifiedAt = createdAt.UTC(), modifiedAt.UTC()
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	if modifiedBy != nil {
		m.ModifiedBy = *modifiedBy
	}
	var rates Rates
	if err := json.Unmarshal(raw, &rates); err != nil {
		return CostSettings{}, fmt.Errorf("decode settings rates: %w", err)
	}
	return New(rates, m), nil
}
