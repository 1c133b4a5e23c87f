// README: Route store backed by PostgreSQL (routes + route_segments).
package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Save upserts the route and replaces its segments in one transaction.
func (s *Store) Save(ctx context.Context, r *Route) error {
	origin, err := json.Marshal(r.Origin)
	if err != nil {
		return fmt.Errorf("save route: marshal origin: %w", err)
	}
	destination, err := json.Marshal(r.Destination)
	if err != nil {
		return fmt.Errorf("save route: marshal destination: %w", err)
	}
	shares, err := json.Marshal(r.Shares)
	if err != nil {
		return fmt.Errorf("save route: marshal shares: %w", err)
	}
	var cargo []byte
	if r.Cargo != nil {
		if cargo, err = json.Marshal(r.Cargo); err != nil {
			return fmt.Errorf("save route: marshal cargo: %w", err)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save route: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO routes (
			id, origin, destination, pickup_time, delivery_time,
			distance_km, duration_hours, country_shares, empty_km, empty_hours,
			transport_type, cargo, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6::numeric, $7::numeric, $8, $9::numeric, $10::numeric,
			$11, $12, $13
		)
		ON CONFLICT (id) DO UPDATE SET
			distance_km = EXCLUDED.distance_km,
			duration_hours = EXCLUDED.duration_hours,
			country_shares = EXCLUDED.country_shares,
			empty_km = EXCLUDED.empty_km,
			empty_hours = EXCLUDED.empty_hours`,
		r.ID, origin, destination, r.PickupTime, r.DeliveryTime,
		r.DistanceKm.String(), r.DurationHours.String(), shares,
		r.EmptyDriving.DistanceKm.String(), r.EmptyDriving.DurationHours.String(),
		r.TransportType, cargo, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save route: insert route: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM route_segments WHERE route_id = $1`, r.ID); err != nil {
		return fmt.Errorf("save route: clear segments: %w", err)
	}

	batch := &pgx.Batch{}
	for _, seg := range r.Segments {
		batch.Queue(`
			INSERT INTO route_segments (route_id, ordinal, country, distance_km, duration_hours, is_empty_driving)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6)`,
			r.ID, seg.Ordinal, seg.Country, seg.DistanceKm.String(), seg.DurationHours.String(), seg.EmptyDriving,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save route: insert segments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save route: commit: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Route, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, origin, destination, pickup_time, delivery_time,
		       distance_km::text, duration_hours::text, country_shares,
		       empty_km::text, empty_hours::text, transport_type, cargo, created_at
		FROM routes
		WHERE id = $1`, id,
	)

	var r Route
	var origin, destination, shares, cargo []byte
	var distance, duration, emptyKm, emptyHours string
	err := row.Scan(
		&r.ID, &origin, &destination, &r.PickupTime, &r.DeliveryTime,
		&distance, &duration, &shares,
		&emptyKm, &emptyHours, &r.TransportType, &cargo, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(origin, &r.Origin); err != nil {
		return nil, fmt.Errorf("get route: origin: %w", err)
	}
	if err := json.Unmarshal(destination, &r.Destination); err != nil {
		return nil, fmt.Errorf("get route: destination: %w", err)
	}
	if err := json.Unmarshal(shares, &r.Shares); err != nil {
		return nil, fmt.Errorf("get route: shares: %w", err)
	}
	if len(cargo) > 0 {
		r.Cargo = &CargoSpecification{}
		if err := json.Unmarshal(cargo, r.Cargo); err != nil {
			return nil, fmt.Errorf("get route: cargo: %w", err)
		}
	}
	if r.DistanceKm, err = decimal.NewFromString(distance); err != nil {
		return nil, err
	}
	if r.DurationHours, err = decimal.NewFromString(duration); err != nil {
		return nil, err
	}
	if r.EmptyDriving.DistanceKm, err = decimal.NewFromString(emptyKm); err != nil {
		return nil, err
	}
	if r.EmptyDriving.DurationHours, err = decimal.NewFromString(emptyHours); err != nil {
		return nil, err
	}

	segs, err := s.segments(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Segments = segs
	return &r, nil
}

func (s *Store) segments(ctx context.Context, routeID string) ([]Segment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ordinal, country, distance_km::text, duration_hours::text, is_empty_driving
		FROM route_segments
		WHERE route_id = $1
		ORDER BY ordinal`, routeID,
	)
	if err != nil {
		return nil, fmt.Errorf("get route segments: %w", err)
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		var seg Segment
		var km, hours string
		if err := rows.Scan(&seg.Ordinal, &seg.Country, &km, &hours, &seg.EmptyDriving); err != nil {
			return nil, fmt.Errorf("scan route segment: %w", err)
		}
		if seg.DistanceKm, err = decimal.NewFromString(km); err != nil {
			return nil, err
		}
		if seg.DurationHours, err = decimal.NewFromString(hours); err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}
