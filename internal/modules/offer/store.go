// README: Offer store backed by PostgreSQL (offers + offer_status_events).
package offer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const defaultListLimit = 50

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const offerColumns = `
	id, route_id, settings_id, settings_version, status, status_version,
	margin::text, total_cost::text, final_price::text, currency, breakdown,
	fun_fact, settings_violations, created_at, valid_until, status_changed_at`

func (s *Store) Create(ctx context.Context, o *Offer) error {
	breakdown, err := json.Marshal(o.Breakdown)
	if err != nil {
		return fmt.Errorf("create offer: marshal breakdown: %w", err)
	}
	violations, err := json.Marshal(nonNil(o.SettingsViolations))
	if err != nil {
		return fmt.Errorf("create offer: marshal violations: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO offers (
			id, route_id, settings_id, settings_version, status, status_version,
			margin, total_cost, final_price, currency, breakdown,
			fun_fact, settings_violations, created_at, valid_until, status_changed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7::numeric, $8::numeric, $9::numeric, $10, $11,
			$12, $13, $14, $15, $16
		)`,
		o.ID, o.RouteID, o.SettingsID, o.SettingsVersion, string(o.Status), o.StatusVersion,
		o.Margin.String(), o.TotalCost.String(), o.FinalPrice.String(), o.Currency, breakdown,
		o.FunFact, violations, o.CreatedAt, o.ValidUntil, o.StatusChangedAt,
	)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Offer, error) {
	row := s.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	RouteID     string
	Status      Status
	ValidBefore time.Time
	Limit       int
}

func (s *Store) List(ctx context.Context, f Filter) ([]*Offer, error) {
	var where []string
	var args []any
	if f.RouteID != "" {
		args = append(args, f.RouteID)
		where = append(where, fmt.Sprintf("route_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.ValidBefore.IsZero() {
		args = append(args, f.ValidBefore)
		where = append(where, fmt.Sprintf("valid_until <= $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	q := `SELECT ` + offerColumns + ` FROM offers`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, len(args))

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []*Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus moves an offer from one status to another if nobody else
// changed it since version was read.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to Status, version int, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE offers
		SET status = $1,
		    status_version = status_version + 1,
		    status_changed_at = $2
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), at, id, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO offer_status_events (offer_id, from_status, to_status, created_at)
		VALUES ($1, $2, $3, $4)`,
		e.OfferID, string(e.FromStatus), string(e.ToStatus), e.CreatedAt,
	)
	return err
}

// Events lists an offer's status changes, oldest first.
func (s *Store) Events(ctx context.Context, offerID string) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, offer_id, from_status, to_status, created_at
		FROM offer_status_events
		WHERE offer_id = $1
		ORDER BY id`, offerID)
	if err != nil {
		return nil, fmt.Errorf("list offer events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var from, to string
		if err := rows.Scan(&e.ID, &e.OfferID, &from, &to, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.FromStatus, e.ToStatus = Status(from), Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer
	var status string
	var margin, total, final string
	var breakdown, violations []byte
	err := row.Scan(
		&o.ID, &o.RouteID, &o.SettingsID, &o.SettingsVersion, &status, &o.StatusVersion,
		&margin, &total, &final, &o.Currency, &breakdown,
		&o.FunFact, &violations, &o.CreatedAt, &o.ValidUntil, &o.StatusChangedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if o.Margin, err = decimal.NewFromString(margin); err != nil {
		return nil, err
	}
	if o.TotalCost, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if o.FinalPrice, err = decimal.NewFromString(final); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(breakdown, &o.Breakdown); err != nil {
		return nil, fmt.Errorf("decode offer breakdown: %w", err)
	}
	if err := json.Unmarshal(violations, &o.SettingsViolations); err != nil {
		return nil, fmt.Errorf("decode offer violations: %w", err)
	}
	if len(o.SettingsViolations) == 0 {
		o.SettingsViolations = nil
	}
	return &o, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
