// README: Offer aggregate, lifecycle statuses and alternative price points.
package offer

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"loadapp/internal/modules/cost"
)

var (
	ErrInvalidMargin = errors.New("invalid margin")
	ErrInvalidState  = errors.New("invalid offer state transition")
	ErrNotFound      = errors.New("offer not found")
	ErrConflict      = errors.New("offer state conflict")
	ErrBadRequest    = errors.New("bad request")
)

// ValidityPeriod is how long an offer can be accepted after creation.
const ValidityPeriod = 24 * time.Hour

type Status string

const (
	StatusNone     Status = "none"
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusExpired, StatusArchived:
		return true
	}
	return false
}

// AllowedTransitions represents the offer lifecycle as code. Archived is terminal.
var AllowedTransitions = map[Status][]Status{
	StatusDraft:   {StatusActive, StatusArchived},
	StatusActive:  {StatusExpired, StatusArchived},
	StatusExpired: {StatusArchived},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Offer struct {
	ID              string          `json:"id"`
	RouteID         string          `json:"route_id"`
	Status          Status          `json:"status"`
	StatusVersion   int             `json:"-"`
	Margin          decimal.Decimal `json:"margin"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	Currency        string          `json:"currency"`
	Breakdown       cost.Breakdown  `json:"cost_breakdown"`
	FunFact         string          `json:"fun_fact,omitempty"`
	SettingsID      string          `json:"settings_id"`
	SettingsVersion string          `json:"settings_version"`
	// SettingsViolations lists rate problems that were replaced by defaults.
	SettingsViolations []string  `json:"settings_violations,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	ValidUntil         time.Time `json:"valid_until"`
	StatusChangedAt    time.Time `json:"status_changed_at"`
}

// ExpiredAt reports whether an active offer has outlived its validity.
func (o Offer) ExpiredAt(now time.Time) bool {
	return o.Status == StatusActive && !o.ValidUntil.IsZero() && !now.Before(o.ValidUntil)
}

type Event struct {
	ID         int64     `json:"id"`
	OfferID    string    `json:"offer_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Alternative is the price of the same breakdown at another margin.
type Alternative struct {
	Label      string          `json:"label"`
	Margin     decimal.Decimal `json:"margin"`
	FinalPrice decimal.Decimal `json:"final_price"`
	Currency   string          `json:"currency"`
}
