package route

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rounding applied to loaded segments; the last one absorbs the remainder.
const (
	distancePlaces = 3
	durationPlaces = 4
)

var fractionTolerance = decimal.RequireFromString("0.001")

// Skeleton is a route reduced to what segmentation needs.
type Skeleton struct {
	OriginCountry string
	DistanceKm    decimal.Decimal
	DurationHours decimal.Decimal
	Shares        []CountryShare
	EmptyDriving  EmptyDriving
}

// Split divides the loaded distance and duration by country share and
// prepends the empty leg (assigned to the origin country). Segment sums equal
// the empty leg plus the loaded totals exactly. Every route is treated as
// feasible; there is no check against driving-time regulations.
func Split(sk Skeleton) ([]Segment, error) {
	if !sk.DistanceKm.IsPositive() {
		return nil, fmt.Errorf("%w: distance must be positive, got %s", ErrInvalidRoute, sk.DistanceKm)
	}
	if !sk.DurationHours.IsPositive() {
		return nil, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidRoute, sk.DurationHours)
	}
	if sk.EmptyDriving.DistanceKm.IsNegative() || sk.EmptyDriving.DurationHours.IsNegative() {
		return nil, fmt.Errorf("%w: empty driving leg must not be negative", ErrInvalidRoute)
	}

	shares, err := normalizeShares(sk)
	if err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(shares)+1)
	if !sk.EmptyDriving.IsZero() {
		country := normalizeCountry(sk.OriginCountry)
		if country == "" {
			country = shares[0].Country
		}
		segments = append(segments, Segment{
			Ordinal:       0,
			Country:       country,
			DistanceKm:    sk.EmptyDriving.DistanceKm,
			DurationHours: sk.EmptyDriving.DurationHours,
			EmptyDriving:  true,
		})
	}

	allocatedKm, allocatedHours := decimal.Zero, decimal.Zero
	for i, share := range shares {
		km := sk.DistanceKm.Mul(share.Fraction).Round(distancePlaces)
		hours := sk.DurationHours.Mul(share.Fraction).Round(durationPlaces)
		if i == len(shares)-1 {
			km = sk.DistanceKm.Sub(allocatedKm)
			hours = sk.DurationHours.Sub(allocatedHours)
		}
		if km.IsNegative() || hours.IsNegative() {
			return nil, fmt.Errorf("%w: country shares over-allocate the route", ErrInvalidRoute)
		}
		allocatedKm = allocatedKm.Add(km)
		allocatedHours = allocatedHours.Add(hours)
		segments = append(segments, Segment{
			Ordinal:       len(segments),
			Country:       share.Country,
			DistanceKm:    km,
			DurationHours: hours,
		})
	}
	return segments, nil
}

func normalizeShares(sk Skeleton) ([]CountryShare, error) {
	if len(sk.Shares) == 0 {
		origin := normalizeCountry(sk.OriginCountry)
		if origin == "" {
			return nil, fmt.Errorf("%w: no country shares and no origin country", ErrInvalidRoute)
		}
		return []CountryShare{{Country: origin, Fraction: decimal.NewFromInt(1)}}, nil
	}

	out := make([]CountryShare, 0, len(sk.Shares))
	sum := decimal.Zero
	one := decimal.NewFromInt(1)
	for _, s := range sk.Shares {
		country := normalizeCountry(s.Country)
		if country == "" {
			return nil, fmt.Errorf("%w: country share without country code", ErrInvalidRoute)
		}
		if !s.Fraction.IsPositive() || s.Fraction.GreaterThan(one) {
			return nil, fmt.Errorf("%w: fraction for %s must be in (0,1], got %s", ErrInvalidRoute, country, s.Fraction)
		}
		sum = sum.Add(s.Fraction)
		out = append(out, CountryShare{Country: country, Fraction: s.Fraction})
	}
	if sum.Sub(one).Abs().GreaterThan(fractionTolerance) {
		return nil, fmt.Errorf("%w: country fractions sum to %s, want 1", ErrInvalidRoute, sum)
	}
	return out, nil
}

func normalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
