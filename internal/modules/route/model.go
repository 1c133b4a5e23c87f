// README: Route aggregate, locations, cargo specification and country segments.
package route

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRoute = errors.New("invalid route")
	ErrNotFound     = errors.New("route not found")
	ErrBadRequest   = errors.New("bad request")
)

// DefaultTransportType is used when a route does not name a vehicle class.
const DefaultTransportType = "standard"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is an immutable address value. Coordinates are optional.
type Location struct {
	Address     string  `json:"address"`
	CountryCode string  `json:"country_code"`
	Coordinates *LatLng `json:"coordinates,omitempty"`
}

// CountryShare is one country's fraction of a route's loaded distance.
type CountryShare struct {
	Country  string          `json:"country"`
	Fraction decimal.Decimal `json:"fraction"`
}

// EmptyDriving is the unladen repositioning leg driven before pickup.
// The zero value means the route has no empty leg.
type EmptyDriving struct {
	DistanceKm    decimal.Decimal `json:"distance_km"`
	DurationHours decimal.Decimal `json:"duration_hours"`
}

func (e EmptyDriving) IsZero() bool {
	return e.DistanceKm.IsZero() && e.DurationHours.IsZero()
}

// Segment is the part of a route driven inside one country. Segments are
// never edited; re-segmenting a route replaces them.
type Segment struct {
	Ordinal       int             `json:"ordinal"`
	Country       string          `json:"country"`
	DistanceKm    decimal.Decimal `json:"distance_km"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	EmptyDriving  bool            `json:"is_empty_driving"`
}

type CargoSpecification struct {
	WeightKg            decimal.Decimal `json:"weight_kg"`
	VolumeM3            decimal.Decimal `json:"volume_m3"`
	RequiresCooling     bool            `json:"requires_cooling"`
	HazmatClass         string          `json:"hazmat_class,omitempty"`
	SpecialRequirements []string        `json:"special_requirements,omitempty"`
}

func (c CargoSpecification) Validate() error {
	if c.WeightKg.IsNegative() {
		return fmt.Errorf("%w: cargo weight must not be negative", ErrBadRequest)
	}
	if c.VolumeM3.IsNegative() {
		return fmt.Errorf("%w: cargo volume must not be negative", ErrBadRequest)
	}
	return nil
}

// Requirements returns the special requirement tags lower-cased, de-duplicated and sorted.
func (c CargoSpecification) Requirements() []string {
	seen := make(map[string]struct{}, len(c.SpecialRequirements))
	out := make([]string, 0, len(c.SpecialRequirements))
	for _, tag := range c.SpecialRequirements {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

type Route struct {
	ID            string              `json:"id"`
	Origin        Location            `json:"origin"`
	Destination   Location            `json:"destination"`
	PickupTime    time.Time           `json:"pickup_time"`
	DeliveryTime  time.Time           `json:"delivery_time"`
	DistanceKm    decimal.Decimal     `json:"distance_km"`
	DurationHours decimal.Decimal     `json:"duration_hours"`
	Shares        []CountryShare      `json:"country_shares"`
	EmptyDriving  EmptyDriving        `json:"empty_driving"`
	Segments      []Segment           `json:"segments"`
	TransportType string              `json:"transport_type"`
	Cargo         *CargoSpecification `json:"cargo,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Skeleton returns the inputs segmentation works from.
func (r Route) Skeleton() Skeleton {
	return Skeleton{
		OriginCountry: r.Origin.CountryCode,
		DistanceKm:    r.DistanceKm,
		DurationHours: r.DurationHours,
		Shares:        r.Shares,
		EmptyDriving:  r.EmptyDriving,
	}
}

// VehicleType is the transport type or the default class when unset.
func (r Route) VehicleType() string {
	if t := strings.TrimSpace(r.TransportType); t != "" {
		return strings.ToLower(t)
	}
	return DefaultTransportType
}

// SegmentDistanceKm is the distance actually driven, empty leg included.
func (r Route) SegmentDistanceKm() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range r.Segments {
		sum = sum.Add(s.DistanceKm)
	}
	return sum
}

func (r Route) SegmentDurationHours() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range r.Segments {
		sum = sum.Add(s.DurationHours)
	}
	return sum
}

// Validate checks the structural invariants the cost pipeline relies on.
func (r Route) Validate() error {
	if !r.PickupTime.IsZero() && !r.DeliveryTime.IsZero() && !r.DeliveryTime.After(r.PickupTime) {
		return fmt.Errorf("%w: delivery time must be after pickup time", ErrInvalidRoute)
	}
	if !r.DistanceKm.IsPositive() || !r.DurationHours.IsPositive() {
		return fmt.Errorf("%w: distance and duration must be positive", ErrInvalidRoute)
	}
	if len(r.Segments) == 0 {
		return fmt.Errorf("%w: route has no segments", ErrInvalidRoute)
	}
	for _, s := range r.Segments {
		if s.DistanceKm.IsNegative() || s.DurationHours.IsNegative() {
			return fmt.Errorf("%w: segment %d has negative distance or duration", ErrInvalidRoute, s.Ordinal)
		}
	}
	wantKm := r.DistanceKm.Add(r.EmptyDriving.DistanceKm)
	wantHours := r.DurationHours.Add(r.EmptyDriving.DurationHours)
	if !r.SegmentDistanceKm().Equal(wantKm) {
		return fmt.Errorf("%w: segments sum to %s km, want %s", ErrInvalidRoute, r.SegmentDistanceKm(), wantKm)
	}
	if !r.SegmentDurationHours().Equal(wantHours) {
		return fmt.Errorf("%w: segments sum to %s h, want %s", ErrInvalidRoute, r.SegmentDurationHours(), wantHours)
	}
	return nil
}
