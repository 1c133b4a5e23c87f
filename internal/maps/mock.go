package maps

import (
	"context"
	"fmt"
	"math"
	"strings"

	"loadapp/internal/modules/route"
)

const (
	earthRadiusKm = 6371.0
	// roadFactor converts great-circle distance to an approximate road distance.
	roadFactor      = 1.25
	averageSpeedKmh = 70.0
	mockDistanceKm  = 500.0
	mockDurationH   = 8.0
)

// MockProvider answers without calling out. Distance is derived from
// coordinates when both ends have them, otherwise a fixed 500 km / 8 h.
// Country shares follow the corridor split.
type MockProvider struct{}

func (MockProvider) RouteDistance(_ context.Context, origin, destination route.Location) (route.DistanceResult, error) {
	oc := strings.ToUpper(strings.TrimSpace(origin.CountryCode))
	dc := strings.ToUpper(strings.TrimSpace(destination.CountryCode))
	if oc == "" || dc == "" {
		return route.DistanceResult{}, fmt.Errorf("%w: mock provider needs country codes", route.ErrBadRequest)
	}

	km, hours := mockDistanceKm, mockDurationH
	if origin.Coordinates != nil && destination.Coordinates != nil {
		km = haversineKm(origin.Coordinates.Lat, origin.Coordinates.Lng, destination.Coordinates.Lat, destination.Coordinates.Lng) * roadFactor
		hours = km / averageSpeedKmh
	}
	if km <= 0 {
		return route.DistanceResult{}, ErrNoRoute
	}
	return route.DistanceResult{
		DistanceKm:         math.Round(km*1000) / 1000,
		DurationHours:      math.Round(hours*10000) / 10000,
		Shares:             corridorShares(oc, dc),
		OriginCountry:      oc,
		DestinationCountry: dc,
	}, nil
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
