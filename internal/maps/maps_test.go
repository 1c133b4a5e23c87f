package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"loadapp/internal/modules/route"
)

type fakeMaps struct {
	routes    []maps.Route
	dirErr    error
	countries map[maps.LatLng]string
	geocodes  int
}

func (f *fakeMaps) Directions(context.Context, *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	return f.routes, nil, f.dirErr
}

func (f *fakeMaps) ReverseGeocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	f.geocodes++
	c, ok := f.countries[*r.LatLng]
	if !ok {
		return nil, errors.New("ZERO_RESULTS")
	}
	return []maps.GeocodingResult{{
		AddressComponents: []maps.AddressComponent{{ShortName: c, Types: []string{"country", "political"}}},
	}}, nil
}

func step(meters int, end maps.LatLng) *maps.Step {
	s := &maps.Step{EndLocation: end}
	s.Distance.Meters = meters
	return s
}

var (
	warsaw = maps.LatLng{Lat: 52.23, Lng: 21.01}
	poznan = maps.LatLng{Lat: 52.41, Lng: 16.93}
	border = maps.LatLng{Lat: 52.35, Lng: 14.55}
	berlin = maps.LatLng{Lat: 52.52, Lng: 13.40}
)

func warsawBerlin() []maps.Route {
	leg := &maps.Leg{
		Duration:      6 * time.Hour,
		StartLocation: warsaw,
		EndLocation:   berlin,
		Steps: []*maps.Step{
			step(300000, poznan),
			step(170000, border),
			step(100000, berlin),
		},
	}
	leg.Distance.Meters = 570000
	return []maps.Route{{Legs: []*maps.Leg{leg}}}
}

func TestRouteDistanceGeocodedShares(t *testing.T) {
	fm := &fakeMaps{
		routes:    warsawBerlin(),
		countries: map[maps.LatLng]string{warsaw: "PL", poznan: "PL", border: "pl", berlin: "DE"},
	}
	svc := newRouteService(fm, nil)

	res, err := svc.RouteDistance(context.Background(),
		route.Location{Address: "Warsaw"}, route.Location{Address: "Berlin"})
	require.NoError(t, err)

	assert.InDelta(t, 570.0, res.DistanceKm, 1e-9)
	assert.InDelta(t, 6.0, res.DurationHours, 1e-9)
	assert.Equal(t, "PL", res.OriginCountry)
	assert.Equal(t, "DE", res.DestinationCountry)
	require.Len(t, res.Shares, 2)
	assert.Equal(t, "PL", res.Shares[0].Country)
	assert.Equal(t, "0.8246", res.Shares[0].Fraction.String())
	assert.Equal(t, "DE", res.Shares[1].Country)
	assert.Equal(t, "0.1754", res.Shares[1].Fraction.String())
}

func TestRouteDistanceFallsBackToCorridor(t *testing.T) {
	fm := &fakeMaps{routes: warsawBerlin(), countries: map[maps.LatLng]string{}}
	svc := newRouteService(fm, nil)

	res, err := svc.RouteDistance(context.Background(),
		route.Location{Address: "Warsaw", CountryCode: "PL"}, route.Location{Address: "Berlin", CountryCode: "DE"})
	require.NoError(t, err)
	require.Len(t, res.Shares, 2)
	assert.Equal(t, "0.6", res.Shares[0].Fraction.String())
	assert.Equal(t, "0.4", res.Shares[1].Fraction.String())
}

func TestRouteDistanceSameCountrySkipsSteps(t *testing.T) {
	fm := &fakeMaps{routes: warsawBerlin()}
	svc := newRouteService(fm, nil)

	res, err := svc.RouteDistance(context.Background(),
		route.Location{Address: "Warsaw", CountryCode: "PL"}, route.Location{Address: "Poznan", CountryCode: "PL"})
	require.NoError(t, err)
	require.Len(t, res.Shares, 1)
	assert.Equal(t, "PL", res.Shares[0].Country)
	assert.Zero(t, fm.geocodes)
}

func TestRouteDistanceErrors(t *testing.T) {
	svc := newRouteService(&fakeMaps{}, nil)
	_, err := svc.RouteDistance(context.Background(), route.Location{Address: "a"}, route.Location{Address: "b"})
	assert.ErrorIs(t, err, ErrNoRoute)

	svc = newRouteService(&fakeMaps{dirErr: errors.New("REQUEST_DENIED")}, nil)
	_, err = svc.RouteDistance(context.Background(), route.Location{Address: "a"}, route.Location{Address: "b"})
	assert.Error(t, err)
}

func TestStepSharesSampling(t *testing.T) {
	var steps []*maps.Step
	countries := map[maps.LatLng]string{}
	for i := 0; i < 100; i++ {
		at := maps.LatLng{Lat: float64(i), Lng: 0}
		steps = append(steps, step(1000, at))
		if i < 50 {
			countries[at] = "PL"
		} else {
			countries[at] = "DE"
		}
	}
	fm := &fakeMaps{countries: countries}
	svc := newRouteService(fm, nil)

	shares := svc.stepShares(context.Background(), steps, "PL")
	assert.LessOrEqual(t, fm.geocodes, maxGeocodedSteps)
	require.Len(t, shares, 2)
	assert.Equal(t, "PL", shares[0].Country)
	assert.Equal(t, "0.48", shares[0].Fraction.String())
	assert.Equal(t, "0.52", shares[1].Fraction.String())
}

func TestCorridorShares(t *testing.T) {
	tests := []struct {
		origin, destination string
		want                []string
	}{
		{"PL", "DE", []string{"PL=0.6", "DE=0.4"}},
		{"DE", "PL", []string{"DE=0.4", "PL=0.6"}},
		{"CZ", "AT", []string{"CZ=0.5", "AT=0.5"}},
		{"PL", "PL", []string{"PL=1"}},
		{"", "DE", []string{"DE=1"}},
		{"", "", nil},
	}
	for _, tt := range tests {
		var got []string
		for _, s := range corridorShares(tt.origin, tt.destination) {
			got = append(got, s.Country+"="+s.Fraction.String())
		}
		assert.Equal(t, tt.want, got, "%s -> %s", tt.origin, tt.destination)
	}
}

func TestMockProvider(t *testing.T) {
	p := MockProvider{}
	res, err := p.RouteDistance(context.Background(),
		route.Location{Address: "Warsaw", CountryCode: "pl"}, route.Location{Address: "Berlin", CountryCode: "DE"})
	require.NoError(t, err)
	assert.Equal(t, 500.0, res.DistanceKm)
	assert.Equal(t, 8.0, res.DurationHours)
	assert.Equal(t, "PL", res.OriginCountry)
	require.Len(t, res.Shares, 2)

	res, err = p.RouteDistance(context.Background(),
		route.Location{Address: "Warsaw", CountryCode: "PL", Coordinates: &route.LatLng{Lat: 52.2297, Lng: 21.0122}},
		route.Location{Address: "Poznan", CountryCode: "PL", Coordinates: &route.LatLng{Lat: 52.4064, Lng: 16.9252}})
	require.NoError(t, err)
	// About 279 km great-circle.
	assert.InDelta(t, 279*roadFactor, res.DistanceKm, 5)
	assert.InDelta(t, res.DistanceKm/averageSpeedKmh, res.DurationHours, 0.001)
	require.Len(t, res.Shares, 1)

	_, err = p.RouteDistance(context.Background(), route.Location{Address: "x"}, route.Location{Address: "y", CountryCode: "DE"})
	assert.ErrorIs(t, err, route.ErrBadRequest)
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, haversineKm(52, 21, 52, 21), 1e-9)
	assert.InDelta(t, 111.19, haversineKm(0, 0, 1, 0), 0.01)
}
