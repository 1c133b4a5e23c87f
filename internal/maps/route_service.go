// README: Google Directions + reverse geocoding distance provider.
package maps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"loadapp/internal/modules/route"
)

// maxGeocodedSteps bounds reverse geocoding calls per route lookup.
const maxGeocodedSteps = 25

type mapsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client mapsClient
	logger *zap.Logger
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string, logger *zap.Logger) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newRouteService(client, logger), nil
}

func newRouteService(client mapsClient, logger *zap.Logger) *RouteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteService{client: client, logger: logger}
}

// RouteDistance returns the driving distance and duration between origin and
// destination and the share of distance driven in each country. Country
// shares come from reverse geocoding sampled step end points; when that
// yields nothing the corridor split is used.
func (s *RouteService) RouteDistance(ctx context.Context, origin, destination route.Location) (route.DistanceResult, error) {
	req := &maps.DirectionsRequest{
		Origin:      waypoint(origin),
		Destination: waypoint(destination),
		Mode:        maps.TravelModeDriving,
		Units:       maps.UnitsMetric,
	}
	routes, _, err := s.client.Directions(ctx, req)
	if err != nil {
		return route.DistanceResult{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return route.DistanceResult{}, ErrNoRoute
	}

	var meters int
	var duration time.Duration
	var steps []*maps.Step
	legs := routes[0].Legs
	for _, leg := range legs {
		meters += leg.Distance.Meters
		duration += leg.Duration
		steps = append(steps, leg.Steps...)
	}
	if meters <= 0 {
		return route.DistanceResult{}, ErrNoRoute
	}

	res := route.DistanceResult{
		DistanceKm:         float64(meters) / 1000,
		DurationHours:      duration.Hours(),
		OriginCountry:      strings.ToUpper(origin.CountryCode),
		DestinationCountry: strings.ToUpper(destination.CountryCode),
	}
	if res.OriginCountry == "" {
		res.OriginCountry = s.country(ctx, legs[0].StartLocation)
	}
	if res.DestinationCountry == "" {
		res.DestinationCountry = s.country(ctx, legs[len(legs)-1].EndLocation)
	}

	if res.OriginCountry != "" && res.OriginCountry == res.DestinationCountry {
		res.Shares = corridorShares(res.OriginCountry, res.DestinationCountry)
		return res, nil
	}
	res.Shares = s.stepShares(ctx, steps, res.OriginCountry)
	if len(res.Shares) == 0 {
		res.Shares = corridorShares(res.OriginCountry, res.DestinationCountry)
	}
	s.logger.Debug("route distance resolved",
		zap.Float64("distance_km", res.DistanceKm),
		zap.Int("steps", len(steps)),
		zap.Int("countries", len(res.Shares)),
	)
	return res, nil
}

// stepShares attributes step distance to the country of the next sampled
// step end point. It returns nil when no sample could be geocoded.
func (s *RouteService) stepShares(ctx context.Context, steps []*maps.Step, originCountry string) []route.CountryShare {
	if len(steps) == 0 {
		return nil
	}
	stride := (len(steps) + maxGeocodedSteps - 1) / maxGeocodedSteps

	var dist countryDistances
	current := originCountry
	pending := 0
	resolved := false
	for i, st := range steps {
		pending += st.Distance.Meters
		if (i+1)%stride != 0 && i != len(steps)-1 {
			continue
		}
		if c := s.country(ctx, st.EndLocation); c != "" {
			current = c
			resolved = true
		}
		if current == "" {
			continue
		}
		dist.add(current, pending)
		pending = 0
	}
	if !resolved {
		return nil
	}
	return dist.shares()
}

func (s *RouteService) country(ctx context.Context, at maps.LatLng) string {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:     &at,
		ResultType: []string{"country"},
	})
	if err != nil {
		s.logger.Debug("reverse geocode failed", zap.Float64("lat", at.Lat), zap.Float64("lng", at.Lng), zap.Error(err))
		return ""
	}
	for _, r := range results {
		for _, c := range r.AddressComponents {
			for _, t := range c.Types {
				if t == "country" {
					return strings.ToUpper(c.ShortName)
				}
			}
		}
	}
	return ""
}

func waypoint(l route.Location) string {
	if l.Coordinates != nil {
		return fmt.Sprintf("%f,%f", l.Coordinates.Lat, l.Coordinates.Lng)
	}
	return l.Address
}
