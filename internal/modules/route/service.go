// README: Route service plans routes through a distance provider, segments and persists them.
package route

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DistanceResult is what a mapping provider knows about an origin/destination pair.
type DistanceResult struct {
	DistanceKm         float64
	DurationHours      float64
	Shares             []CountryShare
	OriginCountry      string
	DestinationCountry string
}

// DistanceProvider looks up road distance, duration and country fractions.
type DistanceProvider interface {
	RouteDistance(ctx context.Context, origin, destination Location) (DistanceResult, error)
}

type Repository interface {
	Save(ctx context.Context, r *Route) error
	Get(ctx context.Context, id string) (*Route, error)
}

type Service struct {
	store    Repository
	provider DistanceProvider
	emptyLeg EmptyDriving
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Repository, provider DistanceProvider, emptyLeg EmptyDriving, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, provider: provider, emptyLeg: emptyLeg, logger: logger, now: time.Now}
}

type PlanCommand struct {
	Origin        Location
	Destination   Location
	PickupTime    time.Time
	DeliveryTime  time.Time
	TransportType string
	Cargo         *CargoSpecification
}

// Plan fetches distance data, builds and segments the route, and stores it.
func (s *Service) Plan(ctx context.Context, cmd PlanCommand) (*Route, error) {
	if strings.TrimSpace(cmd.Origin.Address) == "" || strings.TrimSpace(cmd.Destination.Address) == "" {
		return nil, fmt.Errorf("%w: origin and destination addresses are required", ErrBadRequest)
	}
	if cmd.Cargo != nil {
		if err := cmd.Cargo.Validate(); err != nil {
			return nil, err
		}
	}

	res, err := s.provider.RouteDistance(ctx, cmd.Origin, cmd.Destination)
	if err != nil {
		return nil, fmt.Errorf("route distance lookup: %w", err)
	}
	if res.DistanceKm < 0 || res.DurationHours < 0 {
		return nil, fmt.Errorf("%w: provider returned negative distance or duration", ErrInvalidRoute)
	}

	origin, destination := cmd.Origin, cmd.Destination
	if origin.CountryCode == "" {
		origin.CountryCode = res.OriginCountry
	}
	if destination.CountryCode == "" {
		destination.CountryCode = res.DestinationCountry
	}

	now := s.now().UTC()
	pickup := cmd.PickupTime
	if pickup.IsZero() {
		pickup = now
	}
	delivery := cmd.DeliveryTime
	if delivery.IsZero() {
		delivery = pickup.Add(time.Duration(res.DurationHours * float64(time.Hour)))
	}

	transport := strings.ToLower(strings.TrimSpace(cmd.TransportType))
	if transport == "" {
		transport = DefaultTransportType
	}

	r := &Route{
		ID:            uuid.NewString(),
		Origin:        origin,
		Destination:   destination,
		PickupTime:    pickup,
		DeliveryTime:  delivery,
		DistanceKm:    decimal.NewFromFloat(res.DistanceKm).Round(distancePlaces),
		DurationHours: decimal.NewFromFloat(res.DurationHours).Round(durationPlaces),
		Shares:        res.Shares,
		EmptyDriving:  s.emptyLeg,
		TransportType: transport,
		Cargo:         cmd.Cargo,
		CreatedAt:     now,
	}
	segments, err := Split(r.Skeleton())
	if err != nil {
		return nil, err
	}
	r.Segments = segments
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save route: %w", err)
	}
	s.logger.Info("route planned",
		zap.String("route_id", r.ID),
		zap.String("distance_km", r.DistanceKm.String()),
		zap.Int("segments", len(r.Segments)),
	)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Route, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}
