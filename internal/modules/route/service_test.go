package route

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	res DistanceResult
	err error
}

func (p stubProvider) RouteDistance(_ context.Context, _, _ Location) (DistanceResult, error) {
	return p.res, p.err
}

func mustTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return ts
}

func TestServicePlan(t *testing.T) {
	repo := NewMemoryStore()
	provider := stubProvider{res: DistanceResult{
		DistanceKm:         310,
		DurationHours:      3.5,
		OriginCountry:      "PL",
		DestinationCountry: "PL",
	}}
	svc := NewService(repo, provider, pocEmptyLeg(), nil)
	svc.now = func() time.Time { return mustTime(t, "2026-03-02T08:00:00Z") }

	r, err := svc.Plan(context.Background(), PlanCommand{
		Origin:      Location{Address: "Warsaw"},
		Destination: Location{Address: "Poznan"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "PL", r.Origin.CountryCode)
	assert.Equal(t, DefaultTransportType, r.TransportType)
	assert.Equal(t, mustTime(t, "2026-03-02T11:30:00Z"), r.DeliveryTime)
	require.Len(t, r.Segments, 2)
	assert.True(t, r.Segments[0].EmptyDriving)

	stored, err := svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, stored.ID)
}

func TestServicePlanErrors(t *testing.T) {
	ctx := context.Background()

	svc := NewService(NewMemoryStore(), stubProvider{}, pocEmptyLeg(), nil)
	_, err := svc.Plan(ctx, PlanCommand{Origin: Location{Address: "Warsaw"}})
	assert.ErrorIs(t, err, ErrBadRequest)

	lookupErr := errors.New("maps down")
	svc = NewService(NewMemoryStore(), stubProvider{err: lookupErr}, pocEmptyLeg(), nil)
	_, err = svc.Plan(ctx, PlanCommand{Origin: Location{Address: "A"}, Destination: Location{Address: "B"}})
	assert.ErrorIs(t, err, lookupErr)

	svc = NewService(NewMemoryStore(), stubProvider{res: DistanceResult{DistanceKm: 0, DurationHours: 1, OriginCountry: "PL"}}, pocEmptyLeg(), nil)
	_, err = svc.Plan(ctx, PlanCommand{Origin: Location{Address: "A"}, Destination: Location{Address: "A"}})
	assert.ErrorIs(t, err, ErrInvalidRoute)

	svc = NewService(NewMemoryStore(), stubProvider{res: DistanceResult{DistanceKm: 10, DurationHours: 1, OriginCountry: "PL"}}, pocEmptyLeg(), nil)
	_, err = svc.Plan(ctx, PlanCommand{
		Origin:       Location{Address: "A"},
		Destination:  Location{Address: "B"},
		PickupTime:   mustTime(t, "2026-03-02T10:00:00Z"),
		DeliveryTime: mustTime(t, "2026-03-02T09:00:00Z"),
	})
	assert.ErrorIs(t, err, ErrInvalidRoute)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
