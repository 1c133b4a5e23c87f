package route

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadapp/internal/testutil/pgtest"
)

func TestStoreSaveAndGet(t *testing.T) {
	db := pgtest.Open(t, "route_segments", "routes")
	store := NewStore(db)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	r := &Route{
		ID:            "r1",
		Origin:        Location{Address: "Warsaw", CountryCode: "PL"},
		Destination:   Location{Address: "Berlin", CountryCode: "DE"},
		PickupTime:    at,
		DeliveryTime:  at.Add(10 * time.Hour),
		DistanceKm:    d("575"),
		DurationHours: d("8"),
		Shares:        []CountryShare{{Country: "PL", Fraction: d("0.6")}, {Country: "DE", Fraction: d("0.4")}},
		EmptyDriving:  EmptyDriving{DistanceKm: d("200"), DurationHours: d("4")},
		TransportType: "standard",
		Cargo:         &CargoSpecification{WeightKg: d("12000"), VolumeM3: d("40"), SpecialRequirements: []string{"fragile"}},
		CreatedAt:     at,
	}
	segments, err := Split(r.Skeleton())
	require.NoError(t, err)
	r.Segments = segments
	require.NoError(t, store.Save(ctx, r))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.True(t, got.DistanceKm.Equal(d("575")))
	assert.Equal(t, "DE", got.Destination.CountryCode)
	require.Len(t, got.Segments, 3)
	assert.True(t, got.Segments[0].EmptyDriving)
	assert.Equal(t, "PL", got.Segments[1].Country)
	assert.True(t, got.Segments[1].DistanceKm.Equal(d("345")))
	assert.True(t, got.Segments[2].DistanceKm.Equal(d("230")))
	require.NotNil(t, got.Cargo)
	assert.Equal(t, []string{"fragile"}, got.Cargo.SpecialRequirements)

	// Saving again replaces the segments.
	r.EmptyDriving = EmptyDriving{}
	r.Segments, err = Split(r.Skeleton())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, r))
	got, err = store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got.Segments, 2)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
