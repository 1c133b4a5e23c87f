package route

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pocEmptyLeg() EmptyDriving {
	return EmptyDriving{DistanceKm: d("200"), DurationHours: d("4")}
}

func TestSegmentSingleCountryWithEmptyLeg(t *testing.T) {
	segs, err := Split(Skeleton{
		OriginCountry: "pl",
		DistanceKm:    d("310"),
		DurationHours: d("3.5"),
		EmptyDriving:  pocEmptyLeg(),
	})
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.True(t, segs[0].EmptyDriving)
	assert.Equal(t, "PL", segs[0].Country)
	assert.Equal(t, 0, segs[0].Ordinal)
	assert.True(t, segs[0].DistanceKm.Equal(d("200")))
	assert.True(t, segs[0].DurationHours.Equal(d("4")))

	assert.False(t, segs[1].EmptyDriving)
	assert.Equal(t, "PL", segs[1].Country)
	assert.Equal(t, 1, segs[1].Ordinal)
	assert.True(t, segs[1].DistanceKm.Equal(d("310")))
	assert.True(t, segs[1].DurationHours.Equal(d("3.5")))
}

func TestSegmentWithoutEmptyLeg(t *testing.T) {
	segs, err := Split(Skeleton{OriginCountry: "DE", DistanceKm: d("100"), DurationHours: d("1.5")})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.False(t, segs[0].EmptyDriving)
	assert.Equal(t, "DE", segs[0].Country)
}

func TestSegmentSplitsByCountryShares(t *testing.T) {
	segs, err := Split(Skeleton{
		OriginCountry: "PL",
		DistanceKm:    d("575"),
		DurationHours: d("6.25"),
		Shares: []CountryShare{
			{Country: "PL", Fraction: d("0.6")},
			{Country: "DE", Fraction: d("0.4")},
		},
		EmptyDriving: pocEmptyLeg(),
	})
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.Equal(t, []string{"PL", "PL", "DE"}, []string{segs[0].Country, segs[1].Country, segs[2].Country})
	assert.True(t, segs[1].DistanceKm.Equal(d("345")))
	assert.True(t, segs[2].DistanceKm.Equal(d("230")))
	assert.True(t, segs[1].DurationHours.Equal(d("3.75")))
	assert.True(t, segs[2].DurationHours.Equal(d("2.5")))
}

func TestSegmentSumsAreExact(t *testing.T) {
	cases := []struct {
		name   string
		km     string
		hours  string
		shares []CountryShare
	}{
		{"thirds", "1000", "10", []CountryShare{{"PL", d("0.3333")}, {"CZ", d("0.3333")}, {"AT", d("0.3334")}}},
		{"odd distance", "123.457", "2.3331", []CountryShare{{"DE", d("0.7")}, {"NL", d("0.3")}}},
		{"tolerance", "999.999", "9.9999", []CountryShare{{"FR", d("0.5")}, {"BE", d("0.4995")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sk := Skeleton{OriginCountry: tc.shares[0].Country, DistanceKm: d(tc.km), DurationHours: d(tc.hours), Shares: tc.shares, EmptyDriving: pocEmptyLeg()}
			segs, err := Split(sk)
			require.NoError(t, err)

			km, hours := decimal.Zero, decimal.Zero
			for i, s := range segs {
				assert.Equal(t, i, s.Ordinal)
				km = km.Add(s.DistanceKm)
				hours = hours.Add(s.DurationHours)
			}
			assert.True(t, km.Equal(d(tc.km).Add(d("200"))), "km sum %s", km)
			assert.True(t, hours.Equal(d(tc.hours).Add(d("4"))), "hours sum %s", hours)
		})
	}
}

func TestSegmentRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		sk   Skeleton
	}{
		{"zero distance", Skeleton{OriginCountry: "PL", DistanceKm: d("0"), DurationHours: d("1")}},
		{"negative distance", Skeleton{OriginCountry: "PL", DistanceKm: d("-5"), DurationHours: d("1")}},
		{"zero duration", Skeleton{OriginCountry: "PL", DistanceKm: d("10"), DurationHours: d("0")}},
		{"no country", Skeleton{DistanceKm: d("10"), DurationHours: d("1")}},
		{"fractions short", Skeleton{DistanceKm: d("10"), DurationHours: d("1"), Shares: []CountryShare{{"PL", d("0.5")}, {"DE", d("0.4")}}}},
		{"fraction above one", Skeleton{DistanceKm: d("10"), DurationHours: d("1"), Shares: []CountryShare{{"PL", d("1.2")}}}},
		{"zero fraction", Skeleton{DistanceKm: d("10"), DurationHours: d("1"), Shares: []CountryShare{{"PL", d("1")}, {"DE", d("0")}}}},
		{"negative empty leg", Skeleton{OriginCountry: "PL", DistanceKm: d("10"), DurationHours: d("1"), EmptyDriving: EmptyDriving{DistanceKm: d("-1")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split(tc.sk)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRoute), "got %v", err)
		})
	}
}

func TestRouteValidate(t *testing.T) {
	segs, err := Split(Skeleton{OriginCountry: "PL", DistanceKm: d("310"), DurationHours: d("3.5"), EmptyDriving: pocEmptyLeg()})
	require.NoError(t, err)

	r := Route{
		DistanceKm:    d("310"),
		DurationHours: d("3.5"),
		EmptyDriving:  pocEmptyLeg(),
		Segments:      segs,
	}
	require.NoError(t, r.Validate())
	assert.True(t, r.SegmentDistanceKm().Equal(d("510")))

	broken := r
	broken.Segments = append([]Segment(nil), segs...)
	broken.Segments[1].DistanceKm = d("300")
	assert.ErrorIs(t, broken.Validate(), ErrInvalidRoute)

	backwards := r
	backwards.PickupTime = mustTime(t, "2026-03-02T10:00:00Z")
	backwards.DeliveryTime = mustTime(t, "2026-03-02T09:00:00Z")
	assert.ErrorIs(t, backwards.Validate(), ErrInvalidRoute)
}

func TestCargoRequirementsNormalized(t *testing.T) {
	c := CargoSpecification{SpecialRequirements: []string{" Fragile", "tail_lift", "fragile", ""}}
	assert.Equal(t, []string{"fragile", "tail_lift"}, c.Requirements())
	assert.ErrorIs(t, CargoSpecification{WeightKg: d("-1")}.Validate(), ErrBadRequest)
}
