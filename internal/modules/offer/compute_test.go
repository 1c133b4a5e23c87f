package offer

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/route"
)

// warsawPoznan is left unsegmented; Compute segments it.
func warsawPoznan() *route.Route {
	return &route.Route{
		ID:            "r1",
		Origin:        route.Location{Address: "Warsaw", CountryCode: "PL"},
		Destination:   route.Location{Address: "Poznan", CountryCode: "PL"},
		DistanceKm:    d("310"),
		DurationHours: d("3.5"),
		EmptyDriving:  route.EmptyDriving{DistanceKm: d("200"), DurationHours: d("4")},
		TransportType: "standard",
	}
}

func plSettings() costsettings.CostSettings {
	return costsettings.New(costsettings.Rates{
		FuelRates:           map[string]decimal.Decimal{"PL": d("1.5")},
		TollRates:           map[string]map[string]decimal.Decimal{"PL": {"standard": d("0.15")}},
		DriverRates:         map[string]decimal.Decimal{"PL": d("25")},
		FuelConsumption:     map[string]decimal.Decimal{"standard": d("0.28")},
		EnabledComponents:   []string{"fuel", "toll", "driver"},
		Cargo:               costsettings.DefaultCargoRates(),
		EmptyDrivingFactors: costsettings.DefaultEmptyDrivingFactors(),
	}, costsettings.Meta{ID: "s1"})
}

func TestCompute(t *testing.T) {
	r := warsawPoznan()
	o, err := Compute(r, plSettings(), d("0.15"), nil, "fact", ComputeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "461.40", o.TotalCost.StringFixed(2))
	assert.Equal(t, "530.61", o.FinalPrice.StringFixed(2))
	assert.Equal(t, "r1", o.RouteID)
	assert.Equal(t, "fact", o.FunFact)
	assert.Empty(t, o.SettingsViolations)
	assert.Empty(t, r.Segments, "input route must not be modified")
}

func TestComputeInvalidMarginProducesNoOffer(t *testing.T) {
	o, err := Compute(warsawPoznan(), plSettings(), d("1.5"), nil, "", ComputeOptions{})
	assert.True(t, errors.Is(err, ErrInvalidMargin))
	assert.Equal(t, Offer{}, o)
}

func TestComputeInvalidRoute(t *testing.T) {
	r := warsawPoznan()
	r.DistanceKm = d("0")
	_, err := Compute(r, plSettings(), d("0.1"), nil, "", ComputeOptions{})
	assert.True(t, errors.Is(err, route.ErrInvalidRoute))

	_, err = Compute(nil, plSettings(), d("0.1"), nil, "", ComputeOptions{})
	assert.True(t, errors.Is(err, route.ErrInvalidRoute))
}

func TestComputeInvalidRates(t *testing.T) {
	rates := plSettings().Rates()
	rates.FuelRates["PL"] = d("-1")
	bad := costsettings.New(rates, costsettings.Meta{ID: "s2"})

	_, err := Compute(warsawPoznan(), bad, d("0.1"), nil, "", ComputeOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, costsettings.ErrInvalidRateConfiguration))
	var cfgErr *costsettings.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.NotEmpty(t, cfgErr.Violations)

	o, err := Compute(warsawPoznan(), bad, d("0.1"), nil, "", ComputeOptions{ProceedWithDefaults: true})
	require.NoError(t, err)
	assert.NotEmpty(t, o.SettingsViolations)
	// Negative PL fuel rate dropped so the 1.60 default applies: 138.88 loaded + 71.68 empty.
	assert.Equal(t, "210.56", o.Breakdown.Amount(costsettings.ComponentFuel).StringFixed(2))
	assert.NotEmpty(t, o.Breakdown.Warnings())
}
