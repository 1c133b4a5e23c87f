package costsettings

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// ConfigurationError lists every rule a settings version breaks.
type ConfigurationError struct {
	Violations []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRateConfiguration, strings.Join(e.Violations, "; "))
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidRateConfiguration }

// Validate reports rule violations in a stable order. An empty result means
// the settings are usable as is.
func (s CostSettings) Validate() []string {
	var out []string
	r := s.rates

	out = append(out, negativeRates("fuel_rates", r.FuelRates)...)
	for _, country := range sortedKeys(r.TollRates) {
		if !isCountry(country) {
			out = append(out, fmt.Sprintf("toll_rates: %q is not an ISO 3166 country code", country))
		}
		for _, vehicle := range sortedKeys(r.TollRates[country]) {
			if !KnownVehicle(vehicle) {
				out = append(out, fmt.Sprintf("toll_rates[%s]: unknown vehicle type %q", country, vehicle))
			}
			if rate := r.TollRates[country][vehicle]; rate.IsNegative() {
				out = append(out, fmt.Sprintf("toll_rates[%s][%s] must not be negative (got %s)", country, vehicle, rate))
			}
		}
	}
	out = append(out, negativeRates("driver_rates", r.DriverRates)...)
	out = append(out, negativeRates("overhead_rates", r.OverheadRates)...)
	out = append(out, negativeRates("maintenance_rates", r.MaintenanceRates)...)
	out = append(out, negativeRates("fuel_consumption", r.FuelConsumption)...)

	c := r.Cargo
	for _, kv := range []namedRate{
		{"weight_per_tonne", c.WeightPerTonne},
		{"volume_per_m3", c.VolumePerM3},
		{"cooling_factor", c.CoolingFactor},
		{"hazmat_factor", c.HazmatFactor},
	} {
		if kv.v.IsNegative() {
			out = append(out, fmt.Sprintf("cargo_rates.%s must not be negative (got %s)", kv.name, kv.v))
		}
	}
	out = append(out, negativeRates("cargo_rates.special_handling", c.SpecialHandling)...)

	f := r.EmptyDrivingFactors
	for _, kv := range []namedRate{{"fuel", f.Fuel}, {"toll", f.Toll}, {"driver", f.Driver}} {
		if kv.v.IsNegative() {
			out = append(out, fmt.Sprintf("empty_driving_factors.%s must not be negative (got %s)", kv.name, kv.v))
		}
	}

	for _, name := range s.unknown {
		out = append(out, fmt.Sprintf("enabled_components: unknown component %q", name))
	}
	return out
}

// Check returns a ConfigurationError when Validate reports anything.
func (s CostSettings) Check() error {
	if v := s.Validate(); len(v) > 0 {
		return &ConfigurationError{Violations: v}
	}
	return nil
}

// Sanitized returns a copy with offending entries removed so a calculation
// can proceed on defaults: negative rates and bad toll keys are dropped,
// negative cargo rates and factors fall back to built-in values and
// unknown component names are ignored.
func (s CostSettings) Sanitized() CostSettings {
	out := CostSettings{meta: s.meta, rates: s.rates.Clone(), enabled: s.enabled}
	r := &out.rates

	dropNegative(r.FuelRates)
	dropNegative(r.DriverRates)
	dropNegative(r.OverheadRates)
	dropNegative(r.MaintenanceRates)
	dropNegative(r.FuelConsumption)
	dropNegative(r.Cargo.SpecialHandling)
	for country, byVehicle := range r.TollRates {
		if !isCountry(country) {
			delete(r.TollRates, country)
			continue
		}
		for vehicle, rate := range byVehicle {
			if rate.IsNegative() || !KnownVehicle(vehicle) {
				delete(byVehicle, vehicle)
			}
		}
	}

	defCargo := DefaultCargoRates()
	r.Cargo.WeightPerTonne = nonNegative(r.Cargo.WeightPerTonne, defCargo.WeightPerTonne)
	r.Cargo.VolumePerM3 = nonNegative(r.Cargo.VolumePerM3, defCargo.VolumePerM3)
	r.Cargo.CoolingFactor = nonNegative(r.Cargo.CoolingFactor, defCargo.CoolingFactor)
	r.Cargo.HazmatFactor = nonNegative(r.Cargo.HazmatFactor, defCargo.HazmatFactor)

	defFactors := DefaultEmptyDrivingFactors()
	r.EmptyDrivingFactors.Fuel = nonNegative(r.EmptyDrivingFactors.Fuel, defFactors.Fuel)
	r.EmptyDrivingFactors.Toll = nonNegative(r.EmptyDrivingFactors.Toll, defFactors.Toll)
	r.EmptyDrivingFactors.Driver = nonNegative(r.EmptyDrivingFactors.Driver, defFactors.Driver)
	return out
}

type namedRate struct {
	name string
	v    decimal.Decimal
}

func negativeRates(table string, m map[string]decimal.Decimal) []string {
	var out []string
	for _, k := range sortedKeys(m) {
		if v := m[k]; v.IsNegative() {
			out = append(out, fmt.Sprintf("%s[%s] must not be negative (got %s)", table, k, v))
		}
	}
	return out
}

func dropNegative(m map[string]decimal.Decimal) {
	for k, v := range m {
		if v.IsNegative() {
			delete(m, k)
		}
	}
}

func nonNegative(v, fallback decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return fallback
	}
	return v
}

func isCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	region, err := language.ParseRegion(code)
	return err == nil && region.IsCountry()
}
