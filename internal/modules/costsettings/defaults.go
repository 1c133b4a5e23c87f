package costsettings

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// rateFile mirrors config/default_rates.yaml. Amounts are read as strings
// so they reach decimal.Decimal without a float round trip.
type rateFile struct {
	FuelRates        map[string]string            `yaml:"fuel_rates"`
	TollRates        map[string]map[string]string `yaml:"toll_rates"`
	DriverRates      map[string]string            `yaml:"driver_rates"`
	OverheadRates    map[string]string            `yaml:"overhead_rates"`
	MaintenanceRates map[string]string            `yaml:"maintenance_rates"`
	FuelConsumption  map[string]string            `yaml:"fuel_consumption"`
	CargoRates       struct {
		WeightPerTonne  string            `yaml:"weight_per_tonne"`
		VolumePerM3     string            `yaml:"volume_per_m3"`
		CoolingFactor   string            `yaml:"cooling_factor"`
		HazmatFactor    string            `yaml:"hazmat_factor"`
		SpecialHandling map[string]string `yaml:"special_handling"`
	} `yaml:"cargo_rates"`
	EnabledComponents   []string `yaml:"enabled_components"`
	EmptyDrivingFactors struct {
		Fuel   string `yaml:"fuel"`
		Toll   string `yaml:"toll"`
		Driver string `yaml:"driver"`
	} `yaml:"empty_driving_factors"`
}

// DefaultRates is the built-in table used when no defaults file exists.
func DefaultRates() Rates {
	return Rates{
		FuelRates:   map[string]decimal.Decimal{"PL": decimal.RequireFromString("1.50"), "DE": DefaultFuelRate},
		TollRates:   map[string]map[string]decimal.Decimal{"PL": {"standard": DefaultTollRate}, "DE": {"standard": decimal.RequireFromString("0.19")}},
		DriverRates: map[string]decimal.Decimal{"PL": DefaultDriverRate, "DE": decimal.RequireFromString("35")},
		MaintenanceRates: map[string]decimal.Decimal{
			"standard": DefaultMaintenanceRate,
		},
		FuelConsumption:     map[string]decimal.Decimal{"standard": DefaultFuelConsumption},
		OverheadRates:       map[string]decimal.Decimal{},
		Cargo:               DefaultCargoRates(),
		EnabledComponents:   AllEnabled().Strings(),
		EmptyDrivingFactors: DefaultEmptyDrivingFactors(),
	}
}

// LoadDefaults reads a YAML rate table from path. A missing file yields
// DefaultRates.
func LoadDefaults(path string) (Rates, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultRates(), nil
	}
	if err != nil {
		return Rates{}, fmt.Errorf("open default rates: %w", err)
	}
	defer f.Close()
	return DecodeDefaults(f)
}

// DecodeDefaults parses a YAML rate table. Omitted cargo rates and
// empty-driving factors take their built-in values.
func DecodeDefaults(r io.Reader) (Rates, error) {
	var raw rateFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Rates{}, fmt.Errorf("decode default rates: %w", err)
	}

	var out Rates
	p := &parser{}
	out.FuelRates = p.table("fuel_rates", raw.FuelRates)
	out.DriverRates = p.table("driver_rates", raw.DriverRates)
	out.OverheadRates = p.table("overhead_rates", raw.OverheadRates)
	out.MaintenanceRates = p.table("maintenance_rates", raw.MaintenanceRates)
	out.FuelConsumption = p.table("fuel_consumption", raw.FuelConsumption)
	out.TollRates = make(map[string]map[string]decimal.Decimal, len(raw.TollRates))
	for country, byVehicle := range raw.TollRates {
		out.TollRates[country] = p.table("toll_rates."+country, byVehicle)
	}

	cargo := DefaultCargoRates()
	out.Cargo = CargoRates{
		WeightPerTonne:  p.value("cargo_rates.weight_per_tonne", raw.CargoRates.WeightPerTonne, cargo.WeightPerTonne),
		VolumePerM3:     p.value("cargo_rates.volume_per_m3", raw.CargoRates.VolumePerM3, cargo.VolumePerM3),
		CoolingFactor:   p.value("cargo_rates.cooling_factor", raw.CargoRates.CoolingFactor, cargo.CoolingFactor),
		HazmatFactor:    p.value("cargo_rates.hazmat_factor", raw.CargoRates.HazmatFactor, cargo.HazmatFactor),
		SpecialHandling: p.table("cargo_rates.special_handling", raw.CargoRates.SpecialHandling),
	}

	factors := DefaultEmptyDrivingFactors()
	out.EmptyDrivingFactors = EmptyDrivingFactors{
		Fuel:   p.value("empty_driving_factors.fuel", raw.EmptyDrivingFactors.Fuel, factors.Fuel),
		Toll:   p.value("empty_driving_factors.toll", raw.EmptyDrivingFactors.Toll, factors.Toll),
		Driver: p.value("empty_driving_factors.driver", raw.EmptyDrivingFactors.Driver, factors.Driver),
	}
	out.EnabledComponents = raw.EnabledComponents

	if p.err != nil {
		return Rates{}, p.err
	}
	return out, nil
}

// parser keeps the first decode error so the table code stays linear.
type parser struct {
	err error
}

func (p *parser) value(field, raw string, fallback decimal.Decimal) decimal.Decimal {
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("decode default rates: %s: %w", field, err)
	}
	return v
}

func (p *parser) table(field string, in map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, raw := range in {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			if p.err == nil {
				p.err = fmt.Errorf("decode default rates: %s[%s]: %w", field, k, err)
			}
			continue
		}
		out[k] = v
	}
	return out
}
