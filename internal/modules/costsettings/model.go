// README: Versioned cost settings: the rate tables a cost calculation runs against.
package costsettings

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRateConfiguration = errors.New("invalid rate configuration")
	ErrNotFound                 = errors.New("cost settings not found")
	ErrVersionConflict          = errors.New("cost settings version already exists")
)

// Built-in rates substituted when a table has no entry. All amounts are EUR.
var (
	DefaultFuelRate        = decimal.RequireFromString("1.60") // per litre
	DefaultTollRate        = decimal.RequireFromString("0.15") // per km
	DefaultDriverRate      = decimal.RequireFromString("25")   // per hour
	DefaultMaintenanceRate = decimal.RequireFromString("0.15") // per km
	DefaultFuelConsumption = decimal.RequireFromString("0.28") // litres per km
)

// VehicleTypes is the vocabulary accepted as toll and maintenance keys.
var VehicleTypes = []string{"standard", "eco", "heavy", "van", "truck", "trailer", "flatbed_truck"}

func KnownVehicle(v string) bool {
	v = normalizeVehicle(v)
	for _, known := range VehicleTypes {
		if known == v {
			return true
		}
	}
	return false
}

// CargoRates price the load itself.
type CargoRates struct {
	WeightPerTonne  decimal.Decimal            `json:"weight_per_tonne"`
	VolumePerM3     decimal.Decimal            `json:"volume_per_m3"`
	CoolingFactor   decimal.Decimal            `json:"cooling_factor"`
	HazmatFactor    decimal.Decimal            `json:"hazmat_factor"`
	SpecialHandling map[string]decimal.Decimal `json:"special_handling,omitempty"`
}

func DefaultCargoRates() CargoRates {
	return CargoRates{
		WeightPerTonne: decimal.RequireFromString("2.00"),
		VolumePerM3:    decimal.RequireFromString("0.50"),
		CoolingFactor:  decimal.RequireFromString("1.25"),
		HazmatFactor:   decimal.RequireFromString("1.5"),
	}
}

// EmptyDrivingFactors scale the fuel, toll and driver cost of empty segments.
type EmptyDrivingFactors struct {
	Fuel   decimal.Decimal `json:"fuel"`
	Toll   decimal.Decimal `json:"toll"`
	Driver decimal.Decimal `json:"driver"`
}

func DefaultEmptyDrivingFactors() EmptyDrivingFactors {
	return EmptyDrivingFactors{
		Fuel:   decimal.RequireFromString("0.8"),
		Toll:   decimal.NewFromInt(1),
		Driver: decimal.NewFromInt(1),
	}
}

// Rates is the raw, editable form of a rate configuration. It is what
// callers submit and what defaults files decode into. CostSettings is
// built from it and never shares its maps.
type Rates struct {
	FuelRates           map[string]decimal.Decimal            `json:"fuel_rates"`
	TollRates           map[string]map[string]decimal.Decimal `json:"toll_rates"`
	DriverRates         map[string]decimal.Decimal            `json:"driver_rates"`
	OverheadRates       map[string]decimal.Decimal            `json:"overhead_rates"`
	MaintenanceRates    map[string]decimal.Decimal            `json:"maintenance_rates"`
	FuelConsumption     map[string]decimal.Decimal            `json:"fuel_consumption"`
	Cargo               CargoRates                            `json:"cargo_rates"`
	EnabledComponents   []string                              `json:"enabled_components"`
	EmptyDrivingFactors EmptyDrivingFactors                   `json:"empty_driving_factors"`
}

// UnmarshalJSON starts from DefaultCargoRates and DefaultEmptyDrivingFactors,
// so omitted cargo rates and factors keep their built-in values as they do
// in DecodeDefaults. Explicit zeros are kept.
func (r *Rates) UnmarshalJSON(data []byte) error {
	type plain Rates
	out := plain{Cargo: DefaultCargoRates(), EmptyDrivingFactors: DefaultEmptyDrivingFactors()}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*r = Rates(out)
	return nil
}

// Clone deep-copies r with normalized keys.
func (r Rates) Clone() Rates {
	out := Rates{
		FuelRates:           copyRates(r.FuelRates, normalizeCountry),
		DriverRates:         copyRates(r.DriverRates, normalizeCountry),
		OverheadRates:       copyRates(r.OverheadRates, normalizeCategory),
		MaintenanceRates:    copyRates(r.MaintenanceRates, normalizeVehicle),
		FuelConsumption:     copyRates(r.FuelConsumption, normalizeVehicle),
		EmptyDrivingFactors: r.EmptyDrivingFactors,
		Cargo:               r.Cargo,
	}
	out.Cargo.SpecialHandling = copyRates(r.Cargo.SpecialHandling, normalizeCategory)
	out.TollRates = make(map[string]map[string]decimal.Decimal, len(r.TollRates))
	for country, byVehicle := range r.TollRates {
		key := normalizeCountry(country)
		merged := out.TollRates[key]
		if merged == nil {
			merged = make(map[string]decimal.Decimal, len(byVehicle))
			out.TollRates[key] = merged
		}
		for v, rate := range byVehicle {
			merged[normalizeVehicle(v)] = rate
		}
	}
	if r.EnabledComponents != nil {
		out.EnabledComponents = make([]string, len(r.EnabledComponents))
		copy(out.EnabledComponents, r.EnabledComponents)
	}
	return out
}

// Meta carries identity and audit fields of a settings version.
type Meta struct {
	ID         string
	RouteID    string
	Version    Version
	CreatedAt  time.Time
	CreatedBy  string
	ModifiedAt time.Time
	ModifiedBy string
}

// CostSettings is one immutable version of the rate configuration, either
// global (empty RouteID) or scoped to a route. Accessors return copies.
type CostSettings struct {
	meta    Meta
	rates   Rates
	enabled ComponentSet
	unknown []string
}

// New builds a settings version from raw rates. A nil EnabledComponents
// list enables every component, including maintenance, overhead and cargo.
// Callers wanting only fuel, toll and driver must list them explicitly.
func New(r Rates, meta Meta) CostSettings {
	rates := r.Clone()
	enabled := AllEnabled()
	var unknown []string
	if rates.EnabledComponents != nil {
		enabled, unknown = ParseComponentSet(rates.EnabledComponents)
	}
	rates.EnabledComponents = enabled.Strings()
	if meta.Version == (Version{}) {
		meta.Version = InitialVersion
	}
	if meta.ModifiedAt.IsZero() {
		meta.ModifiedAt = meta.CreatedAt
	}
	if meta.ModifiedBy == "" {
		meta.ModifiedBy = meta.CreatedBy
	}
	return CostSettings{meta: meta, rates: rates, enabled: enabled, unknown: unknown}
}

func (s CostSettings) ID() string                 { return s.meta.ID }
func (s CostSettings) RouteID() string            { return s.meta.RouteID }
func (s CostSettings) Version() Version           { return s.meta.Version }
func (s CostSettings) Meta() Meta                 { return s.meta }
func (s CostSettings) Enabled() ComponentSet      { return s.enabled }
func (s CostSettings) IsEnabled(c Component) bool { return s.enabled.Has(c) }

// Rates returns a deep copy of the raw tables.
func (s CostSettings) Rates() Rates { return s.rates.Clone() }

func (s CostSettings) EmptyDrivingFactors() EmptyDrivingFactors {
	return s.rates.EmptyDrivingFactors
}

func (s CostSettings) Cargo() CargoRates {
	c := s.rates.Cargo
	c.SpecialHandling = copyRates(c.SpecialHandling, normalizeCategory)
	return c
}

// OverheadRates returns the flat per-route overhead categories.
func (s CostSettings) OverheadRates() map[string]decimal.Decimal {
	return copyRates(s.rates.OverheadRates, normalizeCategory)
}

// Revise creates the next version from new rates. Identity and creation
// audit fields carry over; the receiver is not modified.
func (s CostSettings) Revise(r Rates, by string, at time.Time) CostSettings {
	meta := s.meta
	meta.Version = s.meta.Version.Next()
	meta.ModifiedAt = at
	meta.ModifiedBy = by
	return New(r, meta)
}

// GetRate returns the configured rate for a component in a country and
// vehicle class. When the table has no entry the built-in default is
// returned with found=false.
//
// Fuel and driver rates are keyed by country, tolls by country and vehicle,
// maintenance by vehicle. For overhead the country argument names the
// category. Cargo returns the per-tonne rate.
func (s CostSettings) GetRate(c Component, country, vehicle string) (decimal.Decimal, bool) {
	country = normalizeCountry(country)
	vehicle = normalizeVehicle(vehicle)
	switch c {
	case ComponentFuel:
		return lookup(s.rates.FuelRates, country, DefaultFuelRate)
	case ComponentToll:
		return lookup(s.rates.TollRates[country], vehicle, DefaultTollRate)
	case ComponentDriver:
		return lookup(s.rates.DriverRates, country, DefaultDriverRate)
	case ComponentMaintenance:
		return lookup(s.rates.MaintenanceRates, vehicle, DefaultMaintenanceRate)
	case ComponentOverhead:
		return lookup(s.rates.OverheadRates, normalizeCategory(country), decimal.Zero)
	case ComponentCargo:
		return s.rates.Cargo.WeightPerTonne, true
	}
	return decimal.Zero, false
}

// FuelConsumption returns litres per km for a vehicle class.
func (s CostSettings) FuelConsumption(vehicle string) (decimal.Decimal, bool) {
	return lookup(s.rates.FuelConsumption, normalizeVehicle(vehicle), DefaultFuelConsumption)
}

type settingsView struct {
	ID         string    `json:"id"`
	RouteID    string    `json:"route_id,omitempty"`
	Version    Version   `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
	ModifiedBy string    `json:"modified_by,omitempty"`
	Rates
}

func (s CostSettings) MarshalJSON() ([]byte, error) {
	return json.Marshal(settingsView{
		ID:         s.meta.ID,
		RouteID:    s.meta.RouteID,
		Version:    s.meta.Version,
		CreatedAt:  s.meta.CreatedAt,
		CreatedBy:  s.meta.CreatedBy,
		ModifiedAt: s.meta.ModifiedAt,
		ModifiedBy: s.meta.ModifiedBy,
		Rates:      s.rates,
	})
}

func lookup(m map[string]decimal.Decimal, key string, fallback decimal.Decimal) (decimal.Decimal, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	return fallback, false
}

func copyRates(in map[string]decimal.Decimal, norm func(string) string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[norm(k)] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeCountry(c string) string  { return strings.ToUpper(strings.TrimSpace(c)) }
func normalizeVehicle(v string) string  { return strings.ToLower(strings.TrimSpace(v)) }
func normalizeCategory(c string) string { return strings.ToLower(strings.TrimSpace(c)) }
