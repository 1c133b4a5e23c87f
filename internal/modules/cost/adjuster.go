package cost

import (
	"github.com/shopspring/decimal"

	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/route"
)

var one = decimal.NewFromInt(1)

// Multipliers scale the base fuel, toll and driver rates of one segment.
type Multipliers struct {
	Fuel   decimal.Decimal
	Toll   decimal.Decimal
	Driver decimal.Decimal
}

// Unadjusted leaves every rate as configured.
func Unadjusted() Multipliers {
	return Multipliers{Fuel: one, Toll: one, Driver: one}
}

// Adjust returns the effective multipliers for seg. Loaded segments are
// unadjusted; empty segments use the settings' empty-driving factors.
func Adjust(seg route.Segment, settings costsettings.CostSettings) Multipliers {
	if !seg.EmptyDriving {
		return Unadjusted()
	}
	f := settings.EmptyDrivingFactors()
	return Multipliers{Fuel: f.Fuel, Toll: f.Toll, Driver: f.Driver}
}

// For picks the multiplier that applies to component c. Components
// without an empty-driving factor are unadjusted.
func (m Multipliers) For(c costsettings.Component) decimal.Decimal {
	switch c {
	case costsettings.ComponentFuel:
		return m.Fuel
	case costsettings.ComponentToll:
		return m.Toll
	case costsettings.ComponentDriver:
		return m.Driver
	}
	return one
}
