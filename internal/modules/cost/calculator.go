// README: Cost calculator: prices a segmented route against one settings version.
package cost

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/route"
	"loadapp/internal/types"
)

var kgPerTonne = decimal.NewFromInt(1000)

type segmentKey struct {
	country string
	empty   bool
}

// segmentSum accumulates the unrounded cost of one (country, empty) group.
type segmentSum struct {
	amount     decimal.Decimal
	quantity   decimal.Decimal
	rate       decimal.Decimal
	multiplier decimal.Decimal
}

// calculation collects components and de-duplicated warnings.
type calculation struct {
	settings   costsettings.CostSettings
	vehicle    string
	components []Component
	warnings   []Warning
	warned     map[string]struct{}
}

// Calculate prices every enabled component of r. cargo overrides the
// route's own cargo specification when non-nil. Settings that fail
// validation are rejected with a *costsettings.ConfigurationError.
func Calculate(r *route.Route, settings costsettings.CostSettings, cargo *route.CargoSpecification) (Breakdown, error) {
	if r == nil {
		return Breakdown{}, fmt.Errorf("%w: route is required", route.ErrInvalidRoute)
	}
	if err := r.Validate(); err != nil {
		return Breakdown{}, err
	}
	if err := settings.Check(); err != nil {
		return Breakdown{}, err
	}
	if cargo == nil {
		cargo = r.Cargo
	}
	if cargo != nil {
		if err := cargo.Validate(); err != nil {
			return Breakdown{}, err
		}
	}

	c := &calculation{settings: settings, vehicle: r.VehicleType(), warned: map[string]struct{}{}}
	for _, comp := range settings.Enabled().Components() {
		switch comp {
		case costsettings.ComponentFuel:
			c.fuel(r.Segments)
		case costsettings.ComponentToll, costsettings.ComponentDriver:
			c.perSegment(comp, r.Segments)
		case costsettings.ComponentMaintenance:
			c.maintenance(r)
		case costsettings.ComponentCargo:
			if cargo != nil {
				c.cargo(*cargo)
			}
		case costsettings.ComponentOverhead:
			c.overhead()
		}
	}
	return NewBreakdown(c.components, c.warnings, settings)
}

func (c *calculation) fuel(segments []route.Segment) {
	consumption, found := c.settings.FuelConsumption(c.vehicle)
	if !found {
		c.warn(costsettings.ComponentFuel, "consumption/"+c.vehicle, consumption)
	}

	sums := map[segmentKey]*segmentSum{}
	for _, seg := range segments {
		rate, found := c.settings.GetRate(costsettings.ComponentFuel, seg.Country, c.vehicle)
		if !found {
			c.warn(costsettings.ComponentFuel, seg.Country, rate)
		}
		m := Adjust(seg, c.settings).Fuel
		s := sums[segmentKey{seg.Country, seg.EmptyDriving}]
		if s == nil {
			s = &segmentSum{rate: rate, multiplier: m}
			sums[segmentKey{seg.Country, seg.EmptyDriving}] = s
		}
		s.quantity = s.quantity.Add(seg.DistanceKm)
		s.amount = s.amount.Add(seg.DistanceKm.Mul(rate).Mul(consumption).Mul(m))
	}
	for key, s := range sums {
		c.add(costsettings.ComponentFuel, key, s.amount, map[string]string{
			"distance_km":      s.quantity.String(),
			"fuel_rate":        s.rate.String(),
			"consumption_l_km": consumption.String(),
			"multiplier":       s.multiplier.String(),
		})
	}
}

// perSegment prices toll (per km) and driver (per hour) time.
func (c *calculation) perSegment(comp costsettings.Component, segments []route.Segment) {
	quantityKey := "distance_km"
	if comp == costsettings.ComponentDriver {
		quantityKey = "duration_hours"
	}

	sums := map[segmentKey]*segmentSum{}
	for _, seg := range segments {
		rate, found := c.settings.GetRate(comp, seg.Country, c.vehicle)
		if !found {
			key := seg.Country
			if comp == costsettings.ComponentToll {
				key += "/" + c.vehicle
			}
			c.warn(comp, key, rate)
		}
		quantity := seg.DistanceKm
		if comp == costsettings.ComponentDriver {
			quantity = seg.DurationHours
		}
		m := Adjust(seg, c.settings).For(comp)
		s := sums[segmentKey{seg.Country, seg.EmptyDriving}]
		if s == nil {
			s = &segmentSum{rate: rate, multiplier: m}
			sums[segmentKey{seg.Country, seg.EmptyDriving}] = s
		}
		s.quantity = s.quantity.Add(quantity)
		s.amount = s.amount.Add(quantity.Mul(rate).Mul(m))
	}
	for key, s := range sums {
		c.add(comp, key, s.amount, map[string]string{
			quantityKey:  s.quantity.String(),
			"rate":       s.rate.String(),
			"multiplier": s.multiplier.String(),
		})
	}
}

// maintenance is charged on the whole driven distance, empty leg included.
func (c *calculation) maintenance(r *route.Route) {
	rate, found := c.settings.GetRate(costsettings.ComponentMaintenance, "", c.vehicle)
	if !found {
		c.warn(costsettings.ComponentMaintenance, c.vehicle, rate)
	}
	km := r.SegmentDistanceKm()
	c.add(costsettings.ComponentMaintenance, segmentKey{}, km.Mul(rate), map[string]string{
		"distance_km":  km.String(),
		"rate":         rate.String(),
		"vehicle_type": c.vehicle,
	})
}

func (c *calculation) cargo(load route.CargoSpecification) {
	rates := c.settings.Cargo()
	tonnes := load.WeightKg.Div(kgPerTonne)
	base := tonnes.Mul(rates.WeightPerTonne).Add(load.VolumeM3.Mul(rates.VolumePerM3))
	details := map[string]string{
		"weight_t":  tonnes.String(),
		"volume_m3": load.VolumeM3.String(),
		"base":      base.Round(2).String(),
	}

	amount := base
	if load.RequiresCooling {
		amount = amount.Mul(rates.CoolingFactor)
		details["cooling_factor"] = rates.CoolingFactor.String()
	}
	if hz := strings.TrimSpace(load.HazmatClass); hz != "" {
		amount = amount.Mul(rates.HazmatFactor)
		details["hazmat_class"] = hz
		details["hazmat_factor"] = rates.HazmatFactor.String()
	}
	for _, tag := range load.Requirements() {
		surcharge, ok := rates.SpecialHandling[tag]
		if !ok {
			c.warn(costsettings.ComponentCargo, "special_handling/"+tag, decimal.Zero)
			continue
		}
		amount = amount.Add(surcharge)
		details["special_"+tag] = surcharge.String()
	}
	c.add(costsettings.ComponentCargo, segmentKey{}, amount, details)
}

// overhead is one flat component; absent categories contribute nothing.
func (c *calculation) overhead() {
	rates := c.settings.OverheadRates()
	if len(rates) == 0 {
		return
	}
	categories := make([]string, 0, len(rates))
	for k := range rates {
		categories = append(categories, k)
	}
	sort.Strings(categories)

	sum := decimal.Zero
	details := make(map[string]string, len(rates))
	for _, k := range categories {
		sum = sum.Add(rates[k])
		details[k] = rates[k].String()
	}
	c.add(costsettings.ComponentOverhead, segmentKey{}, sum, details)
}

func (c *calculation) add(comp costsettings.Component, key segmentKey, amount decimal.Decimal, details map[string]string) {
	c.components = append(c.components, Component{
		Type:         comp,
		Country:      key.country,
		EmptyDriving: key.empty,
		Amount:       types.Round2(amount),
		Currency:     types.DefaultCurrency,
		Details:      details,
	})
}

func (c *calculation) warn(comp costsettings.Component, key string, fallback decimal.Decimal) {
	id := comp.String() + "|" + key
	if _, ok := c.warned[id]; ok {
		return
	}
	c.warned[id] = struct{}{}
	c.warnings = append(c.warnings, Warning{
		Kind:      WarningMissingRate,
		Component: comp,
		Key:       key,
		Default:   fallback,
		Message:   fmt.Sprintf("no %s rate for %s, default %s used", comp, key, fallback),
	})
}
