package offer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"loadapp/internal/modules/cost"
	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/route"
)

type ComputeOptions struct {
	// ProceedWithDefaults prices with invalid rates replaced by defaults
	// instead of failing with ErrInvalidRateConfiguration.
	ProceedWithDefaults bool
}

// Compute segments r, prices it against settings and applies margin. The
// route is not modified. Errors are route.ErrInvalidRoute,
// costsettings.ErrInvalidRateConfiguration, ErrInvalidMargin or
// cost.ErrInvariantViolation.
func Compute(r *route.Route, settings costsettings.CostSettings, margin decimal.Decimal, cargo *route.CargoSpecification, funFact string, opts ComputeOptions) (Offer, error) {
	if err := ValidateMargin(margin); err != nil {
		return Offer{}, err
	}
	b, violations, err := Estimate(r, settings, cargo, opts)
	if err != nil {
		return Offer{}, err
	}
	o, err := Price(b, margin)
	if err != nil {
		return Offer{}, err
	}
	o.RouteID = r.ID
	o.FunFact = funFact
	o.SettingsViolations = violations
	return o, nil
}

// Estimate runs segmentation and cost calculation without pricing. It
// returns the settings violations that were replaced by defaults.
func Estimate(r *route.Route, settings costsettings.CostSettings, cargo *route.CargoSpecification, opts ComputeOptions) (cost.Breakdown, []string, error) {
	if r == nil {
		return cost.Breakdown{}, nil, fmt.Errorf("%w: route is required", route.ErrInvalidRoute)
	}
	segments, err := route.Split(r.Skeleton())
	if err != nil {
		return cost.Breakdown{}, nil, err
	}
	segmented := *r
	segmented.Segments = segments

	violations := settings.Validate()
	if len(violations) > 0 {
		if !opts.ProceedWithDefaults {
			return cost.Breakdown{}, violations, &costsettings.ConfigurationError{Violations: violations}
		}
		settings = settings.Sanitized()
	}

	b, err := cost.Calculate(&segmented, settings, cargo)
	if err != nil {
		return cost.Breakdown{}, nil, err
	}
	return b, violations, nil
}
