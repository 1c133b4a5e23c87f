package offer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"loadapp/internal/modules/cost"
	"loadapp/internal/types"
)

var (
	minMargin = decimal.Zero
	maxMargin = decimal.NewFromInt(1)
)

// alternativeScales derive neighbouring price points from an offer's margin.
var alternativeScales = []struct {
	label string
	scale decimal.Decimal
}{
	{"lower", decimal.RequireFromString("0.9")},
	{"higher", decimal.RequireFromString("1.1")},
	{"premium", decimal.RequireFromString("1.2")},
}

func ValidateMargin(m decimal.Decimal) error {
	if m.LessThan(minMargin) || m.GreaterThan(maxMargin) {
		return fmt.Errorf("%w: %s is outside [0, 1]", ErrInvalidMargin, m)
	}
	return nil
}

// FinalPrice is total x (1 + margin) rounded half-up to cents.
func FinalPrice(total, margin decimal.Decimal) decimal.Decimal {
	return types.Round2(total.Mul(decimal.NewFromInt(1).Add(margin)))
}

// Price turns a breakdown into an offer value. It never calls out; the
// fun fact and identity fields are filled in by the caller.
func Price(b cost.Breakdown, margin decimal.Decimal) (Offer, error) {
	if err := ValidateMargin(margin); err != nil {
		return Offer{}, err
	}
	final := FinalPrice(b.Total(), margin)
	if final.LessThan(b.Total()) {
		return Offer{}, fmt.Errorf("%w: final price %s below total cost %s", cost.ErrInvariantViolation, final, b.Total())
	}
	return Offer{
		Status:          StatusDraft,
		Margin:          margin,
		TotalCost:       b.Total(),
		FinalPrice:      final,
		Currency:        b.Currency(),
		Breakdown:       b,
		SettingsID:      b.SettingsID(),
		SettingsVersion: b.SettingsVersion(),
	}, nil
}

// Alternatives prices o at scaled margins. Scaled margins above 1 are skipped.
func Alternatives(o Offer) []Alternative {
	out := make([]Alternative, 0, len(alternativeScales))
	for _, a := range alternativeScales {
		m := o.Margin.Mul(a.scale)
		if ValidateMargin(m) != nil {
			continue
		}
		out = append(out, Alternative{
			Label:      a.label,
			Margin:     m,
			FinalPrice: FinalPrice(o.TotalCost, m),
			Currency:   o.Currency,
		})
	}
	return out
}
