// README: Cost breakdown value: ordered components, exact total and warnings.
package cost

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"loadapp/internal/modules/costsettings"
	"loadapp/internal/types"
)

var ErrInvariantViolation = errors.New("cost invariant violation")

// Component is one priced line of a breakdown. Country is empty for
// components that are not split by country.
type Component struct {
	Type         costsettings.Component
	Country      string
	EmptyDriving bool
	Amount       decimal.Decimal
	Currency     string
	Details      map[string]string
}

type WarningKind string

const WarningMissingRate WarningKind = "missing_rate"

// Warning is a non-fatal condition met while calculating.
type Warning struct {
	Kind      WarningKind            `json:"kind"`
	Component costsettings.Component `json:"component"`
	Key       string                 `json:"key"`
	Default   decimal.Decimal        `json:"default"`
	Message   string                 `json:"message"`
}

// Breakdown is immutable once built. Accessors return copies.
type Breakdown struct {
	components      []Component
	warnings        []Warning
	total           decimal.Decimal
	currency        string
	settingsID      string
	settingsVersion string
}

// NewBreakdown orders components, checks they are non-negative and sums them.
func NewBreakdown(components []Component, warnings []Warning, settings costsettings.CostSettings) (Breakdown, error) {
	return build(components, warnings, settings.ID(), settings.Version().String())
}

func build(components []Component, warnings []Warning, settingsID, settingsVersion string) (Breakdown, error) {
	cs := make([]Component, len(components))
	total := decimal.Zero
	for i, c := range components {
		if c.Amount.IsNegative() {
			return Breakdown{}, fmt.Errorf("%w: %s component %q has negative amount %s", ErrInvariantViolation, c.Type, c.Country, c.Amount)
		}
		if c.Currency == "" {
			c.Currency = types.DefaultCurrency
		}
		c.Details = copyDetails(c.Details)
		cs[i] = c
		total = total.Add(c.Amount)
	}
	sortComponents(cs)
	return Breakdown{
		components:      cs,
		warnings:        append([]Warning(nil), warnings...),
		total:           total,
		currency:        types.DefaultCurrency,
		settingsID:      settingsID,
		settingsVersion: settingsVersion,
	}, nil
}

func (b Breakdown) Components() []Component {
	out := make([]Component, len(b.components))
	for i, c := range b.components {
		c.Details = copyDetails(c.Details)
		out[i] = c
	}
	return out
}

func (b Breakdown) Warnings() []Warning      { return append([]Warning(nil), b.warnings...) }
func (b Breakdown) Total() decimal.Decimal   { return b.total }
func (b Breakdown) TotalMoney() types.Money  { return types.Money{Amount: b.total, Currency: b.currency} }
func (b Breakdown) Currency() string         { return b.currency }
func (b Breakdown) SettingsID() string       { return b.settingsID }
func (b Breakdown) SettingsVersion() string  { return b.settingsVersion }
func (b Breakdown) Len() int                 { return len(b.components) }

// Amount sums every component of type c.
func (b Breakdown) Amount(c costsettings.Component) decimal.Decimal {
	sum := decimal.Zero
	for _, comp := range b.components {
		if comp.Type == c {
			sum = sum.Add(comp.Amount)
		}
	}
	return sum
}

// ByType returns subtotals for the component types present.
func (b Breakdown) ByType() map[costsettings.Component]decimal.Decimal {
	out := make(map[costsettings.Component]decimal.Decimal)
	for _, c := range b.components {
		out[c.Type] = out[c.Type].Add(c.Amount)
	}
	return out
}

// ByCountry returns subtotals of the country-split components.
func (b Breakdown) ByCountry() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, c := range b.components {
		if c.Country == "" {
			continue
		}
		out[c.Country] = out[c.Country].Add(c.Amount)
	}
	return out
}

// EmptyDrivingComponents counts components priced for empty segments.
func (b Breakdown) EmptyDrivingComponents() int {
	n := 0
	for _, c := range b.components {
		if c.EmptyDriving {
			n++
		}
	}
	return n
}

type componentJSON struct {
	Type         costsettings.Component `json:"type"`
	Country      string                 `json:"country,omitempty"`
	EmptyDriving bool                   `json:"empty_driving"`
	Amount       string                 `json:"amount"`
	Currency     string                 `json:"currency"`
	Details      map[string]string      `json:"details,omitempty"`
}

type breakdownJSON struct {
	Components      []componentJSON   `json:"components"`
	Total           string            `json:"total"`
	Currency        string            `json:"currency"`
	ByType          map[string]string `json:"by_type"`
	ByCountry       map[string]string `json:"by_country"`
	Warnings        []Warning         `json:"warnings"`
	SettingsID      string            `json:"settings_id,omitempty"`
	SettingsVersion string            `json:"settings_version,omitempty"`
}

func (b Breakdown) MarshalJSON() ([]byte, error) {
	out := breakdownJSON{
		Components:      make([]componentJSON, len(b.components)),
		Total:           b.total.StringFixed(2),
		Currency:        b.currency,
		ByType:          map[string]string{},
		ByCountry:       map[string]string{},
		Warnings:        b.warnings,
		SettingsID:      b.settingsID,
		SettingsVersion: b.settingsVersion,
	}
	if out.Warnings == nil {
		out.Warnings = []Warning{}
	}
	for i, c := range b.components {
		out.Components[i] = componentJSON{
			Type:         c.Type,
			Country:      c.Country,
			EmptyDriving: c.EmptyDriving,
			Amount:       c.Amount.StringFixed(2),
			Currency:     c.Currency,
			Details:      c.Details,
		}
	}
	for t, v := range b.ByType() {
		out.ByType[t.String()] = v.StringFixed(2)
	}
	for country, v := range b.ByCountry() {
		out.ByCountry[country] = v.StringFixed(2)
	}
	if out.Currency == "" {
		out.Currency = types.DefaultCurrency
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a stored breakdown. The total is recomputed and
// must match the stored one.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var in breakdownJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	cs := make([]Component, len(in.Components))
	for i, c := range in.Components {
		amount, err := decimal.NewFromString(c.Amount)
		if err != nil {
			return fmt.Errorf("breakdown component %d amount: %w", i, err)
		}
		cs[i] = Component{
			Type:         c.Type,
			Country:      c.Country,
			EmptyDriving: c.EmptyDriving,
			Amount:       amount,
			Currency:     c.Currency,
			Details:      c.Details,
		}
	}
	built, err := build(cs, in.Warnings, in.SettingsID, in.SettingsVersion)
	if err != nil {
		return err
	}
	if in.Total != "" {
		total, err := decimal.NewFromString(in.Total)
		if err != nil {
			return fmt.Errorf("breakdown total: %w", err)
		}
		if !total.Equal(built.total) {
			return fmt.Errorf("%w: stored total %s does not match components %s", ErrInvariantViolation, total, built.total)
		}
	}
	*b = built
	return nil
}

// sortComponents orders by type, then country, with loaded before empty.
func sortComponents(cs []Component) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		return !a.EmptyDriving && b.EmptyDriving
	})
}

func copyDetails(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
