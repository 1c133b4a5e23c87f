// README: Common money value object (fixed-point decimal) used across modules.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is the only currency the PoC prices in.
const DefaultCurrency = "EUR"

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// EUR wraps an amount in the default currency.
func EUR(amount decimal.Decimal) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

// Round2 rounds half-up to cents. Amounts in this codebase are never negative,
// where decimal's half-away-from-zero rounding is the same thing.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NormalizeCurrency upper-cases and validates an ISO 4217 code.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return unit.String(), nil
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
