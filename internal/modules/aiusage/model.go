package aiusage

import "errors"

// ErrBudgetExhausted is returned when today's AI call budget for a scope is used up.
var ErrBudgetExhausted = errors.New("ai usage budget exhausted")

// DefaultDailyBudget is the number of AI calls allowed per scope and UTC day.
const DefaultDailyBudget = 500
