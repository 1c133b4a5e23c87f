package ai

import (
	"context"
)

// FunFactProvider writes a short piece of trivia about a route. Callers
// treat any error as "no fun fact"; pricing never waits on it.
type FunFactProvider interface {
	FunFact(ctx context.Context, rc RouteContext) (string, error)
}

// NoopProvider is used when no model is configured.
type NoopProvider struct{}

func (NoopProvider) FunFact(context.Context, RouteContext) (string, error) { return "", nil }
