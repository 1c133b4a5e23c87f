package aiusage

import (
	"context"
	"fmt"
	"time"
)

// counterTTL keeps yesterday's counter around for inspection.
const counterTTL = 48 * time.Hour

type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Decr(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (int64, error)
}

// Service orchestrates AI call budgeting.
type Service struct {
	store Counter
	limit int64
	now   func() time.Time
}

// NewService creates a Service allowing limit calls per scope and UTC day.
// A non-positive limit uses DefaultDailyBudget.
func NewService(store Counter, limit int) *Service {
	if limit <= 0 {
		limit = DefaultDailyBudget
	}
	return &Service{store: store, limit: int64(limit), now: time.Now}
}

// UseToken reserves one call for scope. When the budget is already spent
// the reservation is handed back and ErrBudgetExhausted is returned.
func (s *Service) UseToken(ctx context.Context, scope string) error {
	key := s.key(scope)
	n, err := s.store.Incr(ctx, key, counterTTL)
	if err != nil {
		return fmt.Errorf("ai usage: %w", err)
	}
	if n > s.limit {
		_ = s.store.Decr(ctx, key)
		return ErrBudgetExhausted
	}
	return nil
}

// Refund hands back a call reserved with UseToken that produced nothing.
// The counter never drops below zero.
func (s *Service) Refund(ctx context.Context, scope string) error {
	key := s.key(scope)
	n, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("ai usage: %w", err)
	}
	if n <= 0 {
		return nil
	}
	if err := s.store.Decr(ctx, key); err != nil {
		return fmt.Errorf("ai usage: %w", err)
	}
	return nil
}

// Remaining reports how many calls scope has left today.
func (s *Service) Remaining(ctx context.Context, scope string) (int, error) {
	n, err := s.store.Get(ctx, s.key(scope))
	if err != nil {
		return 0, fmt.Errorf("ai usage: %w", err)
	}
	if n >= s.limit {
		return 0, nil
	}
	return int(s.limit - n), nil
}

func (s *Service) key(scope string) string {
	return fmt.Sprintf("loadapp:ai_usage:%s:%s", scope, s.now().UTC().Format("2006-01-02"))
}
