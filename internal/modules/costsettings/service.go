// README: Cost settings service resolves the active version and appends updates.
package costsettings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxAppendAttempts = 3

type Repository interface {
	Append(ctx context.Context, cs CostSettings) error
	Latest(ctx context.Context, routeID string) (CostSettings, error)
	History(ctx context.Context, routeID string, limit int) ([]CostSettings, error)
}

type Service struct {
	store    Repository
	defaults Rates
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the store with the rate table used when no global
// version has been stored yet.
func NewService(store Repository, defaults Rates, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, defaults: defaults.Clone(), logger: logger, now: time.Now}
}

// EnsureDefaults stores the configured defaults as global version 1.0 when
// the global scope is empty.
func (s *Service) EnsureDefaults(ctx context.Context) (CostSettings, error) {
	current, err := s.store.Latest(ctx, "")
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return CostSettings{}, err
	}
	seed := s.fallback()
	if err := s.store.Append(ctx, seed); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return s.store.Latest(ctx, "")
		}
		return CostSettings{}, fmt.Errorf("seed default settings: %w", err)
	}
	s.logger.Info("default cost settings seeded", zap.String("version", seed.Version().String()))
	return seed, nil
}

// Active returns the newest route-scoped version, else the newest global
// version, else the in-memory defaults.
func (s *Service) Active(ctx context.Context, routeID string) (CostSettings, error) {
	routeID = strings.TrimSpace(routeID)
	if routeID != "" {
		cs, err := s.store.Latest(ctx, routeID)
		if err == nil {
			return cs, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return CostSettings{}, err
		}
	}
	cs, err := s.store.Latest(ctx, "")
	if errors.Is(err, ErrNotFound) {
		return s.fallback(), nil
	}
	return cs, err
}

type UpdateCommand struct {
	RouteID    string
	Rates      Rates
	ModifiedBy string
	// AllowViolations stores the version even when Validate reports problems.
	AllowViolations bool
}

// Update appends a new version built from cmd.Rates and returns it with its
// violations. Concurrent updates of one scope each land as their own
// version; the later one becomes active.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (CostSettings, []string, error) {
	routeID := strings.TrimSpace(cmd.RouteID)

	var lastErr error
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		now := s.now().UTC()
		var next CostSettings
		current, err := s.store.Latest(ctx, routeID)
		switch {
		case err == nil:
			next = current.Revise(cmd.Rates, cmd.ModifiedBy, now)
		case errors.Is(err, ErrNotFound):
			next = New(cmd.Rates, Meta{
				ID:        uuid.NewString(),
				RouteID:   routeID,
				Version:   InitialVersion,
				CreatedAt: now,
				CreatedBy: cmd.ModifiedBy,
			})
		default:
			return CostSettings{}, nil, err
		}

		violations := next.Validate()
		if len(violations) > 0 && !cmd.AllowViolations {
			return CostSettings{}, violations, &ConfigurationError{Violations: violations}
		}

		err = s.store.Append(ctx, next)
		if errors.Is(err, ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return CostSettings{}, nil, fmt.Errorf("append settings: %w", err)
		}
		s.logger.Info("cost settings updated",
			zap.String("settings_id", next.ID()),
			zap.String("route_id", routeID),
			zap.String("version", next.Version().String()),
			zap.Int("violations", len(violations)),
		)
		return next, violations, nil
	}
	return CostSettings{}, nil, lastErr
}

// Validate checks a candidate rate table without storing it.
func (s *Service) Validate(r Rates) []string {
	return New(r, Meta{}).Validate()
}

func (s *Service) History(ctx context.Context, routeID string, limit int) ([]CostSettings, error) {
	return s.store.History(ctx, strings.TrimSpace(routeID), limit)
}

func (s *Service) fallback() CostSettings {
	return New(s.defaults, Meta{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("loadapp/default-cost-settings")).String(),
		Version:   InitialVersion,
		CreatedAt: s.now().UTC(),
		CreatedBy: "system",
	})
}
