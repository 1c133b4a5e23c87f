// README: Offer service runs the route -> settings -> cost -> price workflow and the offer lifecycle.
package offer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"loadapp/internal/ai"
	"loadapp/internal/modules/cost"
	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/route"
)

var tracer = otel.Tracer("loadapp/internal/modules/offer")

const (
	// FunFactScope is the AI budget bucket fun facts draw from.
	FunFactScope          = "fun_fact"
	DefaultFunFactTimeout = 5 * time.Second
	expiryBatchSize       = 100
)

type RouteReader interface {
	Get(ctx context.Context, id string) (*route.Route, error)
}

type SettingsResolver interface {
	Active(ctx context.Context, routeID string) (costsettings.CostSettings, error)
}

// Budget rations fun fact calls. Refund hands back a call that failed.
type Budget interface {
	UseToken(ctx context.Context, scope string) error
	Refund(ctx context.Context, scope string) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Repository interface {
	Create(ctx context.Context, o *Offer) error
	Get(ctx context.Context, id string) (*Offer, error)
	List(ctx context.Context, f Filter) ([]*Offer, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, version int, at time.Time) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, offerID string) ([]Event, error)
}

type Service struct {
	store     Repository
	routes    RouteReader
	settings  SettingsResolver
	funFacts  ai.FunFactProvider
	budget    Budget
	publisher Publisher
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Repository, routes RouteReader, settings SettingsResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		routes:   routes,
		settings: settings,
		timeout:  DefaultFunFactTimeout,
		logger:   logger,
		now:      time.Now,
	}
}

// WithFunFacts enables fun facts. budget may be nil for an unlimited supply.
func (s *Service) WithFunFacts(provider ai.FunFactProvider, budget Budget, timeout time.Duration) *Service {
	s.funFacts = provider
	s.budget = budget
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

type GenerateCommand struct {
	RouteID string
	Margin  decimal.Decimal
	// Cargo overrides the cargo stored on the route.
	Cargo               *route.CargoSpecification
	ProceedWithDefaults bool
	SkipFunFact         bool
}

type EstimateCommand struct {
	RouteID             string
	Cargo               *route.CargoSpecification
	ProceedWithDefaults bool
}

type TransitionCommand struct {
	OfferID string
	To      Status
}

// LifecycleEvent is the message body published for every offer status change.
type LifecycleEvent struct {
	OfferID    string    `json:"offer_id"`
	RouteID    string    `json:"route_id"`
	FromStatus Status    `json:"from_status"`
	Status     Status    `json:"status"`
	TotalCost  string    `json:"total_cost"`
	FinalPrice string    `json:"final_price"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Generate prices a stored route and persists the result as a draft offer.
func (s *Service) Generate(ctx context.Context, cmd GenerateCommand) (*Offer, error) {
	ctx, span := tracer.Start(ctx, "offer.Generate", trace.WithAttributes(
		attribute.String("route.id", cmd.RouteID),
		attribute.String("offer.margin", cmd.Margin.String()),
	))
	defer span.End()

	o, err := s.generate(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("offer.id", o.ID),
		attribute.String("offer.final_price", o.FinalPrice.StringFixed(2)),
		attribute.Int("offer.warnings", len(o.Breakdown.Warnings())),
	)
	return o, nil
}

func (s *Service) generate(ctx context.Context, cmd GenerateCommand) (*Offer, error) {
	if strings.TrimSpace(cmd.RouteID) == "" {
		return nil, fmt.Errorf("%w: route_id is required", ErrBadRequest)
	}
	if err := ValidateMargin(cmd.Margin); err != nil {
		return nil, err
	}
	r, err := s.routes.Get(ctx, cmd.RouteID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Active(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve cost settings: %w", err)
	}

	value, err := Compute(r, settings, cmd.Margin, cmd.Cargo, "", ComputeOptions{ProceedWithDefaults: cmd.ProceedWithDefaults})
	if err != nil {
		return nil, err
	}
	if !cmd.SkipFunFact {
		value.FunFact = s.funFact(ctx, r)
	}

	now := s.now().UTC()
	o := &value
	o.ID = uuid.NewString()
	o.CreatedAt = now
	o.ValidUntil = now.Add(ValidityPeriod)
	o.StatusChangedAt = now
	s.logWarnings(o)

	if err := s.store.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("save offer: %w", err)
	}
	s.appendEvent(ctx, o.ID, StatusNone, StatusDraft, now)
	s.publish(ctx, "offer.created", o, StatusNone)

	s.logger.Info("offer generated",
		zap.String("offer_id", o.ID),
		zap.String("route_id", o.RouteID),
		zap.String("total_cost", o.TotalCost.StringFixed(2)),
		zap.String("final_price", o.FinalPrice.StringFixed(2)),
		zap.String("settings_version", o.SettingsVersion),
	)
	return o, nil
}

// Estimate returns the cost breakdown for a stored route without pricing or persisting anything.
func (s *Service) Estimate(ctx context.Context, cmd EstimateCommand) (cost.Breakdown, []string, error) {
	if strings.TrimSpace(cmd.RouteID) == "" {
		return cost.Breakdown{}, nil, fmt.Errorf("%w: route_id is required", ErrBadRequest)
	}
	r, err := s.routes.Get(ctx, cmd.RouteID)
	if err != nil {
		return cost.Breakdown{}, nil, err
	}
	settings, err := s.settings.Active(ctx, r.ID)
	if err != nil {
		return cost.Breakdown{}, nil, fmt.Errorf("resolve cost settings: %w", err)
	}
	return Estimate(r, settings, cmd.Cargo, ComputeOptions{ProceedWithDefaults: cmd.ProceedWithDefaults})
}

func (s *Service) Get(ctx context.Context, id string) (*Offer, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Offer, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, f.Status)
	}
	return s.store.List(ctx, f)
}

// Events returns the status history of a stored offer.
func (s *Service) Events(ctx context.Context, id string) ([]Event, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Events(ctx, id)
}

// Alternatives prices a stored offer at neighbouring margins.
func (s *Service) Alternatives(ctx context.Context, id string) ([]Alternative, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Alternatives(*o), nil
}

// Transition moves an offer along the lifecycle. A draft whose validity has
// elapsed can no longer be activated.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Offer, error) {
	if !cmd.To.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, cmd.To)
	}
	o, err := s.Get(ctx, cmd.OfferID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if cmd.To == StatusActive && !o.ValidUntil.IsZero() && !now.Before(o.ValidUntil) {
		return nil, fmt.Errorf("%w: offer validity elapsed at %s", ErrInvalidState, o.ValidUntil.Format(time.RFC3339))
	}
	return s.transition(ctx, o, cmd.To, now)
}

func (s *Service) transition(ctx context.Context, o *Offer, to Status, at time.Time) (*Offer, error) {
	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, o.Status, to)
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, to, o.StatusVersion, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	from := o.Status
	o.Status = to
	o.StatusVersion++
	o.StatusChangedAt = at
	s.appendEvent(ctx, o.ID, from, to, at)
	s.publish(ctx, "offer."+string(to), o, from)
	return o, nil
}

// ExpireDue expires active offers whose validity has elapsed. Offers changed
// concurrently are skipped.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.store.List(ctx, Filter{Status: StatusActive, ValidBefore: now, Limit: expiryBatchSize})
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, o := range due {
		if !o.ExpiredAt(now) {
			continue
		}
		if _, err := s.transition(ctx, o, StatusExpired, now); err != nil {
			if errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidState) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// RunExpiryTicker calls ExpireDue every interval until ctx is done.
func (s *Service) RunExpiryTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireDue(ctx)
			if err != nil {
				s.logger.Error("expire offers", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("offers expired", zap.Int("count", n))
			}
		}
	}
}

// funFact never fails the offer: budget, timeout and provider errors all
// leave the fun fact empty. A failed call does not count against the budget.
func (s *Service) funFact(ctx context.Context, r *route.Route) string {
	if s.funFacts == nil {
		return ""
	}
	if s.budget != nil {
		if err := s.budget.UseToken(ctx, FunFactScope); err != nil {
			s.logger.Warn("fun fact skipped", zap.String("route_id", r.ID), zap.Error(err))
			return ""
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.funFacts.FunFact(callCtx, ai.FromRoute(*r))
	if err != nil {
		s.logger.Warn("fun fact failed", zap.String("route_id", r.ID), zap.Error(err))
		if s.budget != nil {
			if rerr := s.budget.Refund(ctx, FunFactScope); rerr != nil {
				s.logger.Warn("fun fact refund failed", zap.Error(rerr))
			}
		}
		return ""
	}
	return ai.SanitizeFunFact(text)
}

func (s *Service) logWarnings(o *Offer) {
	for _, w := range o.Breakdown.Warnings() {
		s.logger.Warn("missing rate, default used",
			zap.String("route_id", o.RouteID),
			zap.String("component", w.Component.String()),
			zap.String("key", w.Key),
			zap.String("default", w.Default.String()),
		)
	}
	if len(o.SettingsViolations) > 0 {
		s.logger.Warn("invalid rates replaced by defaults",
			zap.String("route_id", o.RouteID),
			zap.Strings("violations", o.SettingsViolations),
		)
	}
}

func (s *Service) appendEvent(ctx context.Context, id string, from, to Status, at time.Time) {
	err := s.store.AppendEvent(ctx, &Event{OfferID: id, FromStatus: from, ToStatus: to, CreatedAt: at})
	if err != nil {
		s.logger.Warn("append offer event", zap.String("offer_id", id), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, key string, o *Offer, from Status) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, key, LifecycleEvent{
		OfferID:    o.ID,
		RouteID:    o.RouteID,
		FromStatus: from,
		Status:     o.Status,
		TotalCost:  o.TotalCost.StringFixed(2),
		FinalPrice: o.FinalPrice.StringFixed(2),
		Currency:   o.Currency,
		OccurredAt: o.StatusChangedAt,
	})
	if err != nil {
		s.logger.Warn("publish offer event", zap.String("routing_key", key), zap.Error(err))
	}
}
