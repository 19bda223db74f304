package service

import (
	"context"
	"fmt"
	"time"

	"bourse/internal/common"
	"bourse/internal/engine"
	"bourse/internal/events"
	"bourse/internal/exchange"
	"bourse/internal/store"

	"github.com/rs/zerolog/log"
)

type RegisterRequest struct {
	Security      string                  `json:"security"`
	ShareholderID string                  `json:"shareholderId"`
	Side          engine.Side             `json:"side"`
	UnitValue     string                  `json:"unitValue"`
	Shares        uint64                  `json:"shares"`
	Expiration    engine.ExpirationPolicy `json:"expirationType"`
	ExpiresAt     *time.Time              `json:"expiresAt,omitempty"`
}

// OrderService registers orders on the exchange and keeps the repository and
// the event stream in step with every execution.
type OrderService struct {
	exchange *exchange.Exchange
	repo     store.Repository
	notifier events.Notifier
	clock    common.Clock
}

func NewOrderService(ex *exchange.Exchange, repo store.Repository, notifier events.Notifier, clock common.Clock) *OrderService {
	if clock == nil {
		clock = common.SystemClock{}
	}
	return &OrderService{
		exchange: ex,
		repo:     repo,
		notifier: notifier,
		clock:    clock,
	}
}

// Register creates a Pending order dated now and executes it. Invalid
// requests fail with an *engine.InvalidPropsError before reaching the book.
//
// Once the book has executed the order the result is returned even if saving
// it fails; the error then only reports the persistence failure.
func (s *OrderService) Register(ctx context.Context, req RegisterRequest) (engine.Result, error) {
	order, err := engine.NewOrder(req.ShareholderID, req.Side, req.UnitValue, req.Shares,
		req.Expiration, req.ExpiresAt, s.clock.Now())
	if err != nil {
		return engine.Result{}, fmt.Errorf("registering order: %w", err)
	}

	registered := events.New(events.OrderRegistered, req.Security, *order)

	result, err := s.exchange.Submit(ctx, req.Security, order)
	if err != nil {
		return engine.Result{}, fmt.Errorf("executing order %s: %w", order.ID(), err)
	}

	changed := append([]engine.Order{result.Order}, result.MatchedOrders()...)
	changed = append(changed, result.Expired...)
	if err := s.repo.Save(ctx, req.Security, changed...); err != nil {
		log.Error().Err(err).Str("order", order.ID()).Msg("unable to save execution")
		return result, fmt.Errorf("saving execution of %s: %w", order.ID(), err)
	}
	s.notify(ctx, append([]events.Event{registered}, events.FromResult(req.Security, result)...)...)

	log.Info().
		Str("security", req.Security).
		Str("order", order.ID()).
		Stringer("status", result.Order.Status()).
		Uint64("filled", result.FilledShares()).
		Stringer("notional", result.Notional()).
		Msg("order registered")
	return result, nil
}

// Cancel withdraws a resting order.
func (s *OrderService) Cancel(ctx context.Context, security, id string) (engine.Order, error) {
	order, err := s.exchange.Cancel(ctx, security, id)
	if err != nil {
		return engine.Order{}, fmt.Errorf("canceling order %s: %w", id, err)
	}
	if err := s.repo.Save(ctx, security, order); err != nil {
		return order, fmt.Errorf("saving order %s: %w", id, err)
	}
	s.notify(ctx, events.New(events.OrderCanceled, security, order))
	log.Info().Str("security", security).Str("order", id).Msg("order canceled")
	return order, nil
}

// List returns every order of a shareholder, oldest first.
func (s *OrderService) List(ctx context.Context, shareholderID string) ([]engine.Order, error) {
	orders, err := s.repo.ListByShareholder(ctx, shareholderID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of %s: %w", shareholderID, err)
	}
	return orders, nil
}

// Restore seeds the security's book with the resting orders found in the
// repository and returns how many were loaded.
func (s *OrderService) Restore(ctx context.Context, security string) (int, error) {
	orders, err := s.repo.ListResting(ctx, security)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", security, err)
	}
	if err := s.exchange.Seed(ctx, security, orders); err != nil {
		return 0, fmt.Errorf("seeding %s: %w", security, err)
	}
	log.Info().Str("security", security).Int("orders", len(orders)).Msg("book restored")
	return len(orders), nil
}

// Notification failures never undo an execution.
func (s *OrderService) notify(ctx context.Context, evs ...events.Event) {
	if s.notifier == nil || len(evs) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, evs...); err != nil {
		log.Error().Err(err).Int("events", len(evs)).Msg("unable to publish events")
	}
}
