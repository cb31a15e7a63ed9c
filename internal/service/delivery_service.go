package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/lock"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/notify"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// reorderConcurrency caps the per-stop writes in flight during a reorder.
const reorderConcurrency = 4

// Orders that may be put on a route.
var routableStatuses = []domain.OrderStatus{domain.OrderWeighed, domain.OrderPacked, domain.OrderOutForDelivery}

type DeliveryService struct {
	store    repository.Store
	locker   lock.Locker
	notifier notify.Publisher
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewDeliveryService(deps Dependencies) *DeliveryService {
	deps = deps.withDefaults()
	return &DeliveryService{
		store:    deps.Store,
		locker:   deps.Locker,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		now:      deps.Clock,
	}
}

type CreateRouteInput struct {
	Name      string     `json:"name" validate:"required"`
	RouteDate time.Time  `json:"route_date" validate:"required"`
	DriverID  *uuid.UUID `json:"driver_id"`
}

type AddStopInput struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Notes   *string   `json:"notes"`
}

// ReorderResult reports which stops took their new position. Failed stops
// keep their old position and can be retried.
type ReorderResult struct {
	Updated []uuid.UUID `json:"updated"`
	Failed  []uuid.UUID `json:"failed,omitempty"`
}

type MarkDeliveredResult struct {
	Stop          *domain.DeliveryStop `json:"stop"`
	OrderStatus   domain.OrderStatus   `json:"order_status"`
	OrderAdvanced bool                 `json:"order_advanced"`
}

func (s *DeliveryService) CreateRoute(ctx context.Context, tc domain.TenantContext, input CreateRouteInput) (*domain.DeliveryRoute, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	route := &domain.DeliveryRoute{
		ID:        uuid.New(),
		TenantID:  tc.TenantID,
		Name:      input.Name,
		RouteDate: input.RouteDate,
		DriverID:  input.DriverID,
		CreatedAt: s.now(),
	}
	if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.Routes().Insert(ctx, route)
	}); err != nil {
		return nil, err
	}
	return route, nil
}

// GetRoute returns the route with its stops in sequence.
func (s *DeliveryService) GetRoute(ctx context.Context, tc domain.TenantContext, routeID uuid.UUID) (*domain.DeliveryRoute, error) {
	var route *domain.DeliveryRoute
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		route, err = tx.Routes().Get(ctx, routeID)
		if err != nil {
			return err
		}
		route.Stops, err = tx.Routes().ListStops(ctx, routeID)
		return err
	})
	return route, err
}

// DeleteRoute removes the route together with its stops.
func (s *DeliveryService) DeleteRoute(ctx context.Context, tc domain.TenantContext, routeID uuid.UUID) error {
	return run(ctx, s.store, tc, func(tx repository.Tx) error {
		if _, err := tx.Routes().GetForUpdate(ctx, routeID); err != nil {
			return err
		}
		if err := tx.Routes().DeleteStops(ctx, routeID); err != nil {
			return err
		}
		return tx.Routes().Delete(ctx, routeID)
	})
}

// AddStop appends a stop for the order at the end of the route.
func (s *DeliveryService) AddStop(ctx context.Context, tc domain.TenantContext, routeID uuid.UUID, input AddStopInput) (*domain.DeliveryStop, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var stop *domain.DeliveryStop
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		route, err := tx.Routes().GetForUpdate(ctx, routeID)
		if err != nil {
			return err
		}
		if route.IsComplete {
			return domain.NewConflictError("route %s is already complete", route.Name)
		}
		order, err := tx.Orders().Get(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if !routable(order.Status) {
			return domain.NewConflictError("order %s cannot be routed while %s", order.OrderNumber, order.Status)
		}
		last, err := tx.Routes().MaxStopOrder(ctx, routeID)
		if err != nil {
			return err
		}
		stop = &domain.DeliveryStop{
			ID:         uuid.New(),
			TenantID:   tc.TenantID,
			RouteID:    routeID,
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			StopOrder:  last + 1,
			Notes:      input.Notes,
		}
		return tx.Routes().InsertStop(ctx, stop)
	})
	if err != nil {
		return nil, err
	}
	return stop, nil
}

// RemoveStop deletes a stop and closes the gap it leaves in the sequence.
func (s *DeliveryService) RemoveStop(ctx context.Context, tc domain.TenantContext, stopID uuid.UUID) error {
	return run(ctx, s.store, tc, func(tx repository.Tx) error {
		stop, err := tx.Routes().GetStopForUpdate(ctx, stopID)
		if err != nil {
			return err
		}
		if err := tx.Routes().DeleteStop(ctx, stopID); err != nil {
			return err
		}
		rest, err := tx.Routes().ListStops(ctx, stop.RouteID)
		if err != nil {
			return err
		}
		for i := range rest {
			if rest[i].StopOrder == i+1 {
				continue
			}
			rest[i].StopOrder = i + 1
			if err := tx.Routes().UpdateStop(ctx, &rest[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReorderStops rewrites stop_order from an explicit full ordering, 1-indexed.
// Each stop is written in its own unit of work; stops whose write fails are
// reported in the result alongside the error.
func (s *DeliveryService) ReorderStops(ctx context.Context, tc domain.TenantContext, routeID uuid.UUID, ordered []uuid.UUID) (*ReorderResult, error) {
	if len(ordered) == 0 {
		return nil, domain.NewValidationError("stop_ids", "at least one stop is required")
	}
	seq, err := domain.StopSequence(ordered)
	if err != nil {
		return nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	result := &ReorderResult{}
	err = s.locker.WithLock(ctx, "route", tc.TenantID, routeID, func(ctx context.Context) error {
		if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
			if _, err := tx.Routes().Get(ctx, routeID); err != nil {
				return err
			}
			stops, err := tx.Routes().ListStops(ctx, routeID)
			if err != nil {
				return err
			}
			return checkFullOrdering(stops, seq)
		}); err != nil {
			return err
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reorderConcurrency)
		for _, id := range ordered {
			id := id
			g.Go(func() error {
				err := run(gctx, s.store, tc, func(tx repository.Tx) error {
					stop, err := tx.Routes().GetStopForUpdate(gctx, id)
					if err != nil {
						return err
					}
					stop.StopOrder = seq[id]
					return tx.Routes().UpdateStop(gctx, stop)
				})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed = append(result.Failed, id)
					return fmt.Errorf("reorder stop %s: %w", id, err)
				}
				result.Updated = append(result.Updated, id)
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		if len(result.Updated) > 0 || len(result.Failed) > 0 {
			log.Error().Err(err).
				Str("tenant_id", tc.TenantID.String()).
				Str("route_id", routeID.String()).
				Int("updated", len(result.Updated)).
				Int("failed", len(result.Failed)).
				Msg("stop reorder partially applied")
			s.metrics.PartialFailure("reorder_stops")
			return result, err
		}
		return nil, err
	}
	return result, nil
}

func checkFullOrdering(stops []domain.DeliveryStop, seq map[uuid.UUID]int) error {
	if len(stops) != len(seq) {
		return domain.NewValidationError("stop_ids", "expected all %d stops of the route, got %d", len(stops), len(seq))
	}
	for _, stop := range stops {
		if _, ok := seq[stop.ID]; !ok {
			return domain.NewValidationError("stop_ids", "stop %s is missing from the ordering", stop.ID)
		}
	}
	return nil
}

// MarkStopDelivered stamps the stop and moves a packed or out-for-delivery
// order to delivered. Orders in any other status are left as they are.
func (s *DeliveryService) MarkStopDelivered(ctx context.Context, tc domain.TenantContext, stopID uuid.UUID, notes *string) (*MarkDeliveredResult, error) {
	now := s.now()
	var (
		stop     *domain.DeliveryStop
		order    *domain.Order
		customer *domain.Customer
		from     domain.OrderStatus
		advanced bool
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		stop, err = tx.Routes().GetStopForUpdate(ctx, stopID)
		if err != nil {
			return err
		}
		if stop.Delivered {
			return domain.NewConflictError("stop %s is already delivered", stopID)
		}
		delivered := now
		stop.Delivered = true
		stop.DeliveredAt = &delivered
		if notes != nil {
			stop.Notes = notes
		}
		if err := tx.Routes().UpdateStop(ctx, stop); err != nil {
			return err
		}

		order, err = tx.Orders().GetForUpdate(ctx, stop.OrderID)
		if err != nil {
			return err
		}
		from = order.Status
		advanced = order.Advance(domain.OrderDelivered, domain.StopDeliverySources, now)
		if !advanced {
			return nil
		}
		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}
		if customer, err = tx.Catalog().GetCustomer(ctx, order.CustomerID); err != nil {
			log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("notification customer lookup failed")
			customer = nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		recordTransition(s.metrics, tc, order, from)
		s.notifier.Publish(orderEvent(domain.EventOrderStatusChanged, order, customer, now))
	}
	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("stop_id", stopID.String()).
		Str("order_id", order.ID.String()).
		Bool("order_advanced", advanced).
		Msg("stop delivered")

	return &MarkDeliveredResult{Stop: stop, OrderStatus: order.Status, OrderAdvanced: advanced}, nil
}

// CompleteRoute closes a route once every stop is delivered.
func (s *DeliveryService) CompleteRoute(ctx context.Context, tc domain.TenantContext, routeID uuid.UUID) (*domain.DeliveryRoute, error) {
	var route *domain.DeliveryRoute
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		route, err = tx.Routes().GetForUpdate(ctx, routeID)
		if err != nil {
			return err
		}
		if route.IsComplete {
			return domain.NewConflictError("route %s is already complete", route.Name)
		}
		stops, err := tx.Routes().ListStops(ctx, routeID)
		if err != nil {
			return err
		}
		if n := domain.CountUndelivered(stops); n > 0 {
			return domain.NewConflictError("cannot complete route: %d stop(s) not yet delivered", n)
		}
		completed := s.now()
		route.IsComplete = true
		route.CompletedAt = &completed
		route.Stops = stops
		return tx.Routes().Update(ctx, route)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("route_id", routeID.String()).
		Msg("route completed")
	return route, nil
}

func routable(status domain.OrderStatus) bool {
	for _, s := range routableStatuses {
		if s == status {
			return true
		}
	}
	return false
}
