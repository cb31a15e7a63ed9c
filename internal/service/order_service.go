package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/notify"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const pendingOrdersLimit = 20

type OrderService struct {
	store    repository.Store
	notifier notify.Publisher
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewOrderService(deps Dependencies) *OrderService {
	deps = deps.withDefaults()
	return &OrderService{store: deps.Store, notifier: deps.Notifier, metrics: deps.Metrics, now: deps.Clock}
}

type OrderItemInput struct {
	VariantID uuid.UUID       `json:"variant_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit      domain.Unit     `json:"unit" validate:"omitempty,oneof=lb kg each case"`
	// PricePerUnit is what the client displayed. The server resolves the
	// price itself and only logs a mismatch.
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
}

type PlaceOrderInput struct {
	CustomerID uuid.UUID        `json:"customer_id" validate:"required"`
	Items      []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Notes      *string          `json:"notes"`
}

type PlaceOrderResult struct {
	Order   *domain.Order   `json:"order"`
	Warning *domain.Warning `json:"warning,omitempty"`
}

// PendingOrder is the compact view the new-order poller consumes.
type PendingOrder struct {
	ID             uuid.UUID       `json:"id"`
	OrderNumber    string          `json:"order_number"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
	BusinessName   string          `json:"business_name"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PlaceOrder prices the cart, writes the order header and then its lines. If
// the lines fail after the header committed the order still exists; the result
// carries a warning with its number so the client can reference it.
func (s *OrderService) PlaceOrder(ctx context.Context, tc domain.TenantContext, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		ID:         uuid.New(),
		TenantID:   tc.TenantID,
		CustomerID: input.CustomerID,
		Status:     domain.OrderPending,
		PlacedBy:   actorRef(tc),
		Notes:      input.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var (
		items    []domain.OrderItem
		customer *domain.Customer
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		customer, err = tx.Catalog().GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return err
		}

		items, err = s.priceLines(ctx, tx, order, input.Items, now)
		if err != nil {
			return err
		}

		order.EstimatedTotal = domain.RecalculateTotal(items)
		order.OrderNumber, err = tx.Orders().NextOrderNumber(ctx, now)
		if err != nil {
			return err
		}
		return tx.Orders().Insert(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	result := &PlaceOrderResult{Order: order}
	err = run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.Orders().InsertItems(ctx, items)
	})
	if err != nil {
		s.metrics.PartialFailure("place_order")
		log.Error().Err(err).
			Str("tenant_id", tc.TenantID.String()).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("order placed but line items failed to save")
		result.Warning = &domain.Warning{
			Kind:      "partial_failure",
			Message:   "Order placed but some items may not have saved. Please check your order history.",
			Reference: order.OrderNumber,
		}
	} else {
		order.Items = items
	}

	s.metrics.OrderPlaced()
	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("estimated_total", order.EstimatedTotal.StringFixed(2)).
		Msg("order placed")
	s.notifier.Publish(orderEvent(domain.EventOrderPlaced, order, customer, now))

	return result, nil
}

func (s *OrderService) priceLines(ctx context.Context, tx repository.Tx, order *domain.Order, lines []OrderItemInput, now time.Time) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	for i, line := range lines {
		variant, err := tx.Catalog().GetVariant(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		if !variant.IsActive {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].variant_id", i), "variant %s is not available", variant.Name)
		}
		if line.Unit != "" && line.Unit != variant.Unit {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].unit", i), "variant %s is sold by %s", variant.Name, variant.Unit)
		}

		override, err := tx.Catalog().FindPricing(ctx, order.CustomerID, variant.ID)
		if err != nil {
			return nil, err
		}
		price, _ := domain.ResolvePrice(variant, override)
		if line.PricePerUnit != nil && !line.PricePerUnit.Equal(price) {
			log.Warn().
				Str("variant_id", variant.ID.String()).
				Str("client_price", line.PricePerUnit.String()).
				Str("resolved_price", price.String()).
				Msg("client price differs from resolved price, using resolved price")
		}

		weight, total, err := domain.EstimateLine(variant, line.Quantity, price)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ID:                 uuid.New(),
			TenantID:           order.TenantID,
			OrderID:            order.ID,
			VariantID:          variant.ID,
			Quantity:           line.Quantity,
			Unit:               variant.Unit,
			PricePerUnit:       price,
			EstimatedWeight:    weight,
			EstimatedLineTotal: total,
			CreatedAt:          now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return items, nil
}

// UpdateStatus applies a manual transition from the adjacency table.
func (s *OrderService) UpdateStatus(ctx context.Context, tc domain.TenantContext, orderID uuid.UUID, status string) (*domain.Order, error) {
	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, domain.NewValidationError("status", "unknown order status %q", status)
	}

	now := s.now()
	var (
		order    *domain.Order
		customer *domain.Customer
		from     domain.OrderStatus
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		order, err = tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if err := order.TransitionTo(next, now); err != nil {
			return err
		}
		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}
		if next.Notifies() {
			customer, err = tx.Catalog().GetCustomer(ctx, order.CustomerID)
			if err != nil {
				// the transition stands even if the notification cannot be addressed
				log.Warn().Err(err).Str("order_id", orderID.String()).Msg("notification customer lookup failed")
				customer = nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordTransition(s.metrics, tc, order, from)
	if next.Notifies() {
		s.notifier.Publish(orderEvent(domain.EventOrderStatusChanged, order, customer, now))
	}
	return order, nil
}

// UpdateItemWeight is the admin override for a line's catch weight.
func (s *OrderService) UpdateItemWeight(ctx context.Context, tc domain.TenantContext, itemID uuid.UUID, weight decimal.Decimal) (*domain.OrderItem, error) {
	weight, err := domain.RoundPositive("actual_weight_lb", weight)
	if err != nil {
		return nil, err
	}

	var item *domain.OrderItem
	err = run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		item, err = tx.Orders().GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if err := item.ApplyActualWeight(weight); err != nil {
			return err
		}
		return tx.Orders().UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("order_item_id", itemID.String()).
		Str("actual_weight_lb", item.ActualWeight.StringFixed(2)).
		Str("actual_line_total", item.ActualLineTotal.StringFixed(2)).
		Msg("order item weight updated")
	return item, nil
}

// RecalculateTotal rewrites actual_total from the current line state.
func (s *OrderService) RecalculateTotal(ctx context.Context, tc domain.TenantContext, orderID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		items, err := tx.Orders().ListItems(ctx, orderID)
		if err != nil {
			return err
		}
		total = domain.RecalculateTotal(items)
		order.ActualTotal = &total
		order.UpdatedAt = s.now()
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// GetOrder returns the order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, tc domain.TenantContext, orderID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		order, err = tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		order.Items, err = tx.Orders().ListItems(ctx, orderID)
		return err
	})
	return order, err
}

// ListOrders returns orders newest first, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, tc domain.TenantContext, statuses []domain.OrderStatus, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		orders, err = tx.Orders().List(ctx, statuses, limit)
		return err
	})
	return orders, err
}

// PendingOrders lists the latest pending orders with their customer names.
func (s *OrderService) PendingOrders(ctx context.Context, tc domain.TenantContext) ([]PendingOrder, error) {
	var out []PendingOrder
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		orders, err := tx.Orders().List(ctx, []domain.OrderStatus{domain.OrderPending}, pendingOrdersLimit)
		if err != nil {
			return err
		}
		out = make([]PendingOrder, 0, len(orders))
		for _, o := range orders {
			name := "Unknown"
			if c, err := tx.Catalog().GetCustomer(ctx, o.CustomerID); err == nil {
				name = c.BusinessName
			}
			out = append(out, PendingOrder{
				ID:             o.ID,
				OrderNumber:    o.OrderNumber,
				EstimatedTotal: o.EstimatedTotal,
				BusinessName:   name,
				CreatedAt:      o.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func orderEvent(kind domain.EventKind, order *domain.Order, customer *domain.Customer, at time.Time) domain.OrderEvent {
	ev := domain.OrderEvent{
		Kind:        kind,
		TenantID:    order.TenantID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		StatusLabel: order.Status.Label(),
		OccurredAt:  at,
	}
	if customer != nil {
		ev.CustomerName = customer.DisplayName()
		if customer.Email != nil {
			ev.CustomerEmail = *customer.Email
		}
	}
	return ev
}

func recordTransition(m *metrics.Metrics, tc domain.TenantContext, order *domain.Order, from domain.OrderStatus) {
	m.OrderTransition(string(from), string(order.Status))
	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("from", string(from)).
		Str("to", string(order.Status)).
		Msg("order status changed")
}
