package service

import (
	"errors"
	"testing"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

func TestPlaceOrderPricesFromCatalog(t *testing.T) {
	f := newFixture(t)

	order := f.placeOrder(t, "5")
	if order.EstimatedTotal.StringFixed(2) != "60.00" {
		t.Errorf("estimated total = %s, want 60.00", order.EstimatedTotal.StringFixed(2))
	}
	if order.OrderNumber != "ORD-20240305-0001" {
		t.Errorf("order number = %s", order.OrderNumber)
	}
	if order.Status != domain.OrderPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if len(order.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(order.Items))
	}

	if kinds := f.events.kinds(); len(kinds) != 1 || kinds[0] != domain.EventOrderPlaced {
		t.Errorf("events = %v, want one order.placed", kinds)
	}
	if f.events.last().CustomerEmail != "chef@bistro.test" {
		t.Errorf("event email = %q", f.events.last().CustomerEmail)
	}
}

func TestPlaceOrderUsesCustomerPriceOverClientPrice(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Catalog.UpsertPricing(f.ctx, f.tc, UpsertPricingInput{
		CustomerID:   f.customer.ID,
		VariantID:    f.ribeye.ID,
		PricePerUnit: dec("10"),
	}); err != nil {
		t.Fatalf("UpsertPricing: %v", err)
	}

	stale := dec("12")
	res, err := f.svc.Orders.PlaceOrder(f.ctx, f.tc, PlaceOrderInput{
		CustomerID: f.customer.ID,
		Items:      []OrderItemInput{{VariantID: f.ribeye.ID, Quantity: dec("2.5"), PricePerUnit: &stale}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Order.EstimatedTotal.StringFixed(2) != "25.00" {
		t.Errorf("estimated total = %s, want 25.00", res.Order.EstimatedTotal.StringFixed(2))
	}
	if !res.Order.Items[0].PricePerUnit.Equal(dec("10")) {
		t.Errorf("price = %s, want 10", res.Order.Items[0].PricePerUnit)
	}
}

func TestPlaceOrderCaseLine(t *testing.T) {
	f := newFixture(t)
	box := f.variant(t, "Ground beef case", domain.UnitCase, "5", ptr(dec("10")))

	res, err := f.svc.Orders.PlaceOrder(f.ctx, f.tc, PlaceOrderInput{
		CustomerID: f.customer.ID,
		Items: []OrderItemInput{
			{VariantID: box.ID, Quantity: dec("2")},
			{VariantID: f.ribeye.ID, Quantity: dec("1")},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	// 2 cases x 10 lb x $5 + 1 lb x $12
	if res.Order.EstimatedTotal.StringFixed(2) != "112.00" {
		t.Errorf("estimated total = %s, want 112.00", res.Order.EstimatedTotal.StringFixed(2))
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input PlaceOrderInput
	}{
		{"no items", PlaceOrderInput{CustomerID: f.customer.ID}},
		{"zero quantity", PlaceOrderInput{CustomerID: f.customer.ID, Items: []OrderItemInput{{VariantID: f.ribeye.ID, Quantity: dec("0")}}}},
		{"missing variant id", PlaceOrderInput{CustomerID: f.customer.ID, Items: []OrderItemInput{{Quantity: dec("1")}}}},
		{"wrong unit", PlaceOrderInput{CustomerID: f.customer.ID, Items: []OrderItemInput{{VariantID: f.ribeye.ID, Quantity: dec("1"), Unit: domain.UnitCase}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Orders.PlaceOrder(f.ctx, f.tc, tt.input)
			if !domain.IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	orders, err := f.svc.Orders.ListOrders(f.ctx, f.tc, nil, 0)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("rejected orders were persisted: %d", len(orders))
	}
}

func TestPlaceOrderItemsFailureReturnsWarning(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("orders.InsertItems", errors.New("connection reset"))

	res, err := f.svc.Orders.PlaceOrder(f.ctx, f.tc, PlaceOrderInput{
		CustomerID: f.customer.ID,
		Items:      []OrderItemInput{{VariantID: f.ribeye.ID, Quantity: dec("5")}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error instead of warning: %v", err)
	}
	if res.Warning == nil {
		t.Fatal("expected a partial failure warning")
	}
	if res.Warning.Reference != res.Order.OrderNumber {
		t.Errorf("warning reference = %q, want %q", res.Warning.Reference, res.Order.OrderNumber)
	}

	got, err := f.svc.Orders.GetOrder(f.ctx, f.tc, res.Order.ID)
	if err != nil {
		t.Fatalf("header should exist: %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("items = %d, want 0", len(got.Items))
	}
}

func TestUpdateStatusFollowsAdjacency(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t, "5")

	if _, err := f.svc.Orders.UpdateStatus(f.ctx, f.tc, order.ID, "weighed"); !domain.IsInvalidTransition(err) {
		t.Fatalf("pending -> weighed: expected InvalidTransitionError, got %v", err)
	}
	if _, err := f.svc.Orders.UpdateStatus(f.ctx, f.tc, order.ID, "shipped"); !domain.IsValidation(err) {
		t.Fatalf("unknown status: expected ValidationError, got %v", err)
	}

	f.advance(t, order.ID, domain.OrderConfirmed, domain.OrderProcessing, domain.OrderWeighed,
		domain.OrderPacked, domain.OrderOutForDelivery, domain.OrderDelivered)

	got, err := f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.DeliveredAt == nil || !got.DeliveredAt.Equal(fixedNow) {
		t.Errorf("delivered_at = %v", got.DeliveredAt)
	}

	// placed + confirmed + out_for_delivery + delivered
	kinds := f.events.kinds()
	if len(kinds) != 4 {
		t.Fatalf("events = %v, want 4", kinds)
	}
	if f.events.last().StatusLabel != "Delivered" {
		t.Errorf("last label = %q", f.events.last().StatusLabel)
	}

	if _, err := f.svc.Orders.UpdateStatus(f.ctx, f.tc, order.ID, "cancelled"); !domain.IsInvalidTransition(err) {
		t.Fatalf("delivered -> cancelled: expected InvalidTransitionError, got %v", err)
	}
}

func TestUpdateItemWeightAndRecalculate(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t, "5")
	itemID := order.Items[0].ID

	if _, err := f.svc.Orders.UpdateItemWeight(f.ctx, f.tc, itemID, dec("0")); !domain.IsValidation(err) {
		t.Fatalf("zero weight: expected ValidationError, got %v", err)
	}
	if _, err := f.svc.Orders.UpdateItemWeight(f.ctx, f.tc, itemID, dec("0.003")); !domain.IsValidation(err) {
		t.Fatalf("weight rounding to zero: expected ValidationError, got %v", err)
	}

	item, err := f.svc.Orders.UpdateItemWeight(f.ctx, f.tc, itemID, dec("4.8"))
	if err != nil {
		t.Fatalf("UpdateItemWeight: %v", err)
	}
	if item.ActualLineTotal.StringFixed(2) != "57.60" {
		t.Errorf("actual line total = %s, want 57.60", item.ActualLineTotal.StringFixed(2))
	}

	first, err := f.svc.Orders.RecalculateTotal(f.ctx, f.tc, order.ID)
	if err != nil {
		t.Fatalf("RecalculateTotal: %v", err)
	}
	second, err := f.svc.Orders.RecalculateTotal(f.ctx, f.tc, order.ID)
	if err != nil {
		t.Fatalf("RecalculateTotal: %v", err)
	}
	if !first.Equal(second) || first.StringFixed(2) != "57.60" {
		t.Errorf("totals = %s, %s, want 57.60 twice", first, second)
	}
}

func TestPendingOrders(t *testing.T) {
	f := newFixture(t)
	a := f.placeOrder(t, "1")
	b := f.placeOrder(t, "2")
	f.advance(t, a.ID, domain.OrderConfirmed)

	pending, err := f.svc.Orders.PendingOrders(f.ctx, f.tc)
	if err != nil {
		t.Fatalf("PendingOrders: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("pending = %+v, want only %s", pending, b.OrderNumber)
	}
	if pending[0].BusinessName != "Bistro" {
		t.Errorf("business name = %q", pending[0].BusinessName)
	}
}

func TestOrdersAreTenantScoped(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t, "5")
	other := domain.TenantContext{TenantID: uuid.New()}

	if _, err := f.svc.Orders.GetOrder(f.ctx, other, order.ID); !domain.IsTenantMismatch(err) {
		t.Fatalf("expected TenantMismatchError, got %v", err)
	}
	if _, err := f.svc.Orders.UpdateStatus(f.ctx, other, order.ID, "confirmed"); !domain.IsTenantMismatch(err) {
		t.Fatalf("expected TenantMismatchError, got %v", err)
	}
	if _, err := f.svc.Orders.GetOrder(f.ctx, domain.TenantContext{}, order.ID); !domain.IsValidation(err) {
		t.Fatalf("missing tenant: expected ValidationError, got %v", err)
	}
}
