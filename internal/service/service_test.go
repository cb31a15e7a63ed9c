package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/cache"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Publish(event domain.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

func (p *recordingPublisher) last() domain.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	cache    *cache.MemoryCatalogCache
	events   *recordingPublisher
	metrics  *metrics.Metrics
	svc      *Services
	tc       domain.TenantContext
	product  *domain.Product
	ribeye   *domain.Variant
	customer *domain.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		store:   memory.NewStore(),
		cache:   cache.NewMemoryCatalogCache(),
		events:  &recordingPublisher{},
		metrics: metrics.New(),
		tc:      domain.TenantContext{TenantID: uuid.New(), ActorID: uuid.New()},
	}
	f.svc = New(Dependencies{
		Store:    f.store,
		Cache:    f.cache,
		Notifier: f.events,
		Metrics:  f.metrics,
		Clock:    func() time.Time { return fixedNow },
	})

	var err error
	f.product, err = f.svc.Catalog.CreateProduct(f.ctx, f.tc, CreateProductInput{Name: "Ribeye"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	f.ribeye = f.variant(t, "Ribeye 1in", domain.UnitLb, "12", nil)

	email := "chef@bistro.test"
	contact := "Sam"
	f.customer, err = f.svc.Catalog.CreateCustomer(f.ctx, f.tc, CreateCustomerInput{
		BusinessName: "Bistro",
		ContactName:  &contact,
		Email:        &email,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	return f
}

func (f *fixture) variant(t *testing.T, name string, unit domain.Unit, price string, perPiece *decimal.Decimal) *domain.Variant {
	t.Helper()
	weightType := domain.CatchWeight
	if unit == domain.UnitEach || unit == domain.UnitCase {
		weightType = domain.FixedWeight
	}
	v, err := f.svc.Catalog.CreateVariant(f.ctx, f.tc, CreateVariantInput{
		ProductID:           f.product.ID,
		Name:                name,
		WeightType:          weightType,
		Unit:                unit,
		DefaultPricePerUnit: dec(price),
		EstimatedWeightLb:   perPiece,
	})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	return v
}

func (f *fixture) lot(t *testing.T, number, weight string, status domain.LotStatus) *domain.InventoryLot {
	t.Helper()
	lot, err := f.svc.Inventory.CreateLot(f.ctx, f.tc, CreateLotInput{
		LotNumber:     number,
		ProductID:     f.product.ID,
		VariantID:     &f.ribeye.ID,
		Status:        status,
		InitialWeight: dec(weight),
	})
	if err != nil {
		t.Fatalf("CreateLot: %v", err)
	}
	return lot
}

// placeOrder places a single-line ribeye order.
func (f *fixture) placeOrder(t *testing.T, qty string) *domain.Order {
	t.Helper()
	res, err := f.svc.Orders.PlaceOrder(f.ctx, f.tc, PlaceOrderInput{
		CustomerID: f.customer.ID,
		Items:      []OrderItemInput{{VariantID: f.ribeye.ID, Quantity: dec(qty)}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Warning != nil {
		t.Fatalf("unexpected warning: %+v", res.Warning)
	}
	return res.Order
}

// advance walks an order through manual transitions.
func (f *fixture) advance(t *testing.T, orderID uuid.UUID, statuses ...domain.OrderStatus) {
	t.Helper()
	for _, s := range statuses {
		if _, err := f.svc.Orders.UpdateStatus(f.ctx, f.tc, orderID, string(s)); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", s, err)
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}
