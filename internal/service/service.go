package service

import (
	"context"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/cache"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/lock"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/notify"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
)

// Dependencies are the collaborators shared by every service.
type Dependencies struct {
	Store    repository.Store
	Cache    cache.CatalogCache
	Locker   lock.Locker
	Notifier notify.Publisher
	Metrics  *metrics.Metrics
	Clock    func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Cache == nil {
		d.Cache = cache.NewNoopCatalogCache()
	}
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Discard{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// Services bundles the core operations exposed over HTTP.
type Services struct {
	Catalog        *CatalogService
	Inventory      *InventoryService
	Cutting        *CuttingService
	Orders         *OrderService
	PickLists      *PickListService
	Delivery       *DeliveryService
	PurchaseOrders *PurchaseOrderService
}

func New(deps Dependencies) *Services {
	deps = deps.withDefaults()
	return &Services{
		Catalog:        NewCatalogService(deps),
		Inventory:      NewInventoryService(deps),
		Cutting:        NewCuttingService(deps),
		Orders:         NewOrderService(deps),
		PickLists:      NewPickListService(deps),
		Delivery:       NewDeliveryService(deps),
		PurchaseOrders: NewPurchaseOrderService(deps),
	}
}

// run validates the tenant context and opens a unit of work bound to it.
func run(ctx context.Context, store repository.Store, tc domain.TenantContext, fn func(tx repository.Tx) error) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	return store.WithTx(ctx, tc.TenantID, fn)
}

// actorRef is the acting user as a nullable reference.
func actorRef(tc domain.TenantContext) *uuid.UUID {
	if tc.ActorID == uuid.Nil {
		return nil
	}
	id := tc.ActorID
	return &id
}
