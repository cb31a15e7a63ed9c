package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

// Store opens units of work. Every unit of work is bound to one tenant: reads
// and writes outside that tenant fail with domain.TenantMismatchError.
type Store interface {
	WithTx(ctx context.Context, tenantID uuid.UUID, fn func(tx Tx) error) error
}

// Tx exposes the aggregate repositories inside one unit of work. Methods named
// ...ForUpdate lock the row until the unit of work ends, serializing concurrent
// writers of the same aggregate.
type Tx interface {
	Catalog() CatalogRepository
	Lots() LotRepository
	Cutting() CuttingRepository
	Orders() OrderRepository
	PickLists() PickListRepository
	PurchaseOrders() PORepository
	Routes() RouteRepository
}

type CatalogRepository interface {
	InsertProduct(ctx context.Context, p *domain.Product) error
	InsertVariant(ctx context.Context, v *domain.Variant) error
	InsertCustomer(ctx context.Context, c *domain.Customer) error
	GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error)
	ListActiveVariants(ctx context.Context) ([]domain.Variant, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	// FindPricing returns nil without error when the customer has no override.
	FindPricing(ctx context.Context, customerID, variantID uuid.UUID) (*domain.CustomerPricing, error)
	ListPricing(ctx context.Context, customerID uuid.UUID) ([]domain.CustomerPricing, error)
	// UpsertPricing inserts or replaces rows keyed by (customer, variant).
	UpsertPricing(ctx context.Context, rows []domain.CustomerPricing) error
	DeletePricing(ctx context.Context, customerID, variantID uuid.UUID) error
}

type LotRepository interface {
	Insert(ctx context.Context, lot *domain.InventoryLot) error
	Get(ctx context.Context, id uuid.UUID) (*domain.InventoryLot, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.InventoryLot, error)
	Update(ctx context.Context, lot *domain.InventoryLot) error
	// List returns lots in any of statuses, or all lots when statuses is empty.
	List(ctx context.Context, statuses []domain.LotStatus) ([]domain.InventoryLot, error)
}

type CuttingRepository interface {
	InsertSession(ctx context.Context, s *domain.CuttingSession) error
	InsertItems(ctx context.Context, items []domain.CuttingSessionItem) error
	GetSession(ctx context.Context, id uuid.UUID) (*domain.CuttingSession, error)
	ListItems(ctx context.Context, sessionID uuid.UUID) ([]domain.CuttingSessionItem, error)
}

type OrderRepository interface {
	// NextOrderNumber allocates the next number of the tenant for day.
	NextOrderNumber(ctx context.Context, day time.Time) (string, error)
	Insert(ctx context.Context, o *domain.Order) error
	InsertItems(ctx context.Context, items []domain.OrderItem) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	List(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	GetItemForUpdate(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error)
	UpdateItem(ctx context.Context, item *domain.OrderItem) error
}

type PickListRepository interface {
	// Insert fails with a ConflictError when the order already has a pick list.
	Insert(ctx context.Context, pl *domain.PickList) error
	InsertItems(ctx context.Context, items []domain.PickListItem) error
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.PickList, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PickList, error)
	Update(ctx context.Context, pl *domain.PickList) error
	ListItems(ctx context.Context, pickListID uuid.UUID) ([]domain.PickListItem, error)
	GetItemForUpdate(ctx context.Context, id uuid.UUID) (*domain.PickListItem, error)
	UpdateItem(ctx context.Context, item *domain.PickListItem) error
}

type RouteRepository interface {
	Insert(ctx context.Context, r *domain.DeliveryRoute) error
	Get(ctx context.Context, id uuid.UUID) (*domain.DeliveryRoute, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeliveryRoute, error)
	Update(ctx context.Context, r *domain.DeliveryRoute) error
	Delete(ctx context.Context, id uuid.UUID) error
	InsertStop(ctx context.Context, s *domain.DeliveryStop) error
	GetStopForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeliveryStop, error)
	UpdateStop(ctx context.Context, s *domain.DeliveryStop) error
	DeleteStop(ctx context.Context, id uuid.UUID) error
	DeleteStops(ctx context.Context, routeID uuid.UUID) error
	ListStops(ctx context.Context, routeID uuid.UUID) ([]domain.DeliveryStop, error)
	MaxStopOrder(ctx context.Context, routeID uuid.UUID) (int, error)
}
