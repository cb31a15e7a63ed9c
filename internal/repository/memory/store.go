// Package memory is an in-process Store. Units of work run one at a time
// against a copy of the state which replaces the live state only on success,
// so a failed unit of work leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
)

type pricingKey struct {
	customerID uuid.UUID
	variantID  uuid.UUID
}

type seqKey struct {
	tenantID uuid.UUID
	day      string
}

type state struct {
	products     map[uuid.UUID]domain.Product
	variants     map[uuid.UUID]domain.Variant
	customers    map[uuid.UUID]domain.Customer
	pricing      map[pricingKey]domain.CustomerPricing
	lots         map[uuid.UUID]domain.InventoryLot
	sessions     map[uuid.UUID]domain.CuttingSession
	sessionItems map[uuid.UUID]domain.CuttingSessionItem
	orders       map[uuid.UUID]domain.Order
	orderItems   map[uuid.UUID]domain.OrderItem
	orderSeq     map[seqKey]int
	pickLists    map[uuid.UUID]domain.PickList
	pickItems    map[uuid.UUID]domain.PickListItem
	pos          map[uuid.UUID]domain.PurchaseOrder
	poItems      map[uuid.UUID]domain.PurchaseOrderItem
	routes       map[uuid.UUID]domain.DeliveryRoute
	stops        map[uuid.UUID]domain.DeliveryStop
}

func newState() *state {
	return &state{
		products:     map[uuid.UUID]domain.Product{},
		variants:     map[uuid.UUID]domain.Variant{},
		customers:    map[uuid.UUID]domain.Customer{},
		pricing:      map[pricingKey]domain.CustomerPricing{},
		lots:         map[uuid.UUID]domain.InventoryLot{},
		sessions:     map[uuid.UUID]domain.CuttingSession{},
		sessionItems: map[uuid.UUID]domain.CuttingSessionItem{},
		orders:       map[uuid.UUID]domain.Order{},
		orderItems:   map[uuid.UUID]domain.OrderItem{},
		orderSeq:     map[seqKey]int{},
		pickLists:    map[uuid.UUID]domain.PickList{},
		pickItems:    map[uuid.UUID]domain.PickListItem{},
		pos:          map[uuid.UUID]domain.PurchaseOrder{},
		poItems:      map[uuid.UUID]domain.PurchaseOrderItem{},
		routes:       map[uuid.UUID]domain.DeliveryRoute{},
		stops:        map[uuid.UUID]domain.DeliveryStop{},
	}
}

func (s *state) clone() *state {
	return &state{
		products:     maps.Clone(s.products),
		variants:     maps.Clone(s.variants),
		customers:    maps.Clone(s.customers),
		pricing:      maps.Clone(s.pricing),
		lots:         maps.Clone(s.lots),
		sessions:     maps.Clone(s.sessions),
		sessionItems: maps.Clone(s.sessionItems),
		orders:       maps.Clone(s.orders),
		orderItems:   maps.Clone(s.orderItems),
		orderSeq:     maps.Clone(s.orderSeq),
		pickLists:    maps.Clone(s.pickLists),
		pickItems:    maps.Clone(s.pickItems),
		pos:          maps.Clone(s.pos),
		poItems:      maps.Clone(s.poItems),
		routes:       maps.Clone(s.routes),
		stops:        maps.Clone(s.stops),
	}
}

type Store struct {
	mu     sync.Mutex
	state  *state
	faults map[string]error
}

func NewStore() *Store {
	return &Store{state: newState(), faults: map[string]error{}}
}

// FailNext makes the next call to op (e.g. "orders.InsertItems") return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) WithTx(ctx context.Context, tenantID uuid.UUID, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := &tx{store: s, state: s.state.clone(), tenantID: tenantID}
	if err := fn(work); err != nil {
		return err
	}
	s.state = work.state
	return nil
}

type tx struct {
	store    *Store
	state    *state
	tenantID uuid.UUID
}

// fault is called with the store mutex held by WithTx.
func (t *tx) fault(op string) error {
	if err, ok := t.store.faults[op]; ok {
		delete(t.store.faults, op)
		return err
	}
	return nil
}

func (t *tx) scope(entity string, id, owner uuid.UUID) error {
	return domain.CheckTenant(entity, id, owner, t.tenantID)
}

func (t *tx) Catalog() repository.CatalogRepository   { return catalogRepo{t} }
func (t *tx) Lots() repository.LotRepository           { return lotRepo{t} }
func (t *tx) Cutting() repository.CuttingRepository    { return cuttingRepo{t} }
func (t *tx) Orders() repository.OrderRepository       { return orderRepo{t} }
func (t *tx) PickLists() repository.PickListRepository { return pickListRepo{t} }
func (t *tx) PurchaseOrders() repository.PORepository  { return poRepo{t} }
func (t *tx) Routes() repository.RouteRepository       { return routeRepo{t} }

var _ repository.Store = (*Store)(nil)

func sortByCreated[T any](rows []T, created func(T) time.Time, id func(T) uuid.UUID) {
	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := created(rows[i]), created(rows[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(rows[i]).String() < id(rows[j]).String()
	})
}
