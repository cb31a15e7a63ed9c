package service

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type PickListService struct {
	store   repository.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewPickListService(deps Dependencies) *PickListService {
	deps = deps.withDefaults()
	return &PickListService{store: deps.Store, metrics: deps.Metrics, now: deps.Clock}
}

type PickItemInput struct {
	LotID        uuid.UUID       `json:"lot_id" validate:"required"`
	PickedWeight decimal.Decimal `json:"picked_weight_lb" validate:"gt=0"`
}

type CompletePickListResult struct {
	PickList    *domain.PickList   `json:"pick_list"`
	OrderStatus domain.OrderStatus `json:"order_status"`
	// OrderAdvanced is false when the order had already left confirmed/processing.
	OrderAdvanced bool `json:"order_advanced"`
}

// Generate creates one unpicked line per order item. An order still in
// confirmed moves to processing.
func (s *PickListService) Generate(ctx context.Context, tc domain.TenantContext, orderID uuid.UUID, assignedTo *uuid.UUID) (*domain.PickList, error) {
	now := s.now()
	var (
		pl       *domain.PickList
		order    *domain.Order
		from     domain.OrderStatus
		advanced bool
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		order, err = tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if order.Status != domain.OrderConfirmed && order.Status != domain.OrderProcessing {
			return domain.NewConflictError("order %s must be confirmed or processing to generate a pick list (currently %s)", order.OrderNumber, order.Status)
		}
		exists, err := tx.PickLists().ExistsForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConflictError("order %s already has a pick list", order.OrderNumber)
		}

		orderItems, err := tx.Orders().ListItems(ctx, orderID)
		if err != nil {
			return err
		}

		pl = &domain.PickList{
			ID:         uuid.New(),
			TenantID:   tc.TenantID,
			OrderID:    orderID,
			AssignedTo: assignedTo,
			CreatedAt:  now,
		}
		pl.Items = make([]domain.PickListItem, 0, len(orderItems))
		for _, oi := range orderItems {
			pl.Items = append(pl.Items, domain.PickListItem{
				ID:          uuid.New(),
				TenantID:    tc.TenantID,
				PickListID:  pl.ID,
				OrderItemID: oi.ID,
			})
		}
		if err := tx.PickLists().Insert(ctx, pl); err != nil {
			return err
		}
		if err := tx.PickLists().InsertItems(ctx, pl.Items); err != nil {
			return err
		}

		advanced = order.Advance(domain.OrderProcessing, []domain.OrderStatus{domain.OrderConfirmed}, now)
		if advanced {
			return tx.Orders().Update(ctx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		recordTransition(s.metrics, tc, order, from)
	}
	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("pick_list_id", pl.ID.String()).
		Str("order_id", orderID.String()).
		Int("items", len(pl.Items)).
		Msg("pick list generated")
	return pl, nil
}

func (s *PickListService) Assign(ctx context.Context, tc domain.TenantContext, pickListID, assignedTo uuid.UUID) (*domain.PickList, error) {
	var pl *domain.PickList
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		pl, err = tx.PickLists().GetForUpdate(ctx, pickListID)
		if err != nil {
			return err
		}
		pl.AssignedTo = &assignedTo
		return tx.PickLists().Update(ctx, pl)
	})
	return pl, err
}

// Get returns the pick list with its items.
func (s *PickListService) Get(ctx context.Context, tc domain.TenantContext, pickListID uuid.UUID) (*domain.PickList, error) {
	var pl *domain.PickList
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		pl, err = tx.PickLists().Get(ctx, pickListID)
		if err != nil {
			return err
		}
		pl.Items, err = tx.PickLists().ListItems(ctx, pickListID)
		return err
	})
	return pl, err
}

// PickItem binds a lot and catch weight to the line and mirrors both onto the
// order item. The lot balance is drawn down when the pick list completes.
func (s *PickListService) PickItem(ctx context.Context, tc domain.TenantContext, itemID uuid.UUID, input PickItemInput) (*domain.PickListItem, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	weight, err := domain.RoundPositive("picked_weight_lb", input.PickedWeight)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var item *domain.PickListItem
	err = run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		item, err = tx.PickLists().GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Picked {
			return domain.NewConflictError("pick list item %s is already picked, unpick it first", itemID)
		}
		if err := requireOpen(ctx, tx, item.PickListID); err != nil {
			return err
		}

		lot, err := tx.Lots().Get(ctx, input.LotID)
		if err != nil {
			return err
		}
		if !lot.Status.Deductible() {
			return domain.NewConflictError("lot %s cannot be picked from while %s", lot.LotNumber, lot.Status)
		}

		orderItem, err := tx.Orders().GetItemForUpdate(ctx, item.OrderItemID)
		if err != nil {
			return err
		}
		order, err := tx.Orders().Get(ctx, orderItem.OrderID)
		if err != nil {
			return err
		}
		if order.Status == domain.OrderCancelled {
			return domain.NewConflictError("order %s is cancelled, nothing can be picked for it", order.OrderNumber)
		}
		if err := orderItem.BindLot(lot.ID, weight); err != nil {
			return err
		}
		item.Pick(lot.ID, weight, now)

		if err := tx.PickLists().UpdateItem(ctx, item); err != nil {
			return err
		}
		return tx.Orders().UpdateItem(ctx, orderItem)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("pick_list_item_id", itemID.String()).
		Str("lot_id", input.LotID.String()).
		Str("picked_weight_lb", item.PickedWeight.StringFixed(2)).
		Msg("item picked")
	return item, nil
}

// UnpickItem clears the pick on both the pick list item and the order item.
func (s *PickListService) UnpickItem(ctx context.Context, tc domain.TenantContext, itemID uuid.UUID) (*domain.PickListItem, error) {
	var item *domain.PickListItem
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		item, err = tx.PickLists().GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if err := requireOpen(ctx, tx, item.PickListID); err != nil {
			return err
		}
		orderItem, err := tx.Orders().GetItemForUpdate(ctx, item.OrderItemID)
		if err != nil {
			return err
		}
		orderItem.ClearPick()
		item.Unpick()
		if err := tx.PickLists().UpdateItem(ctx, item); err != nil {
			return err
		}
		return tx.Orders().UpdateItem(ctx, orderItem)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("pick_list_item_id", itemID.String()).
		Msg("item unpicked")
	return item, nil
}

// Complete closes a fully picked list. Picked weight is drawn from each bound
// lot and the order moves to weighed when it is still confirmed or processing.
// A cancelled order is rejected before any lot is touched; an order already
// past processing keeps its status but the goods still leave inventory.
func (s *PickListService) Complete(ctx context.Context, tc domain.TenantContext, pickListID uuid.UUID) (*CompletePickListResult, error) {
	now := s.now()
	var (
		pl       *domain.PickList
		order    *domain.Order
		from     domain.OrderStatus
		advanced bool
		draws    map[uuid.UUID]decimal.Decimal
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		pl, err = tx.PickLists().GetForUpdate(ctx, pickListID)
		if err != nil {
			return err
		}
		if pl.IsComplete {
			return domain.NewConflictError("pick list %s is already complete", pickListID)
		}
		pl.Items, err = tx.PickLists().ListItems(ctx, pickListID)
		if err != nil {
			return err
		}
		if n := domain.CountUnpicked(pl.Items); n > 0 {
			return domain.NewConflictError("cannot complete pick list: %d item(s) still unpicked", n)
		}

		order, err = tx.Orders().GetForUpdate(ctx, pl.OrderID)
		if err != nil {
			return err
		}
		if order.Status == domain.OrderCancelled {
			return domain.NewConflictError("order %s was cancelled, pick list cannot be completed", order.OrderNumber)
		}

		draws = domain.LotDraws(pl.Items)
		for _, lotID := range sortedLotIDs(draws) {
			lot, err := tx.Lots().GetForUpdate(ctx, lotID)
			if err != nil {
				return err
			}
			if err := lot.Deduct(draws[lotID]); err != nil {
				return err
			}
			lot.UpdatedAt = now
			if err := tx.Lots().Update(ctx, lot); err != nil {
				return err
			}
		}

		completed := now
		pl.IsComplete = true
		pl.CompletedAt = &completed
		if err := tx.PickLists().Update(ctx, pl); err != nil {
			return err
		}

		from = order.Status
		advanced = order.Advance(domain.OrderWeighed, domain.PickCompletionSources, now)
		if advanced {
			return tx.Orders().Update(ctx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, w := range draws {
		s.metrics.LotDeducted("pick", w.InexactFloat64())
	}
	if advanced {
		recordTransition(s.metrics, tc, order, from)
	} else {
		log.Warn().
			Str("tenant_id", tc.TenantID.String()).
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Msg("pick list completed but order was not in a pickable status, leaving it unchanged")
	}
	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("pick_list_id", pickListID.String()).
		Int("lots_drawn", len(draws)).
		Msg("pick list completed")

	return &CompletePickListResult{PickList: pl, OrderStatus: order.Status, OrderAdvanced: advanced}, nil
}

func requireOpen(ctx context.Context, tx repository.Tx, pickListID uuid.UUID) error {
	pl, err := tx.PickLists().Get(ctx, pickListID)
	if err != nil {
		return err
	}
	if pl.IsComplete {
		return domain.NewConflictError("pick list %s is already complete", pickListID)
	}
	return nil
}

// sortedLotIDs fixes the row lock order so concurrent completions cannot deadlock.
func sortedLotIDs(draws map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(draws))
	for id := range draws {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
