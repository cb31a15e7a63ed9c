package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

type orderRepo struct{ t *tx }

func (r orderRepo) NextOrderNumber(ctx context.Context, day time.Time) (string, error) {
	stamp := day.Format("20060102")
	key := seqKey{tenantID: r.t.tenantID, day: stamp}
	r.t.state.orderSeq[key]++
	return fmt.Sprintf("ORD-%s-%04d", stamp, r.t.state.orderSeq[key]), nil
}

func (r orderRepo) Insert(ctx context.Context, o *domain.Order) error {
	if err := r.t.fault("orders.Insert"); err != nil {
		return err
	}
	for _, existing := range r.t.state.orders {
		if existing.TenantID == r.t.tenantID && existing.OrderNumber == o.OrderNumber {
			return domain.NewConflictError("order number %s already exists", o.OrderNumber)
		}
	}
	o.TenantID = r.t.tenantID
	row := *o
	row.Items = nil
	r.t.state.orders[o.ID] = row
	return nil
}

func (r orderRepo) InsertItems(ctx context.Context, items []domain.OrderItem) error {
	if err := r.t.fault("orders.InsertItems"); err != nil {
		return err
	}
	for _, item := range items {
		item.TenantID = r.t.tenantID
		r.t.state.orderItems[item.ID] = item
	}
	return nil
}

func (r orderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := r.t.state.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id)
	}
	if err := r.t.scope("order", id, o.TenantID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r orderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.Get(ctx, id)
}

func (r orderRepo) Update(ctx context.Context, o *domain.Order) error {
	if err := r.t.fault("orders.Update"); err != nil {
		return err
	}
	if _, err := r.Get(ctx, o.ID); err != nil {
		return err
	}
	row := *o
	row.Items = nil
	r.t.state.orders[o.ID] = row
	return nil
}

func (r orderRepo) List(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.t.state.orders {
		if o.TenantID != r.t.tenantID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	// newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r orderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	for _, item := range r.t.state.orderItems {
		if item.OrderID == orderID && item.TenantID == r.t.tenantID {
			out = append(out, item)
		}
	}
	sortByCreated(out, func(i domain.OrderItem) time.Time { return i.CreatedAt }, func(i domain.OrderItem) uuid.UUID { return i.ID })
	return out, nil
}

func (r orderRepo) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error) {
	item, ok := r.t.state.orderItems[id]
	if !ok {
		return nil, domain.NewNotFoundError("order item", id)
	}
	if err := r.t.scope("order item", id, item.TenantID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r orderRepo) UpdateItem(ctx context.Context, item *domain.OrderItem) error {
	if err := r.t.fault("orders.UpdateItem"); err != nil {
		return err
	}
	if _, err := r.GetItemForUpdate(ctx, item.ID); err != nil {
		return err
	}
	r.t.state.orderItems[item.ID] = *item
	return nil
}

type pickListRepo struct{ t *tx }

func (r pickListRepo) Insert(ctx context.Context, pl *domain.PickList) error {
	if err := r.t.fault("pickLists.Insert"); err != nil {
		return err
	}
	for _, existing := range r.t.state.pickLists {
		if existing.OrderID == pl.OrderID {
			return domain.NewConflictError("a pick list already exists for order %s", pl.OrderID)
		}
	}
	pl.TenantID = r.t.tenantID
	row := *pl
	row.Items = nil
	r.t.state.pickLists[pl.ID] = row
	return nil
}

func (r pickListRepo) InsertItems(ctx context.Context, items []domain.PickListItem) error {
	if err := r.t.fault("pickLists.InsertItems"); err != nil {
		return err
	}
	for _, item := range items {
		item.TenantID = r.t.tenantID
		r.t.state.pickItems[item.ID] = item
	}
	return nil
}

func (r pickListRepo) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	for _, pl := range r.t.state.pickLists {
		if pl.OrderID == orderID && pl.TenantID == r.t.tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (r pickListRepo) Get(ctx context.Context, id uuid.UUID) (*domain.PickList, error) {
	pl, ok := r.t.state.pickLists[id]
	if !ok {
		return nil, domain.NewNotFoundError("pick list", id)
	}
	if err := r.t.scope("pick list", id, pl.TenantID); err != nil {
		return nil, err
	}
	return &pl, nil
}

func (r pickListRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PickList, error) {
	return r.Get(ctx, id)
}

func (r pickListRepo) Update(ctx context.Context, pl *domain.PickList) error {
	if _, err := r.Get(ctx, pl.ID); err != nil {
		return err
	}
	row := *pl
	row.Items = nil
	r.t.state.pickLists[pl.ID] = row
	return nil
}

func (r pickListRepo) ListItems(ctx context.Context, pickListID uuid.UUID) ([]domain.PickListItem, error) {
	var out []domain.PickListItem
	for _, item := range r.t.state.pickItems {
		if item.PickListID == pickListID && item.TenantID == r.t.tenantID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r pickListRepo) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*domain.PickListItem, error) {
	item, ok := r.t.state.pickItems[id]
	if !ok {
		return nil, domain.NewNotFoundError("pick list item", id)
	}
	if err := r.t.scope("pick list item", id, item.TenantID); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r pickListRepo) UpdateItem(ctx context.Context, item *domain.PickListItem) error {
	if err := r.t.fault("pickLists.UpdateItem"); err != nil {
		return err
	}
	if _, err := r.GetItemForUpdate(ctx, item.ID); err != nil {
		return err
	}
	r.t.state.pickItems[item.ID] = *item
	return nil
}
