package memory

import (
	"context"
	"sort"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

type poRepo struct{ t *tx }

func (r poRepo) Insert(ctx context.Context, po *domain.PurchaseOrder) error {
	if err := r.t.fault("purchaseOrders.Insert"); err != nil {
		return err
	}
	po.TenantID = r.t.tenantID
	row := *po
	row.Items = nil
	r.t.state.pos[po.ID] = row
	return nil
}

func (r poRepo) InsertItems(ctx context.Context, items []domain.PurchaseOrderItem) error {
	if err := r.t.fault("purchaseOrders.InsertItems"); err != nil {
		return err
	}
	for _, item := range items {
		item.TenantID = r.t.tenantID
		r.t.state.poItems[item.ID] = item
	}
	return nil
}

func (r poRepo) Get(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	po, ok := r.t.state.pos[id]
	if !ok {
		return nil, domain.NewNotFoundError("purchase order", id)
	}
	if err := r.t.scope("purchase order", id, po.TenantID); err != nil {
		return nil, err
	}
	return &po, nil
}

func (r poRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return r.Get(ctx, id)
}

func (r poRepo) Update(ctx context.Context, po *domain.PurchaseOrder) error {
	if _, err := r.Get(ctx, po.ID); err != nil {
		return err
	}
	row := *po
	row.Items = nil
	r.t.state.pos[po.ID] = row
	return nil
}

func (r poRepo) ListItems(ctx context.Context, poID uuid.UUID) ([]domain.PurchaseOrderItem, error) {
	var out []domain.PurchaseOrderItem
	for _, item := range r.t.state.poItems {
		if item.POID == poID && item.TenantID == r.t.tenantID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r poRepo) UpdateItem(ctx context.Context, item *domain.PurchaseOrderItem) error {
	existing, ok := r.t.state.poItems[item.ID]
	if !ok {
		return domain.NewNotFoundError("purchase order item", item.ID)
	}
	if err := r.t.scope("purchase order item", item.ID, existing.TenantID); err != nil {
		return err
	}
	r.t.state.poItems[item.ID] = *item
	return nil
}

type routeRepo struct{ t *tx }

func (r routeRepo) Insert(ctx context.Context, route *domain.DeliveryRoute) error {
	route.TenantID = r.t.tenantID
	row := *route
	row.Stops = nil
	r.t.state.routes[route.ID] = row
	return nil
}

func (r routeRepo) Get(ctx context.Context, id uuid.UUID) (*domain.DeliveryRoute, error) {
	route, ok := r.t.state.routes[id]
	if !ok {
		return nil, domain.NewNotFoundError("route", id)
	}
	if err := r.t.scope("route", id, route.TenantID); err != nil {
		return nil, err
	}
	return &route, nil
}

func (r routeRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeliveryRoute, error) {
	return r.Get(ctx, id)
}

func (r routeRepo) Update(ctx context.Context, route *domain.DeliveryRoute) error {
	if _, err := r.Get(ctx, route.ID); err != nil {
		return err
	}
	row := *route
	row.Stops = nil
	r.t.state.routes[route.ID] = row
	return nil
}

func (r routeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	delete(r.t.state.routes, id)
	return nil
}

func (r routeRepo) InsertStop(ctx context.Context, s *domain.DeliveryStop) error {
	s.TenantID = r.t.tenantID
	r.t.state.stops[s.ID] = *s
	return nil
}

func (r routeRepo) GetStopForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeliveryStop, error) {
	s, ok := r.t.state.stops[id]
	if !ok {
		return nil, domain.NewNotFoundError("stop", id)
	}
	if err := r.t.scope("stop", id, s.TenantID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r routeRepo) UpdateStop(ctx context.Context, s *domain.DeliveryStop) error {
	if err := r.t.fault("routes.UpdateStop"); err != nil {
		return err
	}
	if _, err := r.GetStopForUpdate(ctx, s.ID); err != nil {
		return err
	}
	r.t.state.stops[s.ID] = *s
	return nil
}

func (r routeRepo) DeleteStop(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetStopForUpdate(ctx, id); err != nil {
		return err
	}
	delete(r.t.state.stops, id)
	return nil
}

func (r routeRepo) DeleteStops(ctx context.Context, routeID uuid.UUID) error {
	for id, s := range r.t.state.stops {
		if s.RouteID == routeID && s.TenantID == r.t.tenantID {
			delete(r.t.state.stops, id)
		}
	}
	return nil
}

func (r routeRepo) ListStops(ctx context.Context, routeID uuid.UUID) ([]domain.DeliveryStop, error) {
	var out []domain.DeliveryStop
	for _, s := range r.t.state.stops {
		if s.RouteID == routeID && s.TenantID == r.t.tenantID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StopOrder != out[j].StopOrder {
			return out[i].StopOrder < out[j].StopOrder
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r routeRepo) MaxStopOrder(ctx context.Context, routeID uuid.UUID) (int, error) {
	max := 0
	for _, s := range r.t.state.stops {
		if s.RouteID == routeID && s.TenantID == r.t.tenantID && s.StopOrder > max {
			max = s.StopOrder
		}
	}
	return max, nil
}
