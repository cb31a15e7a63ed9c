package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = `id, tenant_id, customer_id, order_number, status, placed_by, estimated_total,
	actual_total, notes, delivered_at, created_at, updated_at`

const orderItemColumns = `id, tenant_id, order_id, variant_id, lot_id, quantity, unit, price_per_unit,
	estimated_weight_lb, estimated_line_total, actual_weight_lb, actual_line_total, created_at`

type orderRepository struct {
	t *tx
}

// NextOrderNumber bumps the per-tenant daily counter. The row lock taken by the
// upsert serializes concurrent placements for the same day.
func (r *orderRepository) NextOrderNumber(ctx context.Context, day time.Time) (string, error) {
	stamp := day.Format("20060102")
	query := `
		INSERT INTO order_number_counters (tenant_id, day, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, day)
		DO UPDATE SET last_value = order_number_counters.last_value + 1
		RETURNING last_value
	`
	var seq int
	if err := r.t.tx.GetContext(ctx, &seq, query, r.t.tenantID, stamp); err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%04d", stamp, seq), nil
}

func (r *orderRepository) Insert(ctx context.Context, o *domain.Order) error {
	o.TenantID = r.t.tenantID
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:id, :tenant_id, :customer_id, :order_number, :status, :placed_by, :estimated_total,
			:actual_total, :notes, :delivered_at, :created_at, :updated_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, o); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("order number %s already exists", o.OrderNumber)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) InsertItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].TenantID = r.t.tenantID
	}
	query := `
		INSERT INTO order_items (` + orderItemColumns + `)
		VALUES (:id, :tenant_id, :order_id, :variant_id, :lot_id, :quantity, :unit, :price_per_unit,
			:estimated_weight_lb, :estimated_line_total, :actual_weight_lb, :actual_line_total, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, items); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return getScoped(ctx, r.t, "order", id, query, orderTenant)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return getScoped(ctx, r.t, "order", id, query, orderTenant)
}

func (r *orderRepository) Update(ctx context.Context, o *domain.Order) error {
	query := `
		UPDATE orders SET
			status = $3,
			estimated_total = $4,
			actual_total = $5,
			notes = $6,
			delivered_at = $7,
			updated_at = $8
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query,
		o.ID,
		r.t.tenantID,
		o.Status,
		o.EstimatedTotal,
		o.ActualTotal,
		o.Notes,
		o.DeliveredAt,
		o.UpdatedAt,
	)
	return affectedOne("order", o.ID, res, err)
}

func (r *orderRepository) List(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.Order, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at DESC, id
	`
	args := []interface{}{r.t.tenantID, pq.Array(names)}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	var orders []domain.Order
	if err := r.t.tx.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT ` + orderItemColumns + `
		FROM order_items
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at, id
	`
	var items []domain.OrderItem
	if err := r.t.tx.SelectContext(ctx, &items, query, r.t.tenantID, orderID); err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE id = $1 FOR UPDATE`
	return getScoped(ctx, r.t, "order item", id, query, func(i *domain.OrderItem) uuid.UUID { return i.TenantID })
}

func (r *orderRepository) UpdateItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		UPDATE order_items SET
			lot_id = $3,
			actual_weight_lb = $4,
			actual_line_total = $5
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query,
		item.ID,
		r.t.tenantID,
		item.LotID,
		item.ActualWeight,
		item.ActualLineTotal,
	)
	return affectedOne("order item", item.ID, res, err)
}

func orderTenant(o *domain.Order) uuid.UUID { return o.TenantID }

const pickItemColumns = `id, tenant_id, pick_list_id, order_item_id, lot_id, picked, picked_weight_lb, picked_at`

type pickListRepository struct {
	t *tx
}

func (r *pickListRepository) Insert(ctx context.Context, pl *domain.PickList) error {
	pl.TenantID = r.t.tenantID
	query := `
		INSERT INTO pick_lists (id, tenant_id, order_id, assigned_to, is_complete, completed_at, created_at)
		VALUES (:id, :tenant_id, :order_id, :assigned_to, :is_complete, :completed_at, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, pl); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("a pick list already exists for order %s", pl.OrderID)
		}
		return fmt.Errorf("failed to insert pick list: %w", err)
	}
	return nil
}

func (r *pickListRepository) InsertItems(ctx context.Context, items []domain.PickListItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].TenantID = r.t.tenantID
	}
	query := `
		INSERT INTO pick_list_items (` + pickItemColumns + `)
		VALUES (:id, :tenant_id, :pick_list_id, :order_item_id, :lot_id, :picked, :picked_weight_lb, :picked_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, items); err != nil {
		return fmt.Errorf("failed to insert pick list items: %w", err)
	}
	return nil
}

func (r *pickListRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM pick_lists WHERE tenant_id = $1 AND order_id = $2)`
	if err := r.t.tx.GetContext(ctx, &exists, query, r.t.tenantID, orderID); err != nil {
		return false, fmt.Errorf("failed to check pick list: %w", err)
	}
	return exists, nil
}

func (r *pickListRepository) Get(ctx context.Context, id uuid.UUID) (*domain.PickList, error) {
	query := `
		SELECT id, tenant_id, order_id, assigned_to, is_complete, completed_at, created_at
		FROM pick_lists WHERE id = $1
	`
	return getScoped(ctx, r.t, "pick list", id, query, pickListTenant)
}

func (r *pickListRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PickList, error) {
	query := `
		SELECT id, tenant_id, order_id, assigned_to, is_complete, completed_at, created_at
		FROM pick_lists WHERE id = $1 FOR UPDATE
	`
	return getScoped(ctx, r.t, "pick list", id, query, pickListTenant)
}

func (r *pickListRepository) Update(ctx context.Context, pl *domain.PickList) error {
	query := `
		UPDATE pick_lists SET
			assigned_to = $3,
			is_complete = $4,
			completed_at = $5
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query, pl.ID, r.t.tenantID, pl.AssignedTo, pl.IsComplete, pl.CompletedAt)
	return affectedOne("pick list", pl.ID, res, err)
}

func (r *pickListRepository) ListItems(ctx context.Context, pickListID uuid.UUID) ([]domain.PickListItem, error) {
	query := `
		SELECT ` + pickItemColumns + `
		FROM pick_list_items
		WHERE tenant_id = $1 AND pick_list_id = $2
		ORDER BY id
	`
	var items []domain.PickListItem
	if err := r.t.tx.SelectContext(ctx, &items, query, r.t.tenantID, pickListID); err != nil {
		return nil, fmt.Errorf("failed to list pick list items: %w", err)
	}
	return items, nil
}

func (r *pickListRepository) GetItemForUpdate(ctx context.Context, id uuid.UUID) (*domain.PickListItem, error) {
	query := `SELECT ` + pickItemColumns + ` FROM pick_list_items WHERE id = $1 FOR UPDATE`
	return getScoped(ctx, r.t, "pick list item", id, query, func(i *domain.PickListItem) uuid.UUID { return i.TenantID })
}

func (r *pickListRepository) UpdateItem(ctx context.Context, item *domain.PickListItem) error {
	query := `
		UPDATE pick_list_items SET
			lot_id = $3,
			picked = $4,
			picked_weight_lb = $5,
			picked_at = $6
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query,
		item.ID,
		r.t.tenantID,
		item.LotID,
		item.Picked,
		item.PickedWeight,
		item.PickedAt,
	)
	return affectedOne("pick list item", item.ID, res, err)
}

func pickListTenant(pl *domain.PickList) uuid.UUID { return pl.TenantID }
