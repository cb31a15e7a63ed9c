// backend-go/internal/repository/postgres/po_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

const poColumns = `id, tenant_id, supplier_id, po_number, status, ordered_by, expected_delivery,
	total_cost, notes, created_at, updated_at`

const poItemColumns = `id, tenant_id, po_id, product_id, variant_id, quantity, unit, cost_per_unit,
	received_quantity`

type poRepository struct {
	t *tx
}

func (r *poRepository) Insert(ctx context.Context, po *domain.PurchaseOrder) error {
	po.TenantID = r.t.tenantID
	query := `
		INSERT INTO purchase_orders (` + poColumns + `)
		VALUES (:id, :tenant_id, :supplier_id, :po_number, :status, :ordered_by, :expected_delivery,
			:total_cost, :notes, :created_at, :updated_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, po); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("po number %s already exists", po.PONumber)
		}
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}
	return nil
}

func (r *poRepository) InsertItems(ctx context.Context, items []domain.PurchaseOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO purchase_order_items (` + poItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	stmt, err := r.t.tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		items[i].TenantID = r.t.tenantID
		item := items[i]
		_, err := stmt.ExecContext(ctx,
			item.ID,
			item.TenantID,
			item.POID,
			item.ProductID,
			item.VariantID,
			item.Quantity,
			item.Unit,
			item.CostPerUnit,
			item.ReceivedQuantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert purchase order item: %w", err)
		}
	}
	return nil
}

func (r *poRepository) Get(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders WHERE id = $1`
	return getScoped(ctx, r.t, "purchase order", id, query, poTenant)
}

func (r *poRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders WHERE id = $1 FOR UPDATE`
	return getScoped(ctx, r.t, "purchase order", id, query, poTenant)
}

func (r *poRepository) Update(ctx context.Context, po *domain.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders SET
			status = $3,
			expected_delivery = $4,
			total_cost = $5,
			notes = $6,
			updated_at = $7
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query,
		po.ID,
		r.t.tenantID,
		po.Status,
		po.ExpectedDelivery,
		po.TotalCost,
		po.Notes,
		po.UpdatedAt,
	)
	return affectedOne("purchase order", po.ID, res, err)
}

func (r *poRepository) ListItems(ctx context.Context, poID uuid.UUID) ([]domain.PurchaseOrderItem, error) {
	query := `
		SELECT ` + poItemColumns + `
		FROM purchase_order_items
		WHERE tenant_id = $1 AND po_id = $2
		ORDER BY id
	`
	var items []domain.PurchaseOrderItem
	if err := r.t.tx.SelectContext(ctx, &items, query, r.t.tenantID, poID); err != nil {
		return nil, fmt.Errorf("failed to list purchase order items: %w", err)
	}
	return items, nil
}

func (r *poRepository) UpdateItem(ctx context.Context, item *domain.PurchaseOrderItem) error {
	query := `
		UPDATE purchase_order_items SET received_quantity = $3
		WHERE id = $1 AND tenant_id = $2
	`
	res, err := r.t.tx.ExecContext(ctx, query, item.ID, r.t.tenantID, item.ReceivedQuantity)
	return affectedOne("purchase order item", item.ID, res, err)
}

func poTenant(po *domain.PurchaseOrder) uuid.UUID { return po.TenantID }
