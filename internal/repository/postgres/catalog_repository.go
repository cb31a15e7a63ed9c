package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

const variantColumns = `id, tenant_id, product_id, name, sku, weight_type, unit,
	default_price_per_unit, estimated_weight_lb, is_active, created_at`

type catalogRepository struct {
	t *tx
}

func (r *catalogRepository) InsertProduct(ctx context.Context, p *domain.Product) error {
	p.TenantID = r.t.tenantID
	query := `
		INSERT INTO products (id, tenant_id, name, description, is_active, created_at)
		VALUES (:id, :tenant_id, :name, :description, :is_active, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *catalogRepository) InsertVariant(ctx context.Context, v *domain.Variant) error {
	v.TenantID = r.t.tenantID
	query := `
		INSERT INTO product_variants (` + variantColumns + `)
		VALUES (:id, :tenant_id, :product_id, :name, :sku, :weight_type, :unit,
			:default_price_per_unit, :estimated_weight_lb, :is_active, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, v); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("sku %v already exists", v.SKU)
		}
		return fmt.Errorf("failed to insert variant: %w", err)
	}
	return nil
}

func (r *catalogRepository) InsertCustomer(ctx context.Context, c *domain.Customer) error {
	c.TenantID = r.t.tenantID
	query := `
		INSERT INTO customers (id, tenant_id, business_name, contact_name, email, is_active, created_at)
		VALUES (:id, :tenant_id, :business_name, :contact_name, :email, :is_active, :created_at)
	`
	if _, err := r.t.tx.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *catalogRepository) GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1`
	return getScoped(ctx, r.t, "variant", id, query, func(v *domain.Variant) uuid.UUID { return v.TenantID })
}

func (r *catalogRepository) ListActiveVariants(ctx context.Context) ([]domain.Variant, error) {
	query := `
		SELECT ` + variantColumns + `
		FROM product_variants
		WHERE tenant_id = $1 AND is_active
		ORDER BY created_at, id
	`
	var variants []domain.Variant
	if err := r.t.tx.SelectContext(ctx, &variants, query, r.t.tenantID); err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return variants, nil
}

func (r *catalogRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, tenant_id, business_name, contact_name, email, is_active, created_at
		FROM customers WHERE id = $1
	`
	return getScoped(ctx, r.t, "customer", id, query, func(c *domain.Customer) uuid.UUID { return c.TenantID })
}

func (r *catalogRepository) FindPricing(ctx context.Context, customerID, variantID uuid.UUID) (*domain.CustomerPricing, error) {
	query := `
		SELECT id, tenant_id, customer_id, variant_id, price_per_unit, updated_at
		FROM customer_pricing
		WHERE tenant_id = $1 AND customer_id = $2 AND variant_id = $3
	`
	var p domain.CustomerPricing
	if err := r.t.tx.GetContext(ctx, &p, query, r.t.tenantID, customerID, variantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pricing: %w", err)
	}
	return &p, nil
}

func (r *catalogRepository) ListPricing(ctx context.Context, customerID uuid.UUID) ([]domain.CustomerPricing, error) {
	query := `
		SELECT id, tenant_id, customer_id, variant_id, price_per_unit, updated_at
		FROM customer_pricing
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY updated_at, variant_id
	`
	var rows []domain.CustomerPricing
	if err := r.t.tx.SelectContext(ctx, &rows, query, r.t.tenantID, customerID); err != nil {
		return nil, fmt.Errorf("failed to list pricing: %w", err)
	}
	return rows, nil
}

func (r *catalogRepository) UpsertPricing(ctx context.Context, rows []domain.CustomerPricing) error {
	query := `
		INSERT INTO customer_pricing (id, tenant_id, customer_id, variant_id, price_per_unit, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (customer_id, variant_id)
		DO UPDATE SET
			price_per_unit = EXCLUDED.price_per_unit,
			updated_at = EXCLUDED.updated_at
	`

	stmt, err := r.t.tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.ID,
			r.t.tenantID,
			row.CustomerID,
			row.VariantID,
			row.PricePerUnit,
			row.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert pricing: %w", err)
		}
	}
	return nil
}

func (r *catalogRepository) DeletePricing(ctx context.Context, customerID, variantID uuid.UUID) error {
	query := `DELETE FROM customer_pricing WHERE tenant_id = $1 AND customer_id = $2 AND variant_id = $3`
	if _, err := r.t.tx.ExecContext(ctx, query, r.t.tenantID, customerID, variantID); err != nil {
		return fmt.Errorf("failed to delete pricing: %w", err)
	}
	return nil
}
