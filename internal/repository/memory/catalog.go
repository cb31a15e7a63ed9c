package memory

import (
	"context"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
)

type catalogRepo struct{ t *tx }

func (r catalogRepo) InsertProduct(ctx context.Context, p *domain.Product) error {
	p.TenantID = r.t.tenantID
	r.t.state.products[p.ID] = *p
	return nil
}

func (r catalogRepo) InsertVariant(ctx context.Context, v *domain.Variant) error {
	p, ok := r.t.state.products[v.ProductID]
	if !ok {
		return domain.NewNotFoundError("product", v.ProductID)
	}
	if err := r.t.scope("product", p.ID, p.TenantID); err != nil {
		return err
	}
	v.TenantID = r.t.tenantID
	r.t.state.variants[v.ID] = *v
	return nil
}

func (r catalogRepo) InsertCustomer(ctx context.Context, c *domain.Customer) error {
	c.TenantID = r.t.tenantID
	r.t.state.customers[c.ID] = *c
	return nil
}

func (r catalogRepo) GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	v, ok := r.t.state.variants[id]
	if !ok {
		return nil, domain.NewNotFoundError("variant", id)
	}
	if err := r.t.scope("variant", id, v.TenantID); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r catalogRepo) ListActiveVariants(ctx context.Context) ([]domain.Variant, error) {
	var out []domain.Variant
	for _, v := range r.t.state.variants {
		if v.TenantID == r.t.tenantID && v.IsActive {
			out = append(out, v)
		}
	}
	sortByCreated(out, func(v domain.Variant) time.Time { return v.CreatedAt }, func(v domain.Variant) uuid.UUID { return v.ID })
	return out, nil
}

func (r catalogRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, ok := r.t.state.customers[id]
	if !ok {
		return nil, domain.NewNotFoundError("customer", id)
	}
	if err := r.t.scope("customer", id, c.TenantID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r catalogRepo) FindPricing(ctx context.Context, customerID, variantID uuid.UUID) (*domain.CustomerPricing, error) {
	p, ok := r.t.state.pricing[pricingKey{customerID, variantID}]
	if !ok || p.TenantID != r.t.tenantID {
		return nil, nil
	}
	return &p, nil
}

func (r catalogRepo) ListPricing(ctx context.Context, customerID uuid.UUID) ([]domain.CustomerPricing, error) {
	var out []domain.CustomerPricing
	for k, p := range r.t.state.pricing {
		if k.customerID == customerID && p.TenantID == r.t.tenantID {
			out = append(out, p)
		}
	}
	sortByCreated(out, func(p domain.CustomerPricing) time.Time { return p.UpdatedAt }, func(p domain.CustomerPricing) uuid.UUID { return p.VariantID })
	return out, nil
}

func (r catalogRepo) UpsertPricing(ctx context.Context, rows []domain.CustomerPricing) error {
	if err := r.t.fault("catalog.UpsertPricing"); err != nil {
		return err
	}
	for _, row := range rows {
		row.TenantID = r.t.tenantID
		key := pricingKey{row.CustomerID, row.VariantID}
		if existing, ok := r.t.state.pricing[key]; ok {
			row.ID = existing.ID
		}
		r.t.state.pricing[key] = row
	}
	return nil
}

func (r catalogRepo) DeletePricing(ctx context.Context, customerID, variantID uuid.UUID) error {
	key := pricingKey{customerID, variantID}
	if p, ok := r.t.state.pricing[key]; ok && p.TenantID == r.t.tenantID {
		delete(r.t.state.pricing, key)
	}
	return nil
}
