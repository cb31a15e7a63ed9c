// internal/domain/models.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unit is how a variant or purchase line is counted.
type Unit string

const (
	UnitLb   Unit = "lb"
	UnitKg   Unit = "kg"
	UnitEach Unit = "each"
	UnitCase Unit = "case"
)

// WeightDenominated reports whether quantities in u are weights.
func (u Unit) WeightDenominated() bool {
	return u == UnitLb || u == UnitKg
}

func (u Unit) Valid() bool {
	return u == UnitLb || u == UnitKg || u == UnitEach || u == UnitCase
}

// WeightType says when a variant's billable weight is known.
type WeightType string

const (
	CatchWeight WeightType = "catch_weight"
	FixedWeight WeightType = "fixed_weight"
	EachWeight  WeightType = "each"
)

// Product groups sellable variants (e.g. "Ribeye").
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Variant is a priced, orderable form of a product (e.g. "Ribeye, 1in, bone-in").
type Variant struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	TenantID            uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	ProductID           uuid.UUID        `json:"product_id" db:"product_id"`
	Name                string           `json:"name" db:"name"`
	SKU                 *string          `json:"sku,omitempty" db:"sku"`
	WeightType          WeightType       `json:"weight_type" db:"weight_type"`
	Unit                Unit             `json:"unit" db:"unit"`
	DefaultPricePerUnit decimal.Decimal  `json:"default_price_per_unit" db:"default_price_per_unit"`
	EstimatedWeightLb   *decimal.Decimal `json:"estimated_weight_lb,omitempty" db:"estimated_weight_lb"`
	IsActive            bool             `json:"is_active" db:"is_active"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}

// Customer is a restaurant account within a tenant.
type Customer struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	BusinessName string    `json:"business_name" db:"business_name"`
	ContactName  *string   `json:"contact_name,omitempty" db:"contact_name"`
	Email        *string   `json:"email,omitempty" db:"email"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DisplayName is the name used when addressing the customer.
func (c *Customer) DisplayName() string {
	if c.ContactName != nil && *c.ContactName != "" {
		return *c.ContactName
	}
	return c.BusinessName
}

// CustomerPricing overrides a variant's default price for one customer.
type CustomerPricing struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	CustomerID   uuid.UUID       `json:"customer_id" db:"customer_id"`
	VariantID    uuid.UUID       `json:"variant_id" db:"variant_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" db:"price_per_unit"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// CatalogEntry is a variant with the price resolved for one customer.
type CatalogEntry struct {
	Variant       Variant         `json:"variant"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	CustomerPrice bool            `json:"customer_price"`
}

// ResolvePrice returns the override price when present, else the variant default.
func ResolvePrice(v *Variant, override *CustomerPricing) (decimal.Decimal, bool) {
	if override != nil {
		return override.PricePerUnit, true
	}
	return v.DefaultPricePerUnit, false
}
