package service

import (
	"context"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/cache"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/lock"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CatalogService struct {
	store  repository.Store
	cache  cache.CatalogCache
	locker lock.Locker
	now    func() time.Time
}

func NewCatalogService(deps Dependencies) *CatalogService {
	deps = deps.withDefaults()
	return &CatalogService{store: deps.Store, cache: deps.Cache, locker: deps.Locker, now: deps.Clock}
}

type CreateProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type CreateVariantInput struct {
	ProductID           uuid.UUID         `json:"product_id" validate:"required"`
	Name                string            `json:"name" validate:"required"`
	SKU                 *string           `json:"sku"`
	WeightType          domain.WeightType `json:"weight_type" validate:"required,oneof=catch_weight fixed_weight each"`
	Unit                domain.Unit       `json:"unit" validate:"required,oneof=lb kg each case"`
	DefaultPricePerUnit decimal.Decimal   `json:"default_price_per_unit" validate:"gt=0"`
	EstimatedWeightLb   *decimal.Decimal  `json:"estimated_weight_lb"`
}

type CreateCustomerInput struct {
	BusinessName string  `json:"business_name" validate:"required"`
	ContactName  *string `json:"contact_name"`
	Email        *string `json:"email" validate:"omitempty,email"`
}

type UpsertPricingInput struct {
	CustomerID   uuid.UUID       `json:"customer_id" validate:"required"`
	VariantID    uuid.UUID       `json:"variant_id" validate:"required"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" validate:"gt=0"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, tc domain.TenantContext, input CreateProductInput) (*domain.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
		CreatedAt:   s.now(),
	}
	if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.Catalog().InsertProduct(ctx, p)
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) CreateVariant(ctx context.Context, tc domain.TenantContext, input CreateVariantInput) (*domain.Variant, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	price, err := domain.RoundPositive("default_price_per_unit", input.DefaultPricePerUnit)
	if err != nil {
		return nil, err
	}
	var estimated *decimal.Decimal
	if input.EstimatedWeightLb != nil {
		w, err := domain.RoundPositive("estimated_weight_lb", *input.EstimatedWeightLb)
		if err != nil {
			return nil, err
		}
		estimated = &w
	}
	if input.Unit == domain.UnitCase && input.EstimatedWeightLb == nil {
		return nil, domain.NewValidationError("estimated_weight_lb", "is required for case variants")
	}

	v := &domain.Variant{
		ID:                  uuid.New(),
		ProductID:           input.ProductID,
		Name:                input.Name,
		SKU:                 input.SKU,
		WeightType:          input.WeightType,
		Unit:                input.Unit,
		DefaultPricePerUnit: price,
		EstimatedWeightLb:   estimated,
		IsActive:            true,
		CreatedAt:           s.now(),
	}
	if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.Catalog().InsertVariant(ctx, v)
	}); err != nil {
		return nil, err
	}

	s.invalidateTenant(ctx, tc.TenantID)
	return v, nil
}

func (s *CatalogService) CreateCustomer(ctx context.Context, tc domain.TenantContext, input CreateCustomerInput) (*domain.Customer, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	c := &domain.Customer{
		ID:           uuid.New(),
		BusinessName: input.BusinessName,
		ContactName:  input.ContactName,
		Email:        input.Email,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.Catalog().InsertCustomer(ctx, c)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) GetVariant(ctx context.Context, tc domain.TenantContext, id uuid.UUID) (*domain.Variant, error) {
	var v *domain.Variant
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		v, err = tx.Catalog().GetVariant(ctx, id)
		return err
	})
	return v, err
}

// ResolvePrice returns the price a customer pays for a variant and whether it
// comes from a customer override.
func (s *CatalogService) ResolvePrice(ctx context.Context, tc domain.TenantContext, customerID, variantID uuid.UUID) (decimal.Decimal, bool, error) {
	var (
		price    decimal.Decimal
		override bool
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		price, override, err = resolvePrice(ctx, tx, customerID, variantID)
		return err
	})
	return price, override, err
}

func resolvePrice(ctx context.Context, tx repository.Tx, customerID, variantID uuid.UUID) (decimal.Decimal, bool, error) {
	v, err := tx.Catalog().GetVariant(ctx, variantID)
	if err != nil {
		return decimal.Zero, false, err
	}
	p, err := tx.Catalog().FindPricing(ctx, customerID, variantID)
	if err != nil {
		return decimal.Zero, false, err
	}
	price, override := domain.ResolvePrice(v, p)
	return price, override, nil
}

// ListCatalog lists the active variants with prices resolved for customerID.
func (s *CatalogService) ListCatalog(ctx context.Context, tc domain.TenantContext, customerID uuid.UUID) ([]domain.CatalogEntry, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if entries, ok, err := s.cache.Get(ctx, tc.TenantID, customerID); err == nil && ok {
		return entries, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("catalog: cache get failed")
	}

	var entries []domain.CatalogEntry
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		if _, err := tx.Catalog().GetCustomer(ctx, customerID); err != nil {
			return err
		}
		variants, err := tx.Catalog().ListActiveVariants(ctx)
		if err != nil {
			return err
		}
		overrides, err := tx.Catalog().ListPricing(ctx, customerID)
		if err != nil {
			return err
		}
		byVariant := make(map[uuid.UUID]*domain.CustomerPricing, len(overrides))
		for i := range overrides {
			byVariant[overrides[i].VariantID] = &overrides[i]
		}

		entries = make([]domain.CatalogEntry, 0, len(variants))
		for i := range variants {
			price, override := domain.ResolvePrice(&variants[i], byVariant[variants[i].ID])
			entries = append(entries, domain.CatalogEntry{
				Variant:       variants[i],
				PricePerUnit:  price,
				CustomerPrice: override,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, tc.TenantID, customerID, entries); err != nil {
		log.Warn().Err(err).Msg("catalog: cache set failed")
	}
	return entries, nil
}

func (s *CatalogService) ListPricing(ctx context.Context, tc domain.TenantContext, customerID uuid.UUID) ([]domain.CustomerPricing, error) {
	var rows []domain.CustomerPricing
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		if _, err := tx.Catalog().GetCustomer(ctx, customerID); err != nil {
			return err
		}
		var err error
		rows, err = tx.Catalog().ListPricing(ctx, customerID)
		return err
	})
	return rows, err
}

// UpsertPricing sets the override for (customer, variant), replacing any prior one.
func (s *CatalogService) UpsertPricing(ctx context.Context, tc domain.TenantContext, input UpsertPricingInput) (*domain.CustomerPricing, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	price, err := domain.RoundPositive("price_per_unit", input.PricePerUnit)
	if err != nil {
		return nil, err
	}

	row := domain.CustomerPricing{
		ID:           uuid.New(),
		CustomerID:   input.CustomerID,
		VariantID:    input.VariantID,
		PricePerUnit: price,
		UpdatedAt:    s.now(),
	}
	err = run(ctx, s.store, tc, func(tx repository.Tx) error {
		if _, err := tx.Catalog().GetCustomer(ctx, input.CustomerID); err != nil {
			return err
		}
		if _, err := tx.Catalog().GetVariant(ctx, input.VariantID); err != nil {
			return err
		}
		return tx.Catalog().UpsertPricing(ctx, []domain.CustomerPricing{row})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tc.TenantID, input.CustomerID)
	row.TenantID = tc.TenantID
	return &row, nil
}

func (s *CatalogService) RemovePricing(ctx context.Context, tc domain.TenantContext, customerID, variantID uuid.UUID) error {
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		if _, err := tx.Catalog().GetCustomer(ctx, customerID); err != nil {
			return err
		}
		return tx.Catalog().DeletePricing(ctx, customerID, variantID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, tc.TenantID, customerID)
	return nil
}

// CopyPricing upserts every override of source onto target and returns how many
// rows were copied. Holding the target's lock keeps two copies onto the same
// customer from interleaving.
func (s *CatalogService) CopyPricing(ctx context.Context, tc domain.TenantContext, targetID, sourceID uuid.UUID) (int, error) {
	if err := tc.Validate(); err != nil {
		return 0, err
	}
	if targetID == sourceID {
		return 0, domain.NewValidationError("source_customer_id", "must differ from the target customer")
	}

	var copied int
	err := s.locker.WithLock(ctx, "pricing", tc.TenantID, targetID, func(ctx context.Context) error {
		return run(ctx, s.store, tc, func(tx repository.Tx) error {
			if _, err := tx.Catalog().GetCustomer(ctx, targetID); err != nil {
				return err
			}
			if _, err := tx.Catalog().GetCustomer(ctx, sourceID); err != nil {
				return err
			}
			source, err := tx.Catalog().ListPricing(ctx, sourceID)
			if err != nil {
				return err
			}
			if len(source) == 0 {
				return domain.NewValidationError("source_customer_id", "source customer has no pricing")
			}

			now := s.now()
			rows := make([]domain.CustomerPricing, 0, len(source))
			for _, p := range source {
				rows = append(rows, domain.CustomerPricing{
					ID:           uuid.New(),
					CustomerID:   targetID,
					VariantID:    p.VariantID,
					PricePerUnit: p.PricePerUnit,
					UpdatedAt:    now,
				})
			}
			if err := tx.Catalog().UpsertPricing(ctx, rows); err != nil {
				return err
			}
			copied = len(rows)
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("target_customer_id", targetID.String()).
		Str("source_customer_id", sourceID.String()).
		Int("count", copied).
		Msg("copied customer pricing")
	s.invalidate(ctx, tc.TenantID, targetID)
	return copied, nil
}

func (s *CatalogService) invalidate(ctx context.Context, tenantID, customerID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, tenantID, customerID); err != nil {
		log.Warn().Err(err).Str("customer_id", customerID.String()).Msg("catalog: cache invalidate failed")
	}
}

func (s *CatalogService) invalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cache.InvalidateTenant(ctx, tenantID); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID.String()).Msg("catalog: cache invalidate failed")
	}
}
