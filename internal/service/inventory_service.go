package service

import (
	"context"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type InventoryService struct {
	store repository.Store
	now   func() time.Time
}

func NewInventoryService(deps Dependencies) *InventoryService {
	deps = deps.withDefaults()
	return &InventoryService{store: deps.Store, now: deps.Clock}
}

type CreateLotInput struct {
	LotNumber      string           `json:"lot_number" validate:"required"`
	ProductID      uuid.UUID        `json:"product_id" validate:"required"`
	VariantID      *uuid.UUID       `json:"variant_id"`
	SupplierID     *uuid.UUID       `json:"supplier_id"`
	Status         domain.LotStatus `json:"status" validate:"omitempty,oneof=receiving aging available"`
	InitialWeight  decimal.Decimal  `json:"initial_weight_lb" validate:"gt=0"`
	CostPerLb      *decimal.Decimal `json:"cost_per_lb"`
	ReceivedDate   *time.Time       `json:"received_date"`
	AgingStartDate *time.Time       `json:"aging_start_date"`
	BestByDate     *time.Time       `json:"best_by_date"`
	Notes          *string          `json:"notes"`
}

// CreateLot records a manual receipt. The balance starts at the initial weight.
func (s *InventoryService) CreateLot(ctx context.Context, tc domain.TenantContext, input CreateLotInput) (*domain.InventoryLot, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.CostPerLb != nil && input.CostPerLb.IsNegative() {
		return nil, domain.NewValidationError("cost_per_lb", "must not be negative")
	}

	now := s.now()
	status := input.Status
	if status == "" {
		status = domain.LotReceiving
	}
	received := now
	if input.ReceivedDate != nil {
		received = *input.ReceivedDate
	}
	weight, err := domain.RoundPositive("initial_weight_lb", input.InitialWeight)
	if err != nil {
		return nil, err
	}

	lot := &domain.InventoryLot{
		ID:             uuid.New(),
		LotNumber:      input.LotNumber,
		ProductID:      input.ProductID,
		VariantID:      input.VariantID,
		SupplierID:     input.SupplierID,
		Status:         status,
		InitialWeight:  weight,
		CurrentWeight:  weight,
		CostPerLb:      input.CostPerLb,
		ReceivedDate:   time.Date(received.Year(), received.Month(), received.Day(), 0, 0, 0, 0, received.Location()),
		AgingStartDate: input.AgingStartDate,
		BestByDate:     input.BestByDate,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.Lots().Insert(ctx, lot)
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("lot_id", lot.ID.String()).
		Str("lot_number", lot.LotNumber).
		Str("weight_lb", weight.StringFixed(2)).
		Msg("lot received")
	return lot, nil
}

func (s *InventoryService) GetLot(ctx context.Context, tc domain.TenantContext, id uuid.UUID) (*domain.InventoryLot, error) {
	var lot *domain.InventoryLot
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		lot, err = tx.Lots().Get(ctx, id)
		return err
	})
	return lot, err
}

func (s *InventoryService) ListLots(ctx context.Context, tc domain.TenantContext, statuses []domain.LotStatus) ([]domain.InventoryLot, error) {
	var lots []domain.InventoryLot
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		lots, err = tx.Lots().List(ctx, statuses)
		return err
	})
	return lots, err
}

// UpdateLotStatus moves a lot along the status adjacency table.
func (s *InventoryService) UpdateLotStatus(ctx context.Context, tc domain.TenantContext, id uuid.UUID, next domain.LotStatus) (*domain.InventoryLot, error) {
	if _, ok := domain.ParseLotStatus(string(next)); !ok {
		return nil, domain.NewValidationError("status", "unknown lot status %q", next)
	}

	var (
		lot  *domain.InventoryLot
		from domain.LotStatus
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		lot, err = tx.Lots().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = lot.Status
		if err := lot.TransitionTo(next); err != nil {
			return err
		}
		lot.UpdatedAt = s.now()
		return tx.Lots().Update(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("lot_id", id.String()).
		Str("from", string(from)).
		Str("to", string(next)).
		Msg("lot status changed")
	return lot, nil
}

// CorrectLotWeight overwrites the balance after a recount.
func (s *InventoryService) CorrectLotWeight(ctx context.Context, tc domain.TenantContext, id uuid.UUID, weight decimal.Decimal) (*domain.InventoryLot, error) {
	var lot *domain.InventoryLot
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		lot, err = tx.Lots().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := lot.CorrectWeight(weight); err != nil {
			return err
		}
		lot.UpdatedAt = s.now()
		return tx.Lots().Update(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("lot_id", id.String()).
		Str("weight_lb", lot.CurrentWeight.StringFixed(2)).
		Msg("lot weight corrected")
	return lot, nil
}
