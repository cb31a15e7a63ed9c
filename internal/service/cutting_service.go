package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type CuttingService struct {
	store   repository.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCuttingService(deps Dependencies) *CuttingService {
	deps = deps.withDefaults()
	return &CuttingService{store: deps.Store, metrics: deps.Metrics, now: deps.Clock}
}

type CuttingItemInput struct {
	VariantID uuid.UUID       `json:"variant_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Weight    decimal.Decimal `json:"weight_lb" validate:"gt=0"`
}

type RecordCuttingInput struct {
	SourceLotID uuid.UUID          `json:"source_lot_id" validate:"required"`
	InputWeight decimal.Decimal    `json:"input_weight_lb" validate:"gt=0"`
	SessionDate time.Time          `json:"session_date" validate:"required"`
	Notes       *string            `json:"notes"`
	Items       []CuttingItemInput `json:"items" validate:"required,min=1,dive"`
}

type CuttingResult struct {
	SessionID       uuid.UUID            `json:"session_id"`
	YieldPercentage decimal.Decimal      `json:"yield_percentage"`
	WasteWeight     decimal.Decimal      `json:"waste_weight_lb"`
	Lot             *domain.InventoryLot `json:"lot"`
}

// RecordCuttingSession converts part of a source lot into output items. The
// session, its items and the lot deduction commit together or not at all.
func (s *CuttingService) RecordCuttingSession(ctx context.Context, tc domain.TenantContext, input RecordCuttingInput) (*CuttingResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	inputWeight, err := domain.RoundPositive("input_weight_lb", input.InputWeight)
	if err != nil {
		return nil, err
	}
	input.InputWeight = inputWeight
	outputs := make([]decimal.Decimal, 0, len(input.Items))
	for i, item := range input.Items {
		w, err := domain.RoundPositive(fmt.Sprintf("items[%d].weight_lb", i), item.Weight)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, w)
	}
	yield, err := domain.ComputeYield(input.InputWeight, outputs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.CuttingSession{
		ID:                uuid.New(),
		SourceLotID:       input.SourceLotID,
		PerformedBy:       actorRef(tc),
		SessionDate:       input.SessionDate,
		InputWeight:       input.InputWeight,
		TotalOutputWeight: yield.TotalOutput,
		WasteWeight:       yield.Waste,
		YieldPercentage:   yield.Percentage,
		Notes:             input.Notes,
		CreatedAt:         now,
	}
	items := make([]domain.CuttingSessionItem, 0, len(input.Items))
	for i, item := range input.Items {
		items = append(items, domain.CuttingSessionItem{
			ID:        uuid.New(),
			SessionID: session.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Weight:    outputs[i],
			CreatedAt: now,
		})
	}

	var lot *domain.InventoryLot
	err = run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		lot, err = tx.Lots().GetForUpdate(ctx, input.SourceLotID)
		if err != nil {
			return err
		}
		if !lot.Status.Cuttable() {
			return domain.NewConflictError("lot %s must be aging or available to cut (currently %s)", lot.LotNumber, lot.Status)
		}
		if input.InputWeight.GreaterThan(lot.CurrentWeight) {
			return domain.NewConflictError("input weight %s lb exceeds lot %s balance of %s lb",
				input.InputWeight.StringFixed(2), lot.LotNumber, lot.CurrentWeight.StringFixed(2))
		}
		for _, item := range items {
			if _, err := tx.Catalog().GetVariant(ctx, item.VariantID); err != nil {
				return err
			}
		}

		if err := tx.Cutting().InsertSession(ctx, session); err != nil {
			return err
		}
		if err := tx.Cutting().InsertItems(ctx, items); err != nil {
			log.Error().Err(err).
				Str("tenant_id", tc.TenantID.String()).
				Str("session_id", session.ID.String()).
				Msg("cutting: failed to save output items, rolling back session")
			return err
		}

		if err := lot.Deduct(input.InputWeight); err != nil {
			return err
		}
		lot.UpdatedAt = now
		return tx.Lots().Update(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LotDeducted("cutting", input.InputWeight.InexactFloat64())
	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("session_id", session.ID.String()).
		Str("lot_id", lot.ID.String()).
		Str("yield_pct", yield.Percentage.StringFixed(2)).
		Str("waste_lb", yield.Waste.StringFixed(2)).
		Str("lot_status", string(lot.Status)).
		Msg("cutting session recorded")

	return &CuttingResult{
		SessionID:       session.ID,
		YieldPercentage: yield.Percentage,
		WasteWeight:     yield.Waste,
		Lot:             lot,
	}, nil
}

// GetSession returns a session with its output items.
func (s *CuttingService) GetSession(ctx context.Context, tc domain.TenantContext, id uuid.UUID) (*domain.CuttingSession, error) {
	var session *domain.CuttingSession
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		session, err = tx.Cutting().GetSession(ctx, id)
		if err != nil {
			return err
		}
		session.Items, err = tx.Cutting().ListItems(ctx, id)
		return err
	})
	return session, err
}
