// backend-go/internal/service/po_service.go
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type PurchaseOrderService struct {
	store   repository.Store
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewPurchaseOrderService(deps Dependencies) *PurchaseOrderService {
	deps = deps.withDefaults()
	return &PurchaseOrderService{store: deps.Store, metrics: deps.Metrics, now: deps.Clock}
}

type POItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	VariantID   *uuid.UUID      `json:"variant_id"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit        domain.Unit     `json:"unit" validate:"required,oneof=lb kg each case"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit" validate:"gte=0"`
}

type CreatePOInput struct {
	SupplierID       uuid.UUID     `json:"supplier_id" validate:"required"`
	ExpectedDelivery *time.Time    `json:"expected_delivery"`
	Notes            *string       `json:"notes"`
	Items            []POItemInput `json:"items" validate:"required,min=1,dive"`
}

type CreatePOResult struct {
	PurchaseOrder *domain.PurchaseOrder `json:"purchase_order"`
	Warning       *domain.Warning       `json:"warning,omitempty"`
}

type ReceivePOResult struct {
	PurchaseOrder *domain.PurchaseOrder `json:"purchase_order"`
	LotsCreated   int                   `json:"lots_created"`
	Warnings      []domain.Warning      `json:"warnings,omitempty"`
}

// CreatePO writes a draft purchase order. When its lines fail to save after the
// header committed, the PO is returned with a warning carrying its number.
func (s *PurchaseOrderService) CreatePO(ctx context.Context, tc domain.TenantContext, input CreatePOInput) (*CreatePOResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	po := &domain.PurchaseOrder{
		ID:               uuid.New(),
		TenantID:         tc.TenantID,
		SupplierID:       input.SupplierID,
		PONumber:         poNumber(now),
		Status:           domain.PODraft,
		OrderedBy:        actorRef(tc),
		ExpectedDelivery: input.ExpectedDelivery,
		Notes:            input.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	items := make([]domain.PurchaseOrderItem, 0, len(input.Items))
	for i, in := range input.Items {
		qty, err := domain.RoundPositive(fmt.Sprintf("items[%d].quantity", i), in.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.PurchaseOrderItem{
			ID:          uuid.New(),
			TenantID:    tc.TenantID,
			POID:        po.ID,
			ProductID:   in.ProductID,
			VariantID:   in.VariantID,
			Quantity:    qty,
			Unit:        in.Unit,
			CostPerUnit: domain.Round2(in.CostPerUnit),
		})
	}
	po.TotalCost = domain.POTotalCost(items)

	if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.PurchaseOrders().Insert(ctx, po)
	}); err != nil {
		return nil, err
	}

	result := &CreatePOResult{PurchaseOrder: po}
	if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		return tx.PurchaseOrders().InsertItems(ctx, items)
	}); err != nil {
		s.metrics.PartialFailure("create_po")
		log.Error().Err(err).
			Str("tenant_id", tc.TenantID.String()).
			Str("po_id", po.ID.String()).
			Str("po_number", po.PONumber).
			Msg("purchase order created but line items failed to save")
		result.Warning = &domain.Warning{
			Kind:      "partial_failure",
			Message:   "Purchase order created but some line items may not have saved.",
			Reference: po.PONumber,
		}
	} else {
		po.Items = items
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("po_id", po.ID.String()).
		Str("po_number", po.PONumber).
		Str("total_cost", po.TotalCost.StringFixed(2)).
		Msg("purchase order created")
	return result, nil
}

// UpdatePOStatus applies a manual status change. Receipt goes through ReceivePO
// so that lots are materialized.
func (s *PurchaseOrderService) UpdatePOStatus(ctx context.Context, tc domain.TenantContext, poID uuid.UUID, status string) (*domain.PurchaseOrder, error) {
	next, ok := domain.ParsePOStatus(status)
	if !ok {
		return nil, domain.NewValidationError("status", "unknown purchase order status %q", status)
	}
	if next == domain.POReceived {
		return nil, domain.NewConflictError("purchase orders are received through the receive operation")
	}

	var (
		po   *domain.PurchaseOrder
		from domain.POStatus
	)
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		po, err = tx.PurchaseOrders().GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		from = po.Status
		if err := po.TransitionTo(next, s.now()); err != nil {
			return err
		}
		return tx.PurchaseOrders().Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("po_id", poID.String()).
		Str("from", string(from)).
		Str("to", string(next)).
		Msg("purchase order status changed")
	return po, nil
}

// ReceivePO marks a confirmed PO received and creates one receiving lot per
// weight-denominated line. Lot creation is best effort: failures are logged
// and returned as warnings without undoing the receipt.
func (s *PurchaseOrderService) ReceivePO(ctx context.Context, tc domain.TenantContext, poID uuid.UUID) (*ReceivePOResult, error) {
	now := s.now()
	var po *domain.PurchaseOrder
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		po, err = tx.PurchaseOrders().GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if err := po.TransitionTo(domain.POReceived, now); err != nil {
			return err
		}
		po.Items, err = tx.PurchaseOrders().ListItems(ctx, poID)
		if err != nil {
			return err
		}
		for i := range po.Items {
			po.Items[i].ReceivedQuantity = po.Items[i].Quantity
			if err := tx.PurchaseOrders().UpdateItem(ctx, &po.Items[i]); err != nil {
				return err
			}
		}
		return tx.PurchaseOrders().Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	result := &ReceivePOResult{PurchaseOrder: po}
	for i := range po.Items {
		lot, ok := domain.LotFromReceipt(po, i, now)
		if !ok {
			continue
		}
		if err := run(ctx, s.store, tc, func(tx repository.Tx) error {
			return tx.Lots().Insert(ctx, lot)
		}); err != nil {
			s.metrics.PartialFailure("receive_po")
			log.Error().Err(err).
				Str("tenant_id", tc.TenantID.String()).
				Str("po_number", po.PONumber).
				Str("po_item_id", po.Items[i].ID.String()).
				Str("lot_number", lot.LotNumber).
				Msg("failed to create lot from purchase order receipt")
			result.Warnings = append(result.Warnings, domain.Warning{
				Kind:      "partial_failure",
				Message:   "Lot could not be created for a received line item.",
				Reference: lot.LotNumber,
			})
			continue
		}
		result.LotsCreated++
	}

	log.Info().
		Str("tenant_id", tc.TenantID.String()).
		Str("po_id", poID.String()).
		Str("po_number", po.PONumber).
		Int("lots_created", result.LotsCreated).
		Msg("purchase order received")
	return result, nil
}

// GetPO returns the purchase order with its lines.
func (s *PurchaseOrderService) GetPO(ctx context.Context, tc domain.TenantContext, poID uuid.UUID) (*domain.PurchaseOrder, error) {
	var po *domain.PurchaseOrder
	err := run(ctx, s.store, tc, func(tx repository.Tx) error {
		var err error
		po, err = tx.PurchaseOrders().Get(ctx, poID)
		if err != nil {
			return err
		}
		po.Items, err = tx.PurchaseOrders().ListItems(ctx, poID)
		return err
	})
	return po, err
}

func poNumber(now time.Time) string {
	return "PO-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}
