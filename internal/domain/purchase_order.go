package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is a supplier-facing procurement document.
type PurchaseOrder struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	TenantID         uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	SupplierID       uuid.UUID       `json:"supplier_id" db:"supplier_id"`
	PONumber         string          `json:"po_number" db:"po_number"`
	Status           POStatus        `json:"status" db:"status"`
	OrderedBy        *uuid.UUID      `json:"ordered_by,omitempty" db:"ordered_by"`
	ExpectedDelivery *time.Time      `json:"expected_delivery,omitempty" db:"expected_delivery"`
	TotalCost        decimal.Decimal `json:"total_cost" db:"total_cost"`
	Notes            *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`

	Items []PurchaseOrderItem `json:"items,omitempty" db:"-"`
}

// PurchaseOrderItem is one line of a purchase order.
type PurchaseOrderItem struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	TenantID         uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	POID             uuid.UUID       `json:"po_id" db:"po_id"`
	ProductID        uuid.UUID       `json:"product_id" db:"product_id"`
	VariantID        *uuid.UUID      `json:"variant_id,omitempty" db:"variant_id"`
	Quantity         decimal.Decimal `json:"quantity" db:"quantity"`
	Unit             Unit            `json:"unit" db:"unit"`
	CostPerUnit      decimal.Decimal `json:"cost_per_unit" db:"cost_per_unit"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity" db:"received_quantity"`
}

func (p *PurchaseOrder) TransitionTo(next POStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{Entity: "purchase order", From: string(p.Status), To: string(next)}
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// POTotalCost sums quantity*cost over the lines.
func POTotalCost(items []PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity.Mul(item.CostPerUnit))
	}
	return Round2(total)
}

// LotFromReceipt builds the lot that line i of po materializes into. Lines
// counted in each or case produce no lot.
func LotFromReceipt(po *PurchaseOrder, i int, received time.Time) (*InventoryLot, bool) {
	item := &po.Items[i]
	if !item.Unit.WeightDenominated() {
		return nil, false
	}
	cost := item.CostPerUnit
	supplier := po.SupplierID
	day := time.Date(received.Year(), received.Month(), received.Day(), 0, 0, 0, 0, received.Location())
	return &InventoryLot{
		ID:            uuid.New(),
		TenantID:      po.TenantID,
		LotNumber:     receiptLotNumber(po, i),
		ProductID:     item.ProductID,
		VariantID:     item.VariantID,
		SupplierID:    &supplier,
		Status:        LotReceiving,
		InitialWeight: Round2(item.Quantity),
		CurrentWeight: Round2(item.Quantity),
		CostPerLb:     &cost,
		ReceivedDate:  day,
		CreatedAt:     received,
		UpdatedAt:     received,
	}, true
}

// receiptLotNumber is PO-<po prefix>-<line prefix>. A line whose id prefix
// repeats an earlier lot-producing line of the same PO gets its 1-based line
// number appended.
func receiptLotNumber(po *PurchaseOrder, i int) string {
	prefix := po.Items[i].ID.String()[:4]
	number := "PO-" + po.ID.String()[:8] + "-" + prefix
	for j := 0; j < i; j++ {
		prev := po.Items[j]
		if prev.Unit.WeightDenominated() && prev.ID.String()[:4] == prefix {
			return fmt.Sprintf("%s-%d", number, i+1)
		}
	}
	return number
}
