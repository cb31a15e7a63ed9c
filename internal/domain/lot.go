package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryLot is a physical batch of product with its own weight balance.
type InventoryLot struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	TenantID       uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	LotNumber      string           `json:"lot_number" db:"lot_number"`
	ProductID      uuid.UUID        `json:"product_id" db:"product_id"`
	VariantID      *uuid.UUID       `json:"variant_id,omitempty" db:"variant_id"`
	SupplierID     *uuid.UUID       `json:"supplier_id,omitempty" db:"supplier_id"`
	Status         LotStatus        `json:"status" db:"status"`
	InitialWeight  decimal.Decimal  `json:"initial_weight_lb" db:"initial_weight_lb"`
	CurrentWeight  decimal.Decimal  `json:"current_weight_lb" db:"current_weight_lb"`
	CostPerLb      *decimal.Decimal `json:"cost_per_lb,omitempty" db:"cost_per_lb"`
	ReceivedDate   time.Time        `json:"received_date" db:"received_date"`
	AgingStartDate *time.Time       `json:"aging_start_date,omitempty" db:"aging_start_date"`
	BestByDate     *time.Time       `json:"best_by_date,omitempty" db:"best_by_date"`
	Notes          *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// TransitionTo moves the lot along the status adjacency table.
func (l *InventoryLot) TransitionTo(next LotStatus) error {
	if !l.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{Entity: "lot", From: string(l.Status), To: string(next)}
	}
	l.Status = next
	return nil
}

// Deduct draws weight from the balance. A balance that reaches zero is clamped
// to exactly zero and the lot becomes depleted. Deductions larger than the
// balance are rejected and leave the lot untouched.
func (l *InventoryLot) Deduct(weight decimal.Decimal) error {
	if !weight.IsPositive() {
		return NewValidationError("weight", "deduction must be positive")
	}
	if !l.Status.Deductible() {
		return NewConflictError("lot %s cannot be drawn from while %s", l.LotNumber, l.Status)
	}
	if weight.GreaterThan(l.CurrentWeight) {
		return NewConflictError("deduction of %s lb exceeds lot %s balance of %s lb",
			weight.StringFixed(2), l.LotNumber, l.CurrentWeight.StringFixed(2))
	}

	remaining := Round2(l.CurrentWeight.Sub(weight))
	if !remaining.IsPositive() {
		l.CurrentWeight = decimal.Zero
		l.Status = LotDepleted
		return nil
	}
	l.CurrentWeight = remaining
	return nil
}

// CorrectWeight is the explicit correction path for the balance, e.g. after a
// recount. It is the only way the balance may go up.
func (l *InventoryLot) CorrectWeight(weight decimal.Decimal) error {
	weight = Round2(weight)
	if weight.IsNegative() {
		return NewValidationError("current_weight_lb", "must not be negative")
	}
	if weight.GreaterThan(l.InitialWeight) {
		return NewValidationError("current_weight_lb", "must not exceed initial weight %s", l.InitialWeight.StringFixed(2))
	}
	l.CurrentWeight = weight
	return nil
}
