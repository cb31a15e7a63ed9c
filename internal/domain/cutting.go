package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CuttingSession records one breakdown of a source lot into output variants.
type CuttingSession struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TenantID          uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	SourceLotID       uuid.UUID       `json:"source_lot_id" db:"source_lot_id"`
	PerformedBy       *uuid.UUID      `json:"performed_by,omitempty" db:"performed_by"`
	SessionDate       time.Time       `json:"session_date" db:"session_date"`
	InputWeight       decimal.Decimal `json:"input_weight_lb" db:"input_weight_lb"`
	TotalOutputWeight decimal.Decimal `json:"total_output_weight_lb" db:"total_output_weight_lb"`
	WasteWeight       decimal.Decimal `json:"waste_weight_lb" db:"waste_weight_lb"`
	YieldPercentage   decimal.Decimal `json:"yield_percentage" db:"yield_percentage"`
	Notes             *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`

	Items []CuttingSessionItem `json:"items,omitempty" db:"-"`
}

// CuttingSessionItem is one output line of a session.
type CuttingSessionItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	SessionID uuid.UUID       `json:"session_id" db:"session_id"`
	VariantID uuid.UUID       `json:"variant_id" db:"variant_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Weight    decimal.Decimal `json:"weight_lb" db:"weight_lb"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// CuttingYield is the weight balance of a session.
type CuttingYield struct {
	TotalOutput decimal.Decimal
	Waste       decimal.Decimal
	Percentage  decimal.Decimal
}

// ComputeYield balances input against outputs. Outputs heavier than the input
// are a ConflictError.
func ComputeYield(input decimal.Decimal, outputs []decimal.Decimal) (CuttingYield, error) {
	total := decimal.Zero
	for _, w := range outputs {
		total = total.Add(w)
	}
	waste := Round2(input.Sub(total))
	if waste.IsNegative() {
		return CuttingYield{}, NewConflictError("output weight %s lb exceeds input weight %s lb",
			total.StringFixed(2), input.StringFixed(2))
	}
	return CuttingYield{
		TotalOutput: Round2(total),
		Waste:       waste,
		Percentage:  YieldPercentage(total, input),
	}, nil
}
