package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the central fulfillment unit.
type Order struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	TenantID       uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	CustomerID     uuid.UUID        `json:"customer_id" db:"customer_id"`
	OrderNumber    string           `json:"order_number" db:"order_number"`
	Status         OrderStatus      `json:"status" db:"status"`
	PlacedBy       *uuid.UUID       `json:"placed_by,omitempty" db:"placed_by"`
	EstimatedTotal decimal.Decimal  `json:"estimated_total" db:"estimated_total"`
	ActualTotal    *decimal.Decimal `json:"actual_total,omitempty" db:"actual_total"`
	Notes          *string          `json:"notes,omitempty" db:"notes"`
	DeliveredAt    *time.Time       `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`

	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	TenantID           uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	OrderID            uuid.UUID        `json:"order_id" db:"order_id"`
	VariantID          uuid.UUID        `json:"variant_id" db:"variant_id"`
	LotID              *uuid.UUID       `json:"lot_id,omitempty" db:"lot_id"`
	Quantity           decimal.Decimal  `json:"quantity" db:"quantity"`
	Unit               Unit             `json:"unit" db:"unit"`
	PricePerUnit       decimal.Decimal  `json:"price_per_unit" db:"price_per_unit"`
	EstimatedWeight    *decimal.Decimal `json:"estimated_weight_lb,omitempty" db:"estimated_weight_lb"`
	EstimatedLineTotal decimal.Decimal  `json:"estimated_line_total" db:"estimated_line_total"`
	ActualWeight       *decimal.Decimal `json:"actual_weight_lb,omitempty" db:"actual_weight_lb"`
	ActualLineTotal    *decimal.Decimal `json:"actual_line_total,omitempty" db:"actual_line_total"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
}

// TransitionTo applies a manual status change. Entering delivered stamps DeliveredAt.
func (o *Order) TransitionTo(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{Entity: "order", From: string(o.Status), To: string(next)}
	}
	o.setStatus(next, now)
	return nil
}

// Advance applies a pipeline transition guarded by an explicit source set. It
// reports false, leaving the order untouched, when the current status is not
// one of the sources.
func (o *Order) Advance(next OrderStatus, sources []OrderStatus, now time.Time) bool {
	if !contains(sources, o.Status) {
		return false
	}
	o.setStatus(next, now)
	return true
}

func (o *Order) setStatus(next OrderStatus, now time.Time) {
	o.Status = next
	o.UpdatedAt = now
	if next == OrderDelivered {
		delivered := now
		o.DeliveredAt = &delivered
	}
}

// RecalculateTotal sums actual line totals, falling back to the estimate for
// lines not yet reconciled. It reads only item state, so repeated calls agree.
func RecalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.BillableTotal())
	}
	return Round2(total)
}

// BillableTotal is the actual line total when reconciled, else the estimate.
func (i *OrderItem) BillableTotal() decimal.Decimal {
	if i.ActualLineTotal != nil {
		return *i.ActualLineTotal
	}
	return i.EstimatedLineTotal
}

// ApplyActualWeight reconciles the catch weight of the line.
func (i *OrderItem) ApplyActualWeight(weight decimal.Decimal) error {
	w, err := RoundPositive("actual_weight_lb", weight)
	if err != nil {
		return err
	}
	total := LineTotal(w, i.PricePerUnit)
	i.ActualWeight = &w
	i.ActualLineTotal = &total
	return nil
}

// BindLot records the lot a picked line was drawn from along with its weight.
func (i *OrderItem) BindLot(lotID uuid.UUID, weight decimal.Decimal) error {
	if err := i.ApplyActualWeight(weight); err != nil {
		return err
	}
	id := lotID
	i.LotID = &id
	return nil
}

// ClearPick undoes BindLot.
func (i *OrderItem) ClearPick() {
	i.LotID = nil
	i.ActualWeight = nil
	i.ActualLineTotal = nil
}

// EstimateLine prices a requested quantity of a variant. Weight-denominated
// units price the quantity as a weight. Cases are estimated from the per-piece
// weight and priced by weight; each-units are priced per piece.
func EstimateLine(v *Variant, quantity, price decimal.Decimal) (weight *decimal.Decimal, total decimal.Decimal, err error) {
	switch {
	case v.Unit.WeightDenominated():
		w := Round2(quantity)
		return &w, LineTotal(w, price), nil
	case v.Unit == UnitCase:
		if v.EstimatedWeightLb == nil || !v.EstimatedWeightLb.IsPositive() {
			return nil, decimal.Zero, NewValidationError("variant_id", "case variant %s has no per-piece weight", v.ID)
		}
		w := Round2(quantity.Mul(*v.EstimatedWeightLb))
		return &w, LineTotal(w, price), nil
	default:
		if v.EstimatedWeightLb != nil {
			w := Round2(quantity.Mul(*v.EstimatedWeightLb))
			weight = &w
		}
		return weight, LineTotal(quantity, price), nil
	}
}
