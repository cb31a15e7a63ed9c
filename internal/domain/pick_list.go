package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PickList is the fulfillment worksheet of one order.
type PickList struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	OrderID     uuid.UUID  `json:"order_id" db:"order_id"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" db:"assigned_to"`
	IsComplete  bool       `json:"is_complete" db:"is_complete"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Items []PickListItem `json:"items,omitempty" db:"-"`
}

// PickListItem binds one order line to a lot and a picked weight.
type PickListItem struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	TenantID     uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	PickListID   uuid.UUID        `json:"pick_list_id" db:"pick_list_id"`
	OrderItemID  uuid.UUID        `json:"order_item_id" db:"order_item_id"`
	LotID        *uuid.UUID       `json:"lot_id,omitempty" db:"lot_id"`
	Picked       bool             `json:"picked" db:"picked"`
	PickedWeight *decimal.Decimal `json:"picked_weight_lb,omitempty" db:"picked_weight_lb"`
	PickedAt     *time.Time       `json:"picked_at,omitempty" db:"picked_at"`
}

func (p *PickListItem) Pick(lotID uuid.UUID, weight decimal.Decimal, now time.Time) {
	id := lotID
	w := Round2(weight)
	at := now
	p.LotID = &id
	p.PickedWeight = &w
	p.Picked = true
	p.PickedAt = &at
}

func (p *PickListItem) Unpick() {
	p.LotID = nil
	p.PickedWeight = nil
	p.Picked = false
	p.PickedAt = nil
}

// CountUnpicked returns how many items still need picking.
func CountUnpicked(items []PickListItem) int {
	n := 0
	for _, item := range items {
		if !item.Picked {
			n++
		}
	}
	return n
}

// LotDraws totals picked weight per lot.
func LotDraws(items []PickListItem) map[uuid.UUID]decimal.Decimal {
	draws := make(map[uuid.UUID]decimal.Decimal)
	for _, item := range items {
		if !item.Picked || item.LotID == nil || item.PickedWeight == nil {
			continue
		}
		draws[*item.LotID] = draws[*item.LotID].Add(*item.PickedWeight)
	}
	return draws
}
