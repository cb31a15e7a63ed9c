package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryRoute is an ordered run of stops for one day.
type DeliveryRoute struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Name        string     `json:"name" db:"name"`
	RouteDate   time.Time  `json:"route_date" db:"route_date"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty" db:"driver_id"`
	IsComplete  bool       `json:"is_complete" db:"is_complete"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Stops []DeliveryStop `json:"stops,omitempty" db:"-"`
}

// DeliveryStop is one destination of a route.
type DeliveryStop struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	RouteID     uuid.UUID  `json:"route_id" db:"route_id"`
	OrderID     uuid.UUID  `json:"order_id" db:"order_id"`
	CustomerID  uuid.UUID  `json:"customer_id" db:"customer_id"`
	StopOrder   int        `json:"stop_order" db:"stop_order"`
	Delivered   bool       `json:"delivered" db:"delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
}

// CountUndelivered returns how many stops are still outstanding.
func CountUndelivered(stops []DeliveryStop) int {
	n := 0
	for _, s := range stops {
		if !s.Delivered {
			n++
		}
	}
	return n
}

// StopSequence maps each stop id to its 1-indexed position in ordered.
func StopSequence(ordered []uuid.UUID) (map[uuid.UUID]int, error) {
	seq := make(map[uuid.UUID]int, len(ordered))
	for i, id := range ordered {
		if _, dup := seq[id]; dup {
			return nil, NewValidationError("stop_ids", "stop %s listed twice", id)
		}
		seq[id] = i + 1
	}
	return seq, nil
}
