package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventOrderPlaced        EventKind = "order.placed"
	EventOrderStatusChanged EventKind = "order.status_changed"
)

// OrderEvent is what the order engine hands to the notification gateway.
type OrderEvent struct {
	Kind          EventKind   `json:"kind"`
	TenantID      uuid.UUID   `json:"tenant_id"`
	OrderID       uuid.UUID   `json:"order_id"`
	OrderNumber   string      `json:"order_number"`
	CustomerID    uuid.UUID   `json:"customer_id"`
	CustomerName  string      `json:"customer_name,omitempty"`
	CustomerEmail string      `json:"customer_email,omitempty"`
	Status        OrderStatus `json:"status"`
	StatusLabel   string      `json:"status_label"`
	OccurredAt    time.Time   `json:"occurred_at"`
}
