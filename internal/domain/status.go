package domain

import "strings"

// OrderStatus is a stage of the order fulfillment pipeline.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderProcessing     OrderStatus = "processing"
	OrderWeighed        OrderStatus = "weighed"
	OrderPacked         OrderStatus = "packed"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

var orderStatusFlow = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderProcessing, OrderCancelled},
	OrderProcessing:     {OrderWeighed, OrderCancelled},
	OrderWeighed:        {OrderPacked, OrderCancelled},
	OrderPacked:         {OrderOutForDelivery, OrderCancelled},
	OrderOutForDelivery: {OrderDelivered},
	OrderDelivered:      {},
	OrderCancelled:      {},
}

var orderStatusLabels = map[OrderStatus]string{
	OrderPending:        "Pending",
	OrderConfirmed:      "Confirmed",
	OrderProcessing:     "Processing",
	OrderWeighed:        "Weighed",
	OrderPacked:         "Packed",
	OrderOutForDelivery: "Out for Delivery",
	OrderDelivered:      "Delivered",
	OrderCancelled:      "Cancelled",
}

// Pipeline edges. These are driven by the pick list and delivery workflows rather
// than by an explicit status request, and may skip stages of the manual flow.
var (
	PickCompletionSources = []OrderStatus{OrderConfirmed, OrderProcessing}
	StopDeliverySources   = []OrderStatus{OrderPacked, OrderOutForDelivery}
	PickListSources       = []OrderStatus{OrderConfirmed, OrderProcessing}
)

// ParseOrderStatus returns the status for a given name (case-insensitive).
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := orderStatusFlow[st]
	return st, ok
}

// Label returns a human-readable label used in notifications.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CanTransitionTo reports whether next is in the adjacency list of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return contains(orderStatusFlow[s], next)
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(orderStatusFlow[s]) == 0
}

// Notifies reports whether entering s emits a customer notification.
func (s OrderStatus) Notifies() bool {
	return s == OrderConfirmed || s == OrderOutForDelivery || s == OrderDelivered
}

// LotStatus is the lifecycle state of an inventory lot.
type LotStatus string

const (
	LotReceiving LotStatus = "receiving"
	LotAging     LotStatus = "aging"
	LotAvailable LotStatus = "available"
	LotAllocated LotStatus = "allocated"
	LotDepleted  LotStatus = "depleted"
	LotExpired   LotStatus = "expired"
	LotWaste     LotStatus = "waste"
)

var lotStatusFlow = map[LotStatus][]LotStatus{
	LotReceiving: {LotAging, LotAvailable},
	LotAging:     {LotAvailable, LotExpired, LotWaste},
	LotAvailable: {LotAllocated, LotDepleted, LotExpired, LotWaste},
	LotAllocated: {LotAvailable, LotDepleted},
	LotDepleted:  {},
	LotExpired:   {LotWaste},
	LotWaste:     {},
}

// ParseLotStatus returns the status for a given name (case-insensitive).
func ParseLotStatus(s string) (LotStatus, bool) {
	st := LotStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := lotStatusFlow[st]
	return st, ok
}

func (s LotStatus) CanTransitionTo(next LotStatus) bool {
	return contains(lotStatusFlow[s], next)
}

// Deductible reports whether weight may be drawn from a lot in status s.
func (s LotStatus) Deductible() bool {
	return s == LotAging || s == LotAvailable || s == LotAllocated
}

// Cuttable reports whether a lot in status s may feed a cutting session.
func (s LotStatus) Cuttable() bool {
	return s == LotAging || s == LotAvailable
}

// POStatus is the lifecycle state of a purchase order.
type POStatus string

const (
	PODraft     POStatus = "draft"
	POSubmitted POStatus = "submitted"
	POConfirmed POStatus = "confirmed"
	POReceived  POStatus = "received"
	POCancelled POStatus = "cancelled"
)

var poStatusFlow = map[POStatus][]POStatus{
	PODraft:     {POSubmitted, POCancelled},
	POSubmitted: {POConfirmed, POCancelled},
	POConfirmed: {POReceived, POCancelled},
	POReceived:  {},
	POCancelled: {},
}

// ParsePOStatus returns the status for a given name (case-insensitive).
func ParsePOStatus(s string) (POStatus, bool) {
	st := POStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := poStatusFlow[st]
	return st, ok
}

func (s POStatus) CanTransitionTo(next POStatus) bool {
	return contains(poStatusFlow[s], next)
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
