package service

import (
	"testing"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
)

func TestPickToWeighedEndToEnd(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "LOT-X", "50", domain.LotAvailable)

	order := f.placeOrder(t, "5")
	if order.EstimatedTotal.StringFixed(2) != "60.00" {
		t.Fatalf("estimated total = %s", order.EstimatedTotal)
	}
	f.advance(t, order.ID, domain.OrderConfirmed)

	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(pl.Items) != 1 {
		t.Fatalf("pick items = %d, want 1", len(pl.Items))
	}
	got, _ := f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
	if got.Status != domain.OrderProcessing {
		t.Errorf("status after generate = %s, want processing", got.Status)
	}

	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, pl.Items[0].ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5.2")}); err != nil {
		t.Fatalf("PickItem: %v", err)
	}
	got, _ = f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
	line := got.Items[0]
	if line.ActualLineTotal == nil || line.ActualLineTotal.StringFixed(2) != "62.40" {
		t.Fatalf("actual line total = %v, want 62.40", line.ActualLineTotal)
	}
	if line.LotID == nil || *line.LotID != lot.ID {
		t.Errorf("order item lot = %v, want %s", line.LotID, lot.ID)
	}

	// picking binds without drawing down the lot
	before, _ := f.svc.Inventory.GetLot(f.ctx, f.tc, lot.ID)
	if !before.CurrentWeight.Equal(dec("50")) {
		t.Errorf("lot weight after pick = %s, want 50", before.CurrentWeight)
	}

	res, err := f.svc.PickLists.Complete(f.ctx, f.tc, pl.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !res.OrderAdvanced || res.OrderStatus != domain.OrderWeighed {
		t.Errorf("complete result = %+v, want weighed", res)
	}

	after, _ := f.svc.Inventory.GetLot(f.ctx, f.tc, lot.ID)
	if !after.CurrentWeight.Equal(dec("44.8")) {
		t.Errorf("lot weight after complete = %s, want 44.8", after.CurrentWeight)
	}

	total, err := f.svc.Orders.RecalculateTotal(f.ctx, f.tc, order.ID)
	if err != nil {
		t.Fatalf("RecalculateTotal: %v", err)
	}
	if total.StringFixed(2) != "62.40" {
		t.Errorf("actual total = %s, want 62.40", total.StringFixed(2))
	}
}

func TestGenerateRequiresConfirmedOrder(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t, "5")

	if _, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil); !domain.IsConflict(err) {
		t.Fatalf("pending order: expected ConflictError, got %v", err)
	}

	f.advance(t, order.ID, domain.OrderConfirmed)
	if _, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil); !domain.IsConflict(err) {
		t.Fatalf("second pick list: expected ConflictError, got %v", err)
	}
}

func TestCompleteRejectsUnpickedItems(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "LOT-Y", "50", domain.LotAvailable)
	order := f.placeOrder(t, "5")
	f.advance(t, order.ID, domain.OrderConfirmed)

	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := f.svc.PickLists.Complete(f.ctx, f.tc, pl.ID); !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	item := pl.Items[0]
	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, item.ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5")}); err != nil {
		t.Fatalf("PickItem: %v", err)
	}
	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, item.ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5")}); !domain.IsConflict(err) {
		t.Fatalf("double pick: expected ConflictError, got %v", err)
	}

	if _, err := f.svc.PickLists.UnpickItem(f.ctx, f.tc, item.ID); err != nil {
		t.Fatalf("UnpickItem: %v", err)
	}
	got, _ := f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
	if got.Items[0].ActualWeight != nil || got.Items[0].LotID != nil {
		t.Errorf("order item still bound after unpick: %+v", got.Items[0])
	}
	if _, err := f.svc.PickLists.Complete(f.ctx, f.tc, pl.ID); !domain.IsConflict(err) {
		t.Fatalf("after unpick: expected ConflictError, got %v", err)
	}
}

func TestPickItemValidation(t *testing.T) {
	f := newFixture(t)
	receiving := f.lot(t, "LOT-R", "50", domain.LotReceiving)
	order := f.placeOrder(t, "5")
	f.advance(t, order.ID, domain.OrderConfirmed)
	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	itemID := pl.Items[0].ID

	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, itemID, PickItemInput{LotID: receiving.ID, PickedWeight: dec("-1")}); !domain.IsValidation(err) {
		t.Errorf("negative weight: expected ValidationError, got %v", err)
	}
	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, itemID, PickItemInput{LotID: receiving.ID, PickedWeight: dec("0.004")}); !domain.IsValidation(err) {
		t.Errorf("weight rounding to zero: expected ValidationError, got %v", err)
	}
	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, itemID, PickItemInput{PickedWeight: dec("5")}); !domain.IsValidation(err) {
		t.Errorf("missing lot: expected ValidationError, got %v", err)
	}
	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, itemID, PickItemInput{LotID: receiving.ID, PickedWeight: dec("5")}); !domain.IsConflict(err) {
		t.Errorf("receiving lot: expected ConflictError, got %v", err)
	}
}

func TestCompleteRollsBackWhenLotIsShort(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "LOT-S", "3", domain.LotAvailable)
	order := f.placeOrder(t, "5")
	f.advance(t, order.ID, domain.OrderConfirmed)
	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, pl.Items[0].ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5")}); err != nil {
		t.Fatalf("PickItem: %v", err)
	}

	if _, err := f.svc.PickLists.Complete(f.ctx, f.tc, pl.ID); !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	got, _ := f.svc.PickLists.Get(f.ctx, f.tc, pl.ID)
	if got.IsComplete {
		t.Error("pick list completed despite short lot")
	}
	order, _ = f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
	if order.Status != domain.OrderProcessing {
		t.Errorf("order status = %s, want processing", order.Status)
	}
}

func TestCompleteFollowsOrderStatus(t *testing.T) {
	tests := []struct {
		name        string
		after       []domain.OrderStatus
		wantErr     bool
		wantLot     string
		wantStatus  domain.OrderStatus
		wantAdvance bool
	}{
		{"processing", nil, false, "44.8", domain.OrderWeighed, true},
		{"cancelled", []domain.OrderStatus{domain.OrderCancelled}, true, "50", domain.OrderCancelled, false},
		{"already weighed", []domain.OrderStatus{domain.OrderWeighed}, false, "44.8", domain.OrderWeighed, false},
		{"packed", []domain.OrderStatus{domain.OrderWeighed, domain.OrderPacked}, false, "44.8", domain.OrderPacked, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			lot := f.lot(t, "LOT-C", "50", domain.LotAvailable)
			order := f.placeOrder(t, "5")
			f.advance(t, order.ID, domain.OrderConfirmed)
			pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, pl.Items[0].ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5.2")}); err != nil {
				t.Fatalf("PickItem: %v", err)
			}
			f.advance(t, order.ID, tt.after...)

			res, err := f.svc.PickLists.Complete(f.ctx, f.tc, pl.ID)
			if tt.wantErr {
				if !domain.IsConflict(err) {
					t.Fatalf("expected ConflictError, got %v", err)
				}
				got, _ := f.svc.PickLists.Get(f.ctx, f.tc, pl.ID)
				if got.IsComplete {
					t.Error("pick list completed for a cancelled order")
				}
			} else {
				if err != nil {
					t.Fatalf("Complete: %v", err)
				}
				if res.OrderAdvanced != tt.wantAdvance || res.OrderStatus != tt.wantStatus {
					t.Errorf("result = %+v, want status %s advanced %v", res, tt.wantStatus, tt.wantAdvance)
				}
			}

			gotLot, _ := f.svc.Inventory.GetLot(f.ctx, f.tc, lot.ID)
			if !gotLot.CurrentWeight.Equal(dec(tt.wantLot)) {
				t.Errorf("lot weight = %s, want %s", gotLot.CurrentWeight, tt.wantLot)
			}
			gotOrder, _ := f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
			if gotOrder.Status != tt.wantStatus {
				t.Errorf("order status = %s, want %s", gotOrder.Status, tt.wantStatus)
			}
		})
	}
}

func TestPickItemRejectsCancelledOrder(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "LOT-Q", "50", domain.LotAvailable)
	order := f.placeOrder(t, "5")
	f.advance(t, order.ID, domain.OrderConfirmed)
	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	f.advance(t, order.ID, domain.OrderCancelled)

	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, pl.Items[0].ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5")}); !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	got, _ := f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
	if got.Items[0].LotID != nil {
		t.Errorf("order item bound to lot %v after rejected pick", got.Items[0].LotID)
	}
}

func TestAssignPickList(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t, "5")
	f.advance(t, order.ID, domain.OrderConfirmed)
	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	picker := f.tc.ActorID
	got, err := f.svc.PickLists.Assign(f.ctx, f.tc, pl.ID, picker)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got.AssignedTo == nil || *got.AssignedTo != picker {
		t.Errorf("assigned to = %v, want %s", got.AssignedTo, picker)
	}
}
