package service

import (
	"sync"
	"testing"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
)

// fanOut runs fn n times concurrently, released together, and returns each
// call's error by index.
func fanOut(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func countOutcomes(t *testing.T, errs []error) (ok, conflicts int) {
	t.Helper()
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case domain.IsConflict(err):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	return ok, conflicts
}

func TestConcurrentPicksOnOneItem(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "LOT-P", "50", domain.LotAvailable)
	order := f.placeOrder(t, "5")
	f.advance(t, order.ID, domain.OrderConfirmed)
	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	itemID := pl.Items[0].ID

	weights := []string{"4.9", "5", "5.1", "5.2", "5.3", "5.4", "5.5", "5.6"}
	errs := fanOut(len(weights), func(i int) error {
		_, err := f.svc.PickLists.PickItem(f.ctx, f.tc, itemID, PickItemInput{LotID: lot.ID, PickedWeight: dec(weights[i])})
		return err
	})
	ok, conflicts := countOutcomes(t, errs)
	if ok != 1 || conflicts != len(weights)-1 {
		t.Fatalf("successes = %d, conflicts = %d, want 1 and %d", ok, conflicts, len(weights)-1)
	}

	var winner string
	for i, err := range errs {
		if err == nil {
			winner = weights[i]
		}
	}
	got, _ := f.svc.PickLists.Get(f.ctx, f.tc, pl.ID)
	if !got.Items[0].PickedWeight.Equal(dec(winner)) {
		t.Errorf("picked weight = %s, want %s", got.Items[0].PickedWeight, winner)
	}
	o, _ := f.svc.Orders.GetOrder(f.ctx, f.tc, order.ID)
	if o.Items[0].ActualWeight == nil || !o.Items[0].ActualWeight.Equal(dec(winner)) {
		t.Errorf("order item weight = %v, want %s", o.Items[0].ActualWeight, winner)
	}
}

func TestConcurrentCuttingNeverOverdrawsLot(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "CARCASS-C", "50", domain.LotAvailable)

	const sessions = 6
	errs := fanOut(sessions, func(int) error {
		_, err := f.svc.Cutting.RecordCuttingSession(f.ctx, f.tc, RecordCuttingInput{
			SourceLotID: lot.ID,
			InputWeight: dec("20"),
			SessionDate: fixedNow,
			Items:       []CuttingItemInput{{VariantID: f.ribeye.ID, Quantity: 3, Weight: dec("15")}},
		})
		return err
	})
	ok, conflicts := countOutcomes(t, errs)
	if ok != 2 || conflicts != sessions-2 {
		t.Fatalf("successes = %d, conflicts = %d, want 2 and %d", ok, conflicts, sessions-2)
	}

	got, _ := f.svc.Inventory.GetLot(f.ctx, f.tc, lot.ID)
	if got.CurrentWeight.IsNegative() || !got.CurrentWeight.Equal(dec("10")) {
		t.Errorf("lot balance = %s, want 10", got.CurrentWeight)
	}
}

func TestConcurrentCompletionsShareOneLot(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "LOT-S2", "8", domain.LotAvailable)

	lists := make([]*domain.PickList, 0, 3)
	for i := 0; i < 3; i++ {
		order := f.placeOrder(t, "5")
		f.advance(t, order.ID, domain.OrderConfirmed)
		pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, pl.Items[0].ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5")}); err != nil {
			t.Fatalf("PickItem: %v", err)
		}
		lists = append(lists, pl)
	}

	errs := fanOut(len(lists), func(i int) error {
		_, err := f.svc.PickLists.Complete(f.ctx, f.tc, lists[i].ID)
		return err
	})
	ok, conflicts := countOutcomes(t, errs)
	if ok != 1 || conflicts != len(lists)-1 {
		t.Fatalf("successes = %d, conflicts = %d, want 1 and %d", ok, conflicts, len(lists)-1)
	}

	got, _ := f.svc.Inventory.GetLot(f.ctx, f.tc, lot.ID)
	if !got.CurrentWeight.Equal(dec("3")) {
		t.Errorf("lot balance = %s, want 3", got.CurrentWeight)
	}
}

func TestConcurrentCompletionOfOneList(t *testing.T) {
	f := newFixture(t)
	lot := f.lot(t, "LOT-D", "50", domain.LotAvailable)
	order := f.placeOrder(t, "5")
	f.advance(t, order.ID, domain.OrderConfirmed)
	pl, err := f.svc.PickLists.Generate(f.ctx, f.tc, order.ID, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := f.svc.PickLists.PickItem(f.ctx, f.tc, pl.Items[0].ID, PickItemInput{LotID: lot.ID, PickedWeight: dec("5.2")}); err != nil {
		t.Fatalf("PickItem: %v", err)
	}

	errs := fanOut(5, func(int) error {
		_, err := f.svc.PickLists.Complete(f.ctx, f.tc, pl.ID)
		return err
	})
	if ok, _ := countOutcomes(t, errs); ok != 1 {
		t.Fatalf("successes = %d, want 1", ok)
	}
	got, _ := f.svc.Inventory.GetLot(f.ctx, f.tc, lot.ID)
	if !got.CurrentWeight.Equal(dec("44.8")) {
		t.Errorf("lot balance = %s, want 44.8 after a single draw", got.CurrentWeight)
	}
}
