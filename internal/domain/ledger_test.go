package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLotDeduct(t *testing.T) {
	tests := []struct {
		name       string
		status     LotStatus
		balance    string
		draw       string
		wantWeight string
		wantStatus LotStatus
		wantErr    bool
	}{
		{"partial draw", LotAvailable, "50", "12.5", "37.5", LotAvailable, false},
		{"exact draw depletes", LotAvailable, "50", "50", "0", LotDepleted, false},
		{"aging lot depletes too", LotAging, "10", "10", "0", LotDepleted, false},
		{"overdraw rejected", LotAvailable, "10", "10.01", "10", LotAvailable, true},
		{"receiving lot rejected", LotReceiving, "10", "1", "10", LotReceiving, true},
		{"depleted lot rejected", LotDepleted, "0", "1", "0", LotDepleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lot := &InventoryLot{
				LotNumber:     "L-1",
				Status:        tt.status,
				InitialWeight: dec("50"),
				CurrentWeight: dec(tt.balance),
			}
			err := lot.Deduct(dec(tt.draw))
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !IsConflict(err) {
				t.Errorf("expected ConflictError, got %T", err)
			}
			if !lot.CurrentWeight.Equal(dec(tt.wantWeight)) {
				t.Errorf("weight = %s, want %s", lot.CurrentWeight, tt.wantWeight)
			}
			if lot.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", lot.Status, tt.wantStatus)
			}
		})
	}
}

func TestRoundPositive(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1.234", "1.23", false},
		{"1.235", "1.24", false},
		{"0.005", "0.01", false},
		{"0.004", "", true},
		{"0", "", true},
		{"-0.5", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := RoundPositive("weight_lb", dec(tt.in))
			if tt.wantErr {
				if !IsValidation(err) {
					t.Fatalf("expected ValidationError, got %v (%s)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("RoundPositive: %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestApplyActualWeightRejectsSubCentWeight(t *testing.T) {
	item := &OrderItem{PricePerUnit: dec("12")}
	if err := item.ApplyActualWeight(dec("0.004")); !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if item.ActualWeight != nil {
		t.Errorf("actual weight set to %s", item.ActualWeight)
	}
}

func TestCorrectWeightBounds(t *testing.T) {
	lot := &InventoryLot{InitialWeight: dec("40"), CurrentWeight: dec("10")}
	if err := lot.CorrectWeight(dec("40.01")); !IsValidation(err) {
		t.Errorf("above initial: expected ValidationError, got %v", err)
	}
	if err := lot.CorrectWeight(dec("-1")); !IsValidation(err) {
		t.Errorf("negative: expected ValidationError, got %v", err)
	}
	if err := lot.CorrectWeight(dec("22.456")); err != nil {
		t.Fatalf("CorrectWeight: %v", err)
	}
	if !lot.CurrentWeight.Equal(dec("22.46")) {
		t.Errorf("weight = %s, want 22.46", lot.CurrentWeight)
	}
}

func TestComputeYield(t *testing.T) {
	y, err := ComputeYield(dec("100"), []decimal.Decimal{dec("40"), dec("35")})
	if err != nil {
		t.Fatalf("ComputeYield: %v", err)
	}
	if !y.Waste.Equal(dec("25")) {
		t.Errorf("waste = %s, want 25", y.Waste)
	}
	if y.Percentage.StringFixed(2) != "75.00" {
		t.Errorf("yield = %s, want 75.00", y.Percentage.StringFixed(2))
	}

	y, err = ComputeYield(dec("30"), []decimal.Decimal{dec("10")})
	if err != nil {
		t.Fatalf("ComputeYield: %v", err)
	}
	if y.Percentage.StringFixed(2) != "33.33" {
		t.Errorf("yield = %s, want 33.33", y.Percentage.StringFixed(2))
	}

	if _, err := ComputeYield(dec("10"), []decimal.Decimal{dec("6"), dec("4.01")}); !IsConflict(err) {
		t.Errorf("expected ConflictError for output above input, got %v", err)
	}
}

func TestEstimateLine(t *testing.T) {
	perPiece := dec("2.5")
	tests := []struct {
		name       string
		variant    Variant
		qty        string
		price      string
		wantWeight string
		wantTotal  string
	}{
		{"pounds", Variant{Unit: UnitLb}, "5", "12", "5", "60"},
		{"case by piece weight", Variant{Unit: UnitCase, EstimatedWeightLb: &perPiece}, "4", "8", "10", "80"},
		{"each priced per piece", Variant{Unit: UnitEach, EstimatedWeightLb: &perPiece}, "3", "7.5", "7.5", "22.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, total, err := EstimateLine(&tt.variant, dec(tt.qty), dec(tt.price))
			if err != nil {
				t.Fatalf("EstimateLine: %v", err)
			}
			if w == nil || !w.Equal(dec(tt.wantWeight)) {
				t.Errorf("weight = %v, want %s", w, tt.wantWeight)
			}
			if !total.Equal(dec(tt.wantTotal)) {
				t.Errorf("total = %s, want %s", total, tt.wantTotal)
			}
		})
	}

	if _, _, err := EstimateLine(&Variant{ID: uuid.New(), Unit: UnitCase}, dec("1"), dec("1")); !IsValidation(err) {
		t.Errorf("case without piece weight: expected ValidationError, got %v", err)
	}
}

func TestRecalculateTotalIsIdempotent(t *testing.T) {
	item := OrderItem{PricePerUnit: dec("12"), EstimatedLineTotal: dec("60")}
	other := OrderItem{PricePerUnit: dec("9.99"), EstimatedLineTotal: dec("19.98")}
	if err := item.ApplyActualWeight(dec("5.2")); err != nil {
		t.Fatalf("ApplyActualWeight: %v", err)
	}
	if item.ActualLineTotal.StringFixed(2) != "62.40" {
		t.Fatalf("actual line total = %s, want 62.40", item.ActualLineTotal)
	}

	items := []OrderItem{item, other}
	first := RecalculateTotal(items)
	second := RecalculateTotal(items)
	if !first.Equal(second) {
		t.Errorf("totals differ: %s vs %s", first, second)
	}
	if first.StringFixed(2) != "82.38" {
		t.Errorf("total = %s, want 82.38", first.StringFixed(2))
	}
}

func TestPickListHelpers(t *testing.T) {
	lotA, lotB := uuid.New(), uuid.New()
	now := time.Now()

	items := make([]PickListItem, 3)
	items[0].Pick(lotA, dec("5"), now)
	items[1].Pick(lotA, dec("2.25"), now)
	if n := CountUnpicked(items); n != 1 {
		t.Fatalf("unpicked = %d, want 1", n)
	}
	items[2].Pick(lotB, dec("1"), now)

	draws := LotDraws(items)
	if !draws[lotA].Equal(dec("7.25")) {
		t.Errorf("lot A draw = %s, want 7.25", draws[lotA])
	}
	if !draws[lotB].Equal(dec("1")) {
		t.Errorf("lot B draw = %s, want 1", draws[lotB])
	}

	items[2].Unpick()
	if items[2].LotID != nil || items[2].Picked {
		t.Error("unpick should clear the binding")
	}
	if _, ok := LotDraws(items)[lotB]; ok {
		t.Error("unpicked item should not draw")
	}
}

func TestLotFromReceipt(t *testing.T) {
	po := &PurchaseOrder{ID: uuid.New(), TenantID: uuid.New(), SupplierID: uuid.New()}
	received := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)

	po.Items = []PurchaseOrderItem{
		{ID: uuid.New(), Unit: UnitLb, Quantity: dec("120"), CostPerUnit: dec("4.1")},
		{ID: uuid.New(), Unit: UnitCase, Quantity: dec("3")},
	}
	lbLine := &po.Items[0]
	lot, ok := LotFromReceipt(po, 0, received)
	if !ok {
		t.Fatal("lb line should produce a lot")
	}
	want := "PO-" + po.ID.String()[:8] + "-" + lbLine.ID.String()[:4]
	if lot.LotNumber != want {
		t.Errorf("lot number = %s, want %s", lot.LotNumber, want)
	}
	if lot.Status != LotReceiving || !lot.CurrentWeight.Equal(dec("120")) {
		t.Errorf("lot = %+v", lot)
	}
	if !lot.ReceivedDate.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("received date = %v", lot.ReceivedDate)
	}

	if _, ok := LotFromReceipt(po, 1, received); ok {
		t.Error("case line should not produce a lot")
	}
}

func TestReceiptLotNumbersStayUniqueWithinPO(t *testing.T) {
	po := &PurchaseOrder{ID: uuid.MustParse("0badcafe-0000-4000-8000-000000000000")}
	shared := func(tail string) uuid.UUID {
		return uuid.MustParse("abcd0000-0000-4000-8000-" + tail)
	}
	po.Items = []PurchaseOrderItem{
		{ID: shared("000000000001"), Unit: UnitLb, Quantity: dec("10")},
		{ID: shared("000000000002"), Unit: UnitCase, Quantity: dec("2")},
		{ID: shared("000000000003"), Unit: UnitLb, Quantity: dec("20")},
		{ID: shared("000000000004"), Unit: UnitKg, Quantity: dec("30")},
		{ID: uuid.MustParse("ef010000-0000-4000-8000-000000000005"), Unit: UnitLb, Quantity: dec("5")},
	}

	tests := []struct {
		line int
		want string
	}{
		{0, "PO-0badcafe-abcd"},
		{2, "PO-0badcafe-abcd-3"},
		{3, "PO-0badcafe-abcd-4"},
		{4, "PO-0badcafe-ef01"},
	}
	seen := map[string]bool{}
	for _, tt := range tests {
		lot, ok := LotFromReceipt(po, tt.line, time.Now())
		if !ok {
			t.Fatalf("line %d: expected a lot", tt.line)
		}
		if lot.LotNumber != tt.want {
			t.Errorf("line %d: lot number = %s, want %s", tt.line, lot.LotNumber, tt.want)
		}
		if seen[lot.LotNumber] {
			t.Errorf("line %d: duplicate lot number %s", tt.line, lot.LotNumber)
		}
		seen[lot.LotNumber] = true
	}
}

func TestStopSequence(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	seq, err := StopSequence([]uuid.UUID{c, a, b})
	if err != nil {
		t.Fatalf("StopSequence: %v", err)
	}
	if seq[c] != 1 || seq[a] != 2 || seq[b] != 3 {
		t.Errorf("sequence = %v", seq)
	}
	if _, err := StopSequence([]uuid.UUID{a, a}); !IsValidation(err) {
		t.Errorf("duplicate id: expected ValidationError, got %v", err)
	}
}

func TestResolvePrice(t *testing.T) {
	v := &Variant{DefaultPricePerUnit: dec("12")}
	if p, custom := ResolvePrice(v, nil); custom || !p.Equal(dec("12")) {
		t.Errorf("default price = %s, custom %v", p, custom)
	}
	if p, custom := ResolvePrice(v, &CustomerPricing{PricePerUnit: dec("10.5")}); !custom || !p.Equal(dec("10.5")) {
		t.Errorf("override price = %s, custom %v", p, custom)
	}
}
