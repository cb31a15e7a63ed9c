package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.OrderPlaced()
	m.OrderTransition("pending", "confirmed")
	m.LotDeducted("cutting", 12.5)
	m.PartialFailure("place_order")
	m.NotificationDropped()
	m.NotificationFailed("redis")
	m.ObserveRequest("GET", "/x", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil handler status = %d, want 404", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.OrderTransition("pending", "confirmed")
	m.OrderTransition("pending", "confirmed")
	m.LotDeducted("pick", 5.25)
	m.LotDeducted("pick", 4.75)

	var c dto.Metric
	if err := m.orderTransitions.WithLabelValues("pending", "confirmed").Write(&c); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := c.GetCounter().GetValue(); got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}
	var w dto.Metric
	if err := m.lotWeightDeducted.WithLabelValues("pick").Write(&w); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := w.GetCounter().GetValue(); got != 10 {
		t.Errorf("deducted lb = %v, want 10", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "butcherline_orders_transitions_total") {
		t.Errorf("exposition missing transitions counter")
	}
}
