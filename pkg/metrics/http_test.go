package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry(reg, reg)

	m.Observe(http.MethodPost, "/api/orders", http.StatusCreated, 20*time.Millisecond)
	m.Observe(http.MethodPost, "/api/orders", http.StatusCreated, 30*time.Millisecond)
	m.Observe(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got, err := fetchCounterValue(mfs, "efarm_http_requests_total", map[string]string{"method": "POST", "route": "/api/orders", "status": "201"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 requests, got %f", got)
	}
	if _, err := fetchCounterValue(mfs, "efarm_http_requests_total", map[string]string{"route": "unmatched", "status": "404"}); err != nil {
		t.Fatalf("expected unmatched route label: %v", err)
	}
}

func TestHTTPMetricsHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry(reg, reg)
	m.Observe(http.MethodGet, "/api/products", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "efarm_http_requests_total") {
		t.Fatalf("metrics output missing counter: %s", rec.Body.String())
	}
}

func TestOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("order_created")
	m.IncFailed("order_created")
	m.IncDeadLettered("max_attempts")
	m.ObserveBatch(4)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "efarm_outbox_published_total", map[string]string{"event_type": "order_created"}); got != 1 {
		t.Fatalf("expected published=1, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "efarm_outbox_dead_lettered_total", map[string]string{"reason": "max_attempts"}); got != 1 {
		t.Fatalf("expected dead lettered=1, got %f", got)
	}
}
