package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveExternalCall(t *testing.T) {
	m := New()
	m.ObserveExternalCall("apollo", "ok", 120*time.Millisecond)
	m.ObserveExternalCall("apollo", "timeout", 20*time.Second)
	m.ObserveExternalCall("apollo", "timeout", 20*time.Second)

	if got := testutil.ToFloat64(m.externalCalls.WithLabelValues("apollo", "timeout")); got != 2 {
		t.Errorf("timeout calls = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.externalDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveExternalCall("apollo", "ok", time.Second)
	m.LookupTransition("completed")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("nil Handler() status = %d, want 404", w.Code)
	}
}

func TestHandlerExposesLookupTransitions(t *testing.T) {
	m := New()
	m.LookupTransition("expired")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `prospecting_lookup_transitions_total{to="expired"} 1`) {
		t.Errorf("exposition missing lookup transition counter:\n%s", w.Body.String())
	}
}
