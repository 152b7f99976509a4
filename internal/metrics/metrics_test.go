package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("POST", "/chat", 200, time.Millisecond)
	m.ObserveTurn("ready", time.Millisecond)
	m.ObserveExtraction("destination", "model", "found")
	m.ObserveProvider("booking", "ok", time.Millisecond)
	m.SetStoredContexts(3)
	if m.Registry() != nil {
		t.Fatalf("nil metrics returned a registry")
	}
}

func TestHandlerExposesRecordedSeries(t *testing.T) {
	m := New()
	m.ObserveTurn("gathering", 10*time.Millisecond)
	m.ObserveExtraction("destination", "gazetteer", "found")
	m.ObserveProvider("booking", "error", time.Second)
	m.SetStoredContexts(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`tripchat_turns_total{state="gathering"} 1`,
		`tripchat_slot_extractions_total{outcome="found",slot="destination",strategy="gazetteer"} 1`,
		`tripchat_provider_requests_total{provider="booking",status="error"} 1`,
		`tripchat_stored_contexts 7`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
