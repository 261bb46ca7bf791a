package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncAssessment(true)
	m.AddPoints("module_completion", 10)
	m.ObserveOracle("ok", time.Second)
	m.IncTask("extract", "ok")
	m.IncCache("leaderboard", true)
	m.ObserveAPIError("/x", "not_found")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404 from nil metrics handler, got %d", rec.Code)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("GET", "/api/v1/modules", "200", 20*time.Millisecond)
	m.IncAssessment(false)
	m.AddPoints("milestone", 50)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`techlearn_http_requests_total{method="GET",route="/api/v1/modules",status="200"} 1`,
		`techlearn_assessments_total{passed="false"} 1`,
		`techlearn_points_awarded_total{reason="milestone"} 50`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
