package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Submissions.WithLabelValues("party").Inc()
	m.Submissions.WithLabelValues("party").Inc()
	m.CodeEmails.WithLabelValues(ResultFailed).Inc()

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("party")); got != 2 {
		t.Errorf("submissions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CodeEmails.WithLabelValues(ResultFailed)); got != 1 {
		t.Errorf("failed emails = %v, want 1", got)
	}
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", 200, 15*time.Millisecond)
	m.ObserveRequest("POST", 422, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "422")); got != 1 {
		t.Errorf("POST 422 = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.HTTPDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Lookups.WithLabelValues("code", ResultOK).Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `shaadi_rsvp_lookups_total{method="code",result="ok"} 1`) {
		t.Errorf("lookup counter missing from exposition:\n%s", body)
	}
}
