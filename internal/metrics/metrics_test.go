package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", "/api/weights", 200, 15*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/weights", 200, 20*time.Millisecond)

	mf := findMetric(t, reg, "glucotrack_http_requests_total")
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("expected 1 series, got %d", len(mf.GetMetric()))
	}
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 2 {
		t.Errorf("http_requests_total = %v, want 2", v)
	}

	hist := findMetric(t, reg, "glucotrack_http_request_duration_seconds")
	if n := hist.GetMetric()[0].GetHistogram().GetSampleCount(); n != 2 {
		t.Errorf("sample count = %d, want 2", n)
	}
}

func TestRecordAuth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuth("login", true)
	c.RecordAuth("login", false)
	c.RecordAuth("login", false)

	mf := findMetric(t, reg, "glucotrack_auth_events_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "outcome" {
				got[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if got["success"] != 1 || got["failure"] != 2 {
		t.Errorf("unexpected outcomes %v", got)
	}
}

func TestRecordEntries(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEntriesCreated("weight", 1)
	c.RecordEntriesDeleted("glucose", 3)
	c.RecordSessionsSwept(4)

	if v := findMetric(t, reg, "glucotrack_entries_created_total").GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("entries_created_total = %v, want 1", v)
	}
	if v := findMetric(t, reg, "glucotrack_entries_deleted_total").GetMetric()[0].GetCounter().GetValue(); v != 3 {
		t.Errorf("entries_deleted_total = %v, want 3", v)
	}
	if v := findMetric(t, reg, "glucotrack_sessions_swept_total").GetMetric()[0].GetCounter().GetValue(); v != 4 {
		t.Errorf("sessions_swept_total = %v, want 4", v)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSessionsSwept(1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "glucotrack_sessions_swept_total 1") {
		t.Errorf("expected swept counter in exposition, got:\n%s", body)
	}
}
