// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP adapter and the workers report to.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, d time.Duration)
	RecordAuth(event string, ok bool)
	RecordEntriesCreated(kind string, n int)
	RecordEntriesDeleted(kind string, n int64)
	RecordSessionsSwept(n int64)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	authEvents     *prometheus.CounterVec
	entriesCreated *prometheus.CounterVec
	entriesDeleted *prometheus.CounterVec
	sessionsSwept  prometheus.Counter
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glucotrack_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "glucotrack_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glucotrack_auth_events_total",
			Help: "Signup and login attempts by outcome.",
		}, []string{"event", "outcome"}),
		entriesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glucotrack_entries_created_total",
			Help: "Ledger entries created, by kind.",
		}, []string{"kind"}),
		entriesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glucotrack_entries_deleted_total",
			Help: "Ledger entries deleted, by kind.",
		}, []string{"kind"}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glucotrack_sessions_swept_total",
			Help: "Expired sessions removed by the sweeper.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authEvents,
		c.entriesCreated,
		c.entriesDeleted,
		c.sessionsSwept,
	)
	return c
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuth records a signup or login attempt.
func (c *Collector) RecordAuth(event string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordEntriesCreated records n new weight or glucose entries.
func (c *Collector) RecordEntriesCreated(kind string, n int) {
	c.entriesCreated.WithLabelValues(kind).Add(float64(n))
}

// RecordEntriesDeleted records n deleted weight or glucose entries.
func (c *Collector) RecordEntriesDeleted(kind string, n int64) {
	c.entriesDeleted.WithLabelValues(kind).Add(float64(n))
}

// RecordSessionsSwept records sessions removed by the expiry sweeper.
func (c *Collector) RecordSessionsSwept(n int64) {
	c.sessionsSwept.Add(float64(n))
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuth(string, bool)                              {}
func (Nop) RecordEntriesCreated(string, int)                     {}
func (Nop) RecordEntriesDeleted(string, int64)                   {}
func (Nop) RecordSessionsSwept(int64)                            {}
