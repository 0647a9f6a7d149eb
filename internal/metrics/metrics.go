// Package metrics holds the Prometheus collectors for the HTTP surface and the goal
// engine. Collectors live on a *Metrics value registered against a caller-owned
// registry; a nil *Metrics is a valid no-op.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pacekeeper"

// Goal period materialization sources.
const (
	SourcePrevious      = "previous"
	SourceNearestBefore = "nearest_before"
	SourceNearestAfter  = "nearest_after"
	SourceNone          = "none"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	goalPeriodsMaterialized *prometheus.CounterVec
	goalPeriodConflicts     *prometheus.CounterVec
	goalSettingsUpdated     prometheus.Counter
	runsRecorded            *prometheus.CounterVec
}

// New registers the application collectors plus the Go and process collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		goalPeriodsMaterialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goal_periods_materialized_total",
			Help:      "Goal periods created on demand, by interval and where the target came from.",
		}, []string{"interval", "source"}),
		goalPeriodConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goal_period_conflicts_total",
			Help:      "Concurrent goal period creations resolved by re-reading the winner.",
		}, []string{"interval"}),
		goalSettingsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goal_settings_updates_total",
			Help:      "Successful goal settings upserts.",
		}),
		runsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_recorded_total",
			Help:      "Runs appended, by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.goalPeriodsMaterialized,
		m.goalPeriodConflicts,
		m.goalSettingsUpdated,
		m.runsRecorded,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry this Metrics was built on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) GoalPeriodMaterialized(interval, source string) {
	if m == nil {
		return
	}
	m.goalPeriodsMaterialized.WithLabelValues(interval, source).Inc()
}

func (m *Metrics) GoalPeriodConflict(interval string) {
	if m == nil {
		return
	}
	m.goalPeriodConflicts.WithLabelValues(interval).Inc()
}

func (m *Metrics) GoalSettingsUpdated() {
	if m == nil {
		return
	}
	m.goalSettingsUpdated.Inc()
}

func (m *Metrics) RunRecorded(status string) {
	if m == nil {
		return
	}
	m.runsRecorded.WithLabelValues(status).Inc()
}

// Instrument wraps next with request count, latency and in-flight metrics. Routes
// are labelled with the ServeMux pattern so path parameters don't explode
// cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routeLabel(r.Pattern)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// routeLabel strips the method from a "GET /api/runs/{id}" style pattern.
func routeLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
