package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/pacekeeper/internal/metrics"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.GoalPeriodMaterialized("weekly", metrics.SourceNone)
		m.GoalPeriodConflict("weekly")
		m.GoalSettingsUpdated()
		m.RunRecorded("finished")
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Instrument(h))
}

func TestGoalCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.GoalPeriodMaterialized("weekly", metrics.SourcePrevious)
	m.GoalPeriodMaterialized("weekly", metrics.SourcePrevious)
	m.GoalPeriodMaterialized("daily", metrics.SourceNone)
	m.GoalPeriodConflict("monthly")

	expected := `
# HELP pacekeeper_goal_periods_materialized_total Goal periods created on demand, by interval and where the target came from.
# TYPE pacekeeper_goal_periods_materialized_total counter
pacekeeper_goal_periods_materialized_total{interval="daily",source="none"} 1
pacekeeper_goal_periods_materialized_total{interval="weekly",source="previous"} 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "pacekeeper_goal_periods_materialized_total")
	require.NoError(t, err)

	err = testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP pacekeeper_goal_period_conflicts_total Concurrent goal period creations resolved by re-reading the winner.
# TYPE pacekeeper_goal_period_conflicts_total counter
pacekeeper_goal_period_conflicts_total{interval="monthly"} 1
`), "pacekeeper_goal_period_conflicts_total")
	require.NoError(t, err)
}

func TestInstrumentLabelsByPattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.Handle("GET /metrics", m.Handler())
	h := m.Instrument(mux)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pacekeeper_http_requests_total{method="GET",route="/api/runs/{id}",status="404"} 2`)
}
