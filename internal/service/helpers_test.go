package service_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/templui/pacekeeper/internal/db/dbtest"
	"github.com/templui/pacekeeper/internal/metrics"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/repository"
	"github.com/templui/pacekeeper/internal/service"
)

var ict = time.FixedZone("UTC+07:00", 7*3600)

func local(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, ict)
}

type services struct {
	reg   *prometheus.Registry
	goals *service.GoalPeriodService
	runs  *service.RunService
	stats *service.StatsService
}

// newServices wires every service against a fresh SQLite database.
func newServices(t *testing.T) *services {
	t.Helper()

	database := dbtest.New(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	resolver := period.NewResolver(ict)

	goals := service.NewGoalPeriodService(repository.NewGoalPeriodRepository(database), resolver, m)
	runs := service.NewRunService(repository.NewRunRepository(database), resolver, m, 50)
	return &services{
		reg:   reg,
		goals: goals,
		runs:  runs,
		stats: service.NewStatsService(runs, goals, resolver, 366),
	}
}

func ptr(v float64) *float64 {
	return &v
}
