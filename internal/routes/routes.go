package routes

import (
	"net/http"

	"github.com/templui/pacekeeper/internal/app"
	"github.com/templui/pacekeeper/internal/handler"
	"github.com/templui/pacekeeper/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	plans := handler.NewPlanHandler(app.GoalPeriodService, app.Resolver)
	runs := handler.NewRunHandler(app.RunService, app.Resolver)
	stats := handler.NewStatsHandler(app.StatsService)

	auth := middleware.BearerAuth(app.Cfg.JWTSecret)
	read := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	// Writes are rate limited per user, so the limiter runs after auth
	write := func(h http.HandlerFunc) http.Handler {
		return auth(app.RateLimiter.Handler(h))
	}

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	if app.Metrics != nil {
		mux.Handle("GET /metrics", app.Metrics.Handler())
	}

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Plans
	mux.Handle("POST /api/plans/goal-settings", write(plans.GoalSettings))
	mux.Handle("GET /api/plans/by-date", read(plans.ByDate))
	mux.Handle("GET /api/plans", read(plans.List))

	// Runs
	mux.Handle("POST /api/runs", write(runs.Create))
	mux.Handle("GET /api/runs", read(runs.List))
	mux.Handle("GET /api/runs/by-date", read(runs.ByDate))
	mux.Handle("GET /api/runs/{id}", read(runs.Show))

	// Stats
	mux.Handle("GET /api/runs/stats/overview", read(stats.Overview))
	mux.Handle("GET /api/runs/stats/dashboard", read(stats.Dashboard))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.WithRequestID,
		middleware.RequestLogging,
		middleware.Recover,
		app.Metrics.Instrument, // innermost so it sees the matched pattern
	)
}
