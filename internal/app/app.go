package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/templui/pacekeeper/internal/config"
	"github.com/templui/pacekeeper/internal/db"
	"github.com/templui/pacekeeper/internal/metrics"
	"github.com/templui/pacekeeper/internal/middleware"
	"github.com/templui/pacekeeper/internal/period"
	"github.com/templui/pacekeeper/internal/repository"
	"github.com/templui/pacekeeper/internal/service"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Resolver          *period.Resolver
	Metrics           *metrics.Metrics
	RateLimiter       *middleware.RateLimiter
	GoalPeriodService *service.GoalPeriodService
	RunService        *service.RunService
	StatsService      *service.StatsService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Metrics stay nil (no-op) when disabled
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(prometheus.NewRegistry())
	}

	resolver := period.NewResolver(cfg.ReportingLocation)

	// Repositories
	goalPeriodRepository := repository.NewGoalPeriodRepository(database)
	runRepository := repository.NewRunRepository(database)

	// Services
	goalPeriodService := service.NewGoalPeriodService(goalPeriodRepository, resolver, m)
	runService := service.NewRunService(runRepository, resolver, m, cfg.RecentRunsLimit)
	statsService := service.NewStatsService(runService, goalPeriodService, resolver, cfg.StreakLookbackDays)

	return &App{
		Cfg:               cfg,
		DB:                database,
		Resolver:          resolver,
		Metrics:           m,
		RateLimiter:       middleware.NewRateLimiter(cfg.WriteRateLimit, cfg.WriteRateBurst),
		GoalPeriodService: goalPeriodService,
		RunService:        runService,
		StatsService:      statsService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
