package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gorelia/adapters/battery"
	"gorelia/adapters/postgres"
	"gorelia/adapters/rng"
	"gorelia/adapters/stats/fitter"
	"gorelia/adapters/stats/goodness"
	"gorelia/app"
	"gorelia/internal"
	"gorelia/internal/config"
	"gorelia/internal/errors"
	"gorelia/internal/metrics"
	"gorelia/internal/migration"
	"gorelia/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB       *sqlx.DB
	Registry *prometheus.Registry

	// Metrics
	BootstrapMetrics *metrics.BootstrapMetrics
	HTTPMetrics      *metrics.HTTPMetrics

	// Computation
	Fitter *fitter.Fitter
	Scorer *goodness.Scorer
	Engine *battery.Engine

	// Repositories (data access layer)
	Records ports.LifetimeRecordPort

	service *app.ReliabilityService
}

// New creates the container and its computation stack
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:   cfg,
		Logger:   internal.NewLogger(cfg.LogLevel),
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.BootstrapMetrics = metrics.NewBootstrapMetrics(c.Registry)
	c.HTTPMetrics = metrics.NewHTTPMetrics(c.Registry)

	c.Fitter = fitter.New()
	c.Scorer = goodness.NewScorer(c.Fitter)
	c.Engine = battery.NewEngine(c.Fitter, c.Scorer, rng.NewSeededAdapter(), battery.Config{
		Workers:     cfg.Bootstrap.Workers,
		MaxAttempts: cfg.Bootstrap.MaxAttempts,
		Seed:        cfg.Bootstrap.Seed,
	}, battery.WithMetrics(c.BootstrapMetrics), battery.WithLogger(c.Logger))

	return c, nil
}

// InitWithDatabase migrates the schema and enables the record store
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("failed to ping database", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return err
	}

	c.DB = db
	c.Records = postgres.NewLifetimeRepository(db)
	c.service = nil
	c.Logger.With("Container").Info("lifetime record store ready")
	return nil
}

// Service returns the reliability service, built on first use
func (c *Container) Service() *app.ReliabilityService {
	if c.service != nil {
		return c.service
	}
	opts := []app.ServiceOption{
		app.WithServiceLogger(c.Logger),
	}
	if c.Records != nil {
		opts = append(opts, app.WithRecords(c.Records))
	}
	c.service = app.NewReliabilityService(c.Fitter, c.Scorer, c.Engine, app.ServiceConfig{
		Samples:        c.Config.Bootstrap.Samples,
		Timeout:        c.Config.Bootstrap.Timeout,
		CollapseMode:   c.Config.Analysis.CollapseMode,
		Alpha:          c.Config.Analysis.Alpha,
		EndObservation: c.Config.Analysis.EndObservation,
	}, opts...)
	return c.service
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
