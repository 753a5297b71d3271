package commands

import (
	"context"
	"fmt"

	"github.com/ncobase/pubsub/bus"
	"github.com/ncobase/pubsub/concurrency"
	"github.com/ncobase/pubsub/concurrency/worker"
	"github.com/ncobase/pubsub/config"
	"github.com/ncobase/pubsub/logging/logger"
	"github.com/ncobase/pubsub/metrics"
	"github.com/ncobase/pubsub/version"
	"github.com/prometheus/client_golang/prometheus"
)

// app holds the components wired from configuration
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	pool     *worker.Pool
	bus      *bus.Bus
	registry *prometheus.Registry
	cleanups []func()
}

// newApp loads configuration from path and wires logger, pool and bus
func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	l, logCleanup, err := logger.ProvideLogger(config.ProvideLoggerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = l
	a.cleanups = append(a.cleanups, logCleanup)
	a.log.SetVersion(version.GetVersionInfo().Version)

	if cfg.Bus.UsePool() {
		pool, cleanup, err := worker.ProvidePool(config.ProvideWorkerConfig(cfg.Bus))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to start delivery pool: %w", err)
		}
		a.pool = pool
		a.cleanups = append(a.cleanups, cleanup)
	}

	onRecover := a.log.RecoverHandlerContext(ctx)
	if cfg.Bus.UseLimiter() {
		limiter, err := concurrency.NewManager(cfg.Bus.MaxConcurrent)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create delivery limiter: %w", err)
		}
		a.bus = bus.New(bus.WithExecutor(limiter), bus.WithRecoverHandler(onRecover))
	} else {
		a.bus = bus.ProvideBus(a.pool, onRecover)
	}

	a.registry = prometheus.NewRegistry()
	var poolSource metrics.PoolSource
	if a.pool != nil {
		poolSource = a.pool
	}
	if err := a.registry.Register(metrics.NewCollector(a.bus, poolSource)); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	a.log.Infof(ctx, "bus ready (app=%s, mode=%s, executor=%s)", cfg.AppName, cfg.RunMode, cfg.Bus.Executor)
	return a, nil
}

// close runs cleanups in reverse order
func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}
