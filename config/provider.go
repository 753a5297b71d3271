package config

import (
	"github.com/google/wire"
	"github.com/ncobase/pubsub/concurrency/worker"
	logcfg "github.com/ncobase/pubsub/logging/logger/config"
)

// ProviderSet is the wire provider set for the config package.
// It loads the main *Config from a path supplied by the injector and
// extracts sub-configurations for other modules to use.
//
// Usage:
//
//	wire.Build(
//	    config.ProviderSet,
//	    logger.ProviderSet,
//	    worker.ProviderSet,
//	    bus.ProviderSet,
//	)
var ProviderSet = wire.NewSet(
	LoadConfig,
	ProvideLoggerConfig,
	ProvideBusConfig,
	ProvideWorkerConfig,
)

// ProvideLoggerConfig provides the logger configuration.
func ProvideLoggerConfig(cfg *Config) *logcfg.Config {
	if cfg == nil || cfg.Logger == nil {
		return logcfg.Default()
	}
	return cfg.Logger
}

// ProvideBusConfig provides the bus configuration.
func ProvideBusConfig(cfg *Config) *Bus {
	if cfg == nil {
		return nil
	}
	return cfg.Bus
}

// ProvideWorkerConfig provides the delivery pool configuration.
func ProvideWorkerConfig(b *Bus) *worker.Config {
	return b.Worker()
}
