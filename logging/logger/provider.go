package logger

import (
	"github.com/google/wire"
	"github.com/ncobase/pubsub/bus"
	"github.com/ncobase/pubsub/logging/logger/config"
)

// ProviderSet is the wire provider set for the logger package
var ProviderSet = wire.NewSet(ProvideLogger, ProvideRecoverHandler)

// ProvideLogger initializes and returns the standard logger
func ProvideLogger(cfg *config.Config) (*Logger, func(), error) {
	cleanup, err := New(cfg)
	return StdLogger(), cleanup, err
}

// ProvideRecoverHandler logs recovered handler panics through l
func ProvideRecoverHandler(l *Logger) bus.RecoverHandler {
	return l.RecoverHandler()
}
