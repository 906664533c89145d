package mux

import (
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("fairmux.mux")

// Logger is the logging surface used by a multiplexer. loggo.Logger
// satisfies it.
type Logger interface {
	Criticalf(message string, args ...interface{})
	Warningf(message string, args ...interface{})
	Debugf(message string, args ...interface{})
	Tracef(message string, args ...interface{})
}

// Config holds the dependencies of a multiplexer.
type Config struct {
	// Clock stamps sent values and measures emit latency.
	Clock clock.Clock
	// Metrics receives multiplexer events.
	Metrics Metrics
	// Logger receives lifecycle and per-item logs.
	Logger Logger
}

// DefaultConfig returns a Config using the wall clock, no metrics and the
// package logger.
func DefaultConfig() Config {
	return Config{
		Clock:   clock.WallClock,
		Metrics: NoopMetrics(),
		Logger:  logger,
	}
}

// Validate returns an error if the config cannot be used.
func (c Config) Validate() error {
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}
