// Package logging holds the verbosity levels and logger constructors shared by
// the paramgraph packages.
//
// Every constructor in this module accepts a logr.Logger through a WithLogger
// option and defaults to logr.Discard(). Real-time entry points (Process,
// SetValueRT, ClearModulations) never log.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels passed to logr.Logger.V.
const (
	DEFAULT = 2
	VERBOSE = 3
	DEBUG   = 4
	TRACE   = 5
)

// NewZapLogger builds a zap-backed logr.Logger that emits every message up to
// the given logr verbosity. Development mode switches to the console encoder.
func NewZapLogger(verbosity int, development bool) (logr.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	// logr V(n) maps to zap level -n.
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(int8(-1 * verbosity)))

	z, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return logr.Discard(), err
	}

	return zapr.NewLogger(z), nil
}
