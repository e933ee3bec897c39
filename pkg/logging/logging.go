// Package logging constructs the zap logger shared across the engine and
// its ambient stack, the same zap.NewDevelopment/zap.NewProduction choice
// rootCommand.go makes at startup.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger at the given level ("debug", "info", "warn",
// "error"). development selects zap.NewDevelopment's human-readable
// console output, with stacktraces limited to Fatal instead of its default
// Warn-and-above; otherwise a production JSON encoder is used.
func New(level string, development bool) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if development {
		return zap.NewDevelopment(zap.AddStacktrace(zapcore.FatalLevel), zap.IncreaseLevel(zapLevel))
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}
