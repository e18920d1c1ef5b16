package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger for the given environment. "production" logs json
// at info, "development" logs console at debug with stack traces on warn, and
// anything else (local runs, tests) logs console at debug.
func New(env string) (*zap.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return zap.NewProduction()
	case "development", "dev":
		return zap.NewDevelopment()
	default:
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
}

// Sugared is a shortcut used by tools that only need a sugared logger and
// would rather fall back to a no-op logger than fail.
func Sugared(env string) *zap.SugaredLogger {
	logger, err := New(env)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
