// Package observability provides structured logging for the critter binaries.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/critter/internal/config"
	"github.com/cory-johannsen/critter/internal/game/battle"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// NewServiceLogger creates a logger like NewLogger, named after the binary
// and tagged with it on every entry.
func NewServiceLogger(cfg config.LoggingConfig, service string) (*zap.Logger, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return logger.Named(service).With(zap.String("service", service)), nil
}

// SummaryFields returns the log fields describing a finished battle.
func SummaryFields(sum battle.Summary) []zap.Field {
	fields := []zap.Field{
		zap.String("session_id", sum.SessionID),
		zap.String("outcome", sum.Outcome.String()),
		zap.Int("turns", sum.Turns),
		zap.Bool("wild", sum.Wild),
		zap.Int("level_ups", len(sum.LevelUps)),
		zap.Int("evolution_offers", len(sum.Offers)),
	}
	if sum.Seeded {
		fields = append(fields, zap.Uint64("seed", sum.Seed))
	}
	total := 0
	for _, g := range sum.Experience {
		total += g.Amount
	}
	fields = append(fields, zap.Int("experience", total))
	if sum.Captured != nil {
		fields = append(fields, zap.String("captured_id", sum.Captured.ID))
	}
	return fields
}
