// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "options-trader", "logs", "engine.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithStrategy adds a strategy name to the logger context.
func WithStrategy(logger zerolog.Logger, strategy string) zerolog.Logger {
	return logger.With().Str("strategy", strategy).Logger()
}

// WithStrike adds a strike to the logger context.
func WithStrike(logger zerolog.Logger, strike float64) zerolog.Logger {
	return logger.With().Float64("strike", strike).Logger()
}

// LogSignal logs a strategy signal.
func LogSignal(logger zerolog.Logger, strategy, direction string, confidence int, factors []string) {
	logger.Info().
		Str("event", "signal").
		Str("strategy", strategy).
		Str("direction", direction).
		Int("confidence", confidence).
		Strs("factors", factors).
		Msg("Strategy signal")
}

// LogDecision logs an aggregator decision.
func LogDecision(logger zerolog.Logger, decision, direction string, confluence float64, reason string) {
	logger.Info().
		Str("event", "decision").
		Str("decision", decision).
		Str("direction", direction).
		Float64("confluence", confluence).
		Str("reason", reason).
		Msg("Aggregated decision")
}

// LogFill logs an entry or exit fill.
func LogFill(logger zerolog.Logger, kind, direction string, strike, price float64, qty int) {
	logger.Info().
		Str("event", "fill").
		Str("kind", kind).
		Str("direction", direction).
		Float64("strike", strike).
		Float64("price", price).
		Int("quantity", qty).
		Msg("Fill")
}

// LogHalt logs a risk manager halt.
func LogHalt(logger zerolog.Logger, netPnL, limit float64) {
	logger.Warn().
		Str("event", "halt").
		Float64("net_pnl", netPnL).
		Float64("limit", limit).
		Msg("Daily loss limit breached, session halted")
}
