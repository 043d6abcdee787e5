// Package telemetry wires the relay's ambient logging and metrics. The
// HTTP exposition of metrics and the ultimate destination of log lines are
// transport concerns (out of scope per spec.md); this package only builds
// the handler/sink that the rest of the relay writes through.
package telemetry

import (
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig controls where the relay's structured log output goes.
type LoggerConfig struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Verbose    bool
}

// NewLogger builds a log.Logger rooted at "relay". When cfg.FilePath is
// set, output is routed through a rotating lumberjack writer; otherwise it
// falls back to the package's default terminal handler. This mirrors the
// teacher's own log package, which accepts an io.Writer behind its handler
// construction.
func NewLogger(cfg LoggerConfig) log.Logger {
	level := log.LevelInfo
	if cfg.Verbose {
		level = log.LevelDebug
	}

	writer := io.Writer(os.Stderr)
	if cfg.FilePath != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
	}

	handler := log.NewTerminalHandlerWithLevel(writer, level, false)
	logger := log.NewLogger(handler)
	return logger.New("module", "relay")
}

// ForRequest derives a child logger carrying the request's log prefix, so
// every line emitted while handling one RPC call can be correlated.
func ForRequest(base log.Logger, requestID string) log.Logger {
	return base.New("requestId", requestID)
}
