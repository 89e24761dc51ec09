package app

import (
	"io"
	"log/slog"
)

// newLogger builds the launcher's logger for the selected profile. It does
// not touch the global default, so App instances stay isolated in tests.
//
// Normal profile: informational threshold, compact text lines. Debug
// profile: debug threshold with source locations, so each record carries
// the emitting logger's origin and severity.
func newLogger(debug bool, formatStr string, outW io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}

	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

// ConfigureProcessLogging pins the process-wide default logger, which is the
// one third-party transport libraries log through. The normal profile keeps
// them at warning so the NDJSON stream stays readable; the debug profile
// lets everything through. Called exactly once per run, before the registry
// is built and before any backend executes.
func ConfigureProcessLogging(cfg *Config, outW io.Writer) {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLoggerAt(level, cfg.LogFormat, outW))
}

// newLoggerAt is newLogger with an explicit threshold.
func newLoggerAt(level slog.Level, formatStr string, outW io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
