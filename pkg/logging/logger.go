// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for uncertain-value tooling.
//
// The package is a thin configuration layer over Go's standard slog:
// stderr output by default (Unix CLI convention), optional JSON format for
// machine consumption, and a service attribute stamped on every entry so
// aggregated logs stay filterable by component.
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("sampling started", "count", count)
//
// With explicit configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelDebug,
//	    JSON:    true,
//	    Service: "uncertain",
//	})
//
// # Thread Safety
//
// The returned *slog.Logger is safe for concurrent use.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for recoverable, unexpected situations.
	LevelWarn

	// LevelError is for operation failures.
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel bridges our Level to the standard library's.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures logger construction. The zero value produces an
// Info-level text logger on stderr.
type Config struct {
	// Level is the minimum level; messages below it are discarded.
	Level Level

	// JSON switches output to one JSON object per line.
	JSON bool

	// Quiet discards all output. Useful for tests and library embedding.
	Quiet bool

	// Service is stamped on every entry as the "service" attribute when
	// non-empty.
	Service string

	// Writer overrides the output destination. Defaults to os.Stderr.
	Writer io.Writer
}

// New creates a logger with the given configuration.
func New(cfg Config) *slog.Logger {
	if cfg.Quiet {
		return slog.New(slog.DiscardHandler)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}
	return slog.New(handler)
}

// Default returns an Info-level stderr text logger with the "uncertain"
// service attribute.
func Default() *slog.Logger {
	return New(Config{Level: LevelInfo, Service: "uncertain"})
}
