// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package mudlog provides the central logger for the Driftwood server.
//
// The logger fans every record out to two sinks: a console handler on
// stderr (human-readable text when stderr is a terminal, JSON when it
// is piped, matching the daemon log format) and an optional buffered
// JSON file under the world library's log directory.
//
// The boot sequence terminates the process on fatal errors, so the
// file sink is buffered and must be flushed explicitly: every exit
// path calls Shutdown before the process ends.
package mudlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/term"
)

// LevelCritical is an extra severity above slog.LevelError for
// conditions that abort the boot sequence. Records at this level are
// labelled CRITICAL instead of slog's default "ERROR+4".
const LevelCritical = slog.Level(12)

// Options configures a Logger.
type Options struct {
	// Level is the minimum severity to record: one of debug, info,
	// warning, error, critical (case-insensitive). Empty means info.
	Level string

	// Dir is the directory for the log file. Empty disables the file
	// sink (console only).
	Dir string

	// Console overrides the console sink. Nil means os.Stderr. Tests
	// pass a buffer here.
	Console io.Writer
}

// Logger is the process-wide leveled logger. All methods are safe for
// concurrent use.
type Logger struct {
	slog *slog.Logger

	closeOnce sync.Once
	flushMu   sync.Mutex
	fileBuf   *bufio.Writer
	file      *os.File
}

// New creates a Logger from opts. When opts.Dir is non-empty the
// directory is created if needed and a driftwood.log file is opened
// for appending.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlerOptions := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: labelCritical,
	}

	var consoleHandler slog.Handler
	if isTerminal(console) {
		consoleHandler = slog.NewTextHandler(console, handlerOptions)
	} else {
		consoleHandler = slog.NewJSONHandler(console, handlerOptions)
	}

	logger := &Logger{}
	handlers := []slog.Handler{consoleHandler}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		path := filepath.Join(opts.Dir, "driftwood.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logger.file = file
		logger.fileBuf = bufio.NewWriter(file)
		handlers = append(handlers, slog.NewJSONHandler(&syncedWriter{logger: logger}, handlerOptions))
	}

	logger.slog = slog.New(fanout(handlers))
	return logger, nil
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical":
		return LevelCritical, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}

// Debug logs at debug severity with optional key/value pairs.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at info severity.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warning logs at warning severity.
func (l *Logger) Warning(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at error severity.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Critical logs at critical severity. Callers are expected to flush
// with Shutdown and terminate shortly afterwards.
func (l *Logger) Critical(msg string, args ...any) {
	l.slog.Log(context.Background(), LevelCritical, msg, args...)
}

// Exception logs an error value at error severity with the given
// message, attaching the error as a structured attribute.
func (l *Logger) Exception(msg string, err error, args ...any) {
	l.slog.Error(msg, append([]any{"error", err}, args...)...)
}

// Slog returns the underlying slog.Logger for collaborators that want
// to scope it with With.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Shutdown flushes the buffered file sink and closes the log file.
// Idempotent. Must be called before any fatal process exit so buffered
// records are not lost.
func (l *Logger) Shutdown() {
	l.closeOnce.Do(func() {
		l.flushMu.Lock()
		defer l.flushMu.Unlock()
		if l.fileBuf != nil {
			l.fileBuf.Flush()
		}
		if l.file != nil {
			l.file.Close()
		}
	})
}

// syncedWriter serializes handler writes into the buffered file sink.
// slog handlers already serialize individual records, but the flush in
// Shutdown may race a concurrent write without this lock.
type syncedWriter struct {
	logger *Logger
}

func (w *syncedWriter) Write(p []byte) (int, error) {
	w.logger.flushMu.Lock()
	defer w.logger.flushMu.Unlock()
	return w.logger.fileBuf.Write(p)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// labelCritical rewrites the level attribute for records at or above
// LevelCritical so they render as CRITICAL rather than "ERROR+4".
func labelCritical(groups []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.LevelKey {
		if level, ok := attr.Value.Any().(slog.Level); ok && level >= LevelCritical {
			attr.Value = slog.StringValue("CRITICAL")
		}
	}
	return attr
}
