// Package log is the process-wide leveled logger. Verbosity is controlled
// by repeated -v flags; output is swapped to io.Discard while a TUI owns
// the terminal.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: page loads, cache hits, session changes
	LevelDebug        // -vv: HTTP requests, retries, timing
	LevelTrace        // -vvv: response bodies and headers
)

const slogLevelTrace = slog.Level(-8)

type state struct {
	mu         sync.Mutex
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	inProgress bool
}

var std = newState(LevelQuiet, os.Stderr)

func newState(level int, w io.Writer) *state {
	s := &state{}
	s.reset(level, w)
	return s
}

func (s *state) reset(level int, w io.Writer) {
	var slogLevel slog.Level
	switch {
	case level >= LevelTrace:
		slogLevel = slogLevelTrace
	case level >= LevelDebug:
		slogLevel = slog.LevelDebug
	case level >= LevelInfo:
		slogLevel = slog.LevelInfo
	default:
		slogLevel = slog.LevelWarn
	}

	s.verbosity = level
	s.output = w
	s.inProgress = false
	s.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel}))
}

func (s *state) log(min int, level slog.Level, msg string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verbosity < min {
		return
	}
	// keep an in-flight progress line intact
	if s.inProgress {
		_, _ = fmt.Fprintln(s.output)
		s.inProgress = false
	}
	s.logger.Log(context.Background(), level, msg, args...)
}

// Initialize sets up the global logger with the specified verbosity level.
func Initialize(level int, w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.reset(level, w)
}

// Info logs at info level (-v)
func Info(msg string, args ...any) { std.log(LevelInfo, slog.LevelInfo, msg, args...) }

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) { std.log(LevelDebug, slog.LevelDebug, msg, args...) }

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) { std.log(LevelTrace, slogLevelTrace, msg, args...) }

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) { std.log(LevelQuiet, slog.LevelWarn, msg, args...) }

// Error logs at error level (always visible)
func Error(msg string, args ...any) { std.log(LevelQuiet, slog.LevelError, msg, args...) }

// Progress prints a carriage-return progress line at info level or higher.
func Progress(format string, args ...any) {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.verbosity >= LevelInfo {
		std.inProgress = true
		_, _ = fmt.Fprintf(std.output, "\r"+format, args...)
	}
}

// ProgressDone completes a progress line with "done".
func ProgressDone() {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.verbosity >= LevelInfo && std.inProgress {
		_, _ = fmt.Fprintln(std.output, " done")
		std.inProgress = false
	}
}

// IsDebug returns true if debug-level logging is enabled
func IsDebug() bool { return Verbosity() >= LevelDebug }

// IsTrace returns true if trace-level logging is enabled
func IsTrace() bool { return Verbosity() >= LevelTrace }

// Verbosity returns the current verbosity level
func Verbosity() int {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.verbosity
}
