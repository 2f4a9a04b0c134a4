// Package logger prints diagnostics to stderr.
//
// Debug, Info and Warn lines only appear with --verbose. Error lines are
// always printed. Components log through a Named logger so lines carry
// their origin:
//
//	[DEBUG] retriever: 4 chunks (k=4)
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log lines by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelTags[l]
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables the non-error levels.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Logger tags every line with a component name.
type Logger struct {
	name string
}

// Named returns a logger whose lines are prefixed with "name: ".
func Named(name string) Logger {
	return Logger{name: name}
}

// Debug logs at debug level.
func (l Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Info logs at info level.
func (l Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warn logs at warn level.
func (l Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Error logs regardless of verbose mode.
// Callers must not pass secrets or document content.
func (l Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// Timer logs the elapsed time of an operation at debug level when stopped.
//
//	defer log.Timer("embed query")()
func (l Logger) Timer(op string) func() {
	start := now()
	return func() {
		l.Debug("%s took %s", op, now().Sub(start).Round(time.Millisecond))
	}
}

func (l Logger) log(level Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose && level < LevelError {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.name != "" {
		msg = l.name + ": " + msg
	}
	fmt.Fprintf(output, "[%s] %s\n", level, msg)
}

var std Logger

// Debug logs at debug level without a component name.
func Debug(format string, args ...any) { std.Debug(format, args...) }

// Info logs at info level without a component name.
func Info(format string, args ...any) { std.Info(format, args...) }

// Warn logs at warn level without a component name.
func Warn(format string, args ...any) { std.Warn(format, args...) }

// Error logs without a component name regardless of verbose mode.
func Error(format string, args ...any) { std.Error(format, args...) }

// Timer is Logger.Timer without a component name.
func Timer(op string) func() { return std.Timer(op) }

// Section prints a header separating phases of a command.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
