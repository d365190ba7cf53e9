// Package log provides structured logging for keyfold. The core
// derivation packages never log; only the CLI shell wires this up.
package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	CLI     zerolog.Logger
	Wallet  zerolog.Logger
	Session zerolog.Logger
	Storage zerolog.Logger
)

func init() {
	// Quiet by default; Init raises the level when asked.
	Logger = NewConsoleLogger(os.Stderr, "error")
	initComponentLoggers()
}

// Init configures the global logger. When file is non-empty, logs go
// to the file as JSON (structured, no ANSI codes); otherwise they go
// to stderr in console format so they never mix with command output
// on stdout.
func Init(level, file string, noColor bool) error {
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
			return err
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		Logger = NewJSONLogger(f, level)
	} else {
		Logger = newConsoleLogger(os.Stderr, level, noColor)
	}

	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newConsoleLogger(w, level, false)
}

func newConsoleLogger(w io.Writer, level string, noColor bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	}

	return zerolog.New(output).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a string level to zerolog.Level.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "off", "none":
		return zerolog.Disabled
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.ErrorLevel
	}
}

// initComponentLoggers initializes loggers for each component.
func initComponentLoggers() {
	CLI = Logger.With().Str("component", "cli").Logger()
	Wallet = Logger.With().Str("component", "wallet").Logger()
	Session = Logger.With().Str("component", "session").Logger()
	Storage = Logger.With().Str("component", "storage").Logger()
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Debug logs a debug message.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info logs an info message.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn logs a warning message.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error logs an error message.
func Error() *zerolog.Event {
	return Logger.Error()
}
