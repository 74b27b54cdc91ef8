// Package log wraps log/slog with a component attribute and configures the
// process-wide handler.
package log

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps slog.Logger with a component attribute for structured logging.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// DefaultConfig returns sensible defaults: colored tint output at the level
// given by LOG_LEVEL (debug, info, warn, error; default info).
func DefaultConfig() Config {
	level := LevelFromEnv()
	return Config{
		Level:     level,
		Component: "app",
		Handler: tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	}
}

// LevelFromEnv reads the LOG_LEVEL environment variable.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a new logger with the given configuration.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      config.Level,
			TimeFormat: time.Kitchen,
		})
	}
	return &Logger{
		Logger:    slog.New(handler).With("component", config.Component),
		component: config.Component,
	}
}

// With returns a new logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a new logger with a specific component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as the process default for slog.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// Setup configures the default slog logger from the environment. Intended to
// be called once at process start.
func Setup() *Logger {
	logger := New(DefaultConfig())
	SetDefault(logger)
	return logger
}
