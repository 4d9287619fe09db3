// logger.go - Centralized logging configuration for meeting-notify.
//
// Structured logging via log/slog with configurable levels, output format
// and destination, plus component-scoped loggers so auth/graph/calendar
// noise can be filtered independently.
//
// Configuration:
// - LOG_LEVEL: DEBUG, INFO, WARN or ERROR (default: INFO)
// - LOG_FORMAT: "json" for JSON output, anything else for text
// - MEETING_NOTIFY_LOG_FILE: optional file path for log output

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	defaultLogger *slog.Logger
	logLevel      slog.Level = slog.LevelInfo
)

// Initialize sets up the global logger from environment variables.
func Initialize() {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN", "WARNING":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var output io.Writer = os.Stderr
	if logFile := os.Getenv("MEETING_NOTIFY_LOG_FILE"); logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			slog.Error("Failed to open log file, using stderr", "file", logFile, "error", err)
		} else {
			output = file
		}
	}

	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	rebindComponentLoggers()
}

// GetLogger returns a component-scoped logger. The component name is
// attached to every entry for filtering.
func GetLogger(component string) *slog.Logger {
	if defaultLogger == nil {
		Initialize()
	}
	return defaultLogger.With("component", component)
}

// GetLevel returns the current log level.
func GetLevel() slog.Level {
	return logLevel
}

// IsDebugEnabled returns true if debug logging is enabled.
func IsDebugEnabled() bool {
	return logLevel <= slog.LevelDebug
}

// Component logger instances for commonly used components.
var (
	AuthLogger     *slog.Logger
	ConfigLogger   *slog.Logger
	GraphLogger    *slog.Logger
	CalendarLogger *slog.Logger
	NotifyLogger   *slog.Logger
	MainLogger     *slog.Logger
)

func init() {
	AuthLogger = GetLogger("auth")
	ConfigLogger = GetLogger("config")
	GraphLogger = GetLogger("graph")
	CalendarLogger = GetLogger("calendar")
	NotifyLogger = GetLogger("notify")
	MainLogger = GetLogger("main")
}

func rebindComponentLoggers() {
	AuthLogger = defaultLogger.With("component", "auth")
	ConfigLogger = defaultLogger.With("component", "config")
	GraphLogger = defaultLogger.With("component", "graph")
	CalendarLogger = defaultLogger.With("component", "calendar")
	NotifyLogger = defaultLogger.With("component", "notify")
	MainLogger = defaultLogger.With("component", "main")
}
