// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// Text output goes through the standard log package with a [LEVEL] prefix; JSON output
// goes through a log/slog JSON handler so lines can be shipped to a collector as-is.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. A healthy bot shouldn't generate any.
	ErrorLevel
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger provides leveled logging
type Logger struct {
	level Level
	text  *log.Logger
	json  *slog.Logger
}

var (
	// Global logger instance. Nil means logging is off, which is what tests get.
	defaultLogger *Logger
)

// ParseLevel maps a configuration string to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	InitWithWriter(os.Stderr, level, format)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level string, format string) {
	l := ParseLevel(level)

	if strings.ToLower(format) == "json" {
		handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l.slogLevel()})
		defaultLogger = &Logger{level: l, json: slog.New(handler)}
		return
	}

	defaultLogger = &Logger{
		level: l,
		text:  log.New(w, "", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	}
}

// Disable turns logging off.
func Disable() {
	defaultLogger = nil
}

func output(l Level, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if defaultLogger.json != nil {
		defaultLogger.json.Log(context.Background(), l.slogLevel(), msg)
		return
	}
	// 3 = output, the exported wrapper, its caller
	_ = defaultLogger.text.Output(3, "["+l.String()+"] "+msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	output(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	output(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	output(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	output(ErrorLevel, format, args...)
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case defaultLogger == nil:
		log.Print("[FATAL] " + msg)
	case defaultLogger.json != nil:
		defaultLogger.json.Error(msg, slog.Bool("fatal", true))
	default:
		_ = defaultLogger.text.Output(2, "[FATAL] "+msg)
	}
	os.Exit(1)
}
