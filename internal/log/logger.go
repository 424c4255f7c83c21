// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	mu     sync.RWMutex
	sugar  *zap.SugaredLogger
	logger *zap.Logger
)

func init() {
	SetOutput(os.Stderr)
}

func newCore(ws zapcore.WriteSyncer) zapcore.Core {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)
}

// SetOutput redirects all log output to w. Used by tests and by callers that
// want logs next to other CLI output.
func SetOutput(w io.Writer) {
	Replace(zap.New(newCore(zapcore.Lock(zapcore.AddSync(w)))))
}

// Replace installs l as the package logger. The level set with SetLevel is
// only honoured by loggers built from this package's cores.
func Replace(l *zap.Logger) {
	mu.Lock()
	logger = l
	sugar = l.Sugar()
	mu.Unlock()
}

// Logger returns the structured zap logger behind the package functions.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func s() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// SetLevel sets the global logging level atomically.
func SetLevel(l LogLevel) {
	level.SetLevel(l.zapLevel())
}

// GetLevel gets the current global logging level.
func GetLevel() LogLevel {
	switch level.Level() {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.WarnLevel:
		return LevelWarn
	case zapcore.ErrorLevel:
		return LevelError
	case zapcore.FatalLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Sync flushes buffered log entries.
func Sync() error {
	return Logger().Sync()
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...interface{}) { s().Debugf(format, v...) }

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...interface{}) { s().Infof(format, v...) }

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...interface{}) { s().Warnf(format, v...) }

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...interface{}) { s().Errorf(format, v...) }

// Fatalf logs a formatted fatal message and exits the application.
func Fatalf(format string, v ...interface{}) { s().Fatalf(format, v...) }

// Debug logs a debug message if the level is appropriate.
func Debug(v ...interface{}) { s().Debug(fmt.Sprint(v...)) }

// Info logs an info message if the level is appropriate.
func Info(v ...interface{}) { s().Info(fmt.Sprint(v...)) }

// Warn logs a warning message if the level is appropriate.
func Warn(v ...interface{}) { s().Warn(fmt.Sprint(v...)) }

// Error logs an error message if the level is appropriate.
func Error(v ...interface{}) { s().Error(fmt.Sprint(v...)) }

// Fatal logs a fatal message and exits the application.
func Fatal(v ...interface{}) { s().Fatal(fmt.Sprint(v...)) }
