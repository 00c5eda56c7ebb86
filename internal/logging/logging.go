package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	levelOnce sync.Once
	atom      = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	mu     sync.RWMutex
	sugar  *zap.SugaredLogger
	always *zap.SugaredLogger
)

func init() {
	setOutput(os.Stderr)
}

// parseLevel resolves the level from the DEBUG and LOG_LEVEL values.
func parseLevel(debug, level string) LogLevel {
	switch strings.ToLower(debug) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}

	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// initLevel initializes the log level from environment variables
func initLevel() {
	levelOnce.Do(func() {
		atom.SetLevel(toZap(parseLevel(os.Getenv("DEBUG"), os.Getenv("LOG_LEVEL"))))
	})
}

func toZap(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZap(l zapcore.Level) LogLevel {
	switch {
	case l <= zapcore.DebugLevel:
		return LevelDebug
	case l == zapcore.InfoLevel:
		return LevelInfo
	case l == zapcore.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + l.CapitalString() + "]")
	}
	cfg.CallerKey = zapcore.OmitKey
	cfg.NameKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	cfg.ConsoleSeparator = " "
	return cfg
}

// plainEncoderConfig drops the level so Printf output reads like log.Printf.
func plainEncoderConfig() zapcore.EncoderConfig {
	cfg := encoderConfig()
	cfg.LevelKey = zapcore.OmitKey
	return cfg
}

func setOutput(w io.Writer) {
	enc := zapcore.NewConsoleEncoder(encoderConfig())
	sink := zapcore.AddSync(w)

	mu.Lock()
	defer mu.Unlock()
	sugar = zap.New(zapcore.NewCore(enc, sink, atom)).Sugar()
	plain := zapcore.NewConsoleEncoder(plainEncoderConfig())
	always = zap.New(zapcore.NewCore(plain, sink, zapcore.DebugLevel)).Sugar()
}

// SetOutput redirects all log output to w. Used by tests and by callers
// that want logs somewhere other than stderr.
func SetOutput(w io.Writer) {
	setOutput(w)
}

// SetLevel overrides the level derived from the environment.
func SetLevel(l LogLevel) {
	initLevel()
	atom.SetLevel(toZap(l))
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return fromZap(atom.Level())
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logger() *zap.SugaredLogger {
	initLevel()
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	logger().Debugf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logger().Infof(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logger().Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logger().Errorf(format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	logger().Fatalf(format, args...)
}

// Printf writes a message regardless of the configured level
func Printf(format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	always.Infof(format, args...)
}

// Sync flushes buffered log entries. Call before exiting.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = sugar.Sync()
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
