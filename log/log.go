// Package log provides the structured logging used throughout joshsim.
package log

import (
	"context"
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level name constants accepted by SetLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// Logger is the minimal surface the rest of joshsim logs through. Swapping
// Default to another implementation (e.g. in an embedded host) only
// requires satisfying this interface.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Default is the package-level logger used by every component unless a
// caller threads a different Logger through explicitly (tests mostly do).
var Default Logger = zap.New(
	zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		zapLevel,
	),
	zap.AddCaller(),
	zap.AddCallerSkip(1),
).Sugar()

// SetLevel adjusts the package-wide log level at runtime. Unknown level
// names are ignored.
func SetLevel(level string) {
	switch level {
	case LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		zapLevel.SetLevel(zapcore.InfoLevel)
	case LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	case LevelFatal:
		zapLevel.SetLevel(zapcore.FatalLevel)
	}
}

// ctxKey correlates a run/replicate with log lines emitted for it.
type ctxKey struct{}

// WithReplicate returns a context carrying a replicate number for
// correlation in DebugContext/InfoContext calls.
func WithReplicate(ctx context.Context, replicate int) context.Context {
	return context.WithValue(ctx, ctxKey{}, replicate)
}

// DebugContext logs at debug level, prefixing the replicate number if the
// context carries one.
func DebugContext(ctx context.Context, format string, args ...any) {
	Default.Debugf(prefixed(ctx, format), args...)
}

// InfoContext logs at info level, prefixing the replicate number if the
// context carries one.
func InfoContext(ctx context.Context, format string, args ...any) {
	Default.Infof(prefixed(ctx, format), args...)
}

// ErrorContext logs at error level, prefixing the replicate number if the
// context carries one.
func ErrorContext(ctx context.Context, format string, args ...any) {
	Default.Errorf(prefixed(ctx, format), args...)
}

func prefixed(ctx context.Context, format string) string {
	if r, ok := ctx.Value(ctxKey{}).(int); ok {
		return "[replicate " + strconv.Itoa(r) + "] " + format
	}
	return format
}
