package logger

import (
	"context"
	"fmt"
)

type loggerKey struct{}

// WithLogger returns a new context with the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in the context, or the default
// logger if none is set.
func FromContext(ctx context.Context) Logger {
	if value, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return value
	}
	return defaultLogger
}

// WithValues adds key-value pairs to the context logger.
func WithValues(ctx context.Context, keyvals ...any) context.Context {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}

func Debug(ctx context.Context, msg string, tags ...any) {
	FromContext(ctx).Debug(msg, tags...)
}

func Info(ctx context.Context, msg string, tags ...any) {
	FromContext(ctx).Info(msg, tags...)
}

func Warn(ctx context.Context, msg string, tags ...any) {
	FromContext(ctx).Warn(msg, tags...)
}

func Error(ctx context.Context, msg string, tags ...any) {
	FromContext(ctx).Error(msg, tags...)
}

func Fatal(ctx context.Context, msg string, tags ...any) {
	FromContext(ctx).Fatal(msg, tags...)
}

func Debugf(ctx context.Context, format string, v ...any) {
	FromContext(ctx).Debug(fmt.Sprintf(format, v...))
}

func Infof(ctx context.Context, format string, v ...any) {
	FromContext(ctx).Info(fmt.Sprintf(format, v...))
}

func Warnf(ctx context.Context, format string, v ...any) {
	FromContext(ctx).Warn(fmt.Sprintf(format, v...))
}

func Errorf(ctx context.Context, format string, v ...any) {
	FromContext(ctx).Error(fmt.Sprintf(format, v...))
}
