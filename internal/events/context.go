package events

import (
	"context"
	"os"

	"github.com/google/uuid"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	folderIDKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := LoggerFrom(ctx); ok {
		return l
	}
	return defaultLogger
}

// LoggerFrom returns the logger attached with WithLogger, if any.
func LoggerFrom(ctx context.Context) (*Logger, bool) {
	l, ok := ctx.Value(loggerKey).(*Logger)
	return l, ok && l != nil
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID adds request ID to context.
func WithRequestID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("request_id", id)
	ctx = context.WithValue(ctx, requestIDKey, id)
	return WithLogger(ctx, logger)
}

// WithFolderID adds the target folder ID to context.
func WithFolderID(ctx context.Context, id int64) context.Context {
	logger := FromContext(ctx).WithField("folder_id", id)
	ctx = context.WithValue(ctx, folderIDKey, id)
	return WithLogger(ctx, logger)
}

// GetRequestID retrieves request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetFolderID retrieves folder ID from context.
func GetFolderID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(folderIDKey).(int64)
	return id, ok
}

var defaultLogger = newLogger(InfoLevel, "text", false, os.Stderr)

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
