package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware stores logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware enriches the context logger with the request id.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one backed by slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// StructuredLogger emits the recurring ledger events with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, id, category, kind string, amountCents int64) {
	fields := NewFields().
		WithTransaction(id, category, kind, amountCents).
		WithOperation(OpCreate)
	sl.logger.InfoContext(ctx, "Transaction created", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogBudgetCreated(ctx context.Context, id, category string, allocatedCents int64) {
	fields := NewFields().
		WithBudget(id, category, allocatedCents).
		WithOperation(OpCreate)
	sl.logger.InfoContext(ctx, "Budget created", fields.ToSlice()...)
}

// LogDeleted records a delete and whether anything was removed.
func (sl *StructuredLogger) LogDeleted(ctx context.Context, idField, id string, removed bool) {
	level := slog.LevelInfo
	msg := "Record deleted"
	if !removed {
		level = slog.LevelDebug
		msg = "Delete of missing record ignored"
	}
	sl.logger.Log(ctx, level, msg, FieldComponent, sl.logger.component, idField, id, FieldOperation, OpDelete)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, all.ToSlice()...)
}
