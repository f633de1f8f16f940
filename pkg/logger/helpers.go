package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a finished HTTP request. The level follows the status
// class; a zero status means the transport failed.
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode == 0:
		l.WarnWithFields("HTTP request failed", fields)
	case statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.ErrorWithFields("HTTP request server error", fields)
	}
}

// LogQuota logs the remaining request credits reported by an API.
func LogQuota(l Logger, service string, clientRemaining, userRemaining int) {
	l.DebugWithFields("Quota updated", map[string]interface{}{
		"service":          service,
		"client_remaining": clientRemaining,
		"user_remaining":   userRemaining,
	})
}

// LogQuotaExhausted logs a request refused by the local quota check.
func LogQuotaExhausted(l Logger, service, resource string) {
	l.WarnWithFields("Request quota exhausted, skipping", map[string]interface{}{
		"service":  service,
		"resource": resource,
	})
}

// LogPage logs one fetched listing page.
func LogPage(l Logger, source string, page, requested, received int) {
	l.DebugWithFields("Listing page fetched", map[string]interface{}{
		"source":    source,
		"page":      page,
		"requested": requested,
		"received":  received,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, fields map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", fields)
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
