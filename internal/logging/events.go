package logging

import (
	"context"
	"log/slog"
)

const (
	defaultErrorHint = "check logs for details"
	defaultImpact    = "operation completed with warnings"
)

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Fields supplied in attrs win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	emitEvent(logger, slog.LevelWarn, msg, eventType, attrs, true)
}

// ErrorWithContext logs an error that always carries event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	emitEvent(logger, slog.LevelError, msg, eventType, attrs, false)
}

func emitEvent(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []Attr, withImpact bool) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		present[a.Key] = true
	}
	if !present[FieldEventType] {
		attrs = append(attrs, slog.String(FieldEventType, eventType))
	}
	if !present[FieldErrorHint] {
		attrs = append(attrs, slog.String(FieldErrorHint, defaultErrorHint))
	}
	if withImpact && !present[FieldImpact] {
		attrs = append(attrs, slog.String(FieldImpact, defaultImpact))
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
