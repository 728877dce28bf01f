package logging

import (
	"context"
	"log/slog"

	"github.com/you/missionlog/domain"
)

// SlogAuditLogger implements domain.AuditLogger on top of slog
type SlogAuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates an audit logger tagged with component=audit
func NewAuditLogger(logger *slog.Logger) domain.AuditLogger {
	return &SlogAuditLogger{logger: logger.With("component", "audit")}
}

// LogEvent implements domain.AuditLogger
func (a *SlogAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	attrs := []any{
		"event_type", string(event.EventType),
		"success", event.Success,
		"timestamp", event.Timestamp,
	}
	if event.SubjectID != "" {
		attrs = append(attrs, "subject_id", event.SubjectID)
	}
	if event.Email != "" {
		attrs = append(attrs, "email", event.Email)
	}
	if event.ErrorMsg != "" {
		attrs = append(attrs, "error", event.ErrorMsg)
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, "metadata", event.Metadata)
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	a.logger.Log(ctx, level, "audit event", attrs...)
}
