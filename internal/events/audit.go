package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// AuditLogHandler writes one INFO line per task change.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler creates a handler logging through log, or through the
// request-scoped logger when the event context carries one.
func NewAuditLogHandler(log *slog.Logger) *AuditLogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuditLogHandler{logger: log.With("component", "task_audit")}
}

// HandleEvent implements EventHandler.
func (h *AuditLogHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	logger.FromContextOrDefault(ctx, h.logger).LogAttrs(ctx, slog.LevelInfo, "task changed",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.Int("task_id", event.TaskID))
	return nil
}
