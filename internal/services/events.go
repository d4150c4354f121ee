package services

import (
	"context"
	"log/slog"

	"budgetly/internal/amqp"
)

// EventPublisher is implemented by *amqp.Client.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// publish is best-effort: the record is already stored, so failures are only logged.
func publish(ctx context.Context, p EventPublisher, kind, action, id string) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping record event", "kind", kind, "action", action)
		return
	}
	if err := p.PublishRecordEvent(ctx, amqp.NewRecordEvent(kind, action, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"kind", kind, "action", action, "id", id, "error", err)
	}
}
