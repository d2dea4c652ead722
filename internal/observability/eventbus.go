package observability

import (
	"context"

	"go.uber.org/zap"
)

// EventBus publishes structured operational events (cache hits, fills,
// degradations) through the context logger. Consumers treat events as
// fire-and-forget telemetry, never as control flow.
type EventBus struct{}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	FromContext(ctx).Info(eventType, fields...)
}
