package queue

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Event types emitted on the Observer side-channel. Never part of the
// decision path; see Coordinator.emitEvent.
const (
	EventTypeQueued      = "matchqueue.entry.queued"
	EventTypeMatched     = "matchqueue.entry.matched"
	EventTypeRejected    = "matchqueue.entry.rejected"
	EventTypeTimerTick   = "matchqueue.timer.tick"
	EventTypePolicyRetry = "matchqueue.policy.retry"
)

// Observer receives CloudEvents emitted by the Coordinator for
// introspection/telemetry. Observer errors are logged and discarded.
type Observer interface {
	EmitEvent(ctx context.Context, event cloudevents.Event) error
}

// newCoreEvent builds a CloudEvent: a fresh uuid as ID, a fixed source,
// JSON data.
func newCoreEvent(eventType string, data map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource("matchqueue-coordinator")
	event.SetType(eventType)
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// emitEvent emits eventType/data on c's Observer, if any, discarding any
// error after logging it. Mirrors modules/scheduler's emitEvent helper.
func (c *Coordinator) emitEvent(eventType string, data map[string]any) {
	if c.observer == nil {
		return
	}
	event := newCoreEvent(eventType, data)
	if err := c.observer.EmitEvent(context.Background(), event); err != nil && c.logger != nil {
		c.logger.Warn("failed to emit telemetry event", "eventType", eventType, "error", err)
	}
}
