// Package telemetry provides the reference queue.Observer implementation:
// a CloudEvents-validating observer that logs each event emitted by the
// Coordinator. Grounded on the teacher's ValidateCloudEvent and
// FunctionalObserver (observer_cloudevents.go, observer.go).
package telemetry

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/matchqueue/queue"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// LoggingObserver implements queue.Observer: it validates every CloudEvent
// against the CloudEvents spec, then logs it through a Logger. It never
// blocks and never panics; a malformed event is reported to the Coordinator
// as an error (which the Coordinator logs and discards, per
// queue.Coordinator.emitEvent's contract) rather than crashing.
type LoggingObserver struct {
	logger queue.Logger
}

// NewLoggingObserver returns a LoggingObserver that logs through logger. A
// nil logger is accepted; EmitEvent then validates only and discards.
func NewLoggingObserver(logger queue.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// EmitEvent implements queue.Observer.
func (o *LoggingObserver) EmitEvent(_ context.Context, event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("telemetry: invalid cloudevent: %w", err)
	}
	if o.logger != nil {
		o.logger.Debug("matchqueue event", "type", event.Type(), "id", event.ID(), "data", string(event.Data()))
	}
	return nil
}
