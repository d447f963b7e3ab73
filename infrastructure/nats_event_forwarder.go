package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fairdice/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const sourceService = "fairdice"

// EventEnvelope wraps every exported event
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventForwarder exports committed domain events to a message bus. It only ever sees events
// the in-process bus has flushed, so nothing from a rolled back transaction leaves the service.
type EventForwarder struct {
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	timeout       time.Duration
	now           func() time.Time
}

// NewEventForwarder creates a new forwarder
func NewEventForwarder(publisher MessagePublisher, subjectMapper *EventSubjectMapper) *EventForwarder {
	return &EventForwarder{
		publisher:     publisher,
		subjectMapper: subjectMapper,
		timeout:       5 * time.Second,
		now:           time.Now,
	}
}

// Attach subscribes the forwarder to every event type on the bus
func (f *EventForwarder) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := f.Forward(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to export event")
		}
	})
}

// Forward publishes a single event wrapped in an envelope
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := f.subjectMapper.MapEventToSubject(event)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		if errors.Is(err, nats.ErrNoStreamResponse) {
			log.WithField("subject", subject).Debug("No stream bound to subject, event dropped")
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Exported event")
	return nil
}
