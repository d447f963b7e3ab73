package infrastructure

import (
	"strings"

	"fairdice/events"
)

// EventSubjectMapper maps domain events to NATS subjects under a common prefix
type EventSubjectMapper struct {
	prefix string
}

// NewEventSubjectMapper creates a mapper publishing under "<prefix>.events.<type>"
func NewEventSubjectMapper(prefix string) *EventSubjectMapper {
	prefix = strings.Trim(prefix, ". ")
	if prefix == "" {
		prefix = "fairdice"
	}
	return &EventSubjectMapper{prefix: prefix}
}

// MapEventToSubject converts a domain event to its subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.subjectFor(event.Type())
}

// MapSubjectToEventType converts a subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	return events.EventType(strings.TrimPrefix(subject, m.prefix+".events."))
}

// GetAllSubjects returns every subject this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, eventType := range events.AllEventTypes {
		subjects = append(subjects, m.subjectFor(eventType))
	}
	return subjects
}

// StreamSubjects returns the wildcard subject covering every event
func (m *EventSubjectMapper) StreamSubjects() []string {
	return []string{m.prefix + ".events.*"}
}

func (m *EventSubjectMapper) subjectFor(eventType events.EventType) string {
	return m.prefix + ".events." + string(eventType)
}
