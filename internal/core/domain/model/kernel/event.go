package kernel

import (
	"maps"
	"time"
)

// Event is a fact recorded by an aggregate, published after the unit of work
// that produced it commits.
type Event struct {
	id         UUID
	name       string
	subject    EntityRef
	attributes map[string]string
	occurredAt time.Time
}

func NewEvent(name string, subject EntityRef, attributes map[string]string, occurredAt time.Time) Event {
	return Event{
		id:         NewUUID(),
		name:       name,
		subject:    subject,
		attributes: maps.Clone(attributes),
		occurredAt: occurredAt,
	}
}

func (e Event) ID() UUID {
	return e.id
}

// Name is a dotted event name such as "order.status_changed".
func (e Event) Name() string {
	return e.name
}

func (e Event) Subject() EntityRef {
	return e.subject
}

func (e Event) Attributes() map[string]string {
	return maps.Clone(e.attributes)
}

func (e Event) OccurredAt() time.Time {
	return e.occurredAt
}

// EventRecorder is embedded by aggregates that emit events.
type EventRecorder struct {
	events []Event
}

func (r *EventRecorder) Record(e Event) {
	r.events = append(r.events, e)
}

// PullEvents returns the recorded events and forgets them.
func (r *EventRecorder) PullEvents() []Event {
	events := r.events
	r.events = nil
	return events
}
