package events

import "time"

// Event is a controller state change worth reporting to observers.
type Event interface {
	// EventType returns the event code, e.g. "THREAD_STARTED".
	EventType() string

	// Payload returns identifiers describing the change. It never carries
	// tokens or file contents.
	Payload() map[string]interface{}

	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
