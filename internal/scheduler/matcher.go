package scheduler

import (
	"github.com/dohr-michael/dayplanner/internal/events"
)

// EventTrigger runs a job when a bus event of type Event is published and
// every Filter key equals the payload's string value.
type EventTrigger struct {
	Event  events.EventType  `json:"event"`
	Filter map[string]string `json:"filter,omitempty"`
}

// MatchEvent returns true if the event matches the given trigger.
// Events emitted by the scheduler itself are always rejected to prevent loops.
func MatchEvent(e events.Event, trigger *EventTrigger) bool {
	if trigger == nil {
		return false
	}
	if e.Source == events.SourceScheduler {
		return false
	}
	if e.Type != trigger.Event {
		return false
	}
	for key, expected := range trigger.Filter {
		val, ok := e.Payload[key].(string)
		if !ok || val != expected {
			return false
		}
	}
	return true
}
