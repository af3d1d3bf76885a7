package scheduler

import (
	"testing"
	"time"

	"github.com/dohr-michael/dayplanner/internal/events"
)

func makeEvent(eventType events.EventType, source events.EventSource, payload map[string]any) events.Event {
	return events.Event{
		ID:        "test-1",
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}

func TestMatchEvent(t *testing.T) {
	cleared := &EventTrigger{Event: events.EventDayCleared}
	filtered := &EventTrigger{Event: events.EventTaskCompleted, Filter: map[string]string{"priority": "high"}}

	tests := []struct {
		name    string
		event   events.Event
		trigger *EventTrigger
		want    bool
	}{
		{"basic match", makeEvent(events.EventDayCleared, events.SourceCLI, nil), cleared, true},
		{"type mismatch", makeEvent(events.EventDayCompleted, events.SourceCLI, nil), cleared, false},
		{"nil trigger", makeEvent(events.EventDayCleared, events.SourceCLI, nil), nil, false},
		{"scheduler source rejected", makeEvent(events.EventDayCleared, events.SourceScheduler, nil), cleared, false},
		{"filter match", makeEvent(events.EventTaskCompleted, events.SourceGateway, map[string]any{"priority": "high"}), filtered, true},
		{"filter mismatch", makeEvent(events.EventTaskCompleted, events.SourceGateway, map[string]any{"priority": "low"}), filtered, false},
		{"filter missing key", makeEvent(events.EventTaskCompleted, events.SourceGateway, map[string]any{}), filtered, false},
		{"filter non-string", makeEvent(events.EventTaskCompleted, events.SourceGateway, map[string]any{"priority": 3}), filtered, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchEvent(tt.event, tt.trigger); got != tt.want {
				t.Errorf("MatchEvent = %v, want %v", got, tt.want)
			}
		})
	}
}
