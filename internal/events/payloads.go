package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// TASK EVENTS
// =============================================================================

// TaskSnapshot is the task state carried by task events.
type TaskSnapshot struct {
	TaskID      string     `json:"task_id"`
	Title       string     `json:"title"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type TaskCreatedPayload struct {
	TaskSnapshot
}

func (TaskCreatedPayload) EventType() EventType { return EventTaskCreated }

type TaskUpdatedPayload struct {
	TaskSnapshot
}

func (TaskUpdatedPayload) EventType() EventType { return EventTaskUpdated }

type TaskRescheduledPayload struct {
	TaskSnapshot
	PreviousStart time.Time `json:"previous_start"`
	PreviousEnd   time.Time `json:"previous_end"`
}

func (TaskRescheduledPayload) EventType() EventType { return EventTaskRescheduled }

type TaskDeletedPayload struct {
	TaskSnapshot
}

func (TaskDeletedPayload) EventType() EventType { return EventTaskDeleted }

type TaskCompletedPayload struct {
	TaskSnapshot
}

func (TaskCompletedPayload) EventType() EventType { return EventTaskCompleted }

type TaskReopenedPayload struct {
	TaskSnapshot
}

func (TaskReopenedPayload) EventType() EventType { return EventTaskReopened }

// =============================================================================
// DAY EVENTS
// =============================================================================

type DayCompletedPayload struct {
	Day     string   `json:"day"`
	TaskIDs []string `json:"task_ids"`
}

func (DayCompletedPayload) EventType() EventType { return EventDayCompleted }

type DayClearedPayload struct {
	Day     string   `json:"day"`
	TaskIDs []string `json:"task_ids"`
}

func (DayClearedPayload) EventType() EventType { return EventDayCleared }

// =============================================================================
// SCHEDULER EVENTS
// =============================================================================

type ScheduleTriggerPayload struct {
	Job      string        `json:"job"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

func (ScheduleTriggerPayload) EventType() EventType { return EventScheduleTrigger }

type BackupCreatedPayload struct {
	Path  string `json:"path"`
	Tasks int    `json:"tasks"`
}

func (BackupCreatedPayload) EventType() EventType { return EventBackupCreated }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

// TaskID returns the task_id carried by a task event, or "" for other events.
func TaskID(e Event) string {
	id, _ := e.Payload["task_id"].(string)
	return id
}

func GetTaskRescheduledPayload(e Event) (TaskRescheduledPayload, bool) {
	return ExtractPayload[TaskRescheduledPayload](e)
}

func GetDayClearedPayload(e Event) (DayClearedPayload, bool) {
	return ExtractPayload[DayClearedPayload](e)
}

func GetScheduleTriggerPayload(e Event) (ScheduleTriggerPayload, bool) {
	return ExtractPayload[ScheduleTriggerPayload](e)
}
