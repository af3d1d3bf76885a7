// Package tasks holds the planner's task collection and the scheduling rules
// every mutation of it must respect.
package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskPriority is one of the closed set of task priorities.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// DefaultPriority is applied to drafts that do not name one.
const DefaultPriority = PriorityMedium

// Priorities lists every valid priority from lowest to highest.
var Priorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority validates s. An empty string yields DefaultPriority.
func ParsePriority(s string) (TaskPriority, error) {
	switch p := TaskPriority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPriority, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a titled, time-boxed unit of work occupying [Start, End).
type Task struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Start       time.Time    `json:"start" yaml:"start"`
	End         time.Time    `json:"end" yaml:"end"`
	Priority    TaskPriority `json:"priority" yaml:"priority"`
	Completed   bool         `json:"completed" yaml:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Duration returns End - Start.
func (t Task) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Draft carries the caller-supplied fields of a task that does not exist yet.
type Draft struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Priority    TaskPriority `json:"priority,omitempty"`
}

// DraftAt returns the draft offered when a free slot starting at start is
// selected: it lasts duration and has the default priority.
func DraftAt(start time.Time, duration time.Duration) Draft {
	return Draft{
		Start:    start,
		End:      start.Add(duration),
		Priority: DefaultPriority,
	}
}

// NextDraft returns the draft that follows prev when entering several tasks in
// a row: it starts where prev ends.
func NextDraft(prev Task, duration time.Duration) Draft {
	return DraftAt(prev.End, duration)
}

// GenerateTaskID creates a unique task identifier.
func GenerateTaskID() string {
	u := uuid.New().String()
	return "task_" + strings.ReplaceAll(u[:8], "-", "")
}
