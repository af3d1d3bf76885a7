package tasks

import (
	"fmt"
	"time"

	"github.com/dohr-michael/dayplanner/internal/calendar"
)

// TaskStatus selects tasks by completion state in a ListFilter.
type TaskStatus string

const (
	StatusAll       TaskStatus = ""
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// ParseStatus accepts "", "all", "pending" and "completed".
func ParseStatus(s string) (TaskStatus, error) {
	switch s {
	case "", "all":
		return StatusAll, nil
	case string(StatusPending):
		return StatusPending, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("invalid status %q: must be all, pending or completed", s)
}

// ListFilter defines criteria for filtering task lists.
type ListFilter struct {
	Status   TaskStatus    `json:"status,omitempty"`
	Day      *calendar.Day `json:"day,omitempty"`
	Priority TaskPriority  `json:"priority,omitempty"`
}

// Match reports whether t passes the filter; day membership is evaluated in loc.
func (f ListFilter) Match(t Task, loc *time.Location) bool {
	switch f.Status {
	case StatusPending:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Day != nil && !f.Day.Contains(t.Start, loc) {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

// ParseListFilter builds a ListFilter from user input. Day accepts the forms
// of calendar.ResolveDay except that an empty day means every day.
func ParseListFilter(s *Store, status, day, priority string) (ListFilter, error) {
	var f ListFilter
	var err error
	if f.Status, err = ParseStatus(status); err != nil {
		return ListFilter{}, err
	}
	if day != "" {
		d, err := calendar.ResolveDay(day, s.Now(), s.Location())
		if err != nil {
			return ListFilter{}, err
		}
		f.Day = &d
	}
	if priority != "" {
		if f.Priority, err = ParsePriority(priority); err != nil {
			return ListFilter{}, err
		}
	}
	return f, nil
}
