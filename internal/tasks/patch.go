package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/dohr-michael/dayplanner/internal/calendar"
)

// Patch is a partial edit of an existing task. Nil fields are left alone.
// Start and End accept the same forms as DraftInput; a bare clock time is
// placed on the day the task currently starts.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Start       *string `json:"start,omitempty"`
	End         *string `json:"end,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Start == nil &&
		p.End == nil && p.Priority == nil && p.Completed == nil
}

// Apply merges p onto task id and stores the result with Update. Moving only
// the start keeps the task's duration.
func (p Patch) Apply(ctx context.Context, s *Store, id string) (Task, error) {
	t, err := s.Get(id)
	if err != nil {
		return Task{}, err
	}
	loc := s.Location()
	day := calendar.DayOf(t.Start, loc)

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Task{}, fmt.Errorf("%w: title is required", ErrInvalidDraft)
		}
		t.Title = title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Start != nil {
		start, err := calendar.ParseTimeOn(*p.Start, day, loc)
		if err != nil {
			return Task{}, fmt.Errorf("%w: start: %v", ErrInvalidDraft, err)
		}
		duration := t.Duration()
		t.Start = start
		t.End = start.Add(duration)
		day = calendar.DayOf(start, loc)
	}
	if p.End != nil {
		end, err := calendar.ParseTimeOn(*p.End, day, loc)
		if err != nil {
			return Task{}, fmt.Errorf("%w: end: %v", ErrInvalidDraft, err)
		}
		t.End = end
	}
	if p.Priority != nil {
		if t.Priority, err = ParsePriority(*p.Priority); err != nil {
			return Task{}, err
		}
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return s.Update(ctx, t)
}
