package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/dohr-michael/dayplanner/internal/calendar"
)

// DraftInput is a draft as typed by a user or sent over the wire. Times may
// be RFC 3339, "YYYY-MM-DD HH:MM", or a bare "HH:MM" on Day.
type DraftInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Duration    string `json:"duration,omitempty"` // used when End is empty
	Priority    string `json:"priority,omitempty"`
	Day         string `json:"day,omitempty"`   // day for bare clock times; default today
	After       string `json:"after,omitempty"` // start where this task ends
}

// DraftDefaults fills what a DraftInput leaves out.
type DraftDefaults struct {
	Duration time.Duration
	Priority TaskPriority
}

// ResolveDraft turns in into a Draft using s for "after" lookups, the clock
// and the calendar location. Interval validity is left to the store.
func ResolveDraft(s *Store, in DraftInput, defaults DraftDefaults) (Draft, error) {
	if defaults.Duration <= 0 {
		defaults.Duration = time.Hour
	}
	if defaults.Priority == "" {
		defaults.Priority = DefaultPriority
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Draft{}, fmt.Errorf("%w: title is required", ErrInvalidDraft)
	}

	loc := s.Location()
	day, err := calendar.ResolveDay(in.Day, s.Now(), loc)
	if err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	duration := defaults.Duration
	if in.Duration != "" {
		duration, err = time.ParseDuration(in.Duration)
		if err != nil {
			return Draft{}, fmt.Errorf("%w: duration: %v", ErrInvalidDraft, err)
		}
	}

	var d Draft
	switch {
	case in.Start != "" && in.After != "":
		return Draft{}, fmt.Errorf("%w: start and after are mutually exclusive", ErrInvalidDraft)
	case in.Start != "":
		start, err := calendar.ParseTimeOn(in.Start, day, loc)
		if err != nil {
			return Draft{}, fmt.Errorf("%w: start: %v", ErrInvalidDraft, err)
		}
		d = DraftAt(start, duration)
	case in.After != "":
		d, err = Chain(s, in.After, duration)
		if err != nil {
			return Draft{}, err
		}
	default:
		return Draft{}, fmt.Errorf("%w: start or after is required", ErrInvalidDraft)
	}

	if in.End != "" {
		endDay := calendar.DayOf(d.Start, loc)
		if d.End, err = calendar.ParseTimeOn(in.End, endDay, loc); err != nil {
			return Draft{}, fmt.Errorf("%w: end: %v", ErrInvalidDraft, err)
		}
	}

	d.Priority = defaults.Priority
	if in.Priority != "" {
		if d.Priority, err = ParsePriority(in.Priority); err != nil {
			return Draft{}, err
		}
	}
	d.Title = title
	d.Description = in.Description
	return d, nil
}
