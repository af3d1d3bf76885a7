package tasks

import (
	"context"
	"time"

	"github.com/dohr-michael/dayplanner/internal/calendar"
)

// MoveToDay reschedules task id onto day, keeping its local time of day and
// its duration. The resulting interval goes through the usual policy checks.
func MoveToDay(ctx context.Context, s *Store, id string, day calendar.Day) (Task, error) {
	t, err := s.Get(id)
	if err != nil {
		return Task{}, err
	}
	start, end := calendar.MoveToDay(t.Start, t.End, day, s.Location())
	return s.Reschedule(ctx, id, start, end)
}

// Chain returns the draft that follows task id when adding several tasks in a
// row: it starts where that task ends and lasts duration.
func Chain(s *Store, id string, duration time.Duration) (Draft, error) {
	t, err := s.Get(id)
	if err != nil {
		return Draft{}, err
	}
	return NextDraft(t, duration), nil
}
