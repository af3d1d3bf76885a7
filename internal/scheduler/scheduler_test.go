package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dohr-michael/dayplanner/internal/events"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAddJobValidation(t *testing.T) {
	s := New(Config{})
	noop := func(context.Context) error { return nil }

	tests := []struct {
		name string
		job  Job
	}{
		{"missing name", Job{Cron: "* * * * *", Run: noop}},
		{"missing run", Job{Name: "x", Cron: "* * * * *"}},
		{"no trigger", Job{Name: "x", Run: noop}},
		{"bad cron", Job{Name: "x", Cron: "every minute", Run: noop}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.AddJob(tt.job); err == nil {
				t.Error("expected error")
			}
		})
	}

	if err := s.AddJob(Job{Name: "backup", Cron: "0 * * * *", Run: noop}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob(Job{Name: "backup", Cron: "0 * * * *", Run: noop}); err == nil {
		t.Error("expected duplicate name error")
	}
	if err := s.RemoveJob("backup"); err != nil {
		t.Errorf("RemoveJob: %v", err)
	}
	if err := s.RemoveJob("backup"); err == nil {
		t.Error("expected not found error")
	}
}

func TestRunDue(t *testing.T) {
	start := time.Date(2026, 10, 15, 9, 10, 0, 0, time.UTC)
	s := New(Config{Now: fixedClock(start)})

	var runs atomic.Int32
	if err := s.AddJob(Job{Name: "hourly", Cron: "0 * * * *", Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	ctx := context.Background()
	if n := s.RunDue(ctx, start.Add(30*time.Minute)); n != 0 {
		t.Fatalf("09:40: ran %d jobs, want 0", n)
	}
	if n := s.RunDue(ctx, time.Date(2026, 10, 15, 10, 0, 5, 0, time.UTC)); n != 1 {
		t.Fatalf("10:00: ran %d jobs, want 1", n)
	}
	// Same activation is not repeated.
	if n := s.RunDue(ctx, time.Date(2026, 10, 15, 10, 0, 30, 0, time.UTC)); n != 0 {
		t.Fatalf("10:00:30: ran %d jobs, want 0", n)
	}
	// Several missed activations collapse into one run.
	if n := s.RunDue(ctx, time.Date(2026, 10, 15, 14, 5, 0, 0, time.UTC)); n != 1 {
		t.Fatalf("14:05: ran %d jobs, want 1", n)
	}
	if runs.Load() != 2 {
		t.Errorf("runs = %d, want 2", runs.Load())
	}

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].Runs != 2 {
		t.Fatalf("Jobs = %+v", jobs)
	}
	if want := time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC); !jobs[0].Next.Equal(want) {
		t.Errorf("Next = %v, want %v", jobs[0].Next, want)
	}
}

func TestRunPublishesTrigger(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsub := bus.SubscribeChan(4, events.EventScheduleTrigger)
	defer unsub()

	start := time.Date(2026, 10, 15, 9, 59, 0, 0, time.UTC)
	s := New(Config{Bus: bus, Now: fixedClock(start)})
	if err := s.AddJob(Job{Name: "failing", Cron: "0 * * * *", Run: func(context.Context) error {
		return errors.New("disk full")
	}}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	s.RunDue(context.Background(), start.Add(time.Minute))

	select {
	case e := <-ch:
		p, ok := events.GetScheduleTriggerPayload(e)
		if !ok || p.Job != "failing" || p.Error != "disk full" {
			t.Errorf("payload = %+v", p)
		}
		if e.Source != events.SourceScheduler {
			t.Errorf("source = %s", e.Source)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for schedule.trigger")
	}
	if s.Jobs()[0].Failed != 1 {
		t.Errorf("Failed = %d, want 1", s.Jobs()[0].Failed)
	}
}

func TestEventTriggeredJob(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	ran := make(chan string, 4)
	s := New(Config{Bus: bus})
	if err := s.AddJob(Job{
		Name:    "snapshot-on-clear",
		OnEvent: &EventTrigger{Event: events.EventDayCleared},
		Run: func(context.Context) error {
			ran <- "ran"
			return nil
		},
	}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	s.Start()
	defer s.Stop()

	bus.Publish(events.NewTypedEvent(events.SourceCLI, events.DayCompletedPayload{Day: "2026-10-15"}))
	bus.Publish(events.NewTypedEvent(events.SourceCLI, events.DayClearedPayload{Day: "2026-10-15"}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on day.cleared")
	}
	select {
	case <-ran:
		t.Fatal("job ran more than once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventTriggerCooldown(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s := New(Config{Now: func() time.Time { return now }})

	var runs atomic.Int32
	if err := s.AddJob(Job{
		Name:     "cool",
		OnEvent:  &EventTrigger{Event: events.EventDayCleared},
		Cooldown: time.Minute,
		Run:      func(context.Context) error { runs.Add(1); return nil },
	}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	e := makeEvent(events.EventDayCleared, events.SourceCLI, nil)
	s.handleEvent(e)
	s.handleEvent(e)
	now = now.Add(2 * time.Minute)
	s.handleEvent(e)

	if runs.Load() != 2 {
		t.Errorf("runs = %d, want 2", runs.Load())
	}
}
