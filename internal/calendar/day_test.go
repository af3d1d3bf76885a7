package calendar

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-03-04")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	want := Day{Year: 2025, Month: time.March, Day: 4}
	if d != want {
		t.Errorf("ParseDay = %+v, want %+v", d, want)
	}
	if d.String() != "2025-03-04" {
		t.Errorf("String = %q", d.String())
	}

	if _, err := ParseDay("04/03/2025"); err == nil {
		t.Error("expected error for bad layout")
	}
}

func TestDayContains(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	d := Day{Year: 2025, Month: time.March, Day: 4}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"midnight", time.Date(2025, 3, 4, 0, 0, 0, 0, loc), true},
		{"late evening", time.Date(2025, 3, 4, 23, 59, 59, 0, loc), true},
		{"next midnight", time.Date(2025, 3, 5, 0, 0, 0, 0, loc), false},
		// 23:00 UTC on the 3rd is 01:00 on the 4th in UTC+2.
		{"utc previous day", time.Date(2025, 3, 3, 23, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Contains(tt.t, loc); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestDayAddDaysAcrossMonth(t *testing.T) {
	d := Day{Year: 2024, Month: time.February, Day: 28}
	if got := d.AddDays(1); got != (Day{2024, time.February, 29}) {
		t.Errorf("AddDays(1) = %v", got)
	}
	if got := d.AddDays(2); got != (Day{2024, time.March, 1}) {
		t.Errorf("AddDays(2) = %v", got)
	}
	if got := d.AddDays(-28); got != (Day{2024, time.January, 31}) {
		t.Errorf("AddDays(-28) = %v", got)
	}
}

func TestDayTextRoundTrip(t *testing.T) {
	d := Day{Year: 2025, Month: time.December, Day: 31}
	b, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var got Day
	if err := got.UnmarshalText(b); err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Errorf("round trip = %v, want %v", got, d)
	}
}

func TestMoveToDayKeepsTimeOfDayAndDuration(t *testing.T) {
	loc := time.UTC
	start := time.Date(2025, 3, 3, 9, 15, 42, 0, loc) // Monday
	end := start.Add(90 * time.Minute)

	newStart, newEnd := MoveToDay(start, end, Day{2025, time.March, 4}, loc)

	wantStart := time.Date(2025, 3, 4, 9, 15, 0, 0, loc)
	if !newStart.Equal(wantStart) {
		t.Errorf("start = %v, want %v", newStart, wantStart)
	}
	if got := newEnd.Sub(newStart); got != 90*time.Minute {
		t.Errorf("duration = %v, want 90m", got)
	}
}

func TestMoveToDayAcrossDST(t *testing.T) {
	loc := mustLoad(t, "Europe/Paris")
	// 2025-03-30 is the spring-forward day in Paris (02:00 -> 03:00).
	start := time.Date(2025, 3, 29, 9, 0, 0, 0, loc)
	end := start.Add(time.Hour)

	newStart, newEnd := MoveToDay(start, end, Day{2025, time.March, 30}, loc)
	if newStart.Hour() != 9 || newStart.Minute() != 0 {
		t.Errorf("wall clock changed: %v", newStart)
	}
	if newEnd.Sub(newStart) != time.Hour {
		t.Errorf("duration = %v, want 1h", newEnd.Sub(newStart))
	}
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("X", -5*60*60)

	got, err := ParseTime("2025-03-04 09:30", loc)
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if want := time.Date(2025, 3, 4, 9, 30, 0, 0, loc); !got.Equal(want) {
		t.Errorf("ParseTime local = %v, want %v", got, want)
	}

	got, err = ParseTime("2025-03-04T09:30:00Z", loc)
	if err != nil {
		t.Fatalf("ParseTime rfc3339: %v", err)
	}
	if want := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseTime rfc3339 = %v, want %v", got, want)
	}

	if _, err := ParseTime("tomorrow", loc); err == nil {
		t.Error("expected error")
	}
}

func TestResolveDay(t *testing.T) {
	now := time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want Day
	}{
		{"", Day{2026, time.October, 15}},
		{"today", Day{2026, time.October, 15}},
		{"Tomorrow", Day{2026, time.October, 16}},
		{"yesterday", Day{2026, time.October, 14}},
		{"2026-12-31", Day{2026, time.December, 31}},
	}
	for _, tt := range tests {
		got, err := ResolveDay(tt.in, now, time.UTC)
		if err != nil || got != tt.want {
			t.Errorf("ResolveDay(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	// 23:30 UTC is already the next day two hours east.
	east := time.FixedZone("UTC+2", 2*3600)
	if got, _ := ResolveDay("today", now, east); got != (Day{2026, time.October, 16}) {
		t.Errorf("today in UTC+2 = %v", got)
	}
	if _, err := ResolveDay("someday", now, time.UTC); err == nil {
		t.Error("expected error")
	}
}

func TestParseTimeOn(t *testing.T) {
	day := Day{2026, time.October, 15}
	got, err := ParseTimeOn("14:45", day, time.UTC)
	if err != nil {
		t.Fatalf("ParseTimeOn: %v", err)
	}
	if want := time.Date(2026, 10, 15, 14, 45, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	got, err = ParseTimeOn("2026-10-20 08:00", day, time.UTC)
	if err != nil || got.Day() != 20 {
		t.Errorf("full timestamp: %v, %v", got, err)
	}
}
