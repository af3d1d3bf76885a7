// Package calendar provides civil-day arithmetic used by the planner: which
// tasks fall on a given day, and how a task moves from one day to another.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the textual form of a Day ("2006-01-02").
const DayLayout = "2006-01-02"

// Day is a calendar date without a time of day or location.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day t falls on when observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(orLocal(loc)).Date()
	return Day{Year: y, Month: m, Day: d}
}

// Today returns the day now falls on in loc.
func Today(now time.Time, loc *time.Location) Day {
	return DayOf(now, loc)
}

// ParseDay parses a "2006-01-02" string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t, time.UTC), nil
}

// ResolveDay accepts "today", "tomorrow", "yesterday" or a "2006-01-02" date.
func ResolveDay(s string, now time.Time, loc *time.Location) (Day, error) {
	today := Today(now, loc)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	return ParseDay(s)
}

// Start returns midnight at the beginning of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, orLocal(loc))
}

// End returns midnight at the beginning of the following day in loc.
func (d Day) End(loc *time.Location) time.Time {
	return d.AddDays(1).Start(loc)
}

// Contains reports whether t falls on d in loc.
func (d Day) Contains(t time.Time, loc *time.Location) bool {
	return DayOf(t, loc) == d
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	t := time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC)
	return DayOf(t, time.UTC)
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
