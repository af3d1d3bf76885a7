package calendar

import (
	"fmt"
	"time"
)

// MoveToDay computes the interval a task occupies after being dropped onto day.
// The wall-clock hour and minute of start are kept (seconds are dropped) and the
// absolute duration end-start is preserved. Times that do not exist on day in loc
// (DST gaps) are normalised by time.Date.
func MoveToDay(start, end time.Time, day Day, loc *time.Location) (time.Time, time.Time) {
	loc = orLocal(loc)
	local := start.In(loc)
	duration := end.Sub(start)

	newStart := time.Date(day.Year, day.Month, day.Day, local.Hour(), local.Minute(), 0, 0, loc)
	return newStart, newStart.Add(duration)
}

var inputLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTime parses a user-supplied timestamp. RFC 3339 strings carry their own
// offset; the shorter local forms are interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, orLocal(loc)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: expected RFC3339 or \"YYYY-MM-DD HH:MM\"", s)
}

// ParseTimeOn is ParseTime that also accepts a bare "15:04" clock time,
// placed on day.
func ParseTimeOn(s string, day Day, loc *time.Location) (time.Time, error) {
	if clock, err := time.Parse("15:04", s); err == nil {
		return time.Date(day.Year, day.Month, day.Day, clock.Hour(), clock.Minute(), 0, 0, orLocal(loc)), nil
	}
	return ParseTime(s, loc)
}
