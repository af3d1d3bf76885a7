package tasks

import (
	"fmt"
	"time"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ValidateInterval returns ErrInvalidInterval unless start is strictly before end.
func ValidateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w (start %s, end %s)", ErrInvalidInterval,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// FindConflict returns the first task in collection, other than excludeID,
// whose interval overlaps [start, end). Pass an empty excludeID for new tasks.
func FindConflict(collection []Task, excludeID string, start, end time.Time) (Task, bool) {
	for _, t := range collection {
		if excludeID != "" && t.ID == excludeID {
			continue
		}
		if Overlaps(start, end, t.Start, t.End) {
			return t, true
		}
	}
	return Task{}, false
}

// IsSlotAvailable reports whether [start, end) is free of every task in
// collection except excludeID.
func IsSlotAvailable(collection []Task, excludeID string, start, end time.Time) bool {
	_, conflict := FindConflict(collection, excludeID, start, end)
	return !conflict
}

// checkSlot runs both policy checks in order and returns a descriptive error.
func checkSlot(collection []Task, excludeID string, start, end time.Time) error {
	if err := ValidateInterval(start, end); err != nil {
		return err
	}
	if other, ok := FindConflict(collection, excludeID, start, end); ok {
		return fmt.Errorf("%w: conflicts with %s %q (%s-%s)", ErrSlotOverlap,
			other.ID, other.Title, other.Start.Format("2006-01-02 15:04"), other.End.Format("15:04"))
	}
	return nil
}
