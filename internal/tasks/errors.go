package tasks

import "errors"

var (
	// ErrInvalidInterval is returned when a task's end is not after its start.
	ErrInvalidInterval = errors.New("end time must be after start time")
	// ErrSlotOverlap is returned when an interval intersects another task's.
	ErrSlotOverlap = errors.New("time slot overlaps with another task")
	// ErrTaskNotFound is returned when an operation names an unknown task id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidPriority is returned for a priority outside the known set.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrInvalidDraft is returned when host input cannot be turned into a draft.
	ErrInvalidDraft = errors.New("invalid draft")
	// ErrDuplicateID is returned when an imported collection repeats an id.
	ErrDuplicateID = errors.New("duplicate task id")
)
