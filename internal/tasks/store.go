package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dohr-michael/dayplanner/internal/calendar"
	"github.com/dohr-michael/dayplanner/internal/events"
)

// Persister loads and saves the whole task collection. Save receives the
// complete list every time; implementations replace what they stored before.
type Persister interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, list []Task) error
}

// Versioner is implemented by persisters that other processes may write to.
// Version changes whenever the stored collection is saved, by anyone.
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// StoreConfig holds dependencies for the task store.
type StoreConfig struct {
	Persister Persister        // nil: collection lives in memory only
	Bus       *events.Bus      // nil: mutations are not published
	Now       func() time.Time // nil: time.Now
	Location  *time.Location   // calendar days are evaluated here; nil: time.Local

	// OnDiscard receives stored records that Load had to skip, before any
	// save can overwrite them. Called with the store lock held.
	OnDiscard func(discarded []Task)
}

// Store owns the authoritative task collection. Every mutation validates the
// candidate collection, saves it through the persister and only then swaps it
// in, so a rejected or failed mutation leaves the previous state untouched.
type Store struct {
	mu    sync.RWMutex
	tasks []Task

	persister Persister
	version   string // persisted version the collection was last synced with
	bus       *events.Bus
	now       func() time.Time
	loc       *time.Location
	onDiscard func([]Task)
}

// NewStore creates an empty store. Call Load to restore persisted tasks.
func NewStore(cfg StoreConfig) *Store {
	s := &Store{
		persister: cfg.Persister,
		bus:       cfg.Bus,
		now:       cfg.Now,
		loc:       cfg.Location,
		onDiscard: cfg.OnDiscard,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Location returns the location used for calendar-day membership.
func (s *Store) Location() *time.Location { return s.loc }

// Now returns the current time from the store's clock.
func (s *Store) Now() time.Time { return s.now() }

// Today returns the calendar day the store's clock is on.
func (s *Store) Today() calendar.Day { return calendar.Today(s.now(), s.loc) }

// Load replaces the collection with what the persister holds. Records that
// would break an invariant are skipped and counted.
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.persister == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

// Sync reloads the collection if another writer saved it since this store
// last loaded or saved. It reports whether a reload happened. Persisters that
// do not implement Versioner are never reloaded.
func (s *Store) Sync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync(ctx)
}

// sync is Sync with the write lock held.
func (s *Store) sync(ctx context.Context) (bool, error) {
	v, ok := s.persister.(Versioner)
	if !ok {
		return false, nil
	}
	current, err := v.Version(ctx)
	if err != nil {
		return false, fmt.Errorf("check stored version: %w", err)
	}
	if current == s.version {
		return false, nil
	}
	skipped, err := s.reload(ctx)
	if err != nil {
		return false, err
	}
	slog.Info("tasks changed by another writer, reloaded", "count", len(s.tasks), "skipped", skipped)
	return true, nil
}

// reload reads the persisted collection. Caller holds the write lock.
func (s *Store) reload(ctx context.Context) (int, error) {
	version, err := s.storedVersion(ctx)
	if err != nil {
		return 0, err
	}
	list, err := s.persister.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tasks: %w", err)
	}

	now := s.stamp()
	seen := make(map[string]bool, len(list))
	loaded := make([]Task, 0, len(list))
	var discarded []Task
	for _, t := range list {
		raw := copyTask(t)
		if err := s.admit(loaded, seen, &t, now); err != nil {
			slog.Warn("skipping stored task", "task_id", t.ID, "title", t.Title, "error", err)
			discarded = append(discarded, raw)
			continue
		}
		seen[t.ID] = true
		loaded = append(loaded, t)
	}
	if len(discarded) > 0 && s.onDiscard != nil {
		s.onDiscard(discarded)
	}

	s.tasks = loaded
	s.version = version
	slog.Debug("tasks loaded", "count", len(loaded), "skipped", len(discarded))
	return len(discarded), nil
}

func (s *Store) storedVersion(ctx context.Context) (string, error) {
	v, ok := s.persister.(Versioner)
	if !ok {
		return "", nil
	}
	version, err := v.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("read stored version: %w", err)
	}
	return version, nil
}

// Replace validates list as a whole and swaps it in atomically. Tasks without
// an id are assigned one.
func (s *Store) Replace(ctx context.Context, list []Task) error {
	now := s.stamp()
	seen := make(map[string]bool, len(list))
	next := make([]Task, 0, len(list))
	for i, t := range list {
		t = copyTask(t)
		if t.ID == "" {
			t.ID = generateUniqueID(next, seen)
		}
		if err := s.admit(next, seen, &t, now); err != nil {
			return fmt.Errorf("task %d (%s): %w", i, t.ID, err)
		}
		seen[t.ID] = true
		next = append(next, t)
	}

	return s.mutate(ctx, func([]Task) ([]Task, []events.EventPayload, error) {
		return next, nil, nil
	})
}

// admit checks that t can join accepted and normalises its priority and
// completion fields in place.
func (s *Store) admit(accepted []Task, seen map[string]bool, t *Task, now time.Time) error {
	if t.ID == "" {
		return fmt.Errorf("missing id")
	}
	if seen[t.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if err := checkSlot(accepted, "", t.Start, t.End); err != nil {
		return err
	}
	normaliseCompletion(t, nil, now)
	return nil
}

// Create validates d against the collection and inserts a new pending task.
func (s *Store) Create(ctx context.Context, d Draft) (Task, error) {
	if err := ValidateInterval(d.Start, d.End); err != nil {
		return Task{}, err
	}
	priority := d.Priority
	if priority == "" {
		priority = DefaultPriority
	}
	if !priority.Valid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	var created Task
	err := s.mutate(ctx, func(current []Task) ([]Task, []events.EventPayload, error) {
		if err := checkSlot(current, "", d.Start, d.End); err != nil {
			return nil, nil, err
		}
		created = Task{
			ID:          generateUniqueID(current, nil),
			Title:       d.Title,
			Description: d.Description,
			Start:       d.Start,
			End:         d.End,
			Priority:    priority,
		}
		next := append(cloneTasks(current), created)
		return next, []events.EventPayload{events.TaskCreatedPayload{TaskSnapshot: snapshotOf(created)}}, nil
	})
	if err != nil {
		return Task{}, err
	}
	return copyTask(created), nil
}

// Update replaces the task with the same id. The task's own current slot is
// ignored by the overlap check. An empty priority keeps the stored one.
func (s *Store) Update(ctx context.Context, t Task) (Task, error) {
	var updated Task
	err := s.mutate(ctx, func(current []Task) ([]Task, []events.EventPayload, error) {
		idx := indexOf(current, t.ID)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, t.ID)
		}
		prev := current[idx]

		if err := ValidateInterval(t.Start, t.End); err != nil {
			return nil, nil, err
		}
		updated = copyTask(t)
		if updated.Priority == "" {
			updated.Priority = prev.Priority
		}
		if !updated.Priority.Valid() {
			return nil, nil, fmt.Errorf("%w: %q", ErrInvalidPriority, updated.Priority)
		}
		if err := checkSlot(current, t.ID, t.Start, t.End); err != nil {
			return nil, nil, err
		}
		normaliseCompletion(&updated, &prev, s.stamp())

		next := cloneTasks(current)
		next[idx] = updated
		return next, []events.EventPayload{events.TaskUpdatedPayload{TaskSnapshot: snapshotOf(updated)}}, nil
	})
	if err != nil {
		return Task{}, err
	}
	return copyTask(updated), nil
}

// Reschedule moves a task to [start, end), keeping everything else.
func (s *Store) Reschedule(ctx context.Context, id string, start, end time.Time) (Task, error) {
	var moved Task
	err := s.mutate(ctx, func(current []Task) ([]Task, []events.EventPayload, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		if err := checkSlot(current, id, start, end); err != nil {
			return nil, nil, err
		}
		prev := current[idx]
		moved = copyTask(prev)
		moved.Start = start
		moved.End = end

		next := cloneTasks(current)
		next[idx] = moved
		return next, []events.EventPayload{events.TaskRescheduledPayload{
			TaskSnapshot:  snapshotOf(moved),
			PreviousStart: prev.Start,
			PreviousEnd:   prev.End,
		}}, nil
	})
	if err != nil {
		return Task{}, err
	}
	return copyTask(moved), nil
}

// Delete removes the task with the given id and returns it.
func (s *Store) Delete(ctx context.Context, id string) (Task, error) {
	var removed Task
	err := s.mutate(ctx, func(current []Task) ([]Task, []events.EventPayload, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		removed = copyTask(current[idx])
		next := slices.Delete(cloneTasks(current), idx, idx+1)
		return next, []events.EventPayload{events.TaskDeletedPayload{TaskSnapshot: snapshotOf(removed)}}, nil
	})
	if err != nil {
		return Task{}, err
	}
	return removed, nil
}

// Complete marks a task completed now. Completing a completed task is a no-op
// that keeps the original completion time.
func (s *Store) Complete(ctx context.Context, id string) (Task, error) {
	return s.setCompleted(ctx, id, true)
}

// Reopen marks a task pending again and clears its completion time.
func (s *Store) Reopen(ctx context.Context, id string) (Task, error) {
	return s.setCompleted(ctx, id, false)
}

func (s *Store) setCompleted(ctx context.Context, id string, completed bool) (Task, error) {
	var result Task
	err := s.mutate(ctx, func(current []Task) ([]Task, []events.EventPayload, error) {
		idx := indexOf(current, id)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		result = copyTask(current[idx])
		if result.Completed == completed {
			return nil, nil, nil
		}

		var payload events.EventPayload
		if completed {
			now := s.stamp()
			result.Completed = true
			result.CompletedAt = &now
			payload = events.TaskCompletedPayload{TaskSnapshot: snapshotOf(result)}
		} else {
			result.Completed = false
			result.CompletedAt = nil
			payload = events.TaskReopenedPayload{TaskSnapshot: snapshotOf(result)}
		}

		next := cloneTasks(current)
		next[idx] = result
		return next, []events.EventPayload{payload}, nil
	})
	if err != nil {
		return Task{}, err
	}
	return copyTask(result), nil
}

// CompleteAllOnDay completes every pending task starting on day as one batch
// and returns the tasks it flipped.
func (s *Store) CompleteAllOnDay(ctx context.Context, day calendar.Day) ([]Task, error) {
	var flipped []Task
	err := s.mutate(ctx, func(current []Task) ([]Task, []events.EventPayload, error) {
		now := s.stamp()
		next := cloneTasks(current)
		var ids []string
		for i := range next {
			t := &next[i]
			if t.Completed || !day.Contains(t.Start, s.loc) {
				continue
			}
			stamp := now
			t.Completed = true
			t.CompletedAt = &stamp
			flipped = append(flipped, copyTask(*t))
			ids = append(ids, t.ID)
		}
		if len(ids) == 0 {
			return nil, nil, nil
		}
		return next, []events.EventPayload{events.DayCompletedPayload{Day: day.String(), TaskIDs: ids}}, nil
	})
	if err != nil {
		return nil, err
	}
	return flipped, nil
}

// ClearDay removes every task starting on day and returns them. Asking the
// user for confirmation is the caller's responsibility.
func (s *Store) ClearDay(ctx context.Context, day calendar.Day) ([]Task, error) {
	var removed []Task
	err := s.mutate(ctx, func(current []Task) ([]Task, []events.EventPayload, error) {
		next := make([]Task, 0, len(current))
		var ids []string
		for _, t := range current {
			if day.Contains(t.Start, s.loc) {
				removed = append(removed, copyTask(t))
				ids = append(ids, t.ID)
				continue
			}
			next = append(next, copyTask(t))
		}
		if len(ids) == 0 {
			return nil, nil, nil
		}
		return next, []events.EventPayload{events.DayClearedPayload{Day: day.String(), TaskIDs: ids}}, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOf(s.tasks, id)
	if idx < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return copyTask(s.tasks[idx]), nil
}

// List returns tasks matching filter, sorted by start time.
func (s *Store) List(filter ListFilter) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Task{}
	for _, t := range s.tasks {
		if filter.Match(t, s.loc) {
			out = append(out, copyTask(t))
		}
	}
	slices.SortStableFunc(out, func(a, b Task) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// Snapshot returns a copy of the collection in insertion order.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// mutate runs fn under the write lock, on the collection as last saved by any
// writer. A nil next collection means nothing changed. Events are published after the lock is released.
func (s *Store) mutate(ctx context.Context, fn func(current []Task) ([]Task, []events.EventPayload, error)) error {
	s.mu.Lock()
	_, err := s.sync(ctx)
	var (
		next     []Task
		payloads []events.EventPayload
	)
	if err == nil {
		next, payloads, err = fn(s.tasks)
	}
	if err == nil && next != nil {
		err = s.commit(ctx, next)
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for _, p := range payloads {
		s.publish(ctx, p)
	}
	return nil
}

// commit saves next and swaps it in. Caller holds the write lock.
func (s *Store) commit(ctx context.Context, next []Task) error {
	if s.persister != nil {
		if err := s.persister.Save(ctx, next); err != nil {
			return fmt.Errorf("save tasks: %w", err)
		}
		version, err := s.storedVersion(ctx)
		if err != nil {
			// An empty version forces a reload before the next mutation.
			slog.Warn("tasks saved but version unknown", "error", err)
		}
		s.version = version
	}
	s.tasks = next
	return nil
}

func (s *Store) publish(ctx context.Context, p events.EventPayload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.NewTypedEvent(events.SourceFromContext(ctx, events.SourceStore), p))
}

// stamp returns the clock's time without a monotonic reading so it survives
// serialisation unchanged.
func (s *Store) stamp() time.Time {
	return s.now().Round(0)
}

// normaliseCompletion enforces "completed_at is set iff completed".
func normaliseCompletion(t *Task, prev *Task, now time.Time) {
	if !t.Completed {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt != nil {
		return
	}
	if prev != nil && prev.Completed && prev.CompletedAt != nil {
		at := *prev.CompletedAt
		t.CompletedAt = &at
		return
	}
	t.CompletedAt = &now
}

func snapshotOf(t Task) events.TaskSnapshot {
	return events.TaskSnapshot{
		TaskID:      t.ID,
		Title:       t.Title,
		Start:       t.Start,
		End:         t.End,
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
	}
}

func indexOf(list []Task, id string) int {
	return slices.IndexFunc(list, func(t Task) bool { return t.ID == id })
}

func generateUniqueID(current []Task, reserved map[string]bool) string {
	for {
		id := GenerateTaskID()
		if indexOf(current, id) < 0 && !reserved[id] {
			return id
		}
	}
}

func copyTask(t Task) Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

func cloneTasks(list []Task) []Task {
	out := make([]Task, len(list))
	for i, t := range list {
		out[i] = copyTask(t)
	}
	return out
}
