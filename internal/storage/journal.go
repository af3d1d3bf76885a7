package storage

import (
	"log/slog"
	"strings"

	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/storage/slotstore"
)

// JournalFile is the JSONL file events are appended to.
const JournalFile = "journal.jsonl"

// Journal persists task and day events from the bus as JSONL.
type Journal struct {
	slots       *slotstore.Store
	unsubscribe func()
}

// NewJournal subscribes to bus and appends task.*, day.* and backup.* events
// to dir/journal.jsonl.
func NewJournal(dir string, bus *events.Bus) *Journal {
	j := &Journal{slots: slotstore.New(dir)}
	j.unsubscribe = bus.Subscribe(j.handleEvent)
	return j
}

// Close unsubscribes the journal from the bus.
func (j *Journal) Close() {
	if j.unsubscribe != nil {
		j.unsubscribe()
	}
}

func (j *Journal) handleEvent(e events.Event) {
	// Scheduler ticks are noise in the history.
	if e.Type == events.EventScheduleTrigger {
		return
	}
	if err := j.slots.AppendJSONL(JournalFile, e); err != nil {
		slog.Warn("journal append failed", "event", e.Type, "error", err)
	}
}

// JournalQuery narrows ReadJournal results.
type JournalQuery struct {
	TaskID string // only events about this task
	Prefix string // only event types starting with this, e.g. "day."
	Limit  int    // keep the most recent N; 0 = all
}

// ReadJournal returns journaled events from dir, oldest first.
func ReadJournal(dir string, q JournalQuery) ([]events.Event, error) {
	all, err := slotstore.LoadJSONL[events.Event](slotstore.New(dir), JournalFile)
	if err != nil {
		return nil, err
	}

	var out []events.Event
	for _, e := range all {
		if q.Prefix != "" && !strings.HasPrefix(string(e.Type), q.Prefix) {
			continue
		}
		if q.TaskID != "" && !journalMentions(e, q.TaskID) {
			continue
		}
		out = append(out, e)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

func journalMentions(e events.Event, taskID string) bool {
	if events.TaskID(e) == taskID {
		return true
	}
	ids, _ := e.Payload["task_ids"].([]any)
	for _, id := range ids {
		if id == taskID {
			return true
		}
	}
	return false
}
