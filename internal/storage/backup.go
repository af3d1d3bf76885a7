package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/storage/slotstore"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

const (
	discardPrefix = "discarded-"
	backupPrefix  = "tasks-"
	backupLayout = "20060102T150405.000Z"
)

// BackupInfo describes one snapshot on disk.
type BackupInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Backups writes timestamped snapshots of the task collection and keeps the
// newest Keep of them.
type Backups struct {
	slots *slotstore.Store
	keep  int
	now   func() time.Time
}

// NewBackups creates a backup set in dir. keep <= 0 disables pruning.
func NewBackups(dir string, keep int) *Backups {
	return &Backups{slots: slotstore.New(dir), keep: keep, now: time.Now}
}

// Create writes a snapshot of list and prunes old ones.
func (b *Backups) Create(list []tasks.Task) (BackupInfo, error) {
	if list == nil {
		list = []tasks.Task{}
	}
	at := b.now().UTC()
	name := backupPrefix + at.Format(backupLayout)
	if err := b.slots.Set(name, list); err != nil {
		return BackupInfo{}, fmt.Errorf("write backup: %w", err)
	}
	if _, err := b.Prune(); err != nil {
		return BackupInfo{}, err
	}
	return BackupInfo{Name: name, Path: b.slots.Path(name), CreatedAt: at}, nil
}

// Quarantine keeps stored records the task store could not load, so the next
// save does not lose them for good. The slot is named after the content:
// quarantining the same records twice writes one file. Quarantined slots are
// not listed, restored or pruned.
func (b *Backups) Quarantine(list []tasks.Task) (string, error) {
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal discarded tasks: %w", err)
	}
	sum := sha256.Sum256(data)
	name := discardPrefix + hex.EncodeToString(sum[:6])
	if err := b.slots.Set(name, list); err != nil {
		return "", fmt.Errorf("write discarded tasks: %w", err)
	}
	return b.slots.Path(name), nil
}

// List returns the snapshots, oldest first.
func (b *Backups) List() ([]BackupInfo, error) {
	keys, err := b.slots.Keys()
	if err != nil {
		return nil, err
	}

	var out []BackupInfo
	for _, k := range keys {
		stamp, ok := strings.CutPrefix(k, backupPrefix)
		if !ok {
			continue
		}
		at, err := time.Parse(backupLayout, stamp)
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{Name: k, Path: b.slots.Path(k), CreatedAt: at})
	}
	// Keys are sorted and the layout sorts lexically by time.
	return out, nil
}

// Prune removes the oldest snapshots beyond the keep limit.
func (b *Backups) Prune() (int, error) {
	if b.keep <= 0 {
		return 0, nil
	}
	list, err := b.List()
	if err != nil {
		return 0, err
	}
	excess := len(list) - b.keep
	for i := 0; i < excess; i++ {
		if err := b.slots.Delete(list[i].Name); err != nil {
			return i, err
		}
	}
	return max(excess, 0), nil
}

// Latest returns the newest snapshot.
func (b *Backups) Latest() (BackupInfo, error) {
	list, err := b.List()
	if err != nil {
		return BackupInfo{}, err
	}
	if len(list) == 0 {
		return BackupInfo{}, os.ErrNotExist
	}
	return list[len(list)-1], nil
}

// Restore reads the named snapshot.
func (b *Backups) Restore(name string) ([]tasks.Task, error) {
	var list []tasks.Task
	if err := b.slots.Get(name, &list); err != nil {
		if errors.Is(err, slotstore.ErrSlotNotFound) {
			return nil, fmt.Errorf("backup %s: %w", name, os.ErrNotExist)
		}
		return nil, err
	}
	return list, nil
}

// Job returns a scheduler job body that snapshots store and announces the
// snapshot on bus. bus may be nil.
func (b *Backups) Job(store *tasks.Store, bus *events.Bus) func(context.Context) error {
	return func(_ context.Context) error {
		list := store.Snapshot()
		info, err := b.Create(list)
		if err != nil {
			return err
		}
		if bus != nil {
			bus.Publish(events.NewTypedEvent(events.SourceScheduler, events.BackupCreatedPayload{
				Path:  info.Path,
				Tasks: len(list),
			}))
		}
		return nil
	}
}
