// Package storage provides the persistence adapters for the task collection
// and the files that surround it: journal, backups and export formats.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dohr-michael/dayplanner/internal/config"
	"github.com/dohr-michael/dayplanner/internal/storage/slotstore"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// TasksSlot is the slot holding the task array.
const TasksSlot = "tasks"

// Backend is a tasks.Persister that owns resources. Backends report a
// version so stores in different processes notice each other's saves.
type Backend interface {
	tasks.Persister
	tasks.Versioner
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "json":
		return NewJSONPersister(cfg.Path), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// JSONPersister stores the whole collection as one JSON array in a slot.
type JSONPersister struct {
	slots *slotstore.Store
}

// NewJSONPersister creates a persister writing to the slot directory dir.
func NewJSONPersister(dir string) *JSONPersister {
	return &JSONPersister{slots: slotstore.New(dir)}
}

// Load returns the stored tasks, or none if nothing was saved yet.
func (p *JSONPersister) Load(_ context.Context) ([]tasks.Task, error) {
	var list []tasks.Task
	if err := p.slots.Get(TasksSlot, &list); err != nil {
		if errors.Is(err, slotstore.ErrSlotNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

// Save replaces the stored array with list.
func (p *JSONPersister) Save(_ context.Context, list []tasks.Task) error {
	if list == nil {
		list = []tasks.Task{}
	}
	return p.slots.Set(TasksSlot, list)
}

// Version identifies the stored array by content, so a save by another
// process is noticed.
func (p *JSONPersister) Version(_ context.Context) (string, error) {
	return p.slots.Digest(TasksSlot)
}

// Close is a no-op.
func (p *JSONPersister) Close() error { return nil }
