package gateway

import (
	"context"

	"github.com/dohr-michael/dayplanner/internal/calendar"
	"github.com/dohr-michael/dayplanner/internal/gateway/ws"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// WSTaskHandler implements ws.TaskHandler on top of the task store.
type WSTaskHandler struct {
	store *tasks.Store
}

// NewWSTaskHandler creates a new WS task handler.
func NewWSTaskHandler(store *tasks.Store) *WSTaskHandler {
	return &WSTaskHandler{store: store}
}

// List returns the tasks matching params, ordered by start.
func (h *WSTaskHandler) List(_ context.Context, params ws.ListParams) (any, error) {
	filter, err := tasks.ParseListFilter(h.store, params.Status, params.Day, "")
	if err != nil {
		return nil, err
	}
	return h.store.List(filter), nil
}

// Complete marks a task done.
func (h *WSTaskHandler) Complete(ctx context.Context, id string) (any, error) {
	return h.store.Complete(ctx, id)
}

// Reopen marks a task pending again.
func (h *WSTaskHandler) Reopen(ctx context.Context, id string) (any, error) {
	return h.store.Reopen(ctx, id)
}

// Move reschedules a task onto another day at the same time of day.
func (h *WSTaskHandler) Move(ctx context.Context, id, day string) (any, error) {
	d, err := calendar.ResolveDay(day, h.store.Now(), h.store.Location())
	if err != nil {
		return nil, err
	}
	return tasks.MoveToDay(ctx, h.store, id, d)
}

// Delete removes a task.
func (h *WSTaskHandler) Delete(ctx context.Context, id string) (any, error) {
	return h.store.Delete(ctx, id)
}
