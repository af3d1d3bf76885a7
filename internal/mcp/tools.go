package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dohr-michael/dayplanner/internal/calendar"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// tool is a ToolSpec bound to its implementation. run receives the raw JSON
// arguments and returns a value to be rendered as JSON text.
type tool struct {
	spec ToolSpec
	run  func(ctx context.Context, args json.RawMessage) (any, error)
}

var (
	idParam  = ParamSpec{Type: "string", Description: "Task id", Required: true}
	dayDesc  = "Day as YYYY-MM-DD, today, tomorrow or yesterday"
	timeDesc = "RFC 3339, \"YYYY-MM-DD HH:MM\" or \"HH:MM\""
)

type idArgs struct {
	ID string `json:"id"`
}

type listArgs struct {
	Status   string `json:"status"`
	Day      string `json:"day"`
	Priority string `json:"priority"`
}

type updateArgs struct {
	ID string `json:"id"`
	tasks.Patch
}

type rescheduleArgs struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type moveArgs struct {
	ID  string `json:"id"`
	Day string `json:"day"`
}

type dayArgs struct {
	Day string `json:"day"`
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// plannerTools returns every tool backed by store.
func plannerTools(store *tasks.Store, defaults tasks.DraftDefaults) []tool {
	resolveDay := func(s string) (calendar.Day, error) {
		return calendar.ResolveDay(s, store.Now(), store.Location())
	}
	withID := func(fn func(ctx context.Context, id string) (tasks.Task, error)) func(context.Context, json.RawMessage) (any, error) {
		return func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args idArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.ID == "" {
				return nil, fmt.Errorf("id is required")
			}
			return fn(ctx, args.ID)
		}
	}

	return []tool{
		{
			spec: ToolSpec{
				Name:        "list_tasks",
				Description: "List planned tasks ordered by start time.",
				Parameters: map[string]ParamSpec{
					"status":   {Type: "string", Description: "Completion filter", Enum: []string{"all", "pending", "completed"}},
					"day":      {Type: "string", Description: dayDesc},
					"priority": {Type: "string", Description: "Priority filter", Enum: priorityEnum()},
				},
			},
			run: func(_ context.Context, raw json.RawMessage) (any, error) {
				var args listArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				filter, err := tasks.ParseListFilter(store, args.Status, args.Day, args.Priority)
				if err != nil {
					return nil, err
				}
				return store.List(filter), nil
			},
		},
		{
			spec: ToolSpec{
				Name:        "create_task",
				Description: "Plan a new task. Fails if the slot overlaps another task.",
				Parameters: map[string]ParamSpec{
					"title":       {Type: "string", Description: "Task title", Required: true},
					"description": {Type: "string", Description: "Free-form notes"},
					"start":       {Type: "string", Description: "Start time: " + timeDesc},
					"end":         {Type: "string", Description: "End time: " + timeDesc},
					"duration":    {Type: "string", Description: "Duration such as 30m or 1h30m, used when end is omitted"},
					"priority":    {Type: "string", Description: "Task priority", Enum: priorityEnum()},
					"day":         {Type: "string", Description: "Day for bare HH:MM times. " + dayDesc},
					"after":       {Type: "string", Description: "Start where this task id ends"},
				},
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var in tasks.DraftInput
				if err := decodeArgs(raw, &in); err != nil {
					return nil, err
				}
				draft, err := tasks.ResolveDraft(store, in, defaults)
				if err != nil {
					return nil, err
				}
				return store.Create(ctx, draft)
			},
		},
		{
			spec: ToolSpec{
				Name:        "update_task",
				Description: "Edit fields of an existing task. Omitted fields are unchanged.",
				Parameters: map[string]ParamSpec{
					"id":          idParam,
					"title":       {Type: "string", Description: "New title"},
					"description": {Type: "string", Description: "New notes"},
					"start":       {Type: "string", Description: "New start; the duration is kept unless end is given. " + timeDesc},
					"end":         {Type: "string", Description: "New end: " + timeDesc},
					"priority":    {Type: "string", Description: "New priority", Enum: priorityEnum()},
					"completed":   {Type: "boolean", Description: "Completion state"},
				},
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args updateArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				if args.ID == "" {
					return nil, fmt.Errorf("id is required")
				}
				if args.Patch.IsEmpty() {
					return nil, fmt.Errorf("nothing to update")
				}
				return args.Patch.Apply(ctx, store, args.ID)
			},
		},
		{
			spec: ToolSpec{
				Name:        "complete_task",
				Description: "Mark a task as done.",
				Parameters:  map[string]ParamSpec{"id": idParam},
			},
			run: withID(store.Complete),
		},
		{
			spec: ToolSpec{
				Name:        "reopen_task",
				Description: "Mark a completed task as pending again.",
				Parameters:  map[string]ParamSpec{"id": idParam},
			},
			run: withID(store.Reopen),
		},
		{
			spec: ToolSpec{
				Name:        "delete_task",
				Description: "Remove a task from the plan.",
				Parameters:  map[string]ParamSpec{"id": idParam},
			},
			run: withID(func(ctx context.Context, id string) (tasks.Task, error) {
				return store.Delete(ctx, id)
			}),
		},
		{
			spec: ToolSpec{
				Name:        "reschedule_task",
				Description: "Move a task to a new time slot. Without end the duration is kept.",
				Parameters: map[string]ParamSpec{
					"id":    idParam,
					"start": {Type: "string", Description: "New start: " + timeDesc, Required: true},
					"end":   {Type: "string", Description: "New end: " + timeDesc},
				},
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args rescheduleArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				if args.ID == "" || args.Start == "" {
					return nil, fmt.Errorf("id and start are required")
				}
				patch := tasks.Patch{Start: &args.Start}
				if args.End != "" {
					patch.End = &args.End
				}
				return patch.Apply(ctx, store, args.ID)
			},
		},
		{
			spec: ToolSpec{
				Name:        "move_task",
				Description: "Move a task to another day at the same time of day.",
				Parameters: map[string]ParamSpec{
					"id":  idParam,
					"day": {Type: "string", Description: dayDesc, Required: true},
				},
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args moveArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				if args.ID == "" || args.Day == "" {
					return nil, fmt.Errorf("id and day are required")
				}
				day, err := resolveDay(args.Day)
				if err != nil {
					return nil, err
				}
				return tasks.MoveToDay(ctx, store, args.ID, day)
			},
		},
		{
			spec: ToolSpec{
				Name:        "complete_day",
				Description: "Mark every task starting on a day as done.",
				Parameters:  map[string]ParamSpec{"day": {Type: "string", Description: dayDesc + "; default today"}},
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args dayArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				day, err := resolveDay(args.Day)
				if err != nil {
					return nil, err
				}
				return store.CompleteAllOnDay(ctx, day)
			},
		},
		{
			spec: ToolSpec{
				Name:        "clear_day",
				Description: "Delete every task starting on a day.",
				Parameters:  map[string]ParamSpec{"day": {Type: "string", Description: dayDesc, Required: true}},
			},
			run: func(ctx context.Context, raw json.RawMessage) (any, error) {
				var args dayArgs
				if err := decodeArgs(raw, &args); err != nil {
					return nil, err
				}
				if args.Day == "" {
					return nil, fmt.Errorf("day is required")
				}
				day, err := resolveDay(args.Day)
				if err != nil {
					return nil, err
				}
				return store.ClearDay(ctx, day)
			},
		},
	}
}

func priorityEnum() []string {
	out := make([]string, len(tasks.Priorities))
	for i, p := range tasks.Priorities {
		out[i] = string(p)
	}
	return out
}
