package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/calendar"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// NewAddCommand returns the add subcommand.
func NewAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Plan a new task",
		ArgsUsage: "<title...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "Start time (HH:MM, \"YYYY-MM-DD HH:MM\" or RFC 3339)"},
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "End time; defaults to start + duration"},
			&cli.StringFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Duration such as 45m (default from config)"},
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "low, medium or high"},
			&cli.StringFlag{Name: "day", Usage: "Day for HH:MM times: YYYY-MM-DD, today, tomorrow"},
			&cli.StringFlag{Name: "after", Aliases: []string{"a"}, Usage: "Start when this task ends"},
			&cli.StringFlag{Name: "description", Usage: "Notes"},
		},
		Action: withPlanner(runAdd),
	}
}

func runAdd(ctx context.Context, cmd *cli.Command, p *planner) error {
	args, err := requireArgs(cmd, 1)
	if err != nil {
		return err
	}
	draft, err := tasks.ResolveDraft(p.store, tasks.DraftInput{
		Title:       strings.Join(args, " "),
		Description: cmd.String("description"),
		Start:       cmd.String("start"),
		End:         cmd.String("end"),
		Duration:    cmd.String("duration"),
		Priority:    cmd.String("priority"),
		Day:         cmd.String("day"),
		After:       cmd.String("after"),
	}, p.defaults())
	if err != nil {
		return err
	}

	t, err := p.store.Create(ctx, draft)
	if err != nil {
		return describe(err)
	}
	printResult(cmd, "Added", t, p.store.Location())
	return nil
}

// describe adds a hint to policy errors shown on the terminal.
func describe(err error) error {
	switch {
	case errors.Is(err, tasks.ErrSlotOverlap):
		return fmt.Errorf("%w (use `dayplanner list --day` to see the day)", err)
	case errors.Is(err, tasks.ErrInvalidInterval):
		return fmt.Errorf("%w (check --start and --end)", err)
	}
	return err
}

// NewListCommand returns the list subcommand.
func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List tasks ordered by start time",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Usage: "Only this day: YYYY-MM-DD, today, tomorrow"},
			&cli.StringFlag{Name: "status", Usage: "all, pending or completed"},
			&cli.StringFlag{Name: "priority", Usage: "low, medium or high"},
			jsonFlag(),
		},
		Action: withPlanner(runList),
	}
}

func runList(_ context.Context, cmd *cli.Command, p *planner) error {
	filter, err := tasks.ParseListFilter(p.store, cmd.String("status"), cmd.String("day"), cmd.String("priority"))
	if err != nil {
		return err
	}
	list := p.store.List(filter)
	if cmd.Bool("json") {
		return printJSON(stdout(cmd), list)
	}
	return printTasks(stdout(cmd), list, p.store.Location())
}

// NewShowCommand returns the show subcommand.
func NewShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show task details",
		ArgsUsage: "<task_id>",
		Flags:     []cli.Flag{jsonFlag()},
		Action: withPlanner(func(_ context.Context, cmd *cli.Command, p *planner) error {
			args, err := requireArgs(cmd, 1)
			if err != nil {
				return err
			}
			t, err := p.store.Get(args[0])
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(stdout(cmd), t)
			}
			printTask(stdout(cmd), t, p.store.Location())
			return nil
		}),
	}
}

// NewEditCommand returns the edit subcommand.
func NewEditCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change fields of a task",
		ArgsUsage: "<task_id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "description", Usage: "New notes"},
			&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Usage: "New start; keeps the duration unless --end is set"},
			&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Usage: "New end"},
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "low, medium or high"},
		},
		Action: withPlanner(runEdit),
	}
}

func runEdit(ctx context.Context, cmd *cli.Command, p *planner) error {
	args, err := requireArgs(cmd, 1)
	if err != nil {
		return err
	}

	var patch tasks.Patch
	set := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}
	patch.Title = set("title")
	patch.Description = set("description")
	patch.Start = set("start")
	patch.End = set("end")
	patch.Priority = set("priority")
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change: pass at least one of --title, --description, --start, --end, --priority")
	}

	t, err := patch.Apply(ctx, p.store, args[0])
	if err != nil {
		return describe(err)
	}
	printResult(cmd, "Updated", t, p.store.Location())
	return nil
}

// eachID applies op to every id argument and reports each result. It stops
// at the first failure.
func eachID(verb string, op func(ctx context.Context, p *planner, id string) (tasks.Task, error)) cli.ActionFunc {
	return withPlanner(func(ctx context.Context, cmd *cli.Command, p *planner) error {
		ids, err := requireArgs(cmd, 1)
		if err != nil {
			return err
		}
		for _, id := range ids {
			t, err := op(ctx, p, id)
			if err != nil {
				return err
			}
			printResult(cmd, verb, t, p.store.Location())
		}
		return nil
	})
}

// NewDoneCommand returns the done subcommand.
func NewDoneCommand() *cli.Command {
	return &cli.Command{
		Name:      "done",
		Usage:     "Mark tasks as completed",
		ArgsUsage: "<task_id...>",
		Action: eachID("Completed", func(ctx context.Context, p *planner, id string) (tasks.Task, error) {
			return p.store.Complete(ctx, id)
		}),
	}
}

// NewReopenCommand returns the reopen subcommand.
func NewReopenCommand() *cli.Command {
	return &cli.Command{
		Name:      "reopen",
		Usage:     "Mark tasks as pending again",
		ArgsUsage: "<task_id...>",
		Action: eachID("Reopened", func(ctx context.Context, p *planner, id string) (tasks.Task, error) {
			return p.store.Reopen(ctx, id)
		}),
	}
}

// NewDeleteCommand returns the delete subcommand.
func NewDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete tasks",
		ArgsUsage: "<task_id...>",
		Action: eachID("Deleted", func(ctx context.Context, p *planner, id string) (tasks.Task, error) {
			return p.store.Delete(ctx, id)
		}),
	}
}

// NewRescheduleCommand returns the reschedule subcommand.
func NewRescheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "reschedule",
		Usage:     "Move a task to a new slot; without <end> the duration is kept",
		ArgsUsage: "<task_id> <start> [end]",
		Action: withPlanner(func(ctx context.Context, cmd *cli.Command, p *planner) error {
			args, err := requireArgs(cmd, 2)
			if err != nil {
				return err
			}
			patch := tasks.Patch{Start: &args[1]}
			if len(args) > 2 {
				patch.End = &args[2]
			}
			t, err := patch.Apply(ctx, p.store, args[0])
			if err != nil {
				return describe(err)
			}
			printResult(cmd, "Rescheduled", t, p.store.Location())
			return nil
		}),
	}
}

// NewMoveCommand returns the move subcommand.
func NewMoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a task to another day at the same time",
		ArgsUsage: "<task_id> <day>",
		Action: withPlanner(func(ctx context.Context, cmd *cli.Command, p *planner) error {
			args, err := requireArgs(cmd, 2)
			if err != nil {
				return err
			}
			day, err := calendar.ResolveDay(args[1], p.store.Now(), p.store.Location())
			if err != nil {
				return err
			}
			t, err := tasks.MoveToDay(ctx, p.store, args[0], day)
			if err != nil {
				return describe(err)
			}
			printResult(cmd, "Moved", t, p.store.Location())
			return nil
		}),
	}
}
