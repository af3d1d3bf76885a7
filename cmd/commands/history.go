package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/config"
	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/storage"
)

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show journaled task and day events",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "task", Usage: "Only events about this task id"},
			&cli.StringFlag{Name: "type", Usage: "Only event types with this prefix, e.g. day. or task.completed"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of recent events", Value: 20},
			jsonFlag(),
		},
		Action: runHistory,
	}
}

func runHistory(_ context.Context, cmd *cli.Command) error {
	list, err := storage.ReadJournal(config.DataPath(), storage.JournalQuery{
		TaskID: cmd.String("task"),
		Prefix: cmd.String("type"),
		Limit:  cmd.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if cmd.Bool("json") {
		if list == nil {
			list = []events.Event{}
		}
		return printJSON(stdout(cmd), list)
	}
	if len(list) == 0 {
		fmt.Fprintln(stdout(cmd), "No history found.")
		return nil
	}

	w := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tSOURCE\tSUBJECT")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Type, e.Source, eventSubject(e))
	}
	return w.Flush()
}

// eventSubject summarizes what an event is about in one short string.
func eventSubject(e events.Event) string {
	if id := events.TaskID(e); id != "" {
		title, _ := e.Payload["title"].(string)
		return fmt.Sprintf("%s %q", id, title)
	}
	if day, ok := e.Payload["day"].(string); ok {
		ids, _ := e.Payload["task_ids"].([]any)
		return fmt.Sprintf("%s (%d task(s))", day, len(ids))
	}
	if path, ok := e.Payload["path"].(string); ok {
		return path
	}
	return "-"
}
