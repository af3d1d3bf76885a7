package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/dayplanner/internal/tasks"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print JSON instead of a table",
	}
}

// stdout returns the root command's writer.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// titleWidth bounds the title column to the terminal width, or 0 for no
// limit when stdout is not a terminal.
func titleWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	// ID, DAY, TIME, PRIORITY and STATUS take about 60 columns.
	if width-60 < 20 {
		return 20
	}
	return width - 60
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func statusLabel(t tasks.Task) string {
	if t.Completed {
		return "done"
	}
	return "pending"
}

func printTasks(w io.Writer, list []tasks.Task, loc *time.Location) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return nil
	}

	width := titleWidth(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDAY\tTIME\tPRIORITY\tSTATUS\tTITLE")
	for _, t := range list {
		start, end := t.Start.In(loc), t.End.In(loc)
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\n",
			t.ID,
			start.Format("Mon 2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			t.Priority,
			statusLabel(t),
			truncate(t.Title, width),
		)
	}
	return tw.Flush()
}

func printTask(w io.Writer, t tasks.Task, loc *time.Location) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Start:       %s\n", t.Start.In(loc).Format("Mon 2006-01-02 15:04"))
	fmt.Fprintf(w, "End:         %s\n", t.End.In(loc).Format("Mon 2006-01-02 15:04"))
	fmt.Fprintf(w, "Duration:    %s\n", t.Duration())
	fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
	fmt.Fprintf(w, "Status:      %s\n", statusLabel(t))
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "Completed:   %s\n", t.CompletedAt.In(loc).Format("2006-01-02 15:04:05"))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\nDescription:\n%s\n", t.Description)
	}
}

func printResult(cmd *cli.Command, verb string, t tasks.Task, loc *time.Location) {
	fmt.Fprintf(stdout(cmd), "%s %s %q (%s %s-%s)\n", verb, t.ID, t.Title,
		t.Start.In(loc).Format("Mon 2006-01-02"),
		t.Start.In(loc).Format("15:04"),
		t.End.In(loc).Format("15:04"))
}
