package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/dayplanner/internal/calendar"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// stdinIsTerminal is swapped in tests.
var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func dayArg(cmd *cli.Command, p *planner) (calendar.Day, error) {
	return calendar.ResolveDay(cmd.Args().First(), p.store.Now(), p.store.Location())
}

// NewCompleteDayCommand returns the complete-day subcommand.
func NewCompleteDayCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete-day",
		Usage:     "Mark every task of a day as completed",
		ArgsUsage: "[day]",
		Action: withPlanner(func(ctx context.Context, cmd *cli.Command, p *planner) error {
			day, err := dayArg(cmd, p)
			if err != nil {
				return err
			}
			changed, err := p.store.CompleteAllOnDay(ctx, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "Completed %d task(s) on %s.\n", len(changed), day)
			return nil
		}),
	}
}

// NewClearDayCommand returns the clear-day subcommand.
func NewClearDayCommand() *cli.Command {
	return &cli.Command{
		Name:      "clear-day",
		Usage:     "Delete every task of a day",
		ArgsUsage: "[day]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
		},
		Action: withPlanner(runClearDay),
	}
}

func runClearDay(ctx context.Context, cmd *cli.Command, p *planner) error {
	day, err := dayArg(cmd, p)
	if err != nil {
		return err
	}
	f := tasks.ListFilter{Day: &day}
	doomed := p.store.List(f)
	if len(doomed) == 0 {
		fmt.Fprintf(stdout(cmd), "No tasks on %s.\n", day)
		return nil
	}

	if !cmd.Bool("yes") {
		if !stdinIsTerminal() {
			return fmt.Errorf("refusing to clear %d task(s) on %s without --yes", len(doomed), day)
		}
		ok, err := confirm(cmd.Root().Reader, stdout(cmd),
			fmt.Sprintf("Delete %d task(s) on %s?", len(doomed), day))
		if err != nil || !ok {
			fmt.Fprintln(stdout(cmd), "Aborted.")
			return err
		}
	}

	if !p.cfg.Backup.Disabled {
		info, err := backupsFor(p).Create(p.store.Snapshot())
		if err != nil {
			return fmt.Errorf("backup before clear: %w", err)
		}
		fmt.Fprintf(stdout(cmd), "Saved backup %s.\n", info.Name)
	}

	removed, err := p.store.ClearDay(ctx, day)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "Deleted %d task(s) on %s.\n", len(removed), day)
	return nil
}

// confirm asks a yes/no question on w and reads the answer from r.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	if r == nil {
		r = os.Stdin
	}
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
