package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "dayplanner",
		Usage: "Plan your days in non-overlapping time slots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewAddCommand(),
			NewListCommand(),
			NewShowCommand(),
			NewEditCommand(),
			NewDoneCommand(),
			NewReopenCommand(),
			NewDeleteCommand(),
			NewRescheduleCommand(),
			NewMoveCommand(),
			NewCompleteDayCommand(),
			NewClearDayCommand(),
			NewExportCommand(),
			NewImportCommand(),
			NewBackupCommand(),
			NewHistoryCommand(),
			NewServeCommand(),
			NewStatusCommand(),
			NewWatchCommand(),
			NewMCPServeCommand(),
		},
	}
}
