package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/storage"
)

func formatFor(cmd *cli.Command, path string) (storage.Format, error) {
	if cmd.IsSet("format") {
		return storage.ParseFormat(cmd.String("format"))
	}
	if path == "" || path == "-" {
		return storage.FormatJSON, nil
	}
	return storage.FormatFromPath(path), nil
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "json or yaml (default from the file extension)",
	}
}

// NewExportCommand returns the export subcommand.
func NewExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write every task to a JSON or YAML document",
		ArgsUsage: "[file]",
		Flags:     []cli.Flag{formatFlag()},
		Action: withPlanner(func(_ context.Context, cmd *cli.Command, p *planner) error {
			path := cmd.Args().First()
			format, err := formatFor(cmd, path)
			if err != nil {
				return err
			}

			var w io.Writer = stdout(cmd)
			if path != "" && path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			list := p.store.Snapshot()
			if err := storage.Encode(w, format, list, p.store.Now()); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if path != "" && path != "-" {
				fmt.Fprintf(stdout(cmd), "Exported %d task(s) to %s.\n", len(list), path)
			}
			return nil
		}),
	}
}

// NewImportCommand returns the import subcommand.
func NewImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace every task with the contents of a JSON or YAML document",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{formatFlag()},
		Action: withPlanner(func(ctx context.Context, cmd *cli.Command, p *planner) error {
			args, err := requireArgs(cmd, 1)
			if err != nil {
				return err
			}
			format, err := formatFor(cmd, args[0])
			if err != nil {
				return err
			}

			var r io.Reader = cmd.Root().Reader
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			if r == nil {
				r = os.Stdin
			}

			list, err := storage.Decode(r, format)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if err := p.store.Replace(ctx, list); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Fprintf(stdout(cmd), "Imported %d task(s).\n", len(list))
			return nil
		}),
	}
}

// NewBackupCommand returns the backup subcommand.
func NewBackupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Manage task snapshots",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List snapshots, oldest first",
				Action: withPlanner(func(_ context.Context, cmd *cli.Command, p *planner) error {
					list, err := backupsFor(p).List()
					if err != nil {
						return err
					}
					if len(list) == 0 {
						fmt.Fprintln(stdout(cmd), "No backups found.")
						return nil
					}
					w := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "NAME\tCREATED")
					for _, b := range list {
						fmt.Fprintf(w, "%s\t%s\n", b.Name, b.CreatedAt.In(p.store.Location()).Format("2006-01-02 15:04:05"))
					}
					return w.Flush()
				}),
			},
			{
				Name:  "create",
				Usage: "Snapshot the current tasks",
				Action: withPlanner(func(_ context.Context, cmd *cli.Command, p *planner) error {
					info, err := backupsFor(p).Create(p.store.Snapshot())
					if err != nil {
						return err
					}
					fmt.Fprintf(stdout(cmd), "Saved backup %s (%d task(s)).\n", info.Name, p.store.Len())
					return nil
				}),
			},
			{
				Name:      "restore",
				Usage:     "Replace every task with a snapshot (default: the latest)",
				ArgsUsage: "[name]",
				Action: withPlanner(func(ctx context.Context, cmd *cli.Command, p *planner) error {
					b := backupsFor(p)
					name := cmd.Args().First()
					if name == "" {
						latest, err := b.Latest()
						if err != nil {
							return fmt.Errorf("no backup to restore: %w", err)
						}
						name = latest.Name
					}
					list, err := b.Restore(name)
					if err != nil {
						return err
					}
					if err := p.store.Replace(ctx, list); err != nil {
						return fmt.Errorf("restore %s: %w", name, err)
					}
					fmt.Fprintf(stdout(cmd), "Restored %d task(s) from %s.\n", len(list), name)
					return nil
				}),
			},
		},
		DefaultCommand: "list",
	}
}

func backupsFor(p *planner) *storage.Backups {
	return storage.NewBackups(p.cfg.Backup.Dir, p.cfg.Backup.Keep)
}
