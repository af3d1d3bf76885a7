package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/config"
	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/storage"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// logLevel is shared by every handler so serve can change it on reload.
var logLevel = new(slog.LevelVar)

// setupLogging installs a text handler on w. --debug wins over the config.
func setupLogging(cmd *cli.Command, cfg *config.Config, w io.Writer) {
	level := cfg.Logging.SlogLevel()
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	logLevel.Set(level)
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// planner bundles the pieces every task command needs.
type planner struct {
	cfg     *config.Config
	bus     *events.Bus
	backend storage.Backend
	store   *tasks.Store
	journal *storage.Journal
}

// openPlanner loads the config, opens storage and loads the task collection.
// Mutations made through it are journaled like the server's.
func openPlanner(ctx context.Context, cmd *cli.Command) (*planner, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	setupLogging(cmd, cfg, os.Stderr)

	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	backups := storage.NewBackups(cfg.Backup.Dir, cfg.Backup.Keep)
	store := tasks.NewStore(tasks.StoreConfig{
		Persister: backend,
		Bus:       bus,
		Location:  loc,
		OnDiscard: func(discarded []tasks.Task) {
			path, err := backups.Quarantine(discarded)
			if err != nil {
				slog.Error("could not keep invalid stored tasks", "count", len(discarded), "error", err)
				return
			}
			slog.Warn("invalid stored tasks moved aside", "count", len(discarded), "path", path)
		},
	})
	skipped, err := store.Load(ctx)
	if err != nil {
		bus.Close()
		backend.Close()
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if skipped > 0 {
		slog.Warn("skipped invalid stored tasks", "count", skipped)
	}

	return &planner{
		cfg:     cfg,
		bus:     bus,
		backend: backend,
		store:   store,
		journal: storage.NewJournal(config.DataPath(), bus),
	}, nil
}

// Close drains pending events into the journal and releases storage.
func (p *planner) Close() {
	p.bus.Close()
	p.journal.Close()
	if err := p.backend.Close(); err != nil {
		slog.Warn("close storage", "error", err)
	}
}

func (p *planner) defaults() tasks.DraftDefaults {
	return tasks.DraftDefaults{
		Duration: p.cfg.Calendar.DefaultDuration.Duration(),
		Priority: tasks.TaskPriority(p.cfg.Calendar.DefaultPriority),
	}
}

// withPlanner runs fn with an open planner and a CLI-sourced context.
func withPlanner(fn func(ctx context.Context, cmd *cli.Command, p *planner) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		p, err := openPlanner(ctx, cmd)
		if err != nil {
			return err
		}
		defer p.Close()
		return fn(events.ContextWithSource(ctx, events.SourceCLI), cmd, p)
	}
}

// requireArgs returns the first n positional args or a usage error.
func requireArgs(cmd *cli.Command, n int) ([]string, error) {
	if cmd.NArg() < n {
		return nil, fmt.Errorf("usage: dayplanner %s %s", cmd.Name, cmd.ArgsUsage)
	}
	return cmd.Args().Slice(), nil
}
