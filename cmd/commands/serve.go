package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/config"
	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/gateway"
	"github.com/dohr-michael/dayplanner/internal/heartbeat"
	"github.com/dohr-michael/dayplanner/internal/scheduler"
)

// syncInterval is how often serve picks up saves made by CLI commands.
const syncInterval = 2 * time.Second

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the planner gateway (HTTP + WebSocket) with scheduled backups",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	p, err := openPlanner(ctx, cmd)
	if err != nil {
		return err
	}
	defer p.Close()
	cfg := p.cfg

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	server := gateway.NewServer(gateway.Config{
		Store:    p.store,
		Bus:      p.bus,
		Host:     cfg.Gateway.Host,
		Port:     cfg.Gateway.Port,
		Defaults: p.defaults(),
	})
	addr, err := server.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	hb := heartbeat.NewWriter(config.HeartbeatPath(), heartbeat.Options{
		Addr:    addr,
		Storage: cfg.Storage.Driver,
		Tasks:   p.store.Len,
	})
	hb.Start()
	defer hb.Stop()

	sched := scheduler.New(scheduler.Config{Bus: p.bus})
	if !cfg.Backup.Disabled {
		if err := addBackupJobs(sched, p); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	reloader := config.NewReloader(cmd.String("config"), config.DotenvPath(), cfg)
	reloader.OnReload(func(c *config.Config) {
		if !cmd.Bool("debug") {
			logLevel.Set(c.Logging.SlogLevel())
		}
	})
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	syncTicker := time.NewTicker(syncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-syncTicker.C:
			if _, err := p.store.Sync(ctx); err != nil {
				slog.Warn("task sync failed", "error", err)
			}
		case <-hup:
			if err := reloader.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	}
}

// addBackupJobs snapshots the tasks on the configured cron schedule and
// after a day is marked completed.
func addBackupJobs(sched *scheduler.Scheduler, p *planner) error {
	backups := backupsFor(p)
	if err := sched.AddJob(scheduler.Job{
		Name: "backup",
		Cron: p.cfg.Backup.Cron,
		Run:  backups.Job(p.store, p.bus),
	}); err != nil {
		return fmt.Errorf("backup.cron: %w", err)
	}
	return sched.AddJob(scheduler.Job{
		Name:     "backup-day-completed",
		OnEvent:  &scheduler.EventTrigger{Event: events.EventDayCompleted},
		Cooldown: time.Minute,
		Run:      backups.Job(p.store, p.bus),
	})
}
