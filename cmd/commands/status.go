package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/config"
	"github.com/dohr-michael/dayplanner/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show planner server status",
		Action: func(_ context.Context, cmd *cli.Command) error {
			status, hb, err := heartbeat.Check(config.HeartbeatPath(), 2*time.Minute)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}

			w := stdout(cmd)
			switch status {
			case heartbeat.StatusAlive:
				fmt.Fprintf(w, "Server: ALIVE (PID %d, uptime %s)\n", hb.PID, hb.Uptime)
				fmt.Fprintf(w, "Address: http://%s\n", hb.Addr)
				fmt.Fprintf(w, "Storage: %s, %d task(s)\n", hb.Storage, hb.Tasks)
			case heartbeat.StatusStale:
				fmt.Fprintf(w, "Server: STALE (PID %d, last heartbeat %s ago)\n",
					hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
			case heartbeat.StatusDead:
				fmt.Fprintln(w, "Server: NOT RUNNING")
			}

			return nil
		},
	}
}
