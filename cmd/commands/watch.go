package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/dayplanner/clients/ws"
	"github.com/dohr-michael/dayplanner/internal/config"
	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/gateway/ws"
	"github.com/dohr-michael/dayplanner/internal/heartbeat"
)

// NewWatchCommand returns the watch subcommand.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream live planner events from a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "WebSocket URL (default from the server heartbeat or config)",
			},
		},
		Action: runWatch,
	}
}

func watchURL(cmd *cli.Command) (string, error) {
	if cmd.IsSet("url") {
		return cmd.String("url"), nil
	}
	if status, hb, err := heartbeat.Check(config.HeartbeatPath(), 2*time.Minute); err == nil && status == heartbeat.StatusAlive && hb.Addr != "" {
		return "ws://" + hb.Addr + "/api/ws", nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return "ws://" + cfg.Gateway.Addr() + "/api/ws", nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	url, err := watchURL(cmd)
	if err != nil {
		return err
	}
	client, err := wsclient.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	w := stdout(cmd)
	fmt.Fprintf(w, "Watching %s (Ctrl-C to stop)\n", url)
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) != -1 {
				return nil
			}
			return err
		}
		if frame.Type != ws.FrameTypeEvent {
			continue
		}
		var e events.Event
		if err := json.Unmarshal(frame.Payload, &e); err != nil {
			return fmt.Errorf("decode event frame: %w", err)
		}
		fmt.Fprintf(w, "%s  %-17s %-9s %s\n",
			e.Timestamp.Local().Format("15:04:05"), e.Type, e.Source, eventSubject(e))
	}
}
