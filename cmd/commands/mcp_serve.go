package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplanner/internal/events"
	plannermcp "github.com/dohr-michael/dayplanner/internal/mcp"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-serve",
		Usage: "Expose planner tools as an MCP server (stdio)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "filter",
				UsageText: "Comma-separated tool names to expose (empty = all)",
			},
		},
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	p, err := openPlanner(ctx, cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	// stdout carries the MCP stdio transport; keep logs quiet on stderr.
	if !cmd.Bool("debug") {
		logLevel.Set(slog.LevelWarn)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	filter := cmd.StringArg("filter")
	slog.Debug("starting MCP server", "filter", filter, "tools", len(plannermcp.ToolNames()))

	server := plannermcp.NewMCPServer(p.store, p.defaults(), filter)
	return server.Run(events.ContextWithSource(ctx, events.SourceMCP), &mcpsdk.StdioTransport{})
}
