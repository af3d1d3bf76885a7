package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/dayplanner/internal/events"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// NewMCPServer creates an MCP server exposing the planner tools backed by
// store. If filter is non-empty, only the comma-separated tool names it
// lists are exposed.
func NewMCPServer(store *tasks.Store, defaults tasks.DraftDefaults, filter string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "dayplanner",
		Version: Version,
	}, nil)

	allowed := parseFilter(filter)
	for _, t := range plannerTools(store, defaults) {
		if len(allowed) > 0 && !allowed[t.spec.Name] {
			continue
		}
		server.AddTool(toMCPTool(t.spec), handler(t))
		slog.Debug("mcp tool registered", "tool", t.spec.Name)
	}

	return server
}

func handler(t tool) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		ctx = events.ContextWithSource(ctx, events.SourceMCP)
		result, err := t.run(ctx, req.Params.Arguments)
		if err != nil {
			slog.Debug("mcp tool error", "tool", t.spec.Name, "error", err)
			return errorResult(err.Error()), nil
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		}, nil
	}
}

func errorResult(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
	}
}

func parseFilter(filter string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range strings.Split(filter, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = true
		}
	}
	return out
}

// ToolNames returns the names of every planner tool.
func ToolNames() []string {
	specs := plannerTools(nil, tasks.DraftDefaults{})
	names := make([]string, len(specs))
	for i, t := range specs {
		names[i] = t.spec.Name
	}
	return names
}
