package common

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/server"
)

// AdapterFunc is the shared shape of every tool adapter.
type AdapterFunc func(ctx context.Context, client *pms.Client, args map[string]any) (any, error)

// MCPHandler converts an upstream adapter into an MCP tool handler. Adapter
// failures become tool error results carrying the classified message, never
// Go errors, so the MCP session stays alive.
func MCPHandler(sc *server.ServerContext, adapter AdapterFunc) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		result, err := adapter(ctx, sc.Client(), args)
		if err != nil {
			return mcp.NewToolResultError(Classify(err).Message), nil
		}

		out, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	}
}
