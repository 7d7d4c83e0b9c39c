package property_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hostbridge/hostbridge/internal/server"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

// RegisterPropertyTools registers all property-related tools with the MCP
// server. Property tools are read-only and always available.
func RegisterPropertyTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listPropertiesTool := mcp.NewTool("list_properties",
		mcp.WithDescription("List property listings with optional pagination and field filters"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of listings per page (defaults to 100)"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of listings to skip before the first result"),
		),
		mcp.WithString("filters",
			mcp.Description("JSON-encoded filter object applied upstream"),
		),
	)
	s.AddTool(listPropertiesTool, common.InstrumentedToolHandler("list_properties", sc, common.MCPHandler(sc, ListProperties)))

	getPropertyTool := mcp.NewTool("get_property",
		mcp.WithDescription("Get details of a single property listing"),
		mcp.WithString("property_id",
			mcp.Required(),
			mcp.Description("The ID of the listing to retrieve"),
		),
		mcp.WithString("fields",
			mcp.Description("Space-separated projection of listing fields to return"),
		),
	)
	s.AddTool(getPropertyTool, common.InstrumentedToolHandler("get_property", sc, common.MCPHandler(sc, GetProperty)))

	checkAvailabilityTool := mcp.NewTool("check_availability",
		mcp.WithDescription("Check which properties are available for a date range"),
		mcp.WithString("check_in",
			mcp.Required(),
			mcp.Description("Check-in date in YYYY-MM-DD format"),
		),
		mcp.WithString("check_out",
			mcp.Required(),
			mcp.Description("Check-out date in YYYY-MM-DD format, must be after check_in"),
		),
		mcp.WithString("property_id",
			mcp.Description("Restrict the check to a single listing"),
		),
		mcp.WithNumber("min_occupancy",
			mcp.Description("Minimum guest capacity required"),
		),
	)
	s.AddTool(checkAvailabilityTool, common.InstrumentedToolHandler("check_availability", sc, common.MCPHandler(sc, CheckAvailability)))

	return nil
}
