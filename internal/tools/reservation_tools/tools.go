package reservation_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hostbridge/hostbridge/internal/server"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

// RegisterReservationTools registers all reservation-related tools with the
// MCP server. create_reservation writes upstream state and is only registered
// when readOnly is false.
func RegisterReservationTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listReservationsTool := mcp.NewTool("list_reservations",
		mcp.WithDescription("List reservations with optional pagination and field filters"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of reservations per page (defaults to 100)"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Number of reservations to skip before the first result"),
		),
		mcp.WithString("filters",
			mcp.Description("JSON-encoded filter object applied upstream"),
		),
	)
	s.AddTool(listReservationsTool, common.InstrumentedToolHandler("list_reservations", sc, common.MCPHandler(sc, ListReservations)))

	getReservationTool := mcp.NewTool("get_reservation",
		mcp.WithDescription("Get details of a single reservation"),
		mcp.WithString("reservation_id",
			mcp.Required(),
			mcp.Description("The ID of the reservation to retrieve"),
		),
		mcp.WithString("fields",
			mcp.Description("Space-separated projection of reservation fields to return"),
		),
	)
	s.AddTool(getReservationTool, common.InstrumentedToolHandler("get_reservation", sc, common.MCPHandler(sc, GetReservation)))

	if readOnly {
		return nil
	}

	createReservationTool := mcp.NewTool("create_reservation",
		mcp.WithDescription("Create a reservation for a listing, optionally creating the guest first"),
		mcp.WithString("listing_id",
			mcp.Required(),
			mcp.Description("The ID of the listing to book"),
		),
		mcp.WithString("check_in",
			mcp.Required(),
			mcp.Description("Check-in date in YYYY-MM-DD format"),
		),
		mcp.WithString("check_out",
			mcp.Required(),
			mcp.Description("Check-out date in YYYY-MM-DD format, must be after check_in"),
		),
		mcp.WithString("status",
			mcp.Description("Initial reservation status: inquiry, pending, confirmed or canceled (defaults to inquiry)"),
		),
		mcp.WithString("guest_id",
			mcp.Description("Existing guest to attach; required unless guest_data is given"),
		),
		mcp.WithObject("guest_data",
			mcp.Description("New guest profile to create when no guest_id exists"),
		),
	)
	s.AddTool(createReservationTool, common.InstrumentedToolHandler("create_reservation", sc, common.MCPHandler(sc, CreateReservation)))

	return nil
}
