package message_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hostbridge/hostbridge/internal/server"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

// RegisterMessageTools registers guest messaging tools with the MCP server.
// send_guest_message writes upstream state and is only registered when
// readOnly is false.
func RegisterMessageTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getGuestMessagesTool := mcp.NewTool("get_guest_messages",
		mcp.WithDescription("List the message history for a reservation"),
		mcp.WithString("reservation_id",
			mcp.Required(),
			mcp.Description("The ID of the reservation whose communications to fetch"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return"),
		),
	)
	s.AddTool(getGuestMessagesTool, common.InstrumentedToolHandler("get_guest_messages", sc, common.MCPHandler(sc, GetGuestMessages)))

	if readOnly {
		return nil
	}

	sendGuestMessageTool := mcp.NewTool("send_guest_message",
		mcp.WithDescription("Send a message to the guest linked to a reservation"),
		mcp.WithString("reservation_id",
			mcp.Required(),
			mcp.Description("The ID of the reservation whose guest receives the message"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message body, must not be blank"),
		),
		mcp.WithString("subject",
			mcp.Description("Message subject (defaults to a generic subject)"),
		),
	)
	s.AddTool(sendGuestMessageTool, common.InstrumentedToolHandler("send_guest_message", sc, common.MCPHandler(sc, SendGuestMessage)))

	return nil
}
