// Package message_tools implements the MCP tools for guest communication:
// sending a message to a reservation's guest and reading the message
// history of a reservation.
package message_tools
