// Package reservation_tools implements the MCP tools for reservations:
// enumeration, single-reservation lookup, and reservation creation with
// optional inline guest creation.
package reservation_tools
