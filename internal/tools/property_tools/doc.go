// Package property_tools implements the MCP tools for property listings:
// listing enumeration, single-property lookup, and availability checks.
package property_tools
