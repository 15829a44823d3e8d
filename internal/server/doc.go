// Package server implements the MCP (Model Context Protocol) server for sky-map
// analysis tools.
//
// This package provides a JSON-RPC 2.0 server that exposes dipole detection
// capabilities through the MCP protocol. It's designed to work with Claude and
// other MCP-compatible clients, enabling AI systems to inspect simulated sky
// maps with precision.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// The server provides 6 sky-map tools:
//
// Map Operations:
//   - map_load: Load a .npy sky map and get its metadata and statistics
//   - map_filter: Run the dipole filter cascade and store the result as a variant
//   - map_render: Render a map variant as a base64 PNG, optionally with peak markers
//
// Detection Operations:
//   - dipoles_detect: Run the full detection pipeline and return the peak table
//   - dipoles_match: Match detected peaks against a reference catalog
//   - catalog_info: Inspect a CSV catalog's columns and size
//
// # Map Caching
//
// The server maintains an in-memory cache of loaded sky maps. Maps are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O;
// filtered variants computed by map_filter stay attached to the cached map.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
