// Package server implements the MCP (Model Context Protocol) server for the
// listing photo enhancer.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - photo_enhance: Enhance a batch of photos into a ZIP or a directory
//   - photo_inspect: Report dimensions, format and color layout
//   - photo_plan_status: Show plan and monthly credit usage
//   - photo_set_plan: Change an account's plan
//
// photo_enhance runs the batch on a bounded worker pool and, when the call
// carries _meta.progressToken, emits one notifications/progress message per
// finished photo.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A batch refused for lack of credits is a tool error. Individual photos that
// fail to decode are not: they are listed under "errors" in a successful
// result while the rest of the batch is delivered.
//
// # Usage
//
//	srv := server.New(enhancer, meter, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
