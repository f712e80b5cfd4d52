// Package server implements the MCP (Model Context Protocol) server for ballot
// inspection tools.
//
// The server exposes the interpreter one stage at a time so a client can see
// why a scan was rejected: paper matching, the timing mark search, metadata
// decoding and full card interpretation.
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
//   - ballot_image_info: Dimensions, threshold, scanner inset and paper size
//   - ballot_find_timing_marks: Per-border search report and grid corners
//   - ballot_decode_timing_mark_metadata: Front or back bottom row metadata
//   - ballot_detect_qr_code: QR code bytes, location and orientation
//   - ballot_interpret_card: Full interpretation of a two-sided card
//
// ballot_interpret_card requires an election in Options. Without one,
// ballot_detect_qr_code returns the raw payload only.
//
// # Image Caching
//
// Pages are cached by path as grayscale and reused across tool calls. The
// cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.Options{
//	    Interpret: interpret.DefaultOptions(e),
//	    Version:   version,
//	})
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
