// Package types provides shared data structures for the procpipe server.
//
// This package defines the types exchanged between the service registry,
// the tool providers and the HTTP/WebSocket layer.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool definition
//   - Context: Request metadata passed to a tool execution
//   - Result: Standard operation result
//
// Request Types:
//   - ExecuteRequest: Service tool execution
//   - StreamMessage: Output streaming WebSocket frames
//
// Example Usage:
//
//	result, err := registry.Execute(ctx, "process.launch", map[string]interface{}{
//	    "args": []interface{}{"cat"},
//	}, &types.Context{})
//	if err == nil && result.Success {
//	    fd := result.Data["output_fd"]
//	}
package types
