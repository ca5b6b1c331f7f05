/*
Package http provides the REST surface of the process server.

# Routes

	GET  /              banner
	GET  /health        registry stats and uptime
	GET  /services      service and tool definitions (?category= filters)
	POST /services/execute
	GET  /metrics/json  JSON metrics summary

# Execute

POST /services/execute takes {"tool_id": "process.read", "params": {...}}.
Tool failures (a failed launch, EAGAIN on a read) answer 200 with
"success": false and errno data. Contract errors answer 400, unknown
services or tools 404.
*/
package http
