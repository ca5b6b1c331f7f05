package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

// Stream message types
const (
	StreamSubscribe = "subscribe"
	StreamPing      = "ping"
	StreamPong      = "pong"
	StreamOutput    = "output"
	StreamEOF       = "eof"
	StreamError     = "error"
)

// StreamMessage is a frame on the output streaming WebSocket. Client frames
// carry Type and FD; server frames carry output, end-of-stream or an error.
type StreamMessage struct {
	Type       string `json:"type"`
	FD         *int   `json:"fd,omitempty"`
	DataBase64 string `json:"data_base64,omitempty"`
	Length     int    `json:"length,omitempty"`
	Error      string `json:"error,omitempty"`
	Errno      string `json:"errno,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}
