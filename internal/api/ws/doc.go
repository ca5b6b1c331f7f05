/*
Package ws streams child process output over WebSocket.

A client connects to /stream and subscribes to a descriptor returned by
process.launch:

	→ {"type": "subscribe", "fd": 7}
	← {"type": "output", "fd": 7, "data_base64": "aGVsbG8K", "length": 6}
	← {"type": "eof", "fd": 7}

The server polls the descriptor with non-blocking reads. While it has
nothing to read the delay doubles from the poll interval up to the maximum
backoff; any data resets it. A read failure sends {"type": "error"} with the
errno name and stops polling. The descriptor is never closed by the stream.

{"type": "ping"} is answered with {"type": "pong"}.
*/
package ws
