// Package process exposes child process execution as service tools.
//
// The provider is a thin adapter over spawn.Engine: it decodes tool
// parameters, applies the program allowlist and turns engine outcomes into
// results. It keeps no process table; callers carry pids and descriptors
// between calls and own them.
//
// Error Model:
//   - Malformed parameters and rejected programs are Go errors wrapping
//     spawn.ErrInvalidArgument
//   - Runtime failures are unsuccessful results with errno and transient
//     fields (launch failures also carry the failing status)
//
// Example Usage:
//
//	// Launch cat with piped stdio
//	process.launch(args: ["cat"])
//	// → pid, input_fd, output_fd, error_fd
//
//	process.write(fd: input_fd, data: "hello\n")
//	process.close(fd: input_fd)
//	process.read(fd: output_fd)  // repeat until eof
//	process.wait(pid: pid)       // repeat until reaped
//
// Tools:
//   - process.launch: Start a program on pipes or a pty
//   - process.write: One non-blocking write
//   - process.read: One non-blocking read
//   - process.close: Close a descriptor
//   - process.terminate / process.kill: Send SIGTERM / SIGKILL
//   - process.wait: Non-blocking reap
//   - process.is_alive: Existence check
package process
