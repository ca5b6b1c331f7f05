// Package spawn launches child processes wired to non-blocking pipes.
//
// The package is the process-launch core of procpipe. It creates the pipe
// pairs for a child, forks and execs the target program with its standard
// streams redirected, and hands the caller a pid plus raw descriptors. Every
// later operation (write, read, close, signal, reap) is a stateless call keyed
// by a descriptor or pid: the package keeps no table of live processes, the
// caller does.
//
// Features:
//   - Three pipe pairs per child (stdin, stdout, stderr), or two when stderr
//     is inherited from the host
//   - Non-blocking, close-on-exec descriptors on the parent side
//   - Structured launch failures (PIPE_CREATE_ERROR, PIPE_FLAG_ERROR,
//     FORK_ERROR, PIPE_DUP_ERROR, EXEC_ERROR) carrying the errno
//   - Caller-contract violations reported separately via ErrInvalidArgument
//   - Pseudo-terminal launches through creack/pty
//   - Engine wrapper adding zap diagnostics and Prometheus metrics
//
// Ownership:
//   - After a successful Launch the caller owns InputFD, OutputFD and ErrorFD
//     and must close each exactly once.
//   - The caller must eventually reap the pid with WaitNonBlocking.
//
// Example Usage:
//
//	res, err := spawn.Launch([]string{"cat"})
//	if err != nil {
//	    return err
//	}
//	n, err := spawn.WriteInput(res.InputFD, []byte("hello"))
//	out, err := spawn.ReadOutput(res.OutputFD) // EAGAIN until cat echoes
//	_ = spawn.ClosePipe(res.InputFD)
//	_ = spawn.Terminate(res.PID)
//	wr, _ := spawn.WaitNonBlocking(res.PID) // wr.PID == 0 until it exits
//
// The package targets Unix systems (Linux and macOS).
package spawn
