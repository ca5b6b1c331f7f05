package process

import "github.com/GriffinCanCode/procpipe/internal/shared/types"

func fdParameter(description string) types.Parameter {
	return types.Parameter{
		Name:        "fd",
		Type:        "number",
		Description: description,
		Required:    true,
	}
}

func pidParameter() types.Parameter {
	return types.Parameter{
		Name:        "pid",
		Type:        "number",
		Description: "Process ID returned by process.launch",
		Required:    true,
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "process.launch",
			Name:        "Launch Process",
			Description: "Start a program with its stdin, stdout and stderr attached to non-blocking pipes",
			Parameters: []types.Parameter{
				{
					Name:        "args",
					Type:        "array",
					Description: "Argument vector; args[0] is looked up in PATH. At most 20 entries of under 1024 bytes",
					Required:    true,
				},
				{
					Name:        "stderr",
					Type:        "string",
					Description: "\"pipe\" (default) captures stderr as error_fd, \"inherit\" leaves it on the server's stderr",
					Required:    false,
				},
				{
					Name:        "pty",
					Type:        "boolean",
					Description: "Run on a pseudo-terminal instead of pipes",
					Required:    false,
				},
				{
					Name:        "rows",
					Type:        "number",
					Description: "Terminal height for pty launches. Defaults to 24",
					Required:    false,
				},
				{
					Name:        "cols",
					Type:        "number",
					Description: "Terminal width for pty launches. Defaults to 80",
					Required:    false,
				},
				{
					Name:        "dir",
					Type:        "string",
					Description: "Working directory of the child",
					Required:    false,
				},
				{
					Name:        "env",
					Type:        "object",
					Description: "Environment variables merged over the server environment",
					Required:    false,
				},
			},
			Returns: "launch_result",
		},
		{
			ID:          "process.write",
			Name:        "Write Input",
			Description: "Perform one non-blocking write to a child's input descriptor; may accept fewer bytes than given",
			Parameters: []types.Parameter{
				fdParameter("Input descriptor (input_fd)"),
				{
					Name:        "data",
					Type:        "string",
					Description: "Text to write",
					Required:    false,
				},
				{
					Name:        "data_base64",
					Type:        "string",
					Description: "Base64 bytes to write, instead of data",
					Required:    false,
				},
			},
			Returns: "written",
		},
		{
			ID:          "process.read",
			Name:        "Read Output",
			Description: "Perform one non-blocking read of up to 64 KiB; an empty result is end-of-stream",
			Parameters: []types.Parameter{
				fdParameter("Output or error descriptor (output_fd, error_fd)"),
			},
			Returns: "output_data",
		},
		{
			ID:          "process.close",
			Name:        "Close Descriptor",
			Description: "Close a descriptor returned by process.launch",
			Parameters: []types.Parameter{
				fdParameter("Descriptor to close"),
			},
			Returns: "success",
		},
		{
			ID:          "process.terminate",
			Name:        "Terminate Process",
			Description: "Send SIGTERM without waiting",
			Parameters:  []types.Parameter{pidParameter()},
			Returns:     "result",
		},
		{
			ID:          "process.kill",
			Name:        "Kill Process",
			Description: "Send SIGKILL without waiting",
			Parameters:  []types.Parameter{pidParameter()},
			Returns:     "result",
		},
		{
			ID:          "process.wait",
			Name:        "Reap Process",
			Description: "Collect the exit status of a child if it has exited, without blocking",
			Parameters:  []types.Parameter{pidParameter()},
			Returns:     "wait_result",
		},
		{
			ID:          "process.is_alive",
			Name:        "Check Process",
			Description: "Report whether the pid exists",
			Parameters:  []types.Parameter{pidParameter()},
			Returns:     "alive",
		},
	}
}
