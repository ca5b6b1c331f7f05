package spawn

import (
	"fmt"
	"strings"
)

// Argument vector limits.
const (
	// MaxArguments is the largest argv accepted, program name included.
	MaxArguments = 20
	// MaxArgumentLen bounds each entry including its C terminator, so the
	// longest accepted string is MaxArgumentLen-1 bytes.
	MaxArgumentLen = 1024
)

// ValidateArgv checks an argument vector against the launch contract.
func ValidateArgv(argv []string) error {
	if len(argv) == 0 {
		return &ArgumentError{Index: -1, Reason: "argument vector is empty"}
	}
	if len(argv) > MaxArguments {
		return &ArgumentError{
			Index:  -1,
			Reason: fmt.Sprintf("%d arguments exceeds maximum of %d", len(argv), MaxArguments),
		}
	}

	for i, arg := range argv {
		if len(arg) >= MaxArgumentLen {
			return &ArgumentError{
				Index:  i,
				Reason: fmt.Sprintf("length %d exceeds maximum of %d", len(arg), MaxArgumentLen-1),
			}
		}
		if strings.IndexByte(arg, 0) >= 0 {
			return &ArgumentError{Index: i, Reason: "contains NUL byte"}
		}
	}

	if argv[0] == "" {
		return &ArgumentError{Index: 0, Reason: "program name is empty"}
	}

	return nil
}

func validatePID(pid int) error {
	if pid <= 0 {
		return &ArgumentError{Index: -1, Reason: fmt.Sprintf("pid %d is not a positive process id", pid)}
	}
	return nil
}
