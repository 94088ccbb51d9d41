package types

import (
	"context"
	"fmt"
)

// CommandFunc represents executable command.
type CommandFunc func(ctx context.Context, deps DepsFunc) error

// DepsFunc represents function for executing dependencies.
type DepsFunc func(deps ...CommandFunc)

// Command defines the command.
type Command struct {
	Description string
	Fn          CommandFunc
}

// ExitCodeError is returned when a delegated command exits with a non-zero code.
// The code is preserved so the wrapper can propagate it to the invoking shell unmodified.
type ExitCodeError struct {
	Tool string
	Code int
}

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.Code)
}
