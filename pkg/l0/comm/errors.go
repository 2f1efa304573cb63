package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReply indicates the peer never replied to a command.
	ErrNoReply = errors.New("no reply")
	// ErrClosed indicates the link is closed.
	ErrClosed = errors.New("link closed")
)

// CommandError is the err reply of a command.
type CommandError struct {
	Command string
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed", e.Command)
}
