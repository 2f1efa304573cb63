package comm

import (
	"io"
	"time"
)

// Port is the serial link between the node and the controller.
//
// Read must give up after the configured read timeout, returning
// either (0, nil) or an error satisfying os.IsTimeout.
type Port interface {
	io.ReadWriter
	SetReadTimeout(time.Duration) error
}
