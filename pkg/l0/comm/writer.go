package comm

import (
	"fmt"
	"io"
	"strings"
)

// Writer writes CRLF terminated protocol lines.
// The first write error is kept and all later writes are skipped.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Println writes a raw line.
func (w *Writer) Println(line string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, line+"\r\n")
}

// Success writes "suc <cmd> [args...]".
func (w *Writer) Success(cmd string, args ...string) {
	w.Println(strings.Join(append([]string{PrefixSuccess, cmd}, args...), " "))
}

// Failure writes "err <cmd>".
func (w *Writer) Failure(cmd string) {
	w.Println(PrefixFailure + " " + cmd)
}

// Debugf writes a "#debug" line.
func (w *Writer) Debugf(format string, args ...interface{}) {
	w.Println(PrefixDebug + " " + fmt.Sprintf(format, args...))
}

// Notify writes "!<name> <value>".
func (w *Writer) Notify(name string, value interface{}) {
	w.Println(fmt.Sprintf("%s%s %v", PrefixNotification, name, value))
}
