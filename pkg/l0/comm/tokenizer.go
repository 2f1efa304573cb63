package comm

import (
	"os"
	"strings"
	"time"
)

const (
	// DefaultCharTimeout is the maximum gap between two bytes of a command.
	DefaultCharTimeout = 3 * time.Millisecond
	// MaxLineLen limits the length of a command, excess bytes are dropped.
	MaxLineLen = 1024
)

// Tokenizer assembles commands from a Port.
type Tokenizer struct {
	port Port
	buf  []byte
	line []byte
}

// NewTokenizer creates a Tokenizer and configures the inter-character
// timeout on the port.
func NewTokenizer(port Port, charTimeout time.Duration) (*Tokenizer, error) {
	if charTimeout <= 0 {
		charTimeout = DefaultCharTimeout
	}
	if err := port.SetReadTimeout(charTimeout); err != nil {
		return nil, err
	}
	return &Tokenizer{
		port: port,
		buf:  make([]byte, 64),
		line: make([]byte, 0, 128),
	}, nil
}

// ReadCommand reads one command. It returns "" if nothing arrives
// within one inter-character timeout, otherwise it keeps reading until
// the line goes quiet. CR and LF are removed.
func (t *Tokenizer) ReadCommand() (string, error) {
	t.line = t.line[:0]
	for {
		n, err := t.port.Read(t.buf)
		if err != nil && !os.IsTimeout(err) {
			return "", err
		}
		if n == 0 {
			break
		}
		if room := MaxLineLen - len(t.line); room > 0 {
			if n > room {
				n = room
			}
			t.line = append(t.line, t.buf[:n]...)
		}
	}
	return stripCRLF(string(t.line)), nil
}

func stripCRLF(s string) string {
	if strings.IndexAny(s, "\r\n") < 0 {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
