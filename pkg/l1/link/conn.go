// Package link is the controller side of the L0 line protocol.
package link

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"

	"github.com/robotalks/swarmio/pkg/l0/comm"
)

// Timeouts applied when ctx has no deadline.
const (
	DefaultCommandTimeout = time.Second
	DefaultResetTimeout   = 10 * time.Second
)

// NotificationQueueSize is the number of notifications buffered before
// new ones are dropped.
const NotificationQueueSize = 64

// ConsoleFunc receives debug and free text lines.
type ConsoleFunc func(comm.Line)

// Conn is a connection to a swarm node.
type Conn struct {
	rw      io.ReadWriter
	console ConsoleFunc

	cmdLock       sync.Mutex
	replies       chan comm.Line
	notifications chan comm.Line
	done          chan struct{}
	err           error
}

// Open opens the serial port of a node.
func Open(name string, baud int, console ConsoleFunc) (*Conn, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud, Size: 8})
	if err != nil {
		return nil, err
	}
	return NewConn(port, console), nil
}

// NewConn creates a Conn over rw and starts reading. If rw is an
// io.Closer, it's closed by Close.
func NewConn(rw io.ReadWriter, console ConsoleFunc) *Conn {
	c := &Conn{
		rw:            rw,
		console:       console,
		replies:       make(chan comm.Line, 16),
		notifications: make(chan comm.Line, NotificationQueueSize),
		done:          make(chan struct{}),
	}
	go c.readLines()
	return c
}

// Notifications returns the channel of change notifications. It's
// closed when the connection ends.
func (c *Conn) Notifications() <-chan comm.Line {
	return c.notifications
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close closes the underlying port.
func (c *Conn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Send writes a command without waiting for a reply.
func (c *Conn) Send(cmd string) error {
	c.cmdLock.Lock()
	defer c.cmdLock.Unlock()
	return c.write(cmd)
}

// Do sends a command and waits for the suc/err reply whose keyword
// prefixes the command. An err reply is returned with a CommandError.
func (c *Conn) Do(ctx context.Context, cmd string) (comm.Line, error) {
	ctx, cancel := withDefaultTimeout(ctx, DefaultCommandTimeout)
	defer cancel()
	c.cmdLock.Lock()
	defer c.cmdLock.Unlock()
	c.drain()
	if err := c.write(cmd); err != nil {
		return comm.Line{}, err
	}
	line, err := c.wait(ctx, func(l comm.Line) bool {
		return l.IsReply() && l.Command != "" && strings.HasPrefix(cmd, l.Command)
	})
	if err != nil {
		return line, err
	}
	if line.Kind == comm.LineFailure {
		return line, &comm.CommandError{Command: line.Command}
	}
	return line, nil
}

// Reset restarts the node and waits until it's ready.
func (c *Conn) Reset(ctx context.Context) error {
	ctx, cancel := withDefaultTimeout(ctx, DefaultResetTimeout)
	defer cancel()
	c.cmdLock.Lock()
	defer c.cmdLock.Unlock()
	c.drain()
	if err := c.write("res"); err != nil {
		return err
	}
	_, err := c.wait(ctx, func(l comm.Line) bool { return l.Kind == comm.LineBanner })
	return err
}

func (c *Conn) write(cmd string) error {
	glog.V(2).Infof("SND %q", cmd)
	_, err := io.WriteString(c.rw, cmd+"\r\n")
	return err
}

func (c *Conn) drain() {
	for {
		select {
		case l := <-c.replies:
			glog.V(1).Infof("stale reply %q", l.Raw)
		default:
			return
		}
	}
}

func (c *Conn) wait(ctx context.Context, match func(comm.Line) bool) (comm.Line, error) {
	for {
		select {
		case l := <-c.replies:
			if match(l) {
				return l, nil
			}
			glog.V(1).Infof("unexpected reply %q", l.Raw)
		case <-c.done:
			for {
				select {
				case l := <-c.replies:
					if match(l) {
						return l, nil
					}
					continue
				default:
				}
				break
			}
			if c.err != nil {
				return comm.Line{}, c.err
			}
			return comm.Line{}, comm.ErrClosed
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return comm.Line{}, comm.ErrNoReply
			}
			return comm.Line{}, ctx.Err()
		}
	}
}

func (c *Conn) readLines() {
	scanner := bufio.NewScanner(c.rw)
	for scanner.Scan() {
		line := comm.ParseLine(scanner.Text())
		glog.V(2).Infof("RCV %q", line.Raw)
		switch line.Kind {
		case comm.LineSuccess, comm.LineFailure, comm.LineBanner:
			select {
			case c.replies <- line:
			default:
				glog.Warningf("reply queue full, dropped %q", line.Raw)
			}
		case comm.LineNotification:
			select {
			case c.notifications <- line:
			default:
				glog.Warningf("notification queue full, dropped %q", line.Raw)
			}
		default:
			if line.Raw == "" {
				continue
			}
			if c.console != nil {
				c.console(line)
			}
		}
	}
	c.err = scanner.Err()
	close(c.notifications)
	close(c.done)
}

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
