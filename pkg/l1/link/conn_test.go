package link

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swarmio/pkg/l0/comm"
)

type pipeRW struct {
	io.Reader
	io.Writer
}

// fakeNode answers commands with scripted output lines.
type fakeNode struct {
	out      *io.PipeWriter
	received chan string

	lock    sync.Mutex
	replies map[string][]string
}

func newTestConn(t *testing.T) (*Conn, *fakeNode, chan comm.Line) {
	nodeIn, connOut := io.Pipe()
	connIn, nodeOut := io.Pipe()
	node := &fakeNode{
		out:      nodeOut,
		received: make(chan string, 16),
		replies:  make(map[string][]string),
	}
	go node.serve(nodeIn)
	console := make(chan comm.Line, 16)
	conn := NewConn(&pipeRW{Reader: connIn, Writer: connOut}, func(l comm.Line) { console <- l })
	t.Cleanup(func() {
		nodeOut.Close()
		connOut.Close()
	})
	return conn, node, console
}

func (n *fakeNode) reply(cmd string, lines ...string) {
	n.lock.Lock()
	n.replies[cmd] = lines
	n.lock.Unlock()
}

func (n *fakeNode) emit(lines ...string) {
	for _, l := range lines {
		io.WriteString(n.out, l+"\r\n")
	}
}

func (n *fakeNode) serve(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd := strings.TrimRight(scanner.Text(), "\r")
		n.received <- cmd
		n.lock.Lock()
		lines := n.replies[cmd]
		n.lock.Unlock()
		n.emit(lines...)
	}
}

func TestDoSuccess(t *testing.T) {
	conn, node, console := newTestConn(t)
	node.reply("mot m1 50", "suc mot 50")
	line, err := conn.Do(context.Background(), "mot m1 50")
	require.NoError(t, err)
	require.Equal(t, comm.LineSuccess, line.Kind)
	require.Equal(t, "mot", line.Command)
	require.Equal(t, "50", line.Args)
	require.Equal(t, "mot m1 50", <-node.received)

	node.reply("sub digital b1", "#debug Subscribed to Button Press on b1", "suc sub")
	_, err = conn.Do(context.Background(), "sub digital b1")
	require.NoError(t, err)
	debug := <-console
	require.Equal(t, comm.LineDebug, debug.Kind)
	require.Equal(t, "Subscribed to Button Press on b1", debug.Args)
}

func TestDoFailure(t *testing.T) {
	conn, node, _ := newTestConn(t)
	node.reply("sub servo s1", "err sub")
	line, err := conn.Do(context.Background(), "sub servo s1")
	require.Error(t, err)
	require.IsType(t, &comm.CommandError{}, err)
	require.Equal(t, comm.LineFailure, line.Kind)
}

func TestDoSkipsOtherReplies(t *testing.T) {
	conn, node, _ := newTestConn(t)
	node.reply("nod", "suc led", "#debug nodes = []", "suc nod")
	line, err := conn.Do(context.Background(), "nod")
	require.NoError(t, err)
	require.Equal(t, "nod", line.Command)
}

func TestDoNoReply(t *testing.T) {
	conn, _, _ := newTestConn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := conn.Do(ctx, "bogus")
	require.Equal(t, comm.ErrNoReply, err)
}

func TestReset(t *testing.T) {
	conn, node, console := newTestConn(t)
	node.reply("res", "Setup: node n1", ">>>")
	require.NoError(t, conn.Reset(context.Background()))
	require.Equal(t, "res", <-node.received)
	text := <-console
	require.Equal(t, comm.LineText, text.Kind)
	require.Equal(t, "Setup: node n1", text.Raw)
}

func TestNotifications(t *testing.T) {
	conn, node, _ := newTestConn(t)
	go node.emit("!button1 1", "!sensor1 512")
	n := <-conn.Notifications()
	require.Equal(t, "button1", n.Name)
	require.Equal(t, "1", n.Value)
	n = <-conn.Notifications()
	require.Equal(t, "sensor1", n.Name)
	require.Equal(t, "512", n.Value)
}

func TestConnClosed(t *testing.T) {
	conn, node, _ := newTestConn(t)
	node.out.Close()
	<-conn.Done()
	require.NoError(t, conn.Err())
	_, ok := <-conn.Notifications()
	require.False(t, ok)
	_, err := conn.Do(context.Background(), "nod")
	require.Equal(t, comm.ErrClosed, err)
}
