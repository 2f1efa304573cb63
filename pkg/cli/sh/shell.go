package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/swarmio/pkg/l0/comm"
	"github.com/robotalks/swarmio/pkg/l1/env"
	"github.com/robotalks/swarmio/pkg/l1/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *link.Conn
	Port   string
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatLine prints a node output line for display.
func FormatLine(l comm.Line) string {
	switch l.Kind {
	case comm.LineSuccess:
		return strings.TrimSpace("OK " + l.Args)
	case comm.LineFailure:
		return "FAILED " + l.Command
	case comm.LineDebug:
		return "# " + l.Args
	case comm.LineNotification:
		return l.Name + " = " + l.Value
	default:
		return l.Raw
	}
}

func (s *Shell) print(c *ishell.Context, l comm.Line) {
	if !s.OutputJSON {
		c.Println(FormatLine(l))
		return
	}
	out, err := json.Marshal(map[string]string{
		"kind":    l.Kind.String(),
		"command": l.Command,
		"args":    l.Args,
		"name":    l.Name,
		"value":   l.Value,
		"raw":     l.Raw,
	})
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// DoCommand sends a command line and prints the reply.
func DoCommand(c *ishell.Context, cmd string) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	line, err := s.Conn.Do(context.Background(), cmd)
	if err != nil {
		if line.Kind == comm.LineFailure {
			s.print(c, line)
		}
		c.Err(err)
		return err
	}
	s.print(c, line)
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the link to the node on port.
func (s *Shell) Connect(port string) error {
	conn, err := s.Config.Connect(port, func(l comm.Line) {
		s.Shell.Println(FormatLine(l))
	})
	if err != nil {
		return err
	}
	s.Disconnect()
	if port == "" {
		port = s.Config.Port
	}
	s.Conn, s.Port = conn, port
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", port))
	return nil
}

// Disconnect closes current link.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(""); err != nil {
			if !s.Interactive {
				log.Printf("connect %q failed: %v", s.Config.Port, err)
			} else {
				s.Shell.Printf("connect %q failed: %v\n", s.Config.Port, err)
			}
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd lists nodes announced on the broker.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			nodes, err := s.Config.Discover(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, err := json.Marshal(nodes)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(nodes) == 0 {
				c.Println("No nodes found")
				return
			}
			for _, n := range nodes {
				c.Printf("%s/%s: %s %s\n", n.Swarm, n.NodeID, n.Hostname, n.Port)
			}
		},
	}

	// ConnectCmd connects a node.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := ShellFrom(c).Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current node.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
