package sh

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/swarmio/pkg/l0/node"
)

// SubCommand builds "sub digital NAME" or "sub analog THRESHOLD NAME".
func SubCommand(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("KIND and NAME required")
	}
	switch args[0] {
	case "digital", "d":
		if err := checkName(args[1]); err != nil {
			return "", err
		}
		return "sub digital " + args[1], nil
	case "analog", "a":
		if len(args) < 3 {
			return "", fmt.Errorf("THRESHOLD and NAME required")
		}
		threshold, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return "", fmt.Errorf("invalid THRESHOLD: %v", err)
		}
		if err := checkName(args[2]); err != nil {
			return "", err
		}
		return fmt.Sprintf("sub analog %d %s", threshold, args[2]), nil
	default:
		return "", fmt.Errorf("unknown KIND %q", args[0])
	}
}

// MotorCommand builds "mot NAME SPEED".
func MotorCommand(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("NAME and SPEED required")
	}
	speed, err := strconv.ParseInt(args[1], 10, 16)
	if err != nil {
		return "", fmt.Errorf("invalid SPEED: %v", err)
	}
	return fmt.Sprintf("mot %s %d", args[0], speed), nil
}

// LEDCommand builds "led on" or "led off".
func LEDCommand(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("on|off required")
	}
	switch args[0] {
	case "on", "1":
		return "led on", nil
	case "off", "0":
		return "led off", nil
	default:
		return "", fmt.Errorf("invalid state %q, expect on|off", args[0])
	}
}

// TriggerCommand builds "otr INPUT EDGE OUTPUT VALUE".
func TriggerCommand(args []string) (string, error) {
	if len(args) < 4 {
		return "", fmt.Errorf("INPUT EDGE OUTPUT VALUE required")
	}
	var edge int
	switch args[1] {
	case "rising", "r", "1":
		edge = 1
	case "falling", "f", "0":
		edge = 0
	default:
		return "", fmt.Errorf("invalid EDGE %q, expect rising|falling", args[1])
	}
	value, err := strconv.ParseInt(args[3], 10, 16)
	if err != nil {
		return "", fmt.Errorf("invalid VALUE: %v", err)
	}
	return fmt.Sprintf("otr %s %d %s %d", args[0], edge, args[2], value), nil
}

func checkName(name string) error {
	if len(name) > node.MaxNameLen {
		return fmt.Errorf("NAME longer than %d", node.MaxNameLen)
	}
	return nil
}

func builderCmd(name, help string, build func([]string) (string, error)) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: MustBeConnected(func(c *ishell.Context) {
			cmd, err := build(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			DoCommand(c, cmd)
		}),
	}
}

func fixedCmd(cmd string) func([]string) (string, error) {
	return func([]string) (string, error) { return cmd, nil }
}

var (
	// SubCmd subscribes an input.
	SubCmd = builderCmd("sub", "digital NAME | analog THRESHOLD NAME", SubCommand)
	// MotCmd sets motor speed.
	MotCmd = builderCmd("mot", "NAME SPEED", MotorCommand)
	// LEDCmd switches LEDs.
	LEDCmd = builderCmd("led", "on|off", LEDCommand)
	// OtrCmd wires an input edge to an output.
	OtrCmd = builderCmd("otr", "INPUT rising|falling OUTPUT VALUE", TriggerCommand)
	// NodCmd lists subscriptions.
	NodCmd = builderCmd("nod", "", fixedCmd("nod"))
	// StpCmd re-runs swarm setup.
	StpCmd = builderCmd("stp", "", fixedCmd("stp"))

	// ResCmd restarts the node and waits until it's ready.
	ResCmd = ishell.Cmd{
		Name: "res",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			if err := ShellFrom(c).Conn.Reset(context.Background()); err != nil {
				c.Err(err)
				return
			}
			c.Println("ready")
		}),
	}

	// SendCmd sends a raw line without waiting for reply.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "LINE",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("LINE required"))
				return
			}
			if err := ShellFrom(c).Conn.Send(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		}),
	}

	// WatchCmd prints notifications.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION]",
		Func: MustBeConnected(func(c *ishell.Context) {
			dur := 10 * time.Second
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %v", err))
					return
				}
				dur = d
			}
			s := ShellFrom(c)
			expire := time.After(dur)
			for {
				select {
				case l, ok := <-s.Conn.Notifications():
					if !ok {
						c.Err(fmt.Errorf("disconnected"))
						return
					}
					s.print(c, l)
				case <-expire:
					return
				}
			}
		}),
	}
)

func init() {
	AddCmds(&SubCmd, &MotCmd, &LEDCmd, &OtrCmd, &NodCmd, &StpCmd, &ResCmd, &SendCmd, &WatchCmd)
}
