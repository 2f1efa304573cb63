package node

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/swarmio/pkg/l0/comm"
	"github.com/robotalks/swarmio/pkg/l0/hw"
)

// LED range driven by the led command, and the brightness used for "on".
const (
	LEDFirst        = 2
	LEDEnd          = 16
	LEDOnBrightness = 50
)

// Restarter restarts the whole node process. Restart does not return
// when it succeeds.
type Restarter interface {
	Restart()
}

// RestartFunc is the func form of Restarter.
type RestartFunc func()

// Restart implements Restarter.
func (f RestartFunc) Restart() { f() }

// Dispatcher executes commands.
type Dispatcher struct {
	Registry  *Registry
	Hardware  hw.Provider
	Swarm     hw.Swarm
	Restarter Restarter
	Out       *comm.Writer
}

type commandFunc func(d *Dispatcher, ctx context.Context, line string)

// commands are matched by prefix in this order.
var commands = []struct {
	keyword string
	fn      commandFunc
}{
	{"sub", (*Dispatcher).subscribe},
	{"mot", (*Dispatcher).motor},
	{"led", (*Dispatcher).led},
	{"otr", (*Dispatcher).outputTrigger},
	{"nod", (*Dispatcher).nodes},
	{"stp", (*Dispatcher).setup},
	{"res", (*Dispatcher).restart},
}

// Dispatch executes a command line. Unknown keywords are ignored
// silently and false is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) bool {
	for _, cmd := range commands {
		if strings.HasPrefix(line, cmd.keyword) {
			cmd.fn(d, ctx, line)
			return true
		}
	}
	return false
}

// argsOf returns the text after "<keyword> ".
func argsOf(line string, keyword string) string {
	if pos := len(keyword) + 1; pos < len(line) {
		return line[pos:]
	}
	return ""
}

func splitField(s string) (string, string, bool) {
	pos := strings.IndexByte(s, ' ')
	if pos < 0 {
		return s, "", false
	}
	return s[:pos], s[pos+1:], true
}

func validName(name string) bool {
	return name != "" && len(name) <= MaxNameLen
}

func (d *Dispatcher) fail(cmd string, err error) {
	if err != nil {
		glog.Errorf("%s: %v", cmd, err)
	}
	d.Out.Failure(cmd)
}

func (d *Dispatcher) subscribe(ctx context.Context, line string) {
	args := argsOf(line, "sub")
	switch {
	case strings.HasPrefix(args, "digital "):
		name := args[len("digital "):]
		if !validName(name) {
			d.fail("sub", nil)
			return
		}
		sw, err := d.Hardware.Switch(name)
		if err != nil {
			d.fail("sub", err)
			return
		}
		d.Registry.Append(NewDigital(name, sw))
		d.Out.Debugf("Subscribed to Button Press on %s", name)
		d.Out.Success("sub")
	case strings.HasPrefix(args, "analog "):
		thresholdStr, name, ok := splitField(args[len("analog "):])
		if !ok || !validName(name) {
			d.fail("sub", nil)
			return
		}
		threshold := comm.Atoi(thresholdStr)
		if threshold < 0 || threshold > math.MaxUint32 {
			d.fail("sub", nil)
			return
		}
		in, err := d.Hardware.Analog(name)
		if err != nil {
			d.fail("sub", err)
			return
		}
		d.Registry.Append(NewAnalog(name, in, uint32(threshold)))
		d.Out.Debugf("Subscribed to Analog Value on %s", name)
		d.Out.Success("sub")
	default:
		d.fail("sub", nil)
	}
}

func (d *Dispatcher) motor(ctx context.Context, line string) {
	name, value, ok := splitField(argsOf(line, "mot"))
	if !ok || name == "" {
		d.fail("mot", nil)
		return
	}
	speed := comm.Atoi(value)
	mot, err := d.Hardware.Motor(name)
	if err == nil {
		err = mot.SetSpeed(hw.ClampSpeed(speed))
	}
	if err != nil {
		d.fail("mot", err)
		return
	}
	d.Out.Success("mot", strconv.FormatInt(speed, 10))
}

func (d *Dispatcher) led(ctx context.Context, line string) {
	color, brightness := hw.Black, uint8(0)
	if strings.HasPrefix(line, "led on") {
		color, brightness = hw.White, LEDOnBrightness
	}
	var errs []error
	for i := LEDFirst; i < LEDEnd; i++ {
		led, err := d.Hardware.LED(i)
		if err == nil {
			err = led.SetColor(color)
		}
		if err == nil {
			err = led.SetBrightness(brightness)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		for _, err := range errs {
			glog.Errorf("led: %v", err)
		}
		d.Out.Failure("led")
		return
	}
	d.Out.Success("led")
}

func (d *Dispatcher) outputTrigger(ctx context.Context, line string) {
	fields := strings.Fields(argsOf(line, "otr"))
	if len(fields) < 4 {
		d.fail("otr", nil)
		return
	}
	edge := hw.EdgeRising
	if comm.Atoi(fields[1]) == 0 {
		edge = hw.EdgeFalling
	}
	value := hw.ClampSpeed(comm.Atoi(fields[3]))
	in, err := d.Hardware.Switch(fields[0])
	if err != nil {
		d.fail("otr", err)
		return
	}
	out, err := d.Hardware.Motor(fields[2])
	if err != nil {
		d.fail("otr", err)
		return
	}
	if err = in.OnTrigger(edge, out, value); err != nil {
		d.fail("otr", err)
		return
	}
	glog.V(1).Infof("trigger: %s %s -> %s %d", fields[0], edge, fields[2], value)
	d.Out.Success("otr")
}

func (d *Dispatcher) nodes(ctx context.Context, line string) {
	if d.Registry.Len() == 0 {
		d.Out.Debugf("nodes = []")
	} else {
		d.Out.Debugf("nodes = [")
		d.Registry.ForEach(func(n *Node) {
			d.Out.Debugf("'%s',", n.Name)
		})
		d.Out.Debugf("]")
	}
	d.Out.Success("nod")
}

func (d *Dispatcher) setup(ctx context.Context, line string) {
	if err := d.Swarm.Setup(ctx); err != nil {
		d.fail("stp", err)
		return
	}
	d.Out.Success("stp")
}

func (d *Dispatcher) restart(ctx context.Context, line string) {
	glog.Warning("restart requested")
	glog.Flush()
	d.Restarter.Restart()
}
