// Package node implements the swarm node command protocol: the
// subscription registry, the change-detection scanner and the
// command dispatcher, driven by a framework.Loop.
package node

import "github.com/robotalks/swarmio/pkg/l0/hw"

// MaxNameLen is the maximum length of a subscribed element name.
const MaxNameLen = 99

// Ternary is a 3-state logic value.
type Ternary int

// Ternary values.
const (
	Unknown Ternary = iota
	True
	False
)

// TernaryOf maps a bool.
func TernaryOf(b bool) Ternary {
	if b {
		return True
	}
	return False
}

// String implements fmt.Stringer.
func (t Ternary) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

// Node is a subscribed hardware input.
type Node struct {
	Name    string
	Monitor Monitor
}

// Monitor is the kind specific state of a Node, either *Digital or *Analog.
type Monitor interface {
	Kind() string
	monitor()
}

// Digital monitors a switch. Last starts as Unknown so the first
// scan always reports.
type Digital struct {
	Switch hw.Switch
	Last   Ternary
}

// Kind implements Monitor.
func (m *Digital) Kind() string { return "digital" }

func (m *Digital) monitor() {}

// Analog monitors an analog input. Changes smaller than Threshold
// are not reported. Last starts from 0.
type Analog struct {
	Input     hw.Analog
	Last      uint32
	Threshold uint32
}

// Kind implements Monitor.
func (m *Analog) Kind() string { return "analog" }

func (m *Analog) monitor() {}

// NewDigital creates a Node monitoring a switch.
func NewDigital(name string, sw hw.Switch) *Node {
	return &Node{Name: name, Monitor: &Digital{Switch: sw, Last: Unknown}}
}

// NewAnalog creates a Node monitoring an analog input.
func NewAnalog(name string, in hw.Analog, threshold uint32) *Node {
	return &Node{Name: name, Monitor: &Analog{Input: in, Threshold: threshold}}
}
