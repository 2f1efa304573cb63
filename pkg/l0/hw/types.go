// Package hw defines the hardware elements a swarm node drives.
//
// Element handles are obtained by name (or index for LEDs) from a Provider
// and live as long as the process. Drivers live in sub-packages.
package hw

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Switch is a digital input.
type Switch interface {
	// State reads the live state, true means closed/pressed.
	State() bool
	// OnTrigger wires the edge of this switch to drive a motor
	// to value, without involving the controller.
	OnTrigger(edge Edge, out Motor, value int16) error
}

// Analog is an analog input.
type Analog interface {
	// Value reads the live value.
	Value() uint32
}

// Motor is a speed controlled output.
type Motor interface {
	SetSpeed(speed int16) error
}

// LED is a RGB LED.
type LED interface {
	SetColor(Color) error
	SetBrightness(uint8) error
}

// Provider constructs element handles.
type Provider interface {
	Switch(name string) (Switch, error)
	Analog(name string) (Analog, error)
	Motor(name string) (Motor, error)
	LED(index int) (LED, error)
}

// Swarm brings up the swarm the node belongs to and discovers peers.
// Setup is called at boot and again on request.
type Swarm interface {
	Setup(ctx context.Context) error
}

// Edge selects which switch transition fires a trigger.
type Edge int

// Edges
const (
	EdgeFalling Edge = 0
	EdgeRising  Edge = 1
)

// String implements fmt.Stringer.
func (e Edge) String() string {
	if e == EdgeFalling {
		return "falling"
	}
	return "rising"
}

// Matches tells whether the transition from old to new state is this edge.
func (e Edge) Matches(old, new bool) bool {
	if e == EdgeFalling {
		return old && !new
	}
	return !old && new
}

// Color is a 24-bit RGB color.
type Color uint32

// Colors
const (
	Black Color = 0x000000
	White Color = 0xffffff
)

// RGB splits the color into components.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// ClampSpeed limits v into the range of int16 rather than wrapping.
// Drivers apply their own limits.
func ClampSpeed(v int64) int16 {
	if v < math.MinInt16 {
		return math.MinInt16
	}
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

var (
	// ErrUnsupported indicates the provider can't build that kind of element.
	ErrUnsupported = errors.New("unsupported element kind")
)

// UnknownElementError is returned for names not known to a provider.
type UnknownElementError struct {
	Kind string
	Name string
}

// Error implements error.
func (e *UnknownElementError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}
