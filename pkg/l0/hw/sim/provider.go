// Package sim provides in-memory hardware elements.
//
// Elements are created on first use by name. Inputs are driven with
// Set, outputs record the last value written.
package sim

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/swarmio/pkg/l0/hw"
)

// Provider implements hw.Provider and hw.Swarm.
type Provider struct {
	// Strict rejects names which are not created with Add* first.
	Strict bool

	lock     sync.Mutex
	switches map[string]*Switch
	analogs  map[string]*Analog
	motors   map[string]*Motor
	leds     map[int]*LED
	setups   int
}

// New creates a Provider.
func New() *Provider {
	return &Provider{
		switches: make(map[string]*Switch),
		analogs:  make(map[string]*Analog),
		motors:   make(map[string]*Motor),
		leds:     make(map[int]*LED),
	}
}

// AddSwitch creates (or gets) a switch.
func (p *Provider) AddSwitch(name string) *Switch {
	p.lock.Lock()
	defer p.lock.Unlock()
	s := p.switches[name]
	if s == nil {
		s = &Switch{name: name}
		p.switches[name] = s
	}
	return s
}

// AddAnalog creates (or gets) an analog input.
func (p *Provider) AddAnalog(name string) *Analog {
	p.lock.Lock()
	defer p.lock.Unlock()
	a := p.analogs[name]
	if a == nil {
		a = &Analog{name: name}
		p.analogs[name] = a
	}
	return a
}

// AddMotor creates (or gets) a motor.
func (p *Provider) AddMotor(name string) *Motor {
	p.lock.Lock()
	defer p.lock.Unlock()
	m := p.motors[name]
	if m == nil {
		m = &Motor{name: name}
		p.motors[name] = m
	}
	return m
}

// AddLED creates (or gets) a LED.
func (p *Provider) AddLED(index int) *LED {
	p.lock.Lock()
	defer p.lock.Unlock()
	l := p.leds[index]
	if l == nil {
		l = &LED{index: index}
		p.leds[index] = l
	}
	return l
}

func (p *Provider) known(kind string, name string, exists bool) error {
	if p.Strict && !exists {
		return &hw.UnknownElementError{Kind: kind, Name: name}
	}
	return nil
}

// Switch implements hw.Provider.
func (p *Provider) Switch(name string) (hw.Switch, error) {
	p.lock.Lock()
	_, ok := p.switches[name]
	p.lock.Unlock()
	if err := p.known("switch", name, ok); err != nil {
		return nil, err
	}
	return p.AddSwitch(name), nil
}

// Analog implements hw.Provider.
func (p *Provider) Analog(name string) (hw.Analog, error) {
	p.lock.Lock()
	_, ok := p.analogs[name]
	p.lock.Unlock()
	if err := p.known("analog", name, ok); err != nil {
		return nil, err
	}
	return p.AddAnalog(name), nil
}

// Motor implements hw.Provider.
func (p *Provider) Motor(name string) (hw.Motor, error) {
	p.lock.Lock()
	_, ok := p.motors[name]
	p.lock.Unlock()
	if err := p.known("motor", name, ok); err != nil {
		return nil, err
	}
	return p.AddMotor(name), nil
}

// LED implements hw.Provider.
func (p *Provider) LED(index int) (hw.LED, error) {
	return p.AddLED(index), nil
}

// Setup implements hw.Swarm.
func (p *Provider) Setup(ctx context.Context) error {
	p.lock.Lock()
	p.setups++
	p.lock.Unlock()
	glog.V(1).Info("simulated swarm ready")
	return nil
}

// Setups returns how many times Setup was called.
func (p *Provider) Setups() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.setups
}

type trigger struct {
	edge  hw.Edge
	out   hw.Motor
	value int16
}

// Switch is a simulated digital input.
type Switch struct {
	name     string
	lock     sync.Mutex
	state    bool
	triggers []trigger
}

// Name returns the element name.
func (s *Switch) Name() string { return s.name }

// State implements hw.Switch.
func (s *Switch) State() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Set changes the state and fires the triggers matching the edge.
func (s *Switch) Set(state bool) {
	s.lock.Lock()
	old := s.state
	s.state = state
	triggers := s.triggers
	s.lock.Unlock()
	for _, t := range triggers {
		if t.edge.Matches(old, state) {
			if err := t.out.SetSpeed(t.value); err != nil {
				glog.Errorf("trigger %s on %s: %v", t.edge, s.name, err)
			}
		}
	}
}

// OnTrigger implements hw.Switch.
func (s *Switch) OnTrigger(edge hw.Edge, out hw.Motor, value int16) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.triggers = append(s.triggers, trigger{edge: edge, out: out, value: value})
	return nil
}

// Analog is a simulated analog input.
type Analog struct {
	name  string
	lock  sync.Mutex
	value uint32
}

// Name returns the element name.
func (a *Analog) Name() string { return a.name }

// Value implements hw.Analog.
func (a *Analog) Value() uint32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.value
}

// Set changes the value.
func (a *Analog) Set(v uint32) {
	a.lock.Lock()
	a.value = v
	a.lock.Unlock()
}

// Motor is a simulated motor.
type Motor struct {
	name  string
	lock  sync.Mutex
	speed int16
	sets  int
}

// Name returns the element name.
func (m *Motor) Name() string { return m.name }

// SetSpeed implements hw.Motor.
func (m *Motor) SetSpeed(speed int16) error {
	m.lock.Lock()
	m.speed = speed
	m.sets++
	m.lock.Unlock()
	return nil
}

// Speed returns the last speed set.
func (m *Motor) Speed() int16 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.speed
}

// Sets returns how many times SetSpeed was called.
func (m *Motor) Sets() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.sets
}

// LED is a simulated RGB LED.
type LED struct {
	index      int
	lock       sync.Mutex
	color      hw.Color
	brightness uint8
}

// Index returns the LED index.
func (l *LED) Index() int { return l.index }

// SetColor implements hw.LED.
func (l *LED) SetColor(c hw.Color) error {
	l.lock.Lock()
	l.color = c
	l.lock.Unlock()
	return nil
}

// SetBrightness implements hw.LED.
func (l *LED) SetBrightness(b uint8) error {
	l.lock.Lock()
	l.brightness = b
	l.lock.Unlock()
	return nil
}

// Color returns the current color.
func (l *LED) Color() hw.Color {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.color
}

// Brightness returns the current brightness.
func (l *LED) Brightness() uint8 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.brightness
}
