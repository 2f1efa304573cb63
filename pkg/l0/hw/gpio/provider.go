// Package gpio drives switches, motors and LEDs wired to the GPIO
// header of a Raspberry Pi.
//
// Switch triggers use the edge detection of the SoC, which is polled by
// Run, so the Provider must be added to the loop as a Runnable.
// Analog inputs are not available on the header.
package gpio

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/robotalks/swarmio/pkg/l0/hw"
)

// DefaultPollInterval is the trigger polling interval.
const DefaultPollInterval = time.Millisecond

// Provider implements hw.Provider on GPIO pins.
type Provider struct {
	PollInterval time.Duration

	pinMap *PinMap
	pins   pins

	lock     sync.Mutex
	switches map[string]*Switch
	motors   map[string]*Motor
	leds     map[int]*LED
}

// Open maps the GPIO memory and creates a Provider.
func Open(pinMap *PinMap) (*Provider, error) {
	if err := rpio.Open(); err != nil {
		return nil, err
	}
	return newProvider(pinMap, rpioPins{}), nil
}

func newProvider(pinMap *PinMap, p pins) *Provider {
	return &Provider{
		PollInterval: DefaultPollInterval,
		pinMap:       pinMap,
		pins:         p,
		switches:     make(map[string]*Switch),
		motors:       make(map[string]*Motor),
		leds:         make(map[int]*LED),
	}
}

// Close stops all motors, turns off LEDs and unmaps the GPIO memory.
func (p *Provider) Close() error {
	p.lock.Lock()
	for _, m := range p.motors {
		m.SetSpeed(0)
	}
	for _, l := range p.leds {
		l.SetBrightness(0)
	}
	p.lock.Unlock()
	if _, ok := p.pins.(rpioPins); ok {
		return rpio.Close()
	}
	return nil
}

// Switch implements hw.Provider.
func (p *Provider) Switch(name string) (hw.Switch, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if s := p.switches[name]; s != nil {
		return s, nil
	}
	conf, ok := p.pinMap.Switches[name]
	if !ok {
		return nil, &hw.UnknownElementError{Kind: "switch", Name: name}
	}
	p.pins.Input(conf.Pin)
	p.pins.Pull(conf.Pin, pullOf(conf.Pull))
	s := &Switch{name: name, pin: conf.Pin, invert: conf.Invert, pins: p.pins}
	s.last = s.State()
	p.switches[name] = s
	return s, nil
}

// Analog implements hw.Provider.
func (p *Provider) Analog(name string) (hw.Analog, error) {
	return nil, hw.ErrUnsupported
}

// Motor implements hw.Provider.
func (p *Provider) Motor(name string) (hw.Motor, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if m := p.motors[name]; m != nil {
		return m, nil
	}
	conf, ok := p.pinMap.Motors[name]
	if !ok {
		return nil, &hw.UnknownElementError{Kind: "motor", Name: name}
	}
	p.pins.Pwm(conf.PWM)
	p.pins.Freq(conf.PWM, p.pinMap.PWMFreq)
	p.pins.DutyCycle(conf.PWM, 0, conf.Max)
	if conf.Dir != nil {
		p.pins.Output(*conf.Dir)
		p.pins.Write(*conf.Dir, rpio.Low)
	}
	m := &Motor{name: name, conf: conf, pins: p.pins}
	p.motors[name] = m
	return m, nil
}

// LED implements hw.Provider.
func (p *Provider) LED(index int) (hw.LED, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if l := p.leds[index]; l != nil {
		return l, nil
	}
	pin, ok := p.pinMap.LEDs[index]
	if !ok {
		return nil, &hw.UnknownElementError{Kind: "led", Name: strconv.Itoa(index)}
	}
	p.pins.Output(pin)
	p.pins.Write(pin, rpio.Low)
	l := &LED{pin: pin, pins: p.pins}
	p.leds[index] = l
	return l, nil
}

// Run implements framework.Runnable, it polls switches with triggers.
func (p *Provider) Run(ctx context.Context) error {
	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll fires the triggers of switches which changed since last poll.
func (p *Provider) Poll() {
	p.lock.Lock()
	switches := make([]*Switch, 0, len(p.switches))
	for _, s := range p.switches {
		switches = append(switches, s)
	}
	p.lock.Unlock()
	for _, s := range switches {
		s.poll()
	}
}

type trigger struct {
	edge  hw.Edge
	out   hw.Motor
	value int16
}

// Switch is an input pin.
type Switch struct {
	name   string
	pin    uint8
	invert bool
	pins   pins

	lock     sync.Mutex
	last     bool
	triggers []trigger
}

// State implements hw.Switch.
func (s *Switch) State() bool {
	return (s.pins.Read(s.pin) == rpio.High) != s.invert
}

// OnTrigger implements hw.Switch.
func (s *Switch) OnTrigger(edge hw.Edge, out hw.Motor, value int16) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.triggers) == 0 {
		s.pins.Detect(s.pin, rpio.AnyEdge)
		s.last = s.State()
	}
	s.triggers = append(s.triggers, trigger{edge: edge, out: out, value: value})
	return nil
}

func (s *Switch) poll() {
	s.lock.Lock()
	if len(s.triggers) == 0 {
		s.lock.Unlock()
		return
	}
	detected := s.pins.EdgeDetected(s.pin)
	old, state := s.last, s.State()
	s.last = state
	triggers := s.triggers
	s.lock.Unlock()

	switch {
	case old != state:
		s.fire(triggers, old, state)
	case detected:
		// a pulse shorter than the poll interval
		s.fire(triggers, old, !old)
		s.fire(triggers, !old, old)
	}
}

func (s *Switch) fire(triggers []trigger, old, state bool) {
	for _, t := range triggers {
		if !t.edge.Matches(old, state) {
			continue
		}
		if err := t.out.SetSpeed(t.value); err != nil {
			glog.Errorf("trigger %s on %s: %v", t.edge, s.name, err)
		}
	}
}

// Motor is a PWM driven motor.
type Motor struct {
	name string
	conf MotorPin
	pins pins
}

// SetSpeed implements hw.Motor. Without a direction pin negative
// speeds stop the motor.
func (m *Motor) SetSpeed(speed int16) error {
	duty := int64(speed)
	if duty < 0 {
		if m.conf.Dir == nil {
			duty = 0
		} else {
			duty = -duty
		}
	}
	if duty > int64(m.conf.Max) {
		duty = int64(m.conf.Max)
	}
	if m.conf.Dir != nil {
		dir := rpio.Low
		if speed < 0 {
			dir = rpio.High
		}
		m.pins.Write(*m.conf.Dir, dir)
	}
	m.pins.DutyCycle(m.conf.PWM, uint32(duty), m.conf.Max)
	glog.V(2).Infof("motor %s speed %d", m.name, speed)
	return nil
}

// LED is a single color LED on an output pin, it lights whenever
// both the color and the brightness are non-zero.
type LED struct {
	pin  uint8
	pins pins

	lock       sync.Mutex
	color      hw.Color
	brightness uint8
}

// SetColor implements hw.LED.
func (l *LED) SetColor(c hw.Color) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.color = c
	l.update()
	return nil
}

// SetBrightness implements hw.LED.
func (l *LED) SetBrightness(b uint8) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.brightness = b
	l.update()
	return nil
}

func (l *LED) update() {
	state := rpio.Low
	if l.color != hw.Black && l.brightness > 0 {
		state = rpio.High
	}
	l.pins.Write(l.pin, state)
}
