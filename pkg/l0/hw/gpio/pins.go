package gpio

import (
	rpio "github.com/stianeikeland/go-rpio/v4"
)

// pins is the subset of pin operations the provider needs.
type pins interface {
	Input(pin uint8)
	Output(pin uint8)
	Pwm(pin uint8)
	Pull(pin uint8, pull rpio.Pull)
	Read(pin uint8) rpio.State
	Write(pin uint8, state rpio.State)
	Freq(pin uint8, freq int)
	DutyCycle(pin uint8, dutyLen, cycleLen uint32)
	Detect(pin uint8, edge rpio.Edge)
	EdgeDetected(pin uint8) bool
}

// rpioPins drives the pins through /dev/gpiomem.
type rpioPins struct{}

func (rpioPins) Input(pin uint8)                   { rpio.Pin(pin).Input() }
func (rpioPins) Output(pin uint8)                  { rpio.Pin(pin).Output() }
func (rpioPins) Pwm(pin uint8)                     { rpio.Pin(pin).Pwm() }
func (rpioPins) Pull(pin uint8, pull rpio.Pull)    { rpio.Pin(pin).Pull(pull) }
func (rpioPins) Read(pin uint8) rpio.State         { return rpio.Pin(pin).Read() }
func (rpioPins) Write(pin uint8, state rpio.State) { rpio.Pin(pin).Write(state) }
func (rpioPins) Freq(pin uint8, freq int)          { rpio.Pin(pin).Freq(freq) }
func (rpioPins) Detect(pin uint8, edge rpio.Edge)  { rpio.Pin(pin).Detect(edge) }
func (rpioPins) EdgeDetected(pin uint8) bool       { return rpio.Pin(pin).EdgeDetected() }

func (rpioPins) DutyCycle(pin uint8, dutyLen, cycleLen uint32) {
	rpio.Pin(pin).DutyCycle(dutyLen, cycleLen)
}

func pullOf(s string) rpio.Pull {
	switch s {
	case "down":
		return rpio.PullDown
	case "off":
		return rpio.PullOff
	default:
		return rpio.PullUp
	}
}
