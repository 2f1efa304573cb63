package gpio

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPWMFreq is used when the pin map doesn't set one.
const DefaultPWMFreq = 64000

// SwitchPin maps a switch to an input pin.
type SwitchPin struct {
	Pin uint8 `yaml:"pin"`
	// Pull is one of "up", "down", "off" (default "up").
	Pull string `yaml:"pull"`
	// Invert makes a low level read as pressed.
	Invert bool `yaml:"invert"`
}

// MotorPin maps a motor to a PWM pin and an optional direction pin.
type MotorPin struct {
	PWM uint8  `yaml:"pwm"`
	Dir *uint8 `yaml:"dir"`
	// Max is the speed mapped to full duty cycle, defaults to 255.
	Max uint32 `yaml:"max"`
}

// PinMap describes how element names map to BCM pin numbers.
type PinMap struct {
	PWMFreq  int                  `yaml:"pwm-freq"`
	Switches map[string]SwitchPin `yaml:"switches"`
	Motors   map[string]MotorPin  `yaml:"motors"`
	LEDs     map[int]uint8        `yaml:"leds"`
}

// LoadPinMap decodes a YAML pin map.
func LoadPinMap(r io.Reader) (*PinMap, error) {
	pm := &PinMap{}
	if err := yaml.NewDecoder(r).Decode(pm); err != nil && err != io.EOF {
		return nil, fmt.Errorf("pin map: %v", err)
	}
	if err := pm.validate(); err != nil {
		return nil, err
	}
	return pm, nil
}

// LoadPinMapFile loads a YAML pin map from a file.
func LoadPinMapFile(fn string) (*PinMap, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPinMap(f)
}

func (pm *PinMap) validate() error {
	if pm.PWMFreq <= 0 {
		pm.PWMFreq = DefaultPWMFreq
	}
	for name, sw := range pm.Switches {
		switch sw.Pull {
		case "":
			sw.Pull = "up"
			pm.Switches[name] = sw
		case "up", "down", "off":
		default:
			return fmt.Errorf("pin map: switch %q: invalid pull %q", name, sw.Pull)
		}
	}
	for name, mot := range pm.Motors {
		if mot.Max == 0 {
			mot.Max = 255
			pm.Motors[name] = mot
		}
	}
	for index := range pm.LEDs {
		if index < 0 {
			return fmt.Errorf("pin map: invalid led index %d", index)
		}
	}
	return nil
}
