// Package env sets up everything a swarm node needs from flags
// and environment variables.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"

	fx "github.com/robotalks/swarmio/pkg/framework"
	"github.com/robotalks/swarmio/pkg/l0/comm"
	"github.com/robotalks/swarmio/pkg/l0/hw"
	"github.com/robotalks/swarmio/pkg/l0/hw/gpio"
	"github.com/robotalks/swarmio/pkg/l0/hw/sim"
	"github.com/robotalks/swarmio/pkg/l0/node"
	"github.com/robotalks/swarmio/pkg/l0/swarm"
	"github.com/robotalks/swarmio/pkg/l0/swarm/mqtt"
)

// Hardware providers.
const (
	HardwareSim  = "sim"
	HardwareGPIO = "gpio"
)

// Config provides options to setup a node.
type Config struct {
	// Port is the serial device of the controller link.
	Port        string
	Baud        int
	CharTimeout time.Duration
	Interval    time.Duration

	// Hardware is HardwareSim or HardwareGPIO, PinMap is the YAML
	// pin map file for HardwareGPIO.
	Hardware string
	PinMap   string

	// MQTTBrokerURL specifies the swarm broker, empty for standalone.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	Swarm         string
	NodeID        string
}

var defaultConfig = Config{
	Port:        "/dev/ttyUSB0",
	Baud:        115200,
	CharTimeout: comm.DefaultCharTimeout,
	Interval:    node.DefaultInterval,
	Hardware:    HardwareSim,
	Swarm:       "swarm",
}

func init() {
	if val := os.Getenv("SWARMIO_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("SWARMIO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SWARMIO_PINS"); val != "" {
		defaultConfig.PinMap = val
	}
	defaultConfig.NodeID = MachineID()
}

// MachineID retrieves the unique ID identifying the machine, or the
// host name if that isn't available.
func MachineID() string {
	id, err := machineid.ProtectedID("swarmio")
	if err == nil {
		return id[:16]
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "node"
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device of the controller link")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate")
	flag.DurationVar(&defaultConfig.CharTimeout, "char-timeout", defaultConfig.CharTimeout, "Max gap between bytes of a command")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Control loop interval")
	flag.StringVar(&defaultConfig.Hardware, "hw", defaultConfig.Hardware, "Hardware provider: sim, gpio")
	flag.StringVar(&defaultConfig.PinMap, "pins", defaultConfig.PinMap, "YAML pin map for gpio")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL of the swarm")
	flag.StringVar(&defaultConfig.Swarm, "swarm", defaultConfig.Swarm, "Swarm name")
	flag.StringVar(&defaultConfig.NodeID, "id", defaultConfig.NodeID, "Node ID")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the env of a node.
type Env struct {
	Config   *Config
	Hardware hw.Provider
	Swarm    hw.Swarm

	runners []fx.Runnable
	closers []func() error
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.NodeID == "" {
		return nil, fmt.Errorf("node id must be specified")
	}
	env := &Env{Config: c}
	switch c.Hardware {
	case HardwareSim:
		env.Hardware = sim.New()
	case HardwareGPIO:
		if c.PinMap == "" {
			return nil, fmt.Errorf("pin map is required for gpio")
		}
		pinMap, err := gpio.LoadPinMapFile(c.PinMap)
		if err != nil {
			return nil, err
		}
		provider, err := gpio.Open(pinMap)
		if err != nil {
			return nil, fmt.Errorf("open gpio error: %v", err)
		}
		env.Hardware = provider
		env.runners = append(env.runners, fx.NamedRun("gpio-triggers", provider))
		env.closers = append(env.closers, provider.Close)
	default:
		return nil, fmt.Errorf("unknown hardware provider %q", c.Hardware)
	}

	if c.MQTTBrokerURL == "" {
		env.Swarm = &swarm.Standalone{NodeID: c.NodeID}
		return env, nil
	}
	s, err := mqtt.New(c.MQTTBrokerURL, swarm.NewAnnounce(c.Swarm, c.NodeID, c.Port))
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("create MQTT swarm error: %v", err)
	}
	env.Swarm = s
	env.runners = append(env.runners, fx.NamedRun("swarm", s))
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(e.runners...)
	if e.Config.Interval > 0 {
		loop.Interval = e.Config.Interval
	}
}

// Close releases the hardware.
func (e *Env) Close() error {
	errs := &fx.AggregatedError{}
	for _, fn := range e.closers {
		errs.Add(fn())
	}
	return errs.Aggregate()
}
