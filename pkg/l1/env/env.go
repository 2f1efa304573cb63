// Package env configures controller side tools.
package env

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robotalks/swarmio/pkg/l0/swarm"
	"github.com/robotalks/swarmio/pkg/l0/swarm/mqtt"
	"github.com/robotalks/swarmio/pkg/l1/link"
)

// Config provides common options to reach swarm nodes.
type Config struct {
	// Port is the serial device connected to a node.
	Port string
	Baud int

	// MQTTBrokerURL specifies the broker nodes announce themselves on.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL   string
	Swarm           string
	DiscoverTimeout time.Duration
}

var defaultConfig = Config{
	Port:            "/dev/ttyUSB0",
	Baud:            115200,
	MQTTBrokerURL:   "mqtt://localhost:1883/swarmio/",
	DiscoverTimeout: time.Second,
}

func init() {
	if val := os.Getenv("SWARMIO_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("SWARMIO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SWARMIO_SWARM"); val != "" {
		defaultConfig.Swarm = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device of the node.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for discovery.")
	flag.StringVar(&defaultConfig.Swarm, "swarm", defaultConfig.Swarm, "Swarm to discover, empty for all.")
	flag.DurationVar(&defaultConfig.DiscoverTimeout, "discover-timeout", defaultConfig.DiscoverTimeout, "Time to wait for announcements.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Connect opens the serial link to the node on port, or the
// configured port if empty.
func (c *Config) Connect(port string, console link.ConsoleFunc) (*link.Conn, error) {
	if port == "" {
		port = c.Port
	}
	if port == "" {
		return nil, fmt.Errorf("serial port must be specified")
	}
	return link.Open(port, c.Baud, console)
}

// MustConnect connects the node or fails.
func (c *Config) MustConnect(console link.ConsoleFunc) *link.Conn {
	conn, err := c.Connect("", console)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Discover lists the nodes announced on the broker.
func (c *Config) Discover(ctx context.Context) ([]*swarm.Announce, error) {
	if c.MQTTBrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker URL must be specified")
	}
	return mqtt.Discover(ctx, c.MQTTBrokerURL, c.Swarm, c.DiscoverTimeout)
}
