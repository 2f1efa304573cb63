package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/swarmio/pkg/l0/swarm"
	"github.com/robotalks/swarmio/pkg/l0/swarm/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/swarmio/"
)

func init() {
	if val := os.Getenv("SWARMIO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if !strings.HasSuffix(topic, "/meta") {
			log.Printf("%s: %d bytes", topic, len(payload))
			return
		}
		if len(payload) == 0 {
			log.Printf("%s: left", topic)
			return
		}
		announce, err := swarm.DecodeAnnounce(payload)
		if err != nil {
			log.Printf("%s: bad announcement: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, announce.String())
	}))
	if err := q.Connect(context.Background(), mqtt.DefaultConnectTimeout); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
