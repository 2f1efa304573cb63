package main

import (
	"flag"
	"log"
	"os"
	"syscall"

	"github.com/golang/glog"
	"go.bug.st/serial"

	fx "github.com/robotalks/swarmio/pkg/framework"
	"github.com/robotalks/swarmio/pkg/l0/env"
	"github.com/robotalks/swarmio/pkg/l0/node"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	nodeEnv := conf.MustNewEnv()

	port, err := serial.Open(conf.Port, &serial.Mode{
		BaudRate: conf.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		nodeEnv.Close()
		log.Fatalf("open %s: %v", conf.Port, err)
	}
	shutdown := func() {
		port.Close()
		if err := nodeEnv.Close(); err != nil {
			glog.Errorf("close hardware: %v", err)
		}
		glog.Flush()
	}

	session, err := node.NewSession(node.Options{
		ID:          conf.NodeID,
		Port:        port,
		CharTimeout: conf.CharTimeout,
		Hardware:    nodeEnv.Hardware,
		Swarm:       nodeEnv.Swarm,
		Restarter: node.RestartFunc(func() {
			shutdown()
			restart()
		}),
	})
	if err != nil {
		shutdown()
		log.Fatalln(err)
	}

	runner := fx.NewRunner().HandleSignals()
	if err := session.Start(runner.Context); err != nil {
		shutdown()
		log.Fatalln(err)
	}
	runner.Go(fx.NewLoop().Add(nodeEnv, session))
	err = runner.Wait()
	shutdown()
	if err != nil {
		log.Fatalln(err)
	}
}

// restart replaces the process with a fresh copy of itself, so all
// subscriptions and triggers are dropped.
func restart() {
	exe, err := os.Executable()
	if err == nil {
		err = syscall.Exec(exe, os.Args, os.Environ())
	}
	log.Fatalf("restart: %v", err)
}
