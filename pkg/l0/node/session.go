package node

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/swarmio/pkg/framework"
	"github.com/robotalks/swarmio/pkg/l0/comm"
	"github.com/robotalks/swarmio/pkg/l0/hw"
)

// DefaultInterval is the delay before each loop iteration.
const DefaultInterval = 25 * time.Millisecond

// Options configures a Session.
type Options struct {
	ID          string
	Port        comm.Port
	CharTimeout time.Duration
	Hardware    hw.Provider
	Swarm       hw.Swarm
	Restarter   Restarter
}

// Session owns the registry and all hardware handles of a running
// node. It lives until the process is restarted.
type Session struct {
	ID         string
	Registry   Registry
	Dispatcher Dispatcher
	Scanner    Scanner

	out       *comm.Writer
	tokenizer *comm.Tokenizer
}

// NewSession creates a Session.
func NewSession(opts Options) (*Session, error) {
	if opts.Port == nil || opts.Hardware == nil || opts.Swarm == nil || opts.Restarter == nil {
		return nil, errors.New("port, hardware, swarm and restarter are required")
	}
	tokenizer, err := comm.NewTokenizer(opts.Port, opts.CharTimeout)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        opts.ID,
		out:       comm.NewWriter(opts.Port),
		tokenizer: tokenizer,
	}
	s.Dispatcher = Dispatcher{
		Registry:  &s.Registry,
		Hardware:  opts.Hardware,
		Swarm:     opts.Swarm,
		Restarter: opts.Restarter,
		Out:       s.out,
	}
	s.Scanner = Scanner{Registry: &s.Registry, Out: s.out}
	return s, nil
}

// Start brings up the swarm and prints the ready banner. A swarm
// failure is logged and the node keeps going standalone.
func (s *Session) Start(ctx context.Context) error {
	s.out.Println("Setup: node " + s.ID)
	if err := s.Dispatcher.Swarm.Setup(ctx); err != nil {
		glog.Errorf("swarm setup: %v", err)
	}
	s.out.Println(comm.Banner)
	return s.out.Err()
}

// AddToLoop implements LoopAdder.
func (s *Session) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, fx.ControlFunc(s.HandleCommand))
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(s.Scan))
}

// HandleCommand reads and dispatches at most one command.
func (s *Session) HandleCommand(cc fx.ControlContext) error {
	line, err := s.tokenizer.ReadCommand()
	if err != nil {
		return fx.Fatal(err)
	}
	if line == "" {
		return nil
	}
	if !s.Dispatcher.Dispatch(cc.Context(), line) {
		glog.V(1).Infof("ignored command %q", line)
	} else {
		glog.V(2).Infof("command %q", line)
	}
	return fx.Fatal(s.out.Err())
}

// Scan runs one change-detection pass.
func (s *Session) Scan(cc fx.ControlContext) error {
	if n := s.Scanner.Scan(); n > 0 {
		glog.V(3).Infof("iteration %d: %d notifications", cc.Iteration(), n)
	}
	return fx.Fatal(s.out.Err())
}
