package swarm

import (
	"context"

	"github.com/golang/glog"
)

// Standalone is the swarm of a node without a broker.
type Standalone struct {
	NodeID string
}

// Setup implements hw.Swarm.
func (s *Standalone) Setup(ctx context.Context) error {
	glog.Infof("node %s running standalone", s.NodeID)
	return ctx.Err()
}
