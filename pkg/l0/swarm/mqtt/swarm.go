package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/swarmio/pkg/l0/swarm"
)

// Timeouts used when not set on Swarm.
const (
	DefaultConnectTimeout  = 5 * time.Second
	DefaultDiscoverTimeout = 500 * time.Millisecond
)

// Swarm implements hw.Swarm over MQTT.
//
// The node publishes its Announce retained on <swarm>/<id>/meta, with a
// will clearing it, and learns peers from the retained announcements of
// the other nodes.
type Swarm struct {
	Queue           *Queue
	Announce        *swarm.Announce
	ConnectTimeout  time.Duration
	DiscoverTimeout time.Duration

	payload []byte
	sub     *Subscription

	peersLock sync.RWMutex
	peers     map[string]*swarm.Announce
}

// New creates a Swarm.
func New(brokerURL string, announce *swarm.Announce) (*Swarm, error) {
	if announce.Swarm == "" || announce.NodeID == "" {
		return nil, fmt.Errorf("swarm name and node id are required")
	}
	if strings.ContainsAny(announce.Swarm+announce.NodeID, "/+#") {
		return nil, fmt.Errorf("invalid swarm name %q or node id %q", announce.Swarm, announce.NodeID)
	}
	payload, err := announce.Encode()
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+swarm.MetaTopic(announce.Swarm, announce.NodeID), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("swarmio:" + announce.Swarm + ":" + announce.NodeID)
	}
	s := &Swarm{
		Queue:    NewQueue(opts, topicPrefix),
		Announce: announce,
		payload:  payload,
		peers:    make(map[string]*swarm.Announce),
	}
	s.Queue.OnConnect = func(*Queue) { s.publish() }
	s.sub = s.Queue.Sub(swarm.MetaTopic(announce.Swarm, "+"), s.handleMeta)
	return s, nil
}

// Setup implements hw.Swarm. It connects if needed, (re)publishes the
// announcement and collects peers for DiscoverTimeout.
func (s *Swarm) Setup(ctx context.Context) error {
	timeout := s.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	if err := s.Queue.Connect(ctx, timeout); err != nil {
		return fmt.Errorf("connect broker: %v", err)
	}
	if err := Wait(ctx, s.publish(), timeout); err != nil {
		return fmt.Errorf("announce: %v", err)
	}

	discover := s.DiscoverTimeout
	if discover == 0 {
		discover = DefaultDiscoverTimeout
	}
	select {
	case <-time.After(discover):
	case <-ctx.Done():
		return ctx.Err()
	}
	peers := s.Peers()
	glog.Infof("swarm %s: %d peers", s.Announce.Swarm, len(peers))
	for _, p := range peers {
		glog.Infof("peer %s on %s boot %s", p.NodeID, p.Hostname, p.BootID)
	}
	return nil
}

// Run implements Runnable. It clears the announcement when ctx is done.
func (s *Swarm) Run(ctx context.Context) error {
	<-ctx.Done()
	if s.Queue.Client.IsConnected() {
		token := s.Queue.PubWith(swarm.MetaTopic(s.Announce.Swarm, s.Announce.NodeID), nil, 1, true)
		token.WaitTimeout(time.Second)
	}
	s.sub.Close()
	return s.Queue.Close()
}

// Peers returns the announcements of other nodes, ordered by node ID.
func (s *Swarm) Peers() []*swarm.Announce {
	s.peersLock.RLock()
	defer s.peersLock.RUnlock()
	return sortAnnounces(s.peers)
}

func (s *Swarm) publish() paho.Token {
	return s.Queue.PubWith(swarm.MetaTopic(s.Announce.Swarm, s.Announce.NodeID), s.payload, 1, true)
}

func (s *Swarm) handleMeta(topic string, payload []byte) {
	items := strings.Split(topic, "/")
	if len(items) != 3 {
		return
	}
	id := items[1]
	if id == s.Announce.NodeID {
		return
	}
	if len(payload) == 0 {
		s.peersLock.Lock()
		delete(s.peers, id)
		s.peersLock.Unlock()
		glog.V(1).Infof("peer %s left", id)
		return
	}
	announce, err := swarm.DecodeAnnounce(payload)
	if err != nil {
		glog.Warningf("peer %s: bad announcement: %v", id, err)
		return
	}
	s.peersLock.Lock()
	prev := s.peers[id]
	s.peers[id] = announce
	s.peersLock.Unlock()
	if prev == nil || prev.BootID != announce.BootID {
		glog.V(1).Infof("peer %s joined (boot %s)", id, announce.BootID)
	}
}
