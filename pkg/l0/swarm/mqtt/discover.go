package mqtt

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/robotalks/swarmio/pkg/l0/swarm"
)

// Discover collects the retained announcements of all nodes in a swarm
// (all swarms if swarmName is empty) for the duration of timeout.
func Discover(ctx context.Context, brokerURL, swarmName string, timeout time.Duration) ([]*swarm.Announce, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	filter := swarm.MetaTopic("+", "+")
	if swarmName != "" {
		filter = swarm.MetaTopic(swarmName, "+")
	}
	resCh := make(chan *swarm.Announce, 16)
	q.Sub(filter, func(topic string, payload []byte) {
		if len(payload) == 0 || len(strings.Split(topic, "/")) != 3 {
			return
		}
		if announce, err := swarm.DecodeAnnounce(payload); err == nil {
			select {
			case resCh <- announce:
			case <-time.After(time.Second):
			}
		}
	})
	if err := q.Connect(ctx, DefaultConnectTimeout); err != nil {
		return nil, err
	}
	defer q.Close()

	found := make(map[string]*swarm.Announce)
	expire := time.After(timeout)
	for {
		select {
		case announce := <-resCh:
			found[announce.Swarm+"/"+announce.NodeID] = announce
		case <-expire:
			return sortAnnounces(found), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func sortAnnounces(m map[string]*swarm.Announce) []*swarm.Announce {
	res := make([]*swarm.Announce, 0, len(m))
	for _, a := range m {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Swarm != res[j].Swarm {
			return res[i].Swarm < res[j].Swarm
		}
		return res[i].NodeID < res[j].NodeID
	})
	return res
}
