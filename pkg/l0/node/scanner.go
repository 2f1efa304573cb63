package node

import (
	"fmt"

	"github.com/robotalks/swarmio/pkg/l0/comm"
)

// Scanner compares every node against its hardware source and
// writes a notification for each reportable change.
type Scanner struct {
	Registry *Registry
	Out      *comm.Writer
}

// Scan runs one pass over the registry, it returns the number of
// notifications written.
func (s *Scanner) Scan() int {
	var count int
	s.Registry.ForEach(func(n *Node) {
		if s.scanNode(n) {
			count++
		}
	})
	return count
}

func (s *Scanner) scanNode(n *Node) bool {
	switch m := n.Monitor.(type) {
	case *Digital:
		state := m.Switch.State()
		actual := TernaryOf(state)
		if actual == m.Last {
			return false
		}
		value := 0
		if state {
			value = 1
		}
		s.Out.Notify(n.Name, value)
		m.Last = actual
		return true
	case *Analog:
		value := m.Input.Value()
		if absDiff(value, m.Last) < m.Threshold {
			return false
		}
		s.Out.Notify(n.Name, value)
		m.Last = value
		return true
	default:
		panic(fmt.Sprintf("node %q: unknown monitor %T", n.Name, n.Monitor))
	}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
