// Package swarm defines how a node announces itself to its swarm.
package swarm

import (
	"os"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/google/uuid"
)

// Announce is published (retained) by every node of a swarm.
type Announce struct {
	NodeID    string `protobuf:"bytes,1,opt,name=node_id,json=nodeId,proto3" json:"node_id,omitempty"`
	Swarm     string `protobuf:"bytes,2,opt,name=swarm,proto3" json:"swarm,omitempty"`
	Hostname  string `protobuf:"bytes,3,opt,name=hostname,proto3" json:"hostname,omitempty"`
	BootID    string `protobuf:"bytes,4,opt,name=boot_id,json=bootId,proto3" json:"boot_id,omitempty"`
	StartedAt int64  `protobuf:"varint,5,opt,name=started_at,json=startedAt,proto3" json:"started_at,omitempty"`
	Port      string `protobuf:"bytes,6,opt,name=port,proto3" json:"port,omitempty"`
}

// NewAnnounce creates the Announce of this process. BootID changes on
// every start so peers can tell a restarted node.
func NewAnnounce(swarm, nodeID, port string) *Announce {
	hostname, _ := os.Hostname()
	return &Announce{
		NodeID:    nodeID,
		Swarm:     swarm,
		Hostname:  hostname,
		BootID:    uuid.New().String(),
		StartedAt: time.Now().UnixNano() / int64(time.Millisecond),
		Port:      port,
	}
}

// ProtoMessage implements proto.Message.
func (m *Announce) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Announce) Reset() { *m = Announce{} }

// String implements proto.Message.
func (m *Announce) String() string { return proto.CompactTextString(m) }

// Encode serializes the message.
func (m *Announce) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeAnnounce parses a serialized Announce.
func DecodeAnnounce(data []byte) (*Announce, error) {
	m := &Announce{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// MetaTopic is where the Announce of a node is published.
func MetaTopic(swarm, nodeID string) string {
	return swarm + "/" + nodeID + "/meta"
}
