package network

import (
	"sync"

	g "github.com/zyedidia/generic"
	"github.com/zyedidia/generic/avl"
	"go.uber.org/zap"

	"github.com/ineiti/fledger-sub003/broker"
	"github.com/ineiti/fledger-sub003/logger"
	"github.com/ineiti/fledger-sub003/nodeids"
)

type simNode struct {
	id        nodeids.NodeID
	broker    *broker.Broker[NetworkMessage]
	connected map[nodeids.NodeID]bool
}

// Simulator is an in-memory signalling server plus transport fabric. It
// gives every node a network broker honoring the boundary contract:
// Connect produces Connected on both ends, Disconnect produces
// Disconnected on both ends, MsgToNode arrives as MsgFromNode at the
// destination while a connection exists.
type Simulator struct {
	mu     sync.Mutex
	nodes  *avl.Tree[string, *simNode]
	logger *zap.SugaredLogger
}

func NewSimulator() *Simulator {
	return &Simulator{
		nodes:  avl.New[string, *simNode](g.Less[string]),
		logger: logger.Get().Sugar().With("component", "simulator"),
	}
}

// AddNode registers a node and returns its network broker.
func (s *Simulator) AddNode(id nodeids.NodeID) *broker.Broker[NetworkMessage] {
	n := &simNode{
		id:        id,
		broker:    broker.New[NetworkMessage](),
		connected: make(map[nodeids.NodeID]bool),
	}
	s.mu.Lock()
	s.nodes.Put(id.Hex(), n)
	s.mu.Unlock()

	n.broker.AddHandler(func(msg NetworkMessage) []NetworkMessage {
		return s.process(n, msg)
	})
	return n.broker
}

// RemoveNode drops a node from the network: all its connections see a
// Disconnected event and its broker is torn down.
func (s *Simulator) RemoveNode(id nodeids.NodeID) {
	s.mu.Lock()
	n, ok := s.nodes.Get(id.Hex())
	if !ok {
		s.mu.Unlock()
		return
	}
	s.nodes.Remove(id.Hex())
	var peers []*simNode
	for peer := range n.connected {
		if p, ok := s.nodes.Get(peer.Hex()); ok {
			delete(p.connected, id)
			peers = append(peers, p)
		}
	}
	s.mu.Unlock()

	for _, p := range peers {
		s.emit(p.broker, Disconnected{ID: id})
	}
	n.broker.Close()
}

// SendNodeList pushes the current membership snapshot to every node,
// leaving out the recipient's own id.
func (s *Simulator) SendNodeList() {
	s.mu.Lock()
	var all []*simNode
	s.nodes.Each(func(_ string, n *simNode) {
		all = append(all, n)
	})
	s.mu.Unlock()

	for _, n := range all {
		var ids nodeids.NodeIDs
		for _, other := range all {
			if other.id != n.id {
				ids = append(ids, other.id)
			}
		}
		s.emit(n.broker, NodeList{IDs: ids})
	}
}

// NodeIDs returns the ids of all registered nodes.
func (s *Simulator) NodeIDs() nodeids.NodeIDs {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids nodeids.NodeIDs
	s.nodes.Each(func(_ string, n *simNode) {
		ids = append(ids, n.id)
	})
	return ids
}

// Connections returns the ids a node currently holds a connection with.
func (s *Simulator) Connections(id nodeids.NodeID) nodeids.NodeIDs {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes.Get(id.Hex())
	if !ok {
		return nil
	}
	var ids nodeids.NodeIDs
	for peer := range n.connected {
		ids = append(ids, peer)
	}
	return ids
}

// process handles the intents a node emits on its own broker. State
// changes happen under the lock; the resulting events are delivered
// outside of it, since delivering to a peer broker runs that peer's
// handlers.
func (s *Simulator) process(n *simNode, msg NetworkMessage) []NetworkMessage {
	switch msg := msg.(type) {
	case Connect:
		s.mu.Lock()
		p, ok := s.nodes.Get(msg.ID.Hex())
		if !ok || n.connected[msg.ID] {
			s.mu.Unlock()
			if !ok {
				s.logger.Debugf("connect to unknown node %s dropped", msg.ID)
			}
			return nil
		}
		n.connected[msg.ID] = true
		p.connected[n.id] = true
		s.mu.Unlock()

		s.emit(p.broker, Connected{ID: n.id})
		return []NetworkMessage{Connected{ID: msg.ID}}

	case Disconnect:
		s.mu.Lock()
		p, ok := s.nodes.Get(msg.ID.Hex())
		if !ok || !n.connected[msg.ID] {
			s.mu.Unlock()
			return nil
		}
		delete(n.connected, msg.ID)
		delete(p.connected, n.id)
		s.mu.Unlock()

		s.emit(p.broker, Disconnected{ID: n.id})
		return []NetworkMessage{Disconnected{ID: msg.ID}}

	case MsgToNode:
		s.mu.Lock()
		p, ok := s.nodes.Get(msg.Dst.Hex())
		up := ok && n.connected[msg.Dst]
		s.mu.Unlock()
		if !up {
			s.logger.Debugf("message to unconnected node %s dropped", msg.Dst)
			return nil
		}
		s.emit(p.broker, MsgFromNode{Src: n.id, Wrapper: msg.Wrapper})
		return nil
	}
	return nil
}

func (s *Simulator) emit(b *broker.Broker[NetworkMessage], msg NetworkMessage) {
	if err := b.Emit(msg); err != nil {
		s.logger.Warnf("delivery failed: %v", err)
	}
}
