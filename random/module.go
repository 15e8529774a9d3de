// package random keeps each node's connection degree near a target by
// randomly connecting to peers from the latest discovery snapshot. It
// consumes and feeds a Broker[RandomMessage]; nothing else touches its
// state.
package random

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/ineiti/fledger-sub003/logger"
	"github.com/ineiti/fledger-sub003/nodeids"
	"github.com/ineiti/fledger-sub003/router"
)

type Config struct {
	// TargetDegree is how many connections the module tries to hold.
	TargetDegree int

	// PendingTimeout is how many ticks a connect attempt may stay
	// unconfirmed before it is demoted back to known and retried later.
	PendingTimeout uint32
}

func DefaultConfig() Config {
	return Config{
		TargetDegree:   20,
		PendingTimeout: 5,
	}
}

// Module is the random-connections state machine. Its lists are owned
// exclusively by the module; everything else talks to it through the
// broker it is attached to.
type Module struct {
	// protects the node lists when the broker delivers from more than
	// one goroutine; Process never emits while holding it
	mu        sync.Mutex
	cfg       Config
	known     nodes
	pending   nodes
	connected nodes
	rnd       *rand.Rand
	logger    *zap.SugaredLogger
}

func NewModule(cfg Config) *Module {
	if cfg.TargetDegree < 1 {
		cfg.TargetDegree = 1
	}
	return &Module{
		cfg:    cfg,
		rnd:    rand.New(rand.NewSource(rand.Int63())),
		logger: logger.Get().Sugar().With("module", "random"),
	}
}

// Process consumes one message and returns the messages to publish.
// Output variants coming back around the broker are ignored, except
// WrapperFromNetwork, which is evidence of a live connection.
func (m *Module) Process(msg RandomMessage) []RandomMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch msg := msg.(type) {
	case NodeList:
		return m.nodeList(msg.IDs)
	case NodeConnected:
		return m.nodeConnected(msg.ID)
	case NodeDisconnected:
		return m.nodeDisconnected(msg.ID)
	case Tick:
		return m.tick()
	case WrapperToNetwork:
		return m.wrapperToNetwork(msg.Dst, msg.Wrapper)
	case WrapperFromNetwork:
		return m.wrapperFromNetwork(msg.Src)
	case Shed:
		return m.shed(msg.N)
	}
	return nil
}

// Connected returns a snapshot of the connected ids.
func (m *Module) Connected() nodeids.NodeIDs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected.ids()
}

// Known returns a snapshot of the known-but-unreached ids.
func (m *Module) Known() nodeids.NodeIDs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.known.ids()
}

// Pending returns a snapshot of the in-flight connect attempts.
func (m *Module) Pending() nodeids.NodeIDs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.ids()
}

// nodeList replaces the membership view. Known and pending ids that
// vanished from the snapshot are pruned; connected ids are kept even
// when missing, so a flapping discovery server does not tear down a
// working connection. New selections only happen on the next tick.
func (m *Module) nodeList(ids nodeids.NodeIDs) []RandomMessage {
	m.known.removeMissing(ids)
	if dropped := m.pending.removeMissing(ids); len(dropped) > 0 {
		m.logger.Debugf("dropped %d pending nodes gone from discovery", len(dropped))
	}
	for _, id := range ids {
		if !m.pending.contains(id) && !m.connected.contains(id) {
			m.known.add(id)
		}
	}
	return nil
}

// nodeConnected moves an id into the connected set. The id does not
// have to be known or pending: the remote end may connect to us first.
func (m *Module) nodeConnected(id nodeids.NodeID) []RandomMessage {
	m.pending.remove(id)
	m.known.remove(id)
	if !m.connected.add(id) {
		return nil
	}
	return []RandomMessage{m.listUpdate()}
}

// nodeDisconnected moves a connected id back to known so it can be
// retried. Ids that were never connected are a no-op.
func (m *Module) nodeDisconnected(id nodeids.NodeID) []RandomMessage {
	if m.pending.remove(id) {
		m.known.add(id)
		return nil
	}
	if !m.connected.remove(id) {
		return nil
	}
	m.known.add(id)
	return []RandomMessage{m.listUpdate()}
}

// tick ages the lists, demotes stale connect attempts and tops the
// connection count up with a uniform random draw from the known ids.
func (m *Module) tick() []RandomMessage {
	m.pending.tick()
	m.connected.tick()

	for _, id := range m.pending.removeOlderThan(m.cfg.PendingTimeout) {
		m.logger.Debugf("connect to %s timed out", id)
		m.known.add(id)
	}

	// inbound connections can push the degree past the target between
	// two ticks; the tick sheds the surplus so the bound holds again
	if surplus := m.connected.len() - m.cfg.TargetDegree; surplus > 0 {
		return m.shed(surplus)
	}

	missing := m.cfg.TargetDegree - m.connected.len() - m.pending.len()
	if missing <= 0 || m.known.len() == 0 {
		return nil
	}
	if missing > m.known.len() {
		missing = m.known.len()
	}

	var out []RandomMessage
	known := m.known.ids()
	for _, i := range m.rnd.Perm(len(known))[:missing] {
		id := known[i]
		m.known.remove(id)
		m.pending.add(id)
		out = append(out, ConnectNode{ID: id})
	}
	return out
}

// wrapperToNetwork forwards an envelope to a connected node. Envelopes
// for unconnected nodes are dropped and the sender's view refreshed.
func (m *Module) wrapperToNetwork(dst nodeids.NodeID, w router.NetworkWrapper) []RandomMessage {
	if m.connected.contains(dst) {
		return []RandomMessage{MsgToNode{Dst: dst, Wrapper: w}}
	}
	m.logger.Debugf("dropping message for unconnected node %s", dst)
	return []RandomMessage{m.listUpdate()}
}

// wrapperFromNetwork notes the sender of a received envelope as
// connected: a message can only arrive over an established connection,
// even when the Connected event has not come through yet.
func (m *Module) wrapperFromNetwork(src nodeids.NodeID) []RandomMessage {
	return m.nodeConnected(src)
}

// shed gives up the n oldest connections. The ids go back to known, so
// a later tick may pick them again.
func (m *Module) shed(n int) []RandomMessage {
	dropped := m.connected.removeOldestN(n)
	if len(dropped) == 0 {
		return nil
	}
	out := make([]RandomMessage, 0, len(dropped)+1)
	for _, id := range dropped {
		m.known.add(id)
		out = append(out, DisconnectNode{ID: id})
	}
	return append(out, m.listUpdate())
}

func (m *Module) listUpdate() RandomMessage {
	return ListUpdate{IDs: m.connected.ids()}
}
