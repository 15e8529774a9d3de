package ping

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ineiti/fledger-sub003/broker"
	"github.com/ineiti/fledger-sub003/codec"
	"github.com/ineiti/fledger-sub003/logger"
	"github.com/ineiti/fledger-sub003/nodeids"
	"github.com/ineiti/fledger-sub003/overlay"
	"github.com/ineiti/fledger-sub003/router"
)

// Module tracks ping statistics for the connected neighbors.
type Module struct {
	mu      sync.Mutex
	storage *storage
	logger  *zap.SugaredLogger
}

func NewModule(cfg Config) *Module {
	return &Module{
		storage: newStorage(cfg),
		logger:  logger.Get().Sugar().With("module", "ping"),
	}
}

// Stats returns the bookkeeping for one neighbor, or nil when the
// neighbor is not tracked.
func (m *Module) Stats(id nodeids.NodeID) *Stat {
	m.mu.Lock()
	defer m.mu.Unlock()
	stat, ok := m.storage.stats[id]
	if !ok {
		return nil
	}
	cp := *stat
	return &cp
}

// Process consumes one message and returns the messages to publish.
func (m *Module) Process(msg PingMessage) []PingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch msg := msg.(type) {
	case Tick:
		return m.tick()
	case NodeList:
		return m.nodeList(msg.IDs)
	case FromNetwork:
		return m.fromNetwork(msg.Src, msg.Msg)
	}
	return nil
}

func (m *Module) tick() []PingMessage {
	m.storage.tick()
	out := m.pings()
	for _, id := range m.storage.failed {
		m.logger.Infof("node %s stopped answering", id)
		out = append(out, Failed{ID: id})
	}
	return out
}

func (m *Module) nodeList(ids nodeids.NodeIDs) []PingMessage {
	for id := range m.storage.stats {
		if !ids.Contains(id) {
			m.storage.removeNode(id)
		}
	}
	for _, id := range ids {
		m.storage.newNode(id)
	}
	return m.pings()
}

func (m *Module) fromNetwork(src nodeids.NodeID, msg WireMessage) []PingMessage {
	switch msg.Kind {
	case KindPing:
		return []PingMessage{ToNetwork{Dst: src, Msg: WireMessage{Kind: KindPong}}}
	case KindPong:
		m.storage.pong(src)
		return m.pings()
	}
	return nil
}

func (m *Module) pings() []PingMessage {
	var out []PingMessage
	for _, id := range m.storage.ping {
		out = append(out, ToNetwork{Dst: id, Msg: WireMessage{Kind: KindPing}})
	}
	m.storage.ping = nil
	return out
}

// Wire creates the ping broker on top of an overlay broker: the module
// is attached as a handler, the link wraps outgoing messages into
// module envelopes and unwraps incoming ones. Envelopes of other
// modules pass by untouched.
func Wire(cfg Config, c codec.Codec, ov *broker.Broker[overlay.OverlayMessage]) (*broker.Broker[PingMessage], *Module, error) {
	b := broker.New[PingMessage]()
	m := NewModule(cfg)
	if _, err := b.AddHandler(m.Process); err != nil {
		return nil, nil, err
	}

	log := m.logger
	toOverlay := func(msg PingMessage) (overlay.OverlayMessage, bool) {
		tn, ok := msg.(ToNetwork)
		if !ok {
			return nil, false
		}
		w, err := router.WrapModule(c, ModuleName, tn.Msg)
		if err != nil {
			log.Errorf("failed to encode %s message: %v", tn.Msg.Kind, err)
			return nil, false
		}
		return overlay.WrapperToNetwork{Dst: tn.Dst, Wrapper: w}, true
	}
	fromOverlay := func(msg overlay.OverlayMessage) (PingMessage, bool) {
		switch msg := msg.(type) {
		case overlay.NodeIDsConnected:
			return NodeList{IDs: msg.IDs}, true
		case overlay.WrapperFromNetwork:
			var wire WireMessage
			ok, err := msg.Wrapper.Unwrap(c, ModuleName, &wire)
			if err != nil {
				log.Errorf("failed to decode envelope from %s: %v", msg.Src, err)
				return nil, false
			}
			if !ok {
				return nil, false
			}
			return FromNetwork{Src: msg.Src, Msg: wire}, true
		}
		return nil, false
	}

	if _, err := broker.Link(b, ov, toOverlay, fromOverlay); err != nil {
		return nil, nil, err
	}
	return b, m, nil
}
