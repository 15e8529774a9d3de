package overlay

import (
	"github.com/ineiti/fledger-sub003/broker"
	"github.com/ineiti/fledger-sub003/random"
)

// WireRandom puts the overlay vocabulary on top of a random-connections
// broker. The adaptor is a stateless translator pair: sends pass
// through untouched, connection snapshots and received envelopes come
// back up renamed. It holds no state and performs no retries.
func WireRandom(rnd *broker.Broker[random.RandomMessage]) (*broker.Broker[OverlayMessage], error) {
	ov := broker.New[OverlayMessage]()
	if _, err := broker.Link(ov, rnd, toRandom, fromRandom); err != nil {
		return nil, err
	}
	return ov, nil
}

func toRandom(msg OverlayMessage) (random.RandomMessage, bool) {
	if m, ok := msg.(WrapperToNetwork); ok {
		return random.WrapperToNetwork{Dst: m.Dst, Wrapper: m.Wrapper}, true
	}
	return nil, false
}

func fromRandom(msg random.RandomMessage) (OverlayMessage, bool) {
	switch msg := msg.(type) {
	case random.ListUpdate:
		return NodeIDsConnected{IDs: msg.IDs}, true
	case random.WrapperFromNetwork:
		return WrapperFromNetwork{Src: msg.Src, Wrapper: msg.Wrapper}, true
	}
	return nil, false
}
