package random

import (
	"github.com/ineiti/fledger-sub003/broker"
	"github.com/ineiti/fledger-sub003/network"
)

// Wire creates the random-connections broker: the module is attached as
// a handler and the broker is linked to the network broker, translating
// between the two vocabularies. The returned Module is read-only for
// callers; all mutation happens through the broker.
func Wire(cfg Config, net *broker.Broker[network.NetworkMessage]) (*broker.Broker[RandomMessage], *Module, error) {
	b := broker.New[RandomMessage]()
	m := NewModule(cfg)
	if _, err := b.AddHandler(m.Process); err != nil {
		return nil, nil, err
	}
	if _, err := broker.Link(b, net, toNetwork, fromNetwork); err != nil {
		return nil, nil, err
	}
	return b, m, nil
}

// toNetwork forwards the module's intents to the transport layer.
func toNetwork(msg RandomMessage) (network.NetworkMessage, bool) {
	switch msg := msg.(type) {
	case ConnectNode:
		return network.Connect{ID: msg.ID}, true
	case DisconnectNode:
		return network.Disconnect{ID: msg.ID}, true
	case MsgToNode:
		return network.MsgToNode{Dst: msg.Dst, Wrapper: msg.Wrapper}, true
	}
	return nil, false
}

// fromNetwork turns transport events into module inputs.
func fromNetwork(msg network.NetworkMessage) (RandomMessage, bool) {
	switch msg := msg.(type) {
	case network.Connected:
		return NodeConnected{ID: msg.ID}, true
	case network.Disconnected:
		return NodeDisconnected{ID: msg.ID}, true
	case network.NodeList:
		return NodeList{IDs: msg.IDs}, true
	case network.MsgFromNode:
		return WrapperFromNetwork{Src: msg.Src, Wrapper: msg.Wrapper}, true
	}
	return nil, false
}
