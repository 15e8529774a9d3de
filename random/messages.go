package random

import (
	"github.com/ineiti/fledger-sub003/nodeids"
	"github.com/ineiti/fledger-sub003/router"
)

// RandomMessage is the vocabulary of the random-connections broker.
// Inputs drive the module; outputs are what it publishes back for the
// network link and the overlay above.
type RandomMessage interface {
	isRandomMessage()
}

// NodeList is the latest full membership view from the signalling layer.
type NodeList struct {
	IDs nodeids.NodeIDs
}

// NodeConnected reports a connection that reached the established state.
type NodeConnected struct {
	ID nodeids.NodeID
}

// NodeDisconnected reports a lost connection.
type NodeDisconnected struct {
	ID nodeids.NodeID
}

// Tick is the periodic trigger; the interval is chosen by whoever wires
// the module up.
type Tick struct{}

// WrapperToNetwork asks the module to forward a module envelope to a
// connected node.
type WrapperToNetwork struct {
	Dst     nodeids.NodeID
	Wrapper router.NetworkWrapper
}

// Shed asks the module to give up its N oldest connections, e.g. when
// the target degree is renegotiated downwards.
type Shed struct {
	N int
}

// ConnectNode asks the transport layer to establish a connection.
type ConnectNode struct {
	ID nodeids.NodeID
}

// DisconnectNode asks the transport layer to tear a connection down.
// Emitted in response to Shed and when a tick finds the degree above
// the target.
type DisconnectNode struct {
	ID nodeids.NodeID
}

// ListUpdate is a snapshot of the connected set, published on every
// change.
type ListUpdate struct {
	IDs nodeids.NodeIDs
}

// MsgToNode is the network-bound side of WrapperToNetwork, emitted once
// the module has checked the destination is connected.
type MsgToNode struct {
	Dst     nodeids.NodeID
	Wrapper router.NetworkWrapper
}

// WrapperFromNetwork surfaces a module envelope received from a node.
type WrapperFromNetwork struct {
	Src     nodeids.NodeID
	Wrapper router.NetworkWrapper
}

func (NodeList) isRandomMessage()           {}
func (NodeConnected) isRandomMessage()      {}
func (NodeDisconnected) isRandomMessage()   {}
func (Tick) isRandomMessage()               {}
func (WrapperToNetwork) isRandomMessage()   {}
func (Shed) isRandomMessage()               {}
func (ConnectNode) isRandomMessage()        {}
func (DisconnectNode) isRandomMessage()     {}
func (ListUpdate) isRandomMessage()         {}
func (MsgToNode) isRandomMessage()          {}
func (WrapperFromNetwork) isRandomMessage() {}
