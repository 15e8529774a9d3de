// package network is the boundary to the transport and signalling
// collaborators. The node only ever sees it as a Broker[NetworkMessage]:
// connect/disconnect intents and outgoing messages go in, connection
// lifecycle events and incoming messages come out. How connections are
// actually established is the transport's own business.
package network

import (
	"github.com/ineiti/fledger-sub003/nodeids"
	"github.com/ineiti/fledger-sub003/router"
)

type NetworkMessage interface {
	isNetworkMessage()
}

// Connect asks the transport to establish a connection to a node.
type Connect struct {
	ID nodeids.NodeID
}

// Disconnect asks the transport to tear a connection down.
type Disconnect struct {
	ID nodeids.NodeID
}

// MsgToNode sends a module envelope to a connected node.
type MsgToNode struct {
	Dst     nodeids.NodeID
	Wrapper router.NetworkWrapper
}

// Connected reports that a connection reached the established state.
type Connected struct {
	ID nodeids.NodeID
}

// Disconnected reports the loss of a connection.
type Disconnected struct {
	ID nodeids.NodeID
}

// MsgFromNode delivers a module envelope received from a node.
type MsgFromNode struct {
	Src     nodeids.NodeID
	Wrapper router.NetworkWrapper
}

// NodeList is the signalling layer's full membership snapshot, not a
// diff. Order carries no meaning.
type NodeList struct {
	IDs nodeids.NodeIDs
}

func (Connect) isNetworkMessage()      {}
func (Disconnect) isNetworkMessage()   {}
func (MsgToNode) isNetworkMessage()    {}
func (Connected) isNetworkMessage()    {}
func (Disconnected) isNetworkMessage() {}
func (MsgFromNode) isNetworkMessage()  {}
func (NodeList) isNetworkMessage()     {}
