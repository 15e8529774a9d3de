// package overlay is the network-agnostic surface the application
// modules build on: they send module envelopes to connected node ids
// and learn which ids are connected, without knowing which algorithm
// maintains the connections underneath.
package overlay

import (
	"github.com/ineiti/fledger-sub003/nodeids"
	"github.com/ineiti/fledger-sub003/router"
)

type OverlayMessage interface {
	isOverlayMessage()
}

// WrapperToNetwork sends a module envelope to a connected node.
type WrapperToNetwork struct {
	Dst     nodeids.NodeID
	Wrapper router.NetworkWrapper
}

// NodeIDsConnected is published whenever the connected set changes.
type NodeIDsConnected struct {
	IDs nodeids.NodeIDs
}

// WrapperFromNetwork delivers a module envelope received from a node.
type WrapperFromNetwork struct {
	Src     nodeids.NodeID
	Wrapper router.NetworkWrapper
}

func (WrapperToNetwork) isOverlayMessage()   {}
func (NodeIDsConnected) isOverlayMessage()   {}
func (WrapperFromNetwork) isOverlayMessage() {}
