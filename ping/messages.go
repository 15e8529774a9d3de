// package ping checks the liveness of overlay neighbors. It is a plain
// consumer of the overlay broker and a template for writing others.
package ping

import "github.com/ineiti/fledger-sub003/nodeids"

// ModuleName namespaces the ping envelopes on the wire.
const ModuleName = "ping"

const (
	KindPing = "ping"
	KindPong = "pong"
)

// WireMessage is what travels between two ping modules.
type WireMessage struct {
	Kind string `json:"kind"`
}

type PingMessage interface {
	isPingMessage()
}

// Tick is the periodic trigger.
type Tick struct{}

// NodeList is the current set of connected overlay neighbors.
type NodeList struct {
	IDs nodeids.NodeIDs
}

// FromNetwork is a ping or pong received from a neighbor.
type FromNetwork struct {
	Src nodeids.NodeID
	Msg WireMessage
}

// ToNetwork is a ping or pong to send to a neighbor.
type ToNetwork struct {
	Dst nodeids.NodeID
	Msg WireMessage
}

// Failed reports a neighbor that stopped answering.
type Failed struct {
	ID nodeids.NodeID
}

func (Tick) isPingMessage()        {}
func (NodeList) isPingMessage()    {}
func (FromNetwork) isPingMessage() {}
func (ToNetwork) isPingMessage()   {}
func (Failed) isPingMessage()      {}
