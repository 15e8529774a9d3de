// package nodeids holds the node identifiers shared by all overlay modules.
package nodeids

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NodeID is a 256-bit identifier of a node in the network.
type NodeID [32]byte

// NewNodeID returns a random NodeID.
func NewNodeID() NodeID {
	var id NodeID
	if _, err := rand.Read(id[:]); err != nil {
		panic(err)
	}
	return id
}

// NodeIDFromHex parses a 0x-prefixed hex string into a NodeID.
func NodeIDFromHex(s string) (NodeID, error) {
	var id NodeID
	b, err := hexutil.Decode(s)
	if err != nil {
		return id, fmt.Errorf("failed to decode node id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid node id length: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (id NodeID) Bytes() []byte {
	return id[:]
}

func (id NodeID) Hex() string {
	return hexutil.Encode(id[:])
}

// String returns a short prefix, enough to tell nodes apart in logs.
func (id NodeID) String() string {
	return hexutil.Encode(id[:4])
}

// NodeIDs is an ordered list of NodeIDs with the set operations the
// overlay modules need.
type NodeIDs []NodeID

func (ids NodeIDs) Contains(id NodeID) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func (ids NodeIDs) Clone() NodeIDs {
	out := make(NodeIDs, len(ids))
	copy(out, ids)
	return out
}

// Equal reports whether both lists hold the same ids in the same order.
func (ids NodeIDs) Equal(other NodeIDs) bool {
	if len(ids) != len(other) {
		return false
	}
	for i := range ids {
		if !bytes.Equal(ids[i][:], other[i][:]) {
			return false
		}
	}
	return true
}

// RemoveMissing drops every id not present in keep and returns the
// removed ids.
func (ids *NodeIDs) RemoveMissing(keep NodeIDs) NodeIDs {
	var kept, removed NodeIDs
	for _, id := range *ids {
		if keep.Contains(id) {
			kept = append(kept, id)
		} else {
			removed = append(removed, id)
		}
	}
	*ids = kept
	return removed
}

// RemoveExisting drops every id present in other and returns the
// removed ids.
func (ids *NodeIDs) RemoveExisting(other NodeIDs) NodeIDs {
	var kept, removed NodeIDs
	for _, id := range *ids {
		if other.Contains(id) {
			removed = append(removed, id)
		} else {
			kept = append(kept, id)
		}
	}
	*ids = kept
	return removed
}
