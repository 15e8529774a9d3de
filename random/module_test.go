package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ineiti/fledger-sub003/network"
	"github.com/ineiti/fledger-sub003/nodeids"
)

func makeIDs(n int) nodeids.NodeIDs {
	ids := make(nodeids.NodeIDs, n)
	for i := range ids {
		ids[i] = nodeids.NewNodeID()
	}
	return ids
}

func connects(msgs []RandomMessage) nodeids.NodeIDs {
	var out nodeids.NodeIDs
	for _, msg := range msgs {
		if c, ok := msg.(ConnectNode); ok {
			out = append(out, c.ID)
		}
	}
	return out
}

func disconnects(msgs []RandomMessage) nodeids.NodeIDs {
	var out nodeids.NodeIDs
	for _, msg := range msgs {
		if d, ok := msg.(DisconnectNode); ok {
			out = append(out, d.ID)
		}
	}
	return out
}

// One tick with ten known nodes and a target degree of three must
// produce exactly three distinct connect intents.
func TestTickSelectsUpToTarget(t *testing.T) {
	m := NewModule(Config{TargetDegree: 3, PendingTimeout: 5})
	ids := makeIDs(10)

	assert.Empty(t, connects(m.Process(NodeList{IDs: ids})))

	out := m.Process(Tick{})
	conns := connects(out)
	require.Len(t, conns, 3)
	assert.Len(t, m.Pending(), 3)
	seen := map[nodeids.NodeID]bool{}
	for _, id := range conns {
		assert.True(t, ids.Contains(id), "selected id must come from the known set")
		assert.False(t, seen[id], "an id must not be drawn twice")
		seen[id] = true
	}
}

// An id already pending or connected is never re-selected.
func TestTickNeverSelectsTwice(t *testing.T) {
	m := NewModule(Config{TargetDegree: 3, PendingTimeout: 5})
	m.Process(NodeList{IDs: makeIDs(10)})

	first := connects(m.Process(Tick{}))
	require.Len(t, first, 3)

	// nothing confirmed yet, the target is covered by pending attempts
	assert.Empty(t, connects(m.Process(Tick{})))

	m.Process(NodeConnected{ID: first[0]})
	for _, id := range connects(m.Process(Tick{})) {
		assert.False(t, first.Contains(id))
	}
}

// A connection from a node we never heard of must be accepted, and its
// loss returns the node to the known set.
func TestUnknownNodeConnects(t *testing.T) {
	m := NewModule(Config{TargetDegree: 2, PendingTimeout: 5})
	x := nodeids.NewNodeID()

	out := m.Process(NodeConnected{ID: x})
	require.Len(t, out, 1)
	assert.Equal(t, ListUpdate{IDs: nodeids.NodeIDs{x}}, out[0])
	assert.True(t, m.Connected().Contains(x))

	m.Process(NodeDisconnected{ID: x})
	assert.False(t, m.Connected().Contains(x))
	assert.True(t, m.Known().Contains(x))
}

func TestDuplicateEventsAreNoOps(t *testing.T) {
	m := NewModule(Config{TargetDegree: 2, PendingTimeout: 5})
	x := nodeids.NewNodeID()

	require.Len(t, m.Process(NodeConnected{ID: x}), 1)
	assert.Empty(t, m.Process(NodeConnected{ID: x}))

	m.Process(NodeDisconnected{ID: x})
	assert.Empty(t, m.Process(NodeDisconnected{ID: x}))
	assert.Empty(t, m.Process(NodeDisconnected{ID: nodeids.NewNodeID()}))
}

// After any fully processed tick the connected set stays within the
// target degree.
func TestDegreeBound(t *testing.T) {
	cfg := Config{TargetDegree: 2, PendingTimeout: 5}
	m := NewModule(cfg)
	m.Process(NodeList{IDs: makeIDs(10)})

	for round := 0; round < 5; round++ {
		out := m.Process(Tick{})
		for _, id := range connects(out) {
			m.Process(NodeConnected{ID: id})
		}
		assert.LessOrEqual(t, len(m.Connected()), cfg.TargetDegree)
	}
	assert.Len(t, m.Connected(), 2)
}

// A connect attempt that stays silent past the timeout goes back to
// known and becomes selectable again.
func TestStalePendingDemoted(t *testing.T) {
	m := NewModule(Config{TargetDegree: 1, PendingTimeout: 2})
	ids := makeIDs(1)
	m.Process(NodeList{IDs: ids})

	require.Len(t, connects(m.Process(Tick{})), 1)
	assert.Len(t, m.Pending(), 1)

	// two more ticks age the attempt up to the timeout
	assert.Empty(t, connects(m.Process(Tick{})))
	assert.Empty(t, connects(m.Process(Tick{})))

	// past the timeout the id is demoted and immediately re-drawn
	out := m.Process(Tick{})
	assert.Equal(t, ids, connects(out))
	assert.Len(t, m.Pending(), 1)
}

// Ids gone from the discovery snapshot are pruned, but a connected peer
// is not torn down only because discovery flapped.
func TestNodeListPruneKeepsConnected(t *testing.T) {
	m := NewModule(Config{TargetDegree: 2, PendingTimeout: 5})
	ids := makeIDs(3)
	m.Process(NodeList{IDs: ids})
	m.Process(NodeConnected{ID: ids[0]})

	m.Process(NodeList{IDs: nodeids.NodeIDs{ids[1]}})
	assert.True(t, m.Connected().Contains(ids[0]))
	assert.Equal(t, nodeids.NodeIDs{ids[1]}, m.Known())
}

func TestShedDropsOldestConnections(t *testing.T) {
	m := NewModule(Config{TargetDegree: 3, PendingTimeout: 5})
	ids := makeIDs(3)
	m.Process(NodeConnected{ID: ids[0]})
	m.Process(Tick{})
	m.Process(NodeConnected{ID: ids[1]})
	m.Process(Tick{})
	m.Process(NodeConnected{ID: ids[2]})

	out := m.Process(Shed{N: 2})
	assert.Equal(t, nodeids.NodeIDs{ids[0], ids[1]}, disconnects(out))
	assert.Equal(t, nodeids.NodeIDs{ids[2]}, m.Connected())
	assert.True(t, m.Known().Contains(ids[0]))
}

// A received envelope proves the connection exists: the sender counts
// as connected before its Connected event has been processed, so a
// reply sent right away is not dropped.
func TestReceivedWrapperImpliesConnected(t *testing.T) {
	m := NewModule(Config{TargetDegree: 2, PendingTimeout: 5})
	x := nodeids.NewNodeID()

	out := m.Process(WrapperFromNetwork{Src: x})
	require.Len(t, out, 1)
	assert.Equal(t, ListUpdate{IDs: nodeids.NodeIDs{x}}, out[0])
	assert.True(t, m.Connected().Contains(x))

	// the reply goes through instead of triggering a list refresh
	reply := m.Process(WrapperToNetwork{Dst: x})
	require.Len(t, reply, 1)
	assert.Equal(t, x, reply[0].(MsgToNode).Dst)

	// the late Connected event is a no-op
	assert.Empty(t, m.Process(NodeConnected{ID: x}))
}

// An envelope for an unconnected destination is dropped and answered
// with a fresh list snapshot instead.
func TestWrapperToUnconnectedNode(t *testing.T) {
	m := NewModule(Config{TargetDegree: 2, PendingTimeout: 5})
	x := nodeids.NewNodeID()

	out := m.Process(WrapperToNetwork{Dst: x})
	require.Len(t, out, 1)
	assert.IsType(t, ListUpdate{}, out[0])

	m.Process(NodeConnected{ID: x})
	out = m.Process(WrapperToNetwork{Dst: x})
	require.Len(t, out, 1)
	assert.Equal(t, x, out[0].(MsgToNode).Dst)
}

// Two nodes wired through the simulator find each other after one
// discovery snapshot and one tick each.
func TestWireOverSimulator(t *testing.T) {
	sim := network.NewSimulator()
	cfg := Config{TargetDegree: 2, PendingTimeout: 5}

	id1, id2 := nodeids.NewNodeID(), nodeids.NewNodeID()
	b1, m1, err := Wire(cfg, sim.AddNode(id1))
	require.NoError(t, err)
	b2, m2, err := Wire(cfg, sim.AddNode(id2))
	require.NoError(t, err)

	sim.SendNodeList()
	require.NoError(t, b1.Emit(Tick{}))
	require.NoError(t, b2.Emit(Tick{}))

	assert.True(t, m1.Connected().Contains(id2))
	assert.True(t, m2.Connected().Contains(id1))
}
