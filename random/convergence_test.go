package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ineiti/fledger-sub003/broker"
	"github.com/ineiti/fledger-sub003/network"
	"github.com/ineiti/fledger-sub003/nodeids"
)

// A hundred nodes with a target degree of four, driven through repeated
// discovery snapshots and ticks, must end up in one fully connected
// overlay graph.
func TestNetworkConvergence(t *testing.T) {
	const numNodes = 100
	cfg := Config{TargetDegree: 4, PendingTimeout: 5}

	sim := network.NewSimulator()
	brokers := make(map[nodeids.NodeID]*broker.Broker[RandomMessage], numNodes)
	modules := make(map[nodeids.NodeID]*Module, numNodes)
	var ids nodeids.NodeIDs
	for i := 0; i < numNodes; i++ {
		id := nodeids.NewNodeID()
		b, m, err := Wire(cfg, sim.AddNode(id))
		require.NoError(t, err)
		ids = append(ids, id)
		brokers[id] = b
		modules[id] = m
	}

	for round := 0; round < 5; round++ {
		sim.SendNodeList()
		for _, id := range ids {
			require.NoError(t, brokers[id].Emit(Tick{}))
			// observed right after its tick, a node is within the
			// target degree
			assert.LessOrEqual(t, len(modules[id].Connected()), cfg.TargetDegree)
		}
	}

	// breadth-first search over the union of the connected sets
	adjacency := make(map[nodeids.NodeID]nodeids.NodeIDs, numNodes)
	for _, id := range ids {
		for _, peer := range modules[id].Connected() {
			adjacency[id] = append(adjacency[id], peer)
			adjacency[peer] = append(adjacency[peer], id)
		}
	}
	visited := map[nodeids.NodeID]bool{ids[0]: true}
	queue := nodeids.NodeIDs{ids[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, peer := range adjacency[cur] {
			if !visited[peer] {
				visited[peer] = true
				queue = append(queue, peer)
			}
		}
	}
	assert.Len(t, visited, numNodes, "overlay graph must be fully connected")
}
