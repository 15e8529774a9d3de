package ping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ineiti/fledger-sub003/nodeids"
)

func TestStorageTicks(t *testing.T) {
	s := newStorage(Config{Interval: 1, Timeout: 2})
	n1 := nodeids.NewNodeID()

	s.newNode(n1)
	assert.Len(t, s.stats, 1)
	assert.Equal(t, nodeids.NodeIDs{n1}, s.ping)

	s.tick()
	assert.Equal(t, uint32(1), s.stats[n1].LastPing)
	s.tick()
	assert.Equal(t, uint32(2), s.stats[n1].LastPing)

	// the third silent tick passes interval+timeout
	s.tick()
	assert.Empty(t, s.stats)
	assert.Equal(t, nodeids.NodeIDs{n1}, s.failed)

	s.newNode(n1)
	s.pong(n1)
	assert.Equal(t, uint32(0), s.stats[n1].LastPing)
	assert.Equal(t, uint32(1), s.stats[n1].Rx)
}

func TestModuleAnswersPing(t *testing.T) {
	m := NewModule(DefaultConfig())
	src := nodeids.NewNodeID()

	out := m.Process(FromNetwork{Src: src, Msg: WireMessage{Kind: KindPing}})
	assert.Equal(t, []PingMessage{ToNetwork{Dst: src, Msg: WireMessage{Kind: KindPong}}}, out)
}

func TestModuleDropsVanishedNodes(t *testing.T) {
	m := NewModule(DefaultConfig())
	n1, n2 := nodeids.NewNodeID(), nodeids.NewNodeID()

	m.Process(NodeList{IDs: nodeids.NodeIDs{n1, n2}})
	assert.NotNil(t, m.Stats(n1))

	m.Process(NodeList{IDs: nodeids.NodeIDs{n2}})
	assert.Nil(t, m.Stats(n1))
	assert.NotNil(t, m.Stats(n2))
}
