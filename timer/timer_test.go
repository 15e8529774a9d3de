package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ineiti/fledger-sub003/broker"
)

func TestWireEmitsTicks(t *testing.T) {
	b := broker.New[int]()
	tap, _, err := b.GetTap()
	require.NoError(t, err)

	tmr := Wire(10*time.Millisecond, b, 1)
	time.Sleep(120 * time.Millisecond)
	tmr.Stop()

	got := tap.TryRecv()
	assert.NotEmpty(t, got)

	// no more ticks after Stop
	time.Sleep(30 * time.Millisecond)
	tap.TryRecv()
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, tap.TryRecv())
}
