// package timer drives periodic module ticks through the broker graph.
package timer

import (
	"time"

	"github.com/ineiti/fledger-sub003/broker"
	"github.com/ineiti/fledger-sub003/logger"
)

type Timer struct {
	ticker  *time.Ticker
	stopCh  chan struct{} // signal for stopping the timer
	stopped bool
}

// New starts a timer calling fn every interval until Stop.
func New(interval time.Duration, fn func()) *Timer {
	tmer := &Timer{
		ticker: time.NewTicker(interval),
		stopCh: make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-tmer.ticker.C:
				fn()
			case <-tmer.stopCh:
				tmer.ticker.Stop()
				return
			}
		}
	}()
	return tmer
}

// Wire emits msg on b every interval. Emission errors are logged and
// the timer keeps going; a failed tick is retried by the next one.
func Wire[M any](interval time.Duration, b *broker.Broker[M], msg M) *Timer {
	log := logger.Get().Sugar()
	return New(interval, func() {
		if err := b.Emit(msg); err != nil {
			log.Warnf("tick not delivered: %v", err)
		}
	})
}

// Stop stops the timer and releases resources.
func (t *Timer) Stop() {
	if !t.stopped {
		close(t.stopCh)
		t.stopped = true
	}
}
