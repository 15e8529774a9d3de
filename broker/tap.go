package broker

import (
	"sync"

	"github.com/google/uuid"
)

// Overflow selects what a bounded synchronous tap does with a message
// that arrives while its queue is full.
type Overflow int

const (
	// OverflowError fails the emit for this tap with ErrQueueFull.
	OverflowError Overflow = iota
	// OverflowDropOldest evicts the oldest queued message.
	OverflowDropOldest
	// OverflowDropNewest drops the incoming message.
	OverflowDropNewest
)

type tap[M any] interface {
	tapID() uuid.UUID
	deliver(M) error
	shutdown()
}

// Tap is a synchronous subscription: messages queue up until the owner
// polls them with TryRecv. An unbounded tap never rejects a message; a
// lagging owner simply accumulates them.
type Tap[M any] struct {
	id     uuid.UUID
	mu     sync.Locker
	queue  []M
	bound  int
	policy Overflow
	closed bool
}

func (t *Tap[M]) tapID() uuid.UUID { return t.id }

// TryRecv drains and returns everything queued since the last call. It
// never blocks; with nothing pending it returns nil.
func (t *Tap[M]) TryRecv() []M {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.queue
	t.queue = nil
	return out
}

func (t *Tap[M]) deliver(msg M) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	if t.bound > 0 && len(t.queue) >= t.bound {
		switch t.policy {
		case OverflowDropOldest:
			t.queue = t.queue[1:]
		case OverflowDropNewest:
			return nil
		default:
			return ErrQueueFull
		}
	}
	t.queue = append(t.queue, msg)
	return nil
}

func (t *Tap[M]) shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.queue = nil
}

// GetTap registers an unbounded synchronous tap. It sees every message
// emitted from now on; nothing already emitted is replayed.
func (b *Broker[M]) GetTap() (*Tap[M], uuid.UUID, error) {
	return b.GetTapBounded(0, OverflowError)
}

// GetTapBounded registers a synchronous tap holding at most bound
// messages, with the given overflow policy. bound <= 0 means unbounded.
func (b *Broker[M]) GetTapBounded(bound int, policy Overflow) (*Tap[M], uuid.UUID, error) {
	t := &Tap[M]{
		id:     uuid.New(),
		mu:     b.newLock(),
		bound:  bound,
		policy: policy,
	}
	if err := b.addTap(t); err != nil {
		return nil, t.id, err
	}
	return t, t.id, nil
}

// AsyncTap is an asynchronous subscription: a single consumer awaits
// messages on Chan. The channel closes when the tap is removed or its
// broker shuts down.
type AsyncTap[M any] struct {
	id     uuid.UUID
	mu     sync.Locker
	ch     chan M
	closed bool
}

func (t *AsyncTap[M]) tapID() uuid.UUID { return t.id }

// Chan is the receive side of the tap.
func (t *AsyncTap[M]) Chan() <-chan M {
	return t.ch
}

func (t *AsyncTap[M]) deliver(msg M) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	// the emitter is never blocked by a slow consumer
	select {
	case t.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (t *AsyncTap[M]) shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.ch)
	}
}

// GetTapAsync registers an asynchronous tap backed by a buffered
// channel. An emit finding the buffer full returns ErrQueueFull for
// this tap rather than blocking.
func (b *Broker[M]) GetTapAsync() (*AsyncTap[M], uuid.UUID, error) {
	t := &AsyncTap[M]{
		id: uuid.New(),
		mu: b.newLock(),
		ch: make(chan M, AsyncTapBuffer),
	}
	if err := b.addTap(t); err != nil {
		return nil, t.id, err
	}
	return t, t.id, nil
}
