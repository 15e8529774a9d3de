// package broker is the in-process messaging substrate of the node: a
// typed pub/sub hub which modules subscribe to through taps, consume
// through handlers, and connect to each other through translating links.
//
// All modules of the node talk exclusively through brokers; none of them
// calls another module directly. A Broker handle can be copied freely,
// every copy refers to the same subscriber and link sets.
package broker

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned for operations on a torn-down broker.
	ErrClosed = errors.New("broker: closed")
	// ErrQueueFull is returned when a bounded tap cannot take the message.
	ErrQueueFull = errors.New("broker: tap queue full")
	// ErrLinkCycle is returned when recursive emission exceeds the
	// configured depth, which means two or more linked brokers loop.
	ErrLinkCycle = errors.New("broker: link cycle")
)

// DefaultMaxDepth bounds recursive emission through handlers and links.
const DefaultMaxDepth = 32

// AsyncTapBuffer is the channel buffer of an asynchronous tap.
const AsyncTapBuffer = 256

// Translate converts a message between the vocabularies of two linked
// brokers. Returning false drops the message at that edge. Translators
// must be pure: no side effects, no emissions of their own.
type Translate[A, B any] func(A) (B, bool)

// noopLocker is used by cooperative single-threaded brokers where no
// concurrent mutation can happen, only re-entrancy, which the depth
// guard covers.
type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

type handlerEntry[M any] struct {
	id uuid.UUID
	fn func(M) []M
}

type linkEntry[M any] struct {
	id      uuid.UUID
	forward func(M, int) error
	// detach removes the paired entry on the peer broker; nil for the
	// dropped side of a one-way link.
	detach func()
}

// Broker is a typed pub/sub hub. The zero value is not usable, create
// one with New or NewCooperative.
type Broker[M any] struct {
	id uuid.UUID

	// newLock picks the synchronization discipline: a real mutex for
	// the multi-threaded model, a no-op for the cooperative one.
	newLock func() sync.Locker

	mu       sync.Locker
	closed   bool
	maxDepth int
	taps     []tap[M]
	handlers []handlerEntry[M]
	links    []linkEntry[M]
}

// New creates an empty broker safe for concurrent use.
func New[M any]() *Broker[M] {
	newLock := func() sync.Locker { return &sync.Mutex{} }
	return &Broker[M]{
		id:       uuid.New(),
		newLock:  newLock,
		mu:       newLock(),
		maxDepth: DefaultMaxDepth,
	}
}

// NewCooperative creates an empty broker for single-threaded cooperative
// use. All operations must happen on one goroutine; no locking is done.
func NewCooperative[M any]() *Broker[M] {
	newLock := func() sync.Locker { return noopLocker{} }
	return &Broker[M]{
		id:       uuid.New(),
		newLock:  newLock,
		mu:       newLock(),
		maxDepth: DefaultMaxDepth,
	}
}

// ID identifies this broker instance.
func (b *Broker[M]) ID() uuid.UUID {
	return b.id
}

// SetMaxDepth changes the recursion bound of Emit.
func (b *Broker[M]) SetMaxDepth(depth int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxDepth = depth
}

// Emit delivers msg to every registered tap in registration order, runs
// the handlers and re-emits their outputs, and forwards msg across every
// link. Emit never blocks on a slow consumer: a bounded tap that cannot
// take the message yields ErrQueueFull for that tap while delivery to
// the others continues. An unreachable linked broker is a silent drop.
func (b *Broker[M]) Emit(msg M) error {
	return b.emit(msg, 0)
}

func (b *Broker[M]) emit(msg M, depth int) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if depth > b.maxDepth {
		b.mu.Unlock()
		return ErrLinkCycle
	}
	taps := append([]tap[M]{}, b.taps...)
	handlers := append([]handlerEntry[M]{}, b.handlers...)
	links := append([]linkEntry[M]{}, b.links...)
	b.mu.Unlock()

	// delivery happens outside the lock so a slow or reentrant
	// subscriber cannot block registrations elsewhere in the graph
	var errs []error
	for _, t := range taps {
		if err := t.deliver(msg); err != nil {
			errs = append(errs, err)
		}
	}
	for _, h := range handlers {
		for _, out := range h.fn(msg) {
			if err := b.emit(out, depth+1); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, l := range links {
		err := l.forward(msg, depth+1)
		if err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddHandler registers fn as a message handler. It runs synchronously on
// every emitted message; whatever it returns is emitted back onto the
// same broker. A stateful module consumes its broker by registering its
// processing function here. A closed broker returns ErrClosed.
func (b *Broker[M]) AddHandler(fn func(M) []M) (uuid.UUID, error) {
	id := uuid.New()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return id, ErrClosed
	}
	b.handlers = append(b.handlers, handlerEntry[M]{id: id, fn: fn})
	return id, nil
}

// RemoveHandler unregisters a handler.
func (b *Broker[M]) RemoveHandler(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

// RemoveTap unregisters a tap. A message emitted concurrently with the
// removal may or may not still reach it.
func (b *Broker[M]) RemoveTap(id uuid.UUID) {
	b.mu.Lock()
	var removed tap[M]
	for i, t := range b.taps {
		if t.tapID() == id {
			removed = t
			b.taps = append(b.taps[:i], b.taps[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	if removed != nil {
		removed.shutdown()
	}
}

// Close tears the broker down: all taps are shut, all links touching it
// are removed on both ends, and any further Emit returns ErrClosed.
func (b *Broker[M]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	taps := b.taps
	links := b.links
	b.taps = nil
	b.handlers = nil
	b.links = nil
	b.mu.Unlock()

	for _, t := range taps {
		t.shutdown()
	}
	for _, l := range links {
		if l.detach != nil {
			l.detach()
		}
	}
}

func (b *Broker[M]) addTap(t tap[M]) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.taps = append(b.taps, t)
	return nil
}

func (b *Broker[M]) addLink(l linkEntry[M]) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.links = append(b.links, l)
	return nil
}

func (b *Broker[M]) removeLink(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.links {
		if l.id == id {
			b.links = append(b.links[:i], b.links[i+1:]...)
			return
		}
	}
}

// Link installs a bidirectional translating edge between two brokers:
// every message emitted on a is piped through fwd and, when fwd matches,
// emitted on b; the reverse direction goes through bwd. The returned id
// removes both directions via Unlink. The recursion depth of the
// triggering Emit is carried across the edge, so linked cycles surface
// as ErrLinkCycle instead of unbounded recursion.
func Link[A, B any](a *Broker[A], b *Broker[B], fwd Translate[A, B], bwd Translate[B, A]) (uuid.UUID, error) {
	id := uuid.New()

	forward := linkEntry[A]{
		id: id,
		forward: func(msg A, depth int) error {
			out, ok := fwd(msg)
			if !ok {
				return nil
			}
			return b.emit(out, depth)
		},
		detach: func() { b.removeLink(id) },
	}
	if err := a.addLink(forward); err != nil {
		return id, err
	}

	if bwd != nil {
		backward := linkEntry[B]{
			id: id,
			forward: func(msg B, depth int) error {
				out, ok := bwd(msg)
				if !ok {
					return nil
				}
				return a.emit(out, depth)
			},
			detach: func() { a.removeLink(id) },
		}
		if err := b.addLink(backward); err != nil {
			a.removeLink(id)
			return id, err
		}
	}
	return id, nil
}

// LinkUni installs a one-way edge from a to b; the reverse side drops
// everything.
func LinkUni[A, B any](a *Broker[A], b *Broker[B], fwd Translate[A, B]) (uuid.UUID, error) {
	return Link[A, B](a, b, fwd, nil)
}

// Unlink removes a link installed between a and b.
func Unlink[A, B any](a *Broker[A], b *Broker[B], id uuid.UUID) {
	a.removeLink(id)
	b.removeLink(id)
}
