package channel

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultLoopbackQueue is the per-endpoint queue length of a LoopbackBus.
const DefaultLoopbackQueue = 1024

// LoopbackBus is an in-process network. Every frame sent by one attached endpoint
// is queued for every other endpoint; a full queue drops the frame, as a congested
// UDP socket would.
type LoopbackBus struct {
	mu        sync.RWMutex
	endpoints map[*LoopbackEndpoint]struct{}
	queueSize int

	dropped atomic.Uint64
}

// NewLoopbackBus creates an empty bus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{
		endpoints: make(map[*LoopbackEndpoint]struct{}),
		queueSize: DefaultLoopbackQueue,
	}
}

// Attach returns a new Transport connected to the bus.
func (b *LoopbackBus) Attach() *LoopbackEndpoint {
	ep := &LoopbackEndpoint{
		bus:  b,
		in:   make(chan []byte, b.queueSize),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.endpoints[ep] = struct{}{}
	b.mu.Unlock()
	return ep
}

// Dropped returns the number of frames dropped on full endpoint queues.
func (b *LoopbackBus) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *LoopbackBus) detach(ep *LoopbackEndpoint) {
	b.mu.Lock()
	delete(b.endpoints, ep)
	b.mu.Unlock()
}

func (b *LoopbackBus) fanout(from *LoopbackEndpoint, frame []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ep := range b.endpoints {
		if ep == from {
			continue
		}
		select {
		case ep.in <- frame:
		default:
			b.dropped.Add(1)
		}
	}
}

// LoopbackEndpoint is one participant's view of a LoopbackBus.
type LoopbackEndpoint struct {
	bus       *LoopbackBus
	in        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (e *LoopbackEndpoint) Send(frame []byte) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	e.bus.fanout(e, frame)
	return nil
}

func (e *LoopbackEndpoint) Recv(ctx context.Context) ([]byte, error) {
	select {
	case f := <-e.in:
		return f, nil
	case <-e.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *LoopbackEndpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		e.bus.detach(e)
	})
	return nil
}

func (e *LoopbackEndpoint) Name() string { return "loopback" }
