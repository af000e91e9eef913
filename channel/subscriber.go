package channel

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/xaxy55/unitree_sdk2_go/idl"
	"github.com/xaxy55/unitree_sdk2_go/protocol"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

// DefaultQueueSize is the default number of undelivered messages a Subscriber holds.
const DefaultQueueSize = 64

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*subscriberOptions)

type subscriberOptions struct {
	queueSize int
}

// WithQueueSize bounds the delivery queue. When it is full the oldest message is
// dropped.
func WithQueueSize(n int) SubscriberOption {
	return func(o *subscriberOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// SubscriberStats are subscriber counters.
type SubscriberStats struct {
	Received      uint64
	Delivered     uint64
	DecodeErrors  uint64
	Stale         uint64
	Dropped       uint64
	HandlerPanics uint64
}

// Subscriber receives messages of type T from one topic and hands them to a
// handler on a dedicated goroutine, one at a time, in arrival order. A Subscriber is
// owned by a single goroutine; Init and Close must not be called concurrently.
type Subscriber[T any, P idl.MessagePtr[T]] struct {
	session  *Session
	topic    Topic
	opts     subscriberOptions
	typeName string
	state    state
	inbox    *inbox

	received      atomic.Uint64
	delivered     atomic.Uint64
	decodeErrors  atomic.Uint64
	stale         atomic.Uint64
	dropped       atomic.Uint64
	handlerPanics atomic.Uint64
}

// NewSubscriber creates a subscriber for topic. It performs no I/O.
func NewSubscriber[T any, P idl.MessagePtr[T]](session *Session, topic Topic, opts ...SubscriberOption) *Subscriber[T, P] {
	o := subscriberOptions{queueSize: DefaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Subscriber[T, P]{
		session:  session,
		topic:    topic,
		opts:     o,
		typeName: P(new(T)).TypeName(),
	}
}

// Topic returns the subscriber's topic.
func (s *Subscriber[T, P]) Topic() Topic { return s.topic }

// Init starts delivering messages to handler.
func (s *Subscriber[T, P]) Init(handler func(*T)) error {
	if s.state == stateInitialized {
		return sdkerr.ErrAlreadyInitialized
	}
	if handler == nil {
		return sdkerr.Init("nil handler", nil)
	}
	if d := s.session.DomainID(); d != s.topic.DomainID {
		return sdkerr.Init(fmt.Sprintf("topic %s is not on session domain %d", s.topic, d), nil)
	}
	if err := s.session.open(); err != nil {
		return err
	}

	in := &inbox{
		typeName: s.typeName,
		capacity: s.opts.queueSize,
		lastSeq:  make(map[uuid.UUID]uint64),
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   s.session.logger.With("topic", s.topic.Name),
		counters: s,
	}
	s.inbox = in
	s.state = stateInitialized
	s.session.subscribe(s.topic.Name, in)
	go in.run(func(payload []byte) {
		s.dispatch(in, payload, handler)
	})
	return nil
}

func (s *Subscriber[T, P]) dispatch(in *inbox, payload []byte, handler func(*T)) {
	v := new(T)
	if err := P(v).UnmarshalBinary(payload); err != nil {
		s.decodeErrors.Add(1)
		in.logger.Debug("dropping undecodable message", "error", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.handlerPanics.Add(1)
			in.logger.Warn("subscriber handler panicked", "panic", r)
		}
	}()
	s.delivered.Add(1)
	handler(v)
}

// Close stops delivery. The returned channel is closed once the delivery goroutine
// has exited; after that the handler is never invoked again. Close on a subscriber
// that is not initialized returns an already closed channel.
func (s *Subscriber[T, P]) Close() <-chan struct{} {
	if s.state != stateInitialized {
		done := make(chan struct{})
		close(done)
		return done
	}
	in := s.inbox
	s.session.unsubscribe(s.topic.Name, in)
	close(in.stop)
	s.state = stateClosed
	return in.done
}

// Stats returns a snapshot of the counters, accumulated over every Init.
func (s *Subscriber[T, P]) Stats() SubscriberStats {
	return SubscriberStats{
		Received:      s.received.Load(),
		Delivered:     s.delivered.Load(),
		DecodeErrors:  s.decodeErrors.Load(),
		Stale:         s.stale.Load(),
		Dropped:       s.dropped.Load(),
		HandlerPanics: s.handlerPanics.Load(),
	}
}

func (s *Subscriber[T, P]) countReceived()    { s.received.Add(1) }
func (s *Subscriber[T, P]) countStale()       { s.stale.Add(1) }
func (s *Subscriber[T, P]) countDropped()     { s.dropped.Add(1) }
func (s *Subscriber[T, P]) countDecodeError() { s.decodeErrors.Add(1) }

type inboxCounters interface {
	countReceived()
	countStale()
	countDropped()
	countDecodeError()
}

// inbox is the per-Init queue between the session receive path and the delivery
// goroutine.
type inbox struct {
	typeName string
	capacity int
	logger   *slog.Logger
	counters inboxCounters

	mu      sync.Mutex
	queue   [][]byte
	lastSeq map[uuid.UUID]uint64

	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func (in *inbox) deliver(f *protocol.Frame) {
	in.counters.countReceived()
	if f.Type != in.typeName {
		in.counters.countDecodeError()
		in.logger.Debug("dropping frame with mismatched type", "got", f.Type, "want", in.typeName)
		return
	}

	in.mu.Lock()
	if last, seen := in.lastSeq[f.GUID]; seen && f.Seq <= last {
		in.mu.Unlock()
		in.counters.countStale()
		return
	}
	in.lastSeq[f.GUID] = f.Seq
	if len(in.queue) >= in.capacity {
		in.queue[0] = nil
		in.queue = in.queue[1:]
		in.counters.countDropped()
	}
	in.queue = append(in.queue, f.Payload)
	in.mu.Unlock()

	select {
	case in.notify <- struct{}{}:
	default:
	}
}

func (in *inbox) pop() ([]byte, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return nil, false
	}
	p := in.queue[0]
	in.queue[0] = nil
	in.queue = in.queue[1:]
	return p, true
}

func (in *inbox) stopped() bool {
	select {
	case <-in.stop:
		return true
	default:
		return false
	}
}

func (in *inbox) run(dispatch func([]byte)) {
	defer close(in.done)
	for {
		select {
		case <-in.stop:
			return
		case <-in.notify:
		}
		for !in.stopped() {
			p, ok := in.pop()
			if !ok {
				break
			}
			dispatch(p)
		}
	}
}
