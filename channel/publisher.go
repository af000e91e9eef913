package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/xaxy55/unitree_sdk2_go/idl"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

var errNilMessage = errors.New("nil message")

type state int

const (
	stateUninitialized state = iota
	stateInitialized
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PublisherStats are publisher counters.
type PublisherStats struct {
	Sent     uint64
	Rejected uint64
	Bytes    uint64
}

// Publisher writes messages of type T to one topic. A Publisher is owned by a single
// goroutine; Init, Write and Close must not be called concurrently.
type Publisher[T any, P idl.MessagePtr[T]] struct {
	session *Session
	topic   Topic
	state   state
	logger  *slog.Logger

	sent     atomic.Uint64
	rejected atomic.Uint64
	bytes    atomic.Uint64
}

// NewPublisher creates a publisher for topic. It performs no I/O.
func NewPublisher[T any, P idl.MessagePtr[T]](session *Session, topic Topic) *Publisher[T, P] {
	return &Publisher[T, P]{
		session: session,
		topic:   topic,
	}
}

// Topic returns the publisher's topic.
func (p *Publisher[T, P]) Topic() Topic { return p.topic }

// Init binds the topic, opening the session transport if needed.
func (p *Publisher[T, P]) Init() error {
	if p.state == stateInitialized {
		return sdkerr.ErrAlreadyInitialized
	}
	if d := p.session.DomainID(); d != p.topic.DomainID {
		return sdkerr.Init(fmt.Sprintf("topic %s is not on session domain %d", p.topic, d), nil)
	}
	if err := p.session.open(); err != nil {
		return err
	}
	if err := p.session.bind(p.topic.Name); err != nil {
		return err
	}
	p.logger = p.session.logger.With("topic", p.topic.Name)
	p.state = stateInitialized
	return nil
}

// Write publishes msg. A nil msg fails with a SerializationError. It reports false with a nil error when the transport did
// not accept the frame without blocking; the caller may retry or drop.
func (p *Publisher[T, P]) Write(msg *T) (bool, error) {
	if p.state != stateInitialized {
		return false, sdkerr.ErrNotInitialized
	}
	m := P(msg)
	if msg == nil {
		return false, sdkerr.Serialization(m.TypeName(), errNilMessage)
	}
	data, err := m.MarshalBinary()
	if err != nil {
		var serErr *sdkerr.SerializationError
		if !errors.As(err, &serErr) {
			err = sdkerr.Serialization(m.TypeName(), err)
		}
		return false, err
	}

	ok, err := p.session.publish(p.topic.Name, m.TypeName(), data)
	if err != nil || !ok {
		p.rejected.Add(1)
		if err != nil {
			p.logger.Debug("write failed", "error", err)
		}
		return false, err
	}
	p.sent.Add(1)
	p.bytes.Add(uint64(len(data)))
	return true, nil
}

// Close releases the topic. Write fails with NotInitialized until the next Init.
func (p *Publisher[T, P]) Close() error {
	if p.state != stateInitialized {
		return nil
	}
	p.session.release(p.topic.Name)
	p.state = stateClosed
	return nil
}

// Stats returns a snapshot of the counters.
func (p *Publisher[T, P]) Stats() PublisherStats {
	return PublisherStats{
		Sent:     p.sent.Load(),
		Rejected: p.rejected.Load(),
		Bytes:    p.bytes.Load(),
	}
}
