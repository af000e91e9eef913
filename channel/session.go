/*
Package channel implements the typed publish/subscribe transport.

A Session owns one Transport for a communication domain. Publishers and Subscribers
are bound to a Session and a Topic; the Session frames outgoing messages, runs a
single receive loop that demultiplexes incoming frames to subscribers, and announces
itself to other participants on the domain.

Construction never performs I/O: the transport is opened by the first Publisher or
Subscriber Init.
*/
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xaxy55/unitree_sdk2_go/config"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
	"github.com/xaxy55/unitree_sdk2_go/protocol"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

// Topic names a channel within a domain.
type Topic struct {
	Name     string
	DomainID int
}

func (t Topic) String() string {
	return fmt.Sprintf("%s@%d", t.Name, t.DomainID)
}

// sink receives data frames for one topic. Implementations must not block.
type sink interface {
	deliver(f *protocol.Frame)
}

// Option configures a Session.
type Option func(*Session)

// WithTransport uses t instead of a UDP transport built from the configuration.
func WithTransport(t Transport) Option {
	return func(s *Session) { s.transport = t }
}

// WithConfig sets the full domain configuration.
func WithConfig(cfg config.Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithName sets the participant name carried in announcements.
func WithName(name string) Option {
	return func(s *Session) { s.name = name }
}

// WithAnnounceInterval overrides the announcement period. Zero disables discovery.
func WithAnnounceInterval(d time.Duration) Option {
	return func(s *Session) { s.cfg.AnnounceInterval = d }
}

// Stats are session frame counters.
type Stats struct {
	FramesSent     uint64
	FramesReceived uint64
	Malformed      uint64
	ForeignDomain  uint64
	SendErrors     uint64
	Backpressure   uint64
}

// Session is one participant on a communication domain.
type Session struct {
	mu        sync.RWMutex
	cfg       config.Config
	transport Transport
	opened    bool
	closed    bool
	subs      map[string]map[sink]struct{}
	pubs      map[string]struct{}

	guid   uuid.UUID
	name   string
	logger *slog.Logger
	seq    atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup

	discovery *discovery

	framesSent     atomic.Uint64
	framesReceived atomic.Uint64
	malformed      atomic.Uint64
	foreignDomain  atomic.Uint64
	sendErrors     atomic.Uint64
	backpressure   atomic.Uint64
}

// NewSession builds a session with the default configuration, adjusted by opts.
func NewSession(opts ...Option) *Session {
	s := &Session{
		cfg:  config.Default(),
		subs: make(map[string]map[sink]struct{}),
		pubs: make(map[string]struct{}),
		guid: uuid.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		s.name = defaultName()
	}
	if s.logger == nil {
		s.logger = log.With("component", "channel")
	}
	s.logger = s.logger.With("participant", s.guid.String()[:8])
	s.discovery = newDiscovery(s.cfg.AnnounceInterval)
	return s
}

// NewSessionFromConfig validates cfg and builds a session from it.
func NewSessionFromConfig(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, sdkerr.Init("invalid configuration", err)
	}
	return NewSession(append([]Option{WithConfig(cfg)}, opts...)...), nil
}

func defaultName() string {
	name := "unitree-sdk"
	if h, err := os.Hostname(); err == nil {
		name = fmt.Sprintf("%s/%s/%d", name, h, os.Getpid())
	}
	return name
}

var (
	defaultOnce    sync.Once
	defaultSession *Session
)

// Default returns the process-wide session, creating it on first use.
func Default() *Session {
	defaultOnce.Do(func() {
		defaultSession = NewSession()
	})
	return defaultSession
}

// Init configures the process-wide session. See Session.Configure.
func Init(domainID int, iface string) error {
	return Default().Configure(domainID, iface)
}

// Configure sets the domain and network interface. The last call wins until the
// transport is opened; afterwards it fails with an InitError.
func (s *Session) Configure(domainID int, iface string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened || s.closed {
		return sdkerr.Init("session already open", nil)
	}
	cfg := s.cfg
	cfg.DomainID = domainID
	cfg.Interface = iface
	if err := cfg.Validate(); err != nil {
		return sdkerr.Init("invalid configuration", err)
	}
	s.cfg = cfg
	return nil
}

// DomainID returns the configured domain.
func (s *Session) DomainID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.DomainID
}

// Interface returns the configured network interface.
func (s *Session) Interface() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Interface
}

// Topic returns a Topic on this session's domain.
func (s *Session) Topic(name string) Topic {
	return Topic{Name: name, DomainID: s.DomainID()}
}

// GUID returns the participant identifier.
func (s *Session) GUID() uuid.UUID {
	return s.guid
}

// open starts the transport and background loops on first use.
func (s *Session) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sdkerr.Init("session closed", nil)
	}
	if s.opened {
		return nil
	}

	if s.transport == nil {
		t, err := NewUDPTransport(UDPConfig{
			Group:      s.cfg.MulticastGroup,
			Port:       s.cfg.DataPort(),
			Interface:  s.cfg.Interface,
			ListenAddr: s.cfg.ListenAddr,
			Peers:      s.cfg.Peers,
		})
		if err != nil {
			return sdkerr.Init("open transport", err)
		}
		s.transport = t
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.opened = true

	s.wg.Add(1)
	go s.recvLoop(ctx)
	if s.discovery.interval > 0 {
		s.wg.Add(1)
		go s.announceLoop(ctx)
	}

	s.logger.Info("session opened",
		"domain", s.cfg.DomainID,
		"transport", s.transport.Name(),
		"interface", s.cfg.Interface,
	)
	return nil
}

// Close stops the background loops and closes the transport. Channels bound to the
// session stop receiving.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	opened := s.opened
	s.mu.Unlock()

	if !opened {
		return nil
	}

	if err := s.sendControl(protocol.KindBye, nil); err != nil {
		s.logger.Debug("bye not sent", "error", err)
	}
	s.cancel()
	err := s.transport.Close()
	s.wg.Wait()
	s.logger.Info("session closed")
	return err
}

// Stats returns a snapshot of the frame counters.
func (s *Session) Stats() Stats {
	return Stats{
		FramesSent:     s.framesSent.Load(),
		FramesReceived: s.framesReceived.Load(),
		Malformed:      s.malformed.Load(),
		ForeignDomain:  s.foreignDomain.Load(),
		SendErrors:     s.sendErrors.Load(),
		Backpressure:   s.backpressure.Load(),
	}
}

// bind reserves topic for a single publisher.
func (s *Session) bind(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pubs[topic]; ok {
		return sdkerr.Init(fmt.Sprintf("topic %s already has a publisher", topic), nil)
	}
	s.pubs[topic] = struct{}{}
	return nil
}

func (s *Session) release(topic string) {
	s.mu.Lock()
	delete(s.pubs, topic)
	s.mu.Unlock()
}

func (s *Session) subscribe(topic string, k sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.subs[topic]
	if !ok {
		set = make(map[sink]struct{})
		s.subs[topic] = set
	}
	set[k] = struct{}{}
}

func (s *Session) unsubscribe(topic string, k sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.subs[topic]; ok {
		delete(set, k)
		if len(set) == 0 {
			delete(s.subs, topic)
		}
	}
}

func (s *Session) route(f *protocol.Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k := range s.subs[f.Topic] {
		k.deliver(f)
	}
}

// publish frames payload, delivers it to local subscribers and hands it to the
// transport. It reports false with a nil error when the transport applied
// backpressure.
func (s *Session) publish(topic, typeName string, payload []byte) (bool, error) {
	f := &protocol.Frame{
		Kind:    protocol.KindData,
		Domain:  uint32(s.DomainID()),
		GUID:    s.guid,
		Seq:     s.seq.Add(1),
		Topic:   topic,
		Type:    typeName,
		Payload: payload,
	}
	data, err := protocol.Encode(f)
	if err != nil {
		return false, sdkerr.Serialization(typeName, err)
	}

	s.route(f)

	if err := s.transport.Send(data); err != nil {
		if errors.Is(err, ErrBackpressure) {
			s.backpressure.Add(1)
			return false, nil
		}
		s.sendErrors.Add(1)
		return false, sdkerr.Channel("send "+topic, err)
	}
	s.framesSent.Add(1)
	return true, nil
}

func (s *Session) sendControl(kind protocol.Kind, payload []byte) error {
	data, err := protocol.Encode(&protocol.Frame{
		Kind:    kind,
		Domain:  uint32(s.DomainID()),
		GUID:    s.guid,
		Seq:     s.seq.Add(1),
		Payload: payload,
	})
	if err != nil {
		return err
	}
	return s.transport.Send(data)
}

func (s *Session) recvLoop(ctx context.Context) {
	defer s.wg.Done()
	domain := uint32(s.DomainID())

	for {
		data, err := s.transport.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrClosed) {
				return
			}
			s.logger.Debug("receive failed", "error", err)
			continue
		}
		s.framesReceived.Add(1)

		f, err := protocol.Decode(data)
		if err != nil {
			s.malformed.Add(1)
			s.logger.Debug("dropping malformed frame", "error", err, "size", len(data))
			continue
		}
		if f.Domain != domain {
			s.foreignDomain.Add(1)
			continue
		}
		if f.GUID == s.guid {
			// Own frames were already delivered locally.
			continue
		}

		switch f.Kind {
		case protocol.KindData:
			s.route(f)
		case protocol.KindAnnounce:
			s.handleAnnounce(f)
		case protocol.KindBye:
			if s.discovery.remove(f.GUID) {
				s.logger.Debug("participant left", "guid", f.GUID)
			}
		}
	}
}

// Participants returns the currently known remote participants, sorted by name.
func (s *Session) Participants() []Participant {
	out := s.discovery.snapshot(time.Now())
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].GUID.String() < out[j].GUID.String()
	})
	return out
}
