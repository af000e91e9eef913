/*
Package server implements the service side of the request/response protocol.

A Server subscribes to rt/api/<service>/request, runs the handler registered for
each request's API ID and publishes the answer on rt/api/<service>/response with the
request's message ID, in the request's envelope format.

Result codes:
  - 0 when the handler succeeds
  - the code of an sdkerr.APIError returned by the handler
  - sdkerr.CodeServerInternal for any other handler error
  - sdkerr.CodeAPINotFound when no handler is registered

Requests flagged NoReply are executed but never answered.
*/
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
	"github.com/xaxy55/unitree_sdk2_go/msg"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

// DefaultConcurrency is the default number of requests handled at once
const DefaultConcurrency = 16

// Handler serves one API. The returned string is the JSON response data.
type Handler func(ctx context.Context, req *msg.Request) (string, error)

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithConcurrency bounds the number of handlers running at once. Requests arriving
// while every slot is busy wait in the request queue, which holds four per slot.
// When it overflows the oldest waiting request is dropped.
func WithConcurrency(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.sem = make(chan struct{}, n)
		}
	}
}

// Stats are server counters
type Stats struct {
	Requests uint64
	Handled  uint64
	Failed   uint64
	NotFound uint64
	// Requests abandoned because the server was closing
	Rejected uint64
}

type Server struct {
	session *channel.Session
	service string
	logger  *slog.Logger
	// One slot per running handler
	sem chan struct{}

	handlersMu sync.RWMutex
	handlers   map[int32]Handler

	// Guards the channel lifecycle
	mu      sync.Mutex
	started bool
	pub     *channel.Publisher[msg.Message, *msg.Message]
	sub     *channel.Subscriber[msg.Message, *msg.Message]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	writeMu sync.Mutex

	requests atomic.Uint64
	handled  atomic.Uint64
	failed   atomic.Uint64
	notFound atomic.Uint64
	rejected atomic.Uint64
}

// New creates a server for service on session. It performs no I/O.
func New(session *channel.Session, service string, opts ...Option) *Server {
	s := &Server{
		session:  session,
		service:  service,
		sem:      make(chan struct{}, DefaultConcurrency),
		handlers: make(map[int32]Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.With("component", "server")
	}
	s.logger = s.logger.With("service", service)
	return s
}

// Service returns the served service name
func (s *Server) Service() string { return s.service }

// Register installs h for apiID, replacing any previous handler. It may be called
// while the server runs.
func (s *Server) Register(apiID int32, h Handler) {
	s.handlersMu.Lock()
	s.handlers[apiID] = h
	s.handlersMu.Unlock()
}

// Start begins serving. Handlers receive a context derived from ctx, cancelled by
// Close.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return sdkerr.ErrAlreadyInitialized
	}

	pub := channel.NewPublisher[msg.Message](s.session, s.session.Topic(msg.ResponseTopic(s.service)))
	if err := pub.Init(); err != nil {
		return err
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	sub := channel.NewSubscriber[msg.Message](s.session, s.session.Topic(msg.RequestTopic(s.service)),
		channel.WithQueueSize(4*cap(s.sem)))
	if err := sub.Init(s.dispatch); err != nil {
		s.cancel()
		pub.Close()
		return err
	}
	s.pub, s.sub = pub, sub
	s.started = true
	s.logger.Info("server started")
	return nil
}

// dispatch runs on the subscriber goroutine. It waits for a free handler slot,
// so at most as long as the quickest running handler, or until Close.
func (s *Server) dispatch(m *msg.Message) {
	if m.Req == nil {
		return
	}
	s.requests.Add(1)
	select {
	case s.sem <- struct{}{}:
	case <-s.ctx.Done():
		s.rejected.Add(1)
		s.logger.Debug("request abandoned, server closing", "api", m.Req.ApiId, "id", m.MessageId)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()
		s.serve(m)
	}()
}

func (s *Server) serve(m *msg.Message) {
	req := m.Req
	s.handlersMu.RLock()
	h, ok := s.handlers[req.ApiId]
	s.handlersMu.RUnlock()

	res := &msg.Response{ApiId: req.ApiId}
	if !ok {
		s.notFound.Add(1)
		res.Code = sdkerr.CodeAPINotFound
	} else {
		data, err := s.call(h, req)
		res.Data = data
		if err != nil {
			s.failed.Add(1)
			res.Code = resultCode(err)
			s.logger.Debug("handler failed", "api", req.ApiId, "code", res.Code, "error", err)
		} else {
			s.handled.Add(1)
		}
	}

	if req.NoReply {
		return
	}
	s.reply(msg.NewResponse(m, res))
}

func (s *Server) call(h Handler, req *msg.Request) (data string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panicked", "api", req.ApiId, "panic", r)
			data, err = "", errors.New("handler panicked")
		}
	}()
	return h(s.ctx, req)
}

func resultCode(err error) int32 {
	var apiErr *sdkerr.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return sdkerr.CodeServerInternal
}

func (s *Server) reply(m *msg.Message) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ok, err := s.pub.Write(m)
	switch {
	case err != nil:
		s.logger.Warn("response not sent", "id", m.MessageId, "error", err)
	case !ok:
		s.logger.Debug("response not accepted by transport", "id", m.MessageId)
	}
}

// Stats returns a snapshot of the counters
func (s *Server) Stats() Stats {
	return Stats{
		Requests: s.requests.Load(),
		Handled:  s.handled.Load(),
		Failed:   s.failed.Load(),
		NotFound: s.notFound.Load(),
		Rejected: s.rejected.Load(),
	}
}

// Close stops accepting requests, cancels running handlers and waits for them.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	// Cancel first: it releases a dispatch waiting for a slot.
	s.cancel()
	<-s.sub.Close()
	s.wg.Wait()
	s.writeMu.Lock()
	err := s.pub.Close()
	s.writeMu.Unlock()
	s.logger.Info("server stopped")
	return err
}
