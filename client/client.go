/*
Package client implements the request/response side of a robot service.

A Client publishes requests on rt/api/<service>/request and matches answers arriving
on rt/api/<service>/response by message ID. Any number of goroutines may Call
concurrently; each caller receives exactly its own response, once.

Calls are bounded by the client timeout and by the caller's context. A timed out
request may or may not have been executed by the service, so Call never retries;
CallWithRetry does, and only for APIs registered as idempotent.
*/
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/config"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
	"github.com/xaxy55/unitree_sdk2_go/msg"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

const (
	// DefaultTimeout is the budget of a call when none is configured
	DefaultTimeout = config.DefaultRPCTimeout

	// LeaseSuffix is appended to a service name to address its lease service
	LeaseSuffix = "_lease"
	// ApiIdLeaseApply requests exclusive control of a service
	ApiIdLeaseApply int32 = 101

	responseQueueSize = 256
)

// Idempotence tells CallWithRetry whether an API may be sent more than once
type Idempotence int

const (
	NotIdempotent Idempotence = iota
	Idempotent
)

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-call budget
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout.Store(int64(d)) }
}

// WithLease makes Init apply for a lease and stamp it on every request
func WithLease(enable bool) Option {
	return func(c *Client) { c.lease = enable }
}

// WithLogger sets the client logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTranscoder selects the envelope encoding of outgoing requests
func WithTranscoder(f msg.Format) Option {
	return func(c *Client) { c.format = f }
}

// Stats are client counters
type Stats struct {
	Sent     uint64
	Matched  uint64
	Stale    uint64
	Timeouts uint64
}

// Client calls one service. Create it with New, then Init before the first call.
type Client struct {
	session *channel.Session
	service string
	lease   bool
	format  msg.Format
	logger  *slog.Logger
	timeout atomic.Int64

	// Guards the registered APIs and the channel lifecycle
	mu          sync.RWMutex
	apis        map[int32]Idempotence
	initialized bool
	pub         *channel.Publisher[msg.Message, *msg.Message]
	sub         *channel.Subscriber[msg.Message, *msg.Message]
	leaseClient *Client
	done        chan struct{}

	// Serializes Publisher.Write, which is single-owner
	writeMu sync.Mutex
	// Message ID -> chan *msg.Response
	pending sync.Map
	seq     atomic.Int64
	leaseID atomic.Int64

	sent     atomic.Uint64
	matched  atomic.Uint64
	stale    atomic.Uint64
	timeouts atomic.Uint64
}

// New creates a client for service on session. It performs no I/O.
func New(session *channel.Session, service string, opts ...Option) *Client {
	c := &Client{
		session: session,
		service: service,
		format:  msg.FormatCBOR,
		apis:    make(map[int32]Idempotence),
	}
	c.timeout.Store(int64(DefaultTimeout))
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.With("component", "client")
	}
	c.logger = c.logger.With("service", service)
	// Message IDs only need to be unique among the callers sharing a response topic
	c.seq.Store(rand.Int63n(1 << 62))
	return c
}

// Service returns the name of the called service
func (c *Client) Service() string { return c.service }

// SetTimeout sets the per-call budget. Zero expires every call immediately.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout.Store(int64(d))
}

// Timeout returns the per-call budget
func (c *Client) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// LeaseID returns the lease stamped on requests, 0 when leasing is off
func (c *Client) LeaseID() int64 {
	return c.leaseID.Load()
}

// RegisterAPI declares apiID callable. Calls to unregistered IDs fail locally.
func (c *Client) RegisterAPI(apiID int32, idem Idempotence) {
	c.mu.Lock()
	c.apis[apiID] = idem
	c.mu.Unlock()
}

// Init creates the request publisher and response subscriber and, when leasing is
// enabled, applies for a lease.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return sdkerr.ErrAlreadyInitialized
	}
	sub := channel.NewSubscriber[msg.Message](c.session, c.session.Topic(msg.ResponseTopic(c.service)),
		channel.WithQueueSize(responseQueueSize))
	if err := sub.Init(c.handleResponse); err != nil {
		c.mu.Unlock()
		return err
	}
	pub := channel.NewPublisher[msg.Message](c.session, c.session.Topic(msg.RequestTopic(c.service)))
	if err := pub.Init(); err != nil {
		<-sub.Close()
		c.mu.Unlock()
		return err
	}
	c.pub, c.sub = pub, sub
	c.done = make(chan struct{})
	c.initialized = true
	c.mu.Unlock()

	if c.lease {
		if err := c.applyLease(ctx); err != nil {
			c.Close()
			return err
		}
	}
	c.logger.Debug("client initialized", "lease", c.LeaseID())
	return nil
}

func (c *Client) applyLease(ctx context.Context) error {
	lc := New(c.session, c.service+LeaseSuffix,
		WithTimeout(c.Timeout()),
		WithLogger(c.logger),
		WithTranscoder(c.format),
	)
	lc.RegisterAPI(ApiIdLeaseApply, NotIdempotent)
	if err := lc.Init(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.leaseClient = lc
	c.mu.Unlock()

	param, err := json.Marshal(struct {
		Name string `json:"name"`
	}{c.session.GUID().String()})
	if err != nil {
		return sdkerr.Serialization("lease request", err)
	}
	data, err := lc.Call(ctx, ApiIdLeaseApply, string(param))
	if err != nil {
		return fmt.Errorf("apply lease: %w", err)
	}
	var res struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return sdkerr.Serialization("lease response", err)
	}
	c.leaseID.Store(res.ID)
	return nil
}

// Call invokes apiID with a JSON parameter and returns the JSON response data.
func (c *Client) Call(ctx context.Context, apiID int32, parameter string) (string, error) {
	res, err := c.CallBinary(ctx, apiID, parameter, nil)
	if err != nil {
		return "", err
	}
	return res.Data, nil
}

// CallBinary is Call with an opaque binary payload. On an API error the response is
// returned alongside the error.
func (c *Client) CallBinary(ctx context.Context, apiID int32, parameter string, binary []byte) (*msg.Response, error) {
	pub, done, err := c.ready(apiID)
	if err != nil {
		return nil, err
	}

	budget := c.Timeout()
	if budget <= 0 {
		c.timeouts.Add(1)
		return nil, sdkerr.ErrTimeout
	}

	id := c.seq.Add(1)
	respCh := make(chan *msg.Response, 1)
	c.pending.Store(id, respCh)
	defer c.pending.Delete(id)

	timer := time.NewTimer(budget)
	defer timer.Stop()

	if err := c.send(pub, id, &msg.Request{ApiId: apiID, Parameter: parameter, Binary: binary}); err != nil {
		return nil, err
	}

	select {
	case res := <-respCh:
		if res.Code != sdkerr.CodeOK {
			return res, sdkerr.API(res.Code)
		}
		return res, nil
	case <-timer.C:
		c.timeouts.Add(1)
		c.logger.Debug("call timed out", "api", apiID, "id", id, "budget", budget)
		return nil, sdkerr.ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
		return nil, sdkerr.ErrNotInitialized
	}
}

// Notify sends a request the service must not answer.
func (c *Client) Notify(ctx context.Context, apiID int32, parameter string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pub, _, err := c.ready(apiID)
	if err != nil {
		return err
	}
	return c.send(pub, c.seq.Add(1), &msg.Request{ApiId: apiID, Parameter: parameter, NoReply: true})
}

// CallWithRetry repeats a timed out call up to attempts times in total. APIs not
// registered as idempotent are sent once.
func (c *Client) CallWithRetry(ctx context.Context, apiID int32, parameter string, attempts int) (string, error) {
	c.mu.RLock()
	idem := c.apis[apiID]
	c.mu.RUnlock()
	if attempts < 1 || idem != Idempotent {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		var data string
		data, err = c.Call(ctx, apiID, parameter)
		if !errors.Is(err, sdkerr.ErrTimeout) {
			return data, err
		}
		c.logger.Debug("retrying call", "api", apiID, "attempt", i+1)
	}
	return "", err
}

// ready checks that the client can send apiID and returns the request publisher and
// the channel closed by Close.
func (c *Client) ready(apiID int32) (*channel.Publisher[msg.Message, *msg.Message], <-chan struct{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.initialized {
		return nil, nil, sdkerr.ErrNotInitialized
	}
	if _, ok := c.apis[apiID]; !ok {
		return nil, nil, sdkerr.API(sdkerr.CodeAPINotRegistered)
	}
	return c.pub, c.done, nil
}

func (c *Client) send(pub *channel.Publisher[msg.Message, *msg.Message], id int64, req *msg.Request) error {
	req.LeaseId = c.leaseID.Load()
	m := msg.NewRequest(id, req)
	m.Format = c.format

	c.writeMu.Lock()
	ok, err := pub.Write(m)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}
	if !ok {
		return sdkerr.Channel("send request", channel.ErrBackpressure)
	}
	c.sent.Add(1)
	return nil
}

// handleResponse runs on the subscriber goroutine.
func (c *Client) handleResponse(m *msg.Message) {
	if m.Res == nil {
		return
	}
	ch, ok := c.pending.LoadAndDelete(m.MessageId)
	if !ok {
		c.stale.Add(1)
		c.logger.Debug("dropping unmatched response", "id", m.MessageId, "api", m.Res.ApiId)
		return
	}
	c.matched.Add(1)
	ch.(chan *msg.Response) <- m.Res
}

// Stats returns a snapshot of the counters
func (c *Client) Stats() Stats {
	return Stats{
		Sent:     c.sent.Load(),
		Matched:  c.matched.Load(),
		Stale:    c.stale.Load(),
		Timeouts: c.timeouts.Load(),
	}
}

// Close releases the channels and wakes pending calls with NotInitialized. The
// client may be initialized again.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return nil
	}
	c.initialized = false
	close(c.done)
	c.writeMu.Lock()
	err := c.pub.Close()
	c.writeMu.Unlock()
	<-c.sub.Close()
	if c.leaseClient != nil {
		c.leaseClient.Close()
		c.leaseClient = nil
	}
	c.leaseID.Store(0)
	return err
}
