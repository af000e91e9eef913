package server

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/client"
	"github.com/xaxy55/unitree_sdk2_go/msg"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

const (
	service = "test"
	waitFor = 2 * time.Second
)

func newSession(t *testing.T, bus *channel.LoopbackBus) *channel.Session {
	t.Helper()
	s := channel.NewSession(channel.WithTransport(bus.Attach()), channel.WithAnnounceInterval(0))
	t.Cleanup(func() { s.Close() })
	return s
}

func startServer(t *testing.T, s *Server) {
	t.Helper()
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Close() })
}

func newClient(t *testing.T, sess *channel.Session, apis ...int32) *client.Client {
	t.Helper()
	c := client.New(sess, service, client.WithTimeout(waitFor))
	for _, id := range apis {
		c.RegisterAPI(id, client.Idempotent)
	}
	require.NoError(t, c.Init(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestManyClients(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	bus := channel.NewLoopbackBus()

	srv := New(newSession(t, bus), service)
	srv.Register(1, func(_ context.Context, req *msg.Request) (string, error) {
		return req.Parameter, nil
	})
	startServer(t, srv)

	// One session per client: every client sees every response but only matches its own.
	// More clients than handler slots, so some requests wait for a slot.
	const n = 2 * DefaultConcurrency
	clients := make([]*client.Client, n)
	for i := range clients {
		clients[i] = newClient(t, newSession(t, bus), 1)
	}

	type result struct {
		i    int
		data string
		err  error
	}
	results := make(chan result, n)
	for i, c := range clients {
		go func(i int, c *client.Client) {
			data, err := c.Call(context.Background(), 1, strconv.Itoa(i))
			results <- result{i, data, err}
		}(i, c)
	}
	for range clients {
		r := <-results
		require.NoError(t, r.err)
		assert.Equal(t, strconv.Itoa(r.i), r.data)
	}

	for _, c := range clients {
		c := c
		assert.Eventually(t, func() bool { return c.Stats().Stale == n-1 }, waitFor, time.Millisecond)
		assert.Equal(t, uint64(1), c.Stats().Matched)
	}
	assert.Equal(t, uint64(n), srv.Stats().Handled)
	assert.Zero(t, srv.Stats().Rejected)
}

func TestResultCodes(t *testing.T) {
	bus := channel.NewLoopbackBus()
	srv := New(newSession(t, bus), service)
	srv.Register(1, func(context.Context, *msg.Request) (string, error) {
		return `{"value":1}`, nil
	})
	srv.Register(2, func(context.Context, *msg.Request) (string, error) {
		return "", sdkerr.API(4100)
	})
	srv.Register(3, func(context.Context, *msg.Request) (string, error) {
		return "", errors.New("motor fault")
	})
	srv.Register(4, func(context.Context, *msg.Request) (string, error) {
		panic("handler bug")
	})
	startServer(t, srv)
	c := newClient(t, newSession(t, bus), 1, 2, 3, 4, 5)

	tests := []struct {
		api  int32
		code int32
	}{
		{1, sdkerr.CodeOK},
		{2, 4100},
		{3, sdkerr.CodeServerInternal},
		{4, sdkerr.CodeServerInternal},
		{5, sdkerr.CodeAPINotFound},
		// The server survives the panic.
		{1, sdkerr.CodeOK},
	}
	for _, tt := range tests {
		res, err := c.CallBinary(context.Background(), tt.api, "{}", nil)
		assert.Equal(t, tt.code, sdkerr.Code(err), "api %d", tt.api)
		require.NotNil(t, res)
		assert.Equal(t, tt.api, res.ApiId)
		assert.Equal(t, tt.code, res.Code)
	}
	assert.Equal(t, Stats{Requests: 6, Handled: 2, Failed: 3, NotFound: 1}, srv.Stats())
}

func TestNoReply(t *testing.T) {
	bus := channel.NewLoopbackBus()
	srv := New(newSession(t, bus), service)
	srv.Register(1, func(context.Context, *msg.Request) (string, error) {
		return "{}", nil
	})
	startServer(t, srv)
	cs := newSession(t, bus)
	c := newClient(t, cs, 1)

	responses := make(chan *msg.Message, 4)
	spy := channel.NewSubscriber[msg.Message](cs, cs.Topic(msg.ResponseTopic(service)))
	require.NoError(t, spy.Init(func(m *msg.Message) { responses <- m }))
	defer func() { <-spy.Close() }()

	require.NoError(t, c.Notify(context.Background(), 1, "{}"))
	assert.Eventually(t, func() bool { return srv.Stats().Handled == 1 }, waitFor, time.Millisecond)

	// A normal call afterwards gets the only response on the topic.
	_, err := c.Call(context.Background(), 1, "{}")
	require.NoError(t, err)
	m := <-responses
	assert.NotNil(t, m.Res)
	assert.Empty(t, responses)
}

func TestIgnoresResponsesOnRequestTopic(t *testing.T) {
	bus := channel.NewLoopbackBus()
	ss := newSession(t, bus)
	srv := New(ss, service)
	startServer(t, srv)

	cs := newSession(t, bus)
	pub := channel.NewPublisher[msg.Message](cs, cs.Topic(msg.RequestTopic(service)))
	require.NoError(t, pub.Init())
	ok, err := pub.Write(&msg.Message{Version: msg.MyVersion, MessageId: 1, Res: &msg.Response{ApiId: 1}})
	require.NoError(t, err)
	require.True(t, ok)

	// Follow with a request so there is something to wait for.
	ok, err = pub.Write(msg.NewRequest(2, &msg.Request{ApiId: 9, Parameter: "{}"}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Eventually(t, func() bool { return srv.Stats().NotFound == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, uint64(1), srv.Stats().Requests)
}

func TestStartTwice(t *testing.T) {
	bus := channel.NewLoopbackBus()
	srv := New(newSession(t, bus), service)
	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), sdkerr.ErrAlreadyInitialized)
	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())

	// The topics were released, so the server starts again.
	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Close())
}

func TestSecondServerOnSessionFails(t *testing.T) {
	bus := channel.NewLoopbackBus()
	sess := newSession(t, bus)
	startServer(t, New(sess, service))

	err := New(sess, service).Start(context.Background())
	var initErr *sdkerr.InitError
	assert.ErrorAs(t, err, &initErr)
}
