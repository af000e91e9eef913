package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/msg"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
	"github.com/xaxy55/unitree_sdk2_go/server"
)

const (
	service  = "test"
	apiEcho  = int32(1)
	apiFail  = int32(2)
	apiBlock = int32(3)
	apiLease = int32(4)
	waitFor  = 2 * time.Second
)

// newSessions returns a client-side and a service-side session sharing a loopback bus.
// Goroutine leaks are checked after every other cleanup has run.
func newSessions(t *testing.T) (*channel.Session, *channel.Session) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })
	bus := channel.NewLoopbackBus()
	cs := channel.NewSession(channel.WithTransport(bus.Attach()), channel.WithAnnounceInterval(0), channel.WithName("client"))
	ss := channel.NewSession(channel.WithTransport(bus.Attach()), channel.WithAnnounceInterval(0), channel.WithName("service"))
	t.Cleanup(func() {
		cs.Close()
		ss.Close()
	})
	return cs, ss
}

func startServer(t *testing.T, sess *channel.Session, name string, handlers map[int32]server.Handler, opts ...server.Option) *server.Server {
	t.Helper()
	srv := server.New(sess, name, opts...)
	for id, h := range handlers {
		srv.Register(id, h)
	}
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { srv.Close() })
	return srv
}

func echo(_ context.Context, req *msg.Request) (string, error) {
	return req.Parameter, nil
}

func newClient(t *testing.T, sess *channel.Session, opts ...Option) *Client {
	t.Helper()
	c := New(sess, service, opts...)
	c.RegisterAPI(apiEcho, Idempotent)
	c.RegisterAPI(apiFail, NotIdempotent)
	c.RegisterAPI(apiBlock, NotIdempotent)
	require.NoError(t, c.Init(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCallBeforeInit(t *testing.T) {
	cs, _ := newSessions(t)
	c := New(cs, service)
	c.RegisterAPI(apiEcho, Idempotent)

	_, err := c.Call(context.Background(), apiEcho, "{}")
	assert.ErrorIs(t, err, sdkerr.ErrNotInitialized)
	assert.ErrorIs(t, c.Notify(context.Background(), apiEcho, "{}"), sdkerr.ErrNotInitialized)
}

func TestDoubleInit(t *testing.T) {
	cs, _ := newSessions(t)
	c := newClient(t, cs)
	assert.ErrorIs(t, c.Init(context.Background()), sdkerr.ErrAlreadyInitialized)
}

func TestTimeoutWithZeroBudget(t *testing.T) {
	cs, ss := newSessions(t)
	startServer(t, ss, service, map[int32]server.Handler{apiEcho: echo})
	c := newClient(t, cs)
	c.SetTimeout(0)

	_, err := c.Call(context.Background(), apiEcho, "{}")
	require.ErrorIs(t, err, sdkerr.ErrTimeout)
	assert.Equal(t, sdkerr.CodeTimeout, sdkerr.Code(err))
	assert.Equal(t, Stats{Timeouts: 1}, c.Stats())
}

func TestTimeoutWithoutResponder(t *testing.T) {
	cs, _ := newSessions(t)
	c := newClient(t, cs, WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := c.Call(context.Background(), apiEcho, "{}")
	require.ErrorIs(t, err, sdkerr.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, Stats{Sent: 1, Timeouts: 1}, c.Stats())
}

func TestUnregisteredAPIFailsLocally(t *testing.T) {
	cs, _ := newSessions(t)
	c := newClient(t, cs)

	_, err := c.Call(context.Background(), 999, "{}")
	var apiErr *sdkerr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sdkerr.CodeAPINotRegistered, apiErr.Code)
	assert.Zero(t, c.Stats().Sent)
}

func TestCall(t *testing.T) {
	for _, f := range []msg.Format{msg.FormatCBOR, msg.FormatJSON} {
		t.Run(f.String(), func(t *testing.T) {
			cs, ss := newSessions(t)
			startServer(t, ss, service, map[int32]server.Handler{apiEcho: echo})

			// Watch the response topic to see the encoding the service answered in.
			formats := make(chan msg.Format, 1)
			spy := channel.NewSubscriber[msg.Message](cs, cs.Topic(msg.ResponseTopic(service)))
			require.NoError(t, spy.Init(func(m *msg.Message) { formats <- m.Format }))
			defer func() { <-spy.Close() }()

			c := newClient(t, cs, WithTranscoder(f))
			data, err := c.Call(context.Background(), apiEcho, `{"value":1}`)
			require.NoError(t, err)
			assert.Equal(t, `{"value":1}`, data)
			assert.Equal(t, Stats{Sent: 1, Matched: 1}, c.Stats())

			select {
			case got := <-formats:
				assert.Equal(t, f, got)
			case <-time.After(waitFor):
				t.Fatal("no response observed")
			}
		})
	}
}

func TestConcurrentInterleavedCalls(t *testing.T) {
	const calls = 64
	cs, ss := newSessions(t)
	startServer(t, ss, service, map[int32]server.Handler{
		apiEcho: func(_ context.Context, req *msg.Request) (string, error) {
			// Uneven service times so responses come back out of order.
			n, _ := strconv.Atoi(req.Parameter)
			time.Sleep(time.Duration(n%7) * time.Millisecond)
			return req.Parameter, nil
		},
	})
	c := newClient(t, cs)

	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := strconv.Itoa(i)
			got, err := c.Call(context.Background(), apiEcho, want)
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- fmt.Errorf("call %d got response %q", i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, Stats{Sent: calls, Matched: calls}, c.Stats())
}

func TestAPIError(t *testing.T) {
	cs, ss := newSessions(t)
	startServer(t, ss, service, map[int32]server.Handler{
		apiFail: func(context.Context, *msg.Request) (string, error) {
			return `{"reason":"busy"}`, sdkerr.API(4001)
		},
	})
	c := newClient(t, cs)

	res, err := c.CallBinary(context.Background(), apiFail, "{}", []byte{1, 2})
	var apiErr *sdkerr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int32(4001), apiErr.Code)
	assert.Equal(t, int32(4001), sdkerr.Code(err))
	require.NotNil(t, res)
	assert.Equal(t, `{"reason":"busy"}`, res.Data)

	// Registered locally but unknown to the service.
	c.RegisterAPI(77, Idempotent)
	_, err = c.Call(context.Background(), 77, "{}")
	assert.Equal(t, sdkerr.CodeAPINotFound, sdkerr.Code(err))
}

func TestContextCancelAndStaleResponse(t *testing.T) {
	cs, ss := newSessions(t)
	release := make(chan struct{})
	startServer(t, ss, service, map[int32]server.Handler{
		apiBlock: func(ctx context.Context, _ *msg.Request) (string, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return "{}", nil
		},
	})
	c := newClient(t, cs)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Call(ctx, apiBlock, "{}")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, sdkerr.CodeCancelled, sdkerr.Code(err))

	// The late answer has no waiter left.
	close(release)
	assert.Eventually(t, func() bool { return c.Stats().Stale == 1 }, waitFor, time.Millisecond)
	assert.Zero(t, c.Stats().Matched)
}

func TestCloseWakesPendingCall(t *testing.T) {
	cs, ss := newSessions(t)
	startServer(t, ss, service, map[int32]server.Handler{
		apiBlock: func(ctx context.Context, _ *msg.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})
	c := newClient(t, cs)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), apiBlock, "{}")
		errc <- err
	}()
	require.Eventually(t, func() bool { return c.Stats().Sent == 1 }, waitFor, time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, sdkerr.ErrNotInitialized)
	case <-time.After(waitFor):
		t.Fatal("pending call not woken by Close")
	}

	// A closed client can be initialized again.
	require.NoError(t, c.Init(context.Background()))
}

// startFlaky answers every request after the first drop ones.
func startFlaky(t *testing.T, sess *channel.Session, drop int32) *atomic.Int32 {
	t.Helper()
	pub := channel.NewPublisher[msg.Message](sess, sess.Topic(msg.ResponseTopic(service)))
	require.NoError(t, pub.Init())
	var seen atomic.Int32
	sub := channel.NewSubscriber[msg.Message](sess, sess.Topic(msg.RequestTopic(service)))
	require.NoError(t, sub.Init(func(m *msg.Message) {
		if seen.Add(1) <= drop {
			return
		}
		pub.Write(msg.NewResponse(m, &msg.Response{ApiId: m.Req.ApiId, Data: `{"ok":true}`}))
	}))
	t.Cleanup(func() {
		<-sub.Close()
		pub.Close()
	})
	return &seen
}

func TestCallWithRetry(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		cs, ss := newSessions(t)
		seen := startFlaky(t, ss, 1)
		c := newClient(t, cs, WithTimeout(100*time.Millisecond))

		data, err := c.CallWithRetry(context.Background(), apiEcho, "{}", 3)
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, data)
		assert.Equal(t, int32(2), seen.Load())
		assert.Equal(t, uint64(1), c.Stats().Timeouts)
	})

	t.Run("not idempotent", func(t *testing.T) {
		cs, ss := newSessions(t)
		seen := startFlaky(t, ss, 1)
		c := newClient(t, cs, WithTimeout(100*time.Millisecond))

		_, err := c.CallWithRetry(context.Background(), apiFail, "{}", 3)
		require.ErrorIs(t, err, sdkerr.ErrTimeout)
		assert.Equal(t, int32(1), seen.Load())
	})

	t.Run("api errors are not retried", func(t *testing.T) {
		cs, ss := newSessions(t)
		var calls atomic.Int32
		startServer(t, ss, service, map[int32]server.Handler{
			apiEcho: func(context.Context, *msg.Request) (string, error) {
				calls.Add(1)
				return "", sdkerr.API(4002)
			},
		})
		c := newClient(t, cs)

		_, err := c.CallWithRetry(context.Background(), apiEcho, "{}", 3)
		assert.Equal(t, int32(4002), sdkerr.Code(err))
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestNotify(t *testing.T) {
	cs, ss := newSessions(t)
	got := make(chan string, 1)
	srv := startServer(t, ss, service, map[int32]server.Handler{
		apiEcho: func(_ context.Context, req *msg.Request) (string, error) {
			assert.True(t, req.NoReply)
			got <- req.Parameter
			return "{}", nil
		},
	})
	c := newClient(t, cs)

	require.NoError(t, c.Notify(context.Background(), apiEcho, `{"value":3}`))
	select {
	case p := <-got:
		assert.Equal(t, `{"value":3}`, p)
	case <-time.After(waitFor):
		t.Fatal("notification not handled")
	}
	assert.Eventually(t, func() bool { return srv.Stats().Handled == 1 }, waitFor, time.Millisecond)
	// Nothing comes back, so nothing is matched or stale.
	assert.Equal(t, Stats{Sent: 1}, c.Stats())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Notify(ctx, apiEcho, "{}"), context.Canceled)
}

func TestLease(t *testing.T) {
	cs, ss := newSessions(t)
	var holder atomic.Value
	startServer(t, ss, service+LeaseSuffix, map[int32]server.Handler{
		ApiIdLeaseApply: func(_ context.Context, req *msg.Request) (string, error) {
			holder.Store(req.Parameter)
			return `{"id":42}`, nil
		},
	})
	startServer(t, ss, service, map[int32]server.Handler{
		apiLease: func(_ context.Context, req *msg.Request) (string, error) {
			return strconv.FormatInt(req.LeaseId, 10), nil
		},
	})

	c := New(cs, service, WithLease(true))
	c.RegisterAPI(apiLease, Idempotent)
	require.NoError(t, c.Init(context.Background()))
	defer c.Close()

	assert.Equal(t, int64(42), c.LeaseID())
	assert.JSONEq(t, fmt.Sprintf(`{"name":%q}`, cs.GUID().String()), holder.Load().(string))

	data, err := c.Call(context.Background(), apiLease, "{}")
	require.NoError(t, err)
	assert.Equal(t, "42", data)
}

func TestLeaseFailureFailsInit(t *testing.T) {
	cs, ss := newSessions(t)
	startServer(t, ss, service+LeaseSuffix, map[int32]server.Handler{
		ApiIdLeaseApply: func(context.Context, *msg.Request) (string, error) {
			return "", errors.New("lease held elsewhere")
		},
	})

	c := New(cs, service, WithLease(true))
	err := c.Init(context.Background())
	assert.Equal(t, sdkerr.CodeServerInternal, sdkerr.Code(err))
	assert.Zero(t, c.LeaseID())

	// Init released its channels, so another client can bind the topics.
	c2 := New(cs, service)
	require.NoError(t, c2.Init(context.Background()))
	c2.Close()
}
