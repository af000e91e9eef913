package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/msg"
)

const (
	apiSlow = int32(1)
	apiFast = int32(2)
)

func TestSlowHandler(t *testing.T) {
	// A slow request must not hold up fast ones behind it
	t.Cleanup(func() { goleak.VerifyNone(t) })
	bus := channel.NewLoopbackBus()

	release := make(chan struct{})
	srv := New(newSession(t, bus), service)
	srv.Register(apiSlow, func(ctx context.Context, _ *msg.Request) (string, error) {
		select {
		case <-release:
			return `{"slow":true}`, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	srv.Register(apiFast, func(context.Context, *msg.Request) (string, error) {
		return `{"fast":true}`, nil
	})
	startServer(t, srv)
	c := newClient(t, newSession(t, bus), apiSlow, apiFast)

	slow := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), apiSlow, "{}")
		slow <- err
	}()
	require.Eventually(t, func() bool { return srv.Stats().Requests == 1 }, waitFor, time.Millisecond)

	for i := 0; i < 10; i++ {
		data, err := c.Call(context.Background(), apiFast, "{}")
		require.NoError(t, err)
		assert.JSONEq(t, `{"fast":true}`, data)
	}
	select {
	case <-slow:
		t.Fatal("slow call finished before release")
	default:
	}

	close(release)
	select {
	case err := <-slow:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("slow call never finished")
	}
}

func TestBusyServerQueuesRequests(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	bus := channel.NewLoopbackBus()

	release := make(chan struct{})
	srv := New(newSession(t, bus), service, WithConcurrency(1))
	srv.Register(apiSlow, func(ctx context.Context, _ *msg.Request) (string, error) {
		select {
		case <-release:
			return "{}", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	srv.Register(apiFast, func(context.Context, *msg.Request) (string, error) {
		return `{"fast":true}`, nil
	})
	startServer(t, srv)
	c := newClient(t, newSession(t, bus), apiSlow, apiFast)

	slow := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), apiSlow, "{}")
		slow <- err
	}()
	require.Eventually(t, func() bool { return srv.Stats().Requests == 1 }, waitFor, time.Millisecond)

	// The only slot is taken, so the fast request waits behind the slow one.
	fast := make(chan error, 1)
	go func() {
		data, err := c.Call(context.Background(), apiFast, "{}")
		if err == nil && data != `{"fast":true}` {
			err = errors.New("unexpected data " + data)
		}
		fast <- err
	}()
	require.Eventually(t, func() bool { return srv.Stats().Requests == 2 }, waitFor, time.Millisecond)
	select {
	case <-fast:
		t.Fatal("fast call served while the only slot was busy")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	for _, done := range []chan error{slow, fast} {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Fatal("call never finished")
		}
	}
	assert.Equal(t, uint64(2), srv.Stats().Handled)
	assert.Zero(t, srv.Stats().Rejected)
}

func TestCloseReleasesWaitingRequests(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	bus := channel.NewLoopbackBus()

	srv := New(newSession(t, bus), service, WithConcurrency(1))
	srv.Register(apiSlow, func(ctx context.Context, _ *msg.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	startServer(t, srv)
	c := newClient(t, newSession(t, bus), apiSlow)
	c.SetTimeout(100 * time.Millisecond)

	// One request holds the slot, the second waits for it.
	for i := 0; i < 2; i++ {
		go c.Call(context.Background(), apiSlow, "{}")
	}
	require.Eventually(t, func() bool { return srv.Stats().Requests == 2 }, waitFor, time.Millisecond)

	// Close cancels the running handler and releases the waiting request, which is
	// either abandoned or runs with the cancelled context.
	require.NoError(t, srv.Close())
	st := srv.Stats()
	assert.GreaterOrEqual(t, st.Failed, uint64(1))
	assert.Equal(t, uint64(2), st.Failed+st.Rejected)
	assert.Zero(t, st.Handled)
}
