package channel

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by a Transport after Close.
	ErrClosed = errors.New("channel: transport closed")
	// ErrBackpressure is returned by Send when the frame could not be handed to the
	// network without blocking. Publishers report it as a not-accepted write.
	ErrBackpressure = errors.New("channel: transport backpressure")
)

// Transport moves whole frames between participants. Each Send/Recv carries one
// complete datagram as produced by protocol.Encode.
type Transport interface {
	// Send hands one frame to the network. It must not block on receivers.
	Send(frame []byte) error

	// Recv blocks until a frame arrives, ctx is done or the transport is closed.
	Recv(ctx context.Context) ([]byte, error)

	// Close releases the transport. Blocked Recv calls return ErrClosed.
	Close() error

	// Name identifies the transport in logs.
	Name() string
}
