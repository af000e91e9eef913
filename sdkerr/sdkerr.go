/*
Package sdkerr defines the error taxonomy shared by every layer of the SDK.

Misuse errors (NotInitialized, AlreadyInitialized) are sentinels. Failures that carry
detail are typed wrappers that unwrap to their cause, so callers can use errors.Is and
errors.As at any depth. Code maps any error onto the integer result codes the robot
services speak, 0 meaning success.
*/
package sdkerr

import (
	"context"
	"errors"
	"fmt"
)

// Result codes. Remote services may return any other non-zero value, which is passed
// through untouched inside an APIError.
const (
	CodeOK                 int32 = 0
	CodeAPINotRegistered   int32 = 3102
	CodeTimeout            int32 = 3104
	CodeNotInitialized     int32 = 3105
	CodeSerialization      int32 = 3106
	CodeChannel            int32 = 3107
	CodeInit               int32 = 3108
	CodeCancelled          int32 = 3109
	CodeServerInternal     int32 = 3201
	CodeAPINotFound        int32 = 3203
	CodeServerBadParameter int32 = 3204
)

var (
	// ErrNotInitialized is returned when a channel is used before Init
	ErrNotInitialized = errors.New("not initialized")
	// ErrAlreadyInitialized is returned by a second Init without an intervening Close
	ErrAlreadyInitialized = errors.New("already initialized")
	// ErrTimeout is returned when an RPC call exceeds its budget. The request may or may
	// not have been processed by the remote side.
	ErrTimeout = errors.New("timeout")
)

// ChannelError is a transport-layer send or receive failure.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel error: %s: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// Channel wraps err as a ChannelError for operation op.
func Channel(op string, err error) error {
	return &ChannelError{Op: op, Err: err}
}

// InitError reports misuse or failure while initializing a resource.
type InitError struct {
	Reason string
	Err    error
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("initialization error: %s: %v", e.Reason, e.Err)
	}
	return "initialization error: " + e.Reason
}

func (e *InitError) Unwrap() error { return e.Err }

// Init builds an InitError. err may be nil.
func Init(reason string, err error) error {
	return &InitError{Reason: reason, Err: err}
}

// SerializationError is a malformed or mismatched-schema payload.
type SerializationError struct {
	What string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("serialization error: %s: %v", e.What, e.Err)
	}
	return "serialization error: " + e.What
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Serialization builds a SerializationError. err may be nil.
func Serialization(what string, err error) error {
	return &SerializationError{What: what, Err: err}
}

// APIError is an explicit rejection by the remote service (or by the local client for
// calls that never reached the wire). Code is opaque to the SDK.
type APIError struct {
	Code int32
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error code: %d", e.Code)
}

// API builds an APIError for code.
func API(code int32) error {
	return &APIError{Code: code}
}

// Code maps err to an integer result code.
func Code(err error) int32 {
	if err == nil {
		return CodeOK
	}
	var (
		apiErr  *APIError
		serErr  *SerializationError
		chErr   *ChannelError
		initErr *InitError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, ErrNotInitialized):
		return CodeNotInitialized
	case errors.Is(err, ErrAlreadyInitialized), errors.As(err, &initErr):
		return CodeInit
	case errors.As(err, &serErr):
		return CodeSerialization
	case errors.As(err, &chErr):
		return CodeChannel
	}
	return CodeServerInternal
}
