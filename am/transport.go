// Package am implements the active-message runtime (C9): a per-Runtime
// handler registry plus a cooperative progress engine, transport-agnostic
// behind the Transport interface. am/grpc and am/loopback are the two
// bundled Transport implementations.
package am

import (
	"context"

	"github.com/pearl-replay/pearl/buffer"
)

// Transport is the substrate an am.Runtime sends and receives active
// messages over, standing in for the out-of-scope MPI binding per spec.md
// §6. Every method may block; callers pass a context to bound that wait.
type Transport interface {
	// Probe checks for an incoming message on tag, optionally restricted to
	// a specific source (anySource false). ok is false if none is pending.
	Probe(ctx context.Context, anySource bool, tag uint32) (ok bool, buf *buffer.Buffer, err error)

	// Send blocks until buf has been delivered to dest on tag.
	Send(ctx context.Context, buf *buffer.Buffer, dest uint32, tag uint32) error

	// ISend starts a non-blocking send, returning a Request to poll.
	ISend(ctx context.Context, buf *buffer.Buffer, dest uint32, tag uint32) (Request, error)

	// ISSend starts a non-blocking send that Runtime.Start uses for
	// rendezvous requests. The bundled loopback and grpc transports
	// implement it exactly like ISend: the returned Request completes once
	// the message is handed off, not when the peer has matched it.
	ISSend(ctx context.Context, buf *buffer.Buffer, dest uint32, tag uint32) (Request, error)

	// Bcast blocks until buf has been broadcast to every peer from root.
	Bcast(ctx context.Context, buf *buffer.Buffer, root uint32) error

	// Dup returns an independent Transport bound to the same peer group.
	// Runtime and Listener do not call it; every Listener probes through
	// its Runtime's own Transport.
	Dup(ctx context.Context) (Transport, error)
}

// RequestState is the lifecycle state of an outstanding am.Request.
type RequestState int

const (
	// RequestPending is the initial state: neither completed nor canceled.
	RequestPending RequestState = iota
	// RequestComplete means the transport has reported the send done. For
	// the bundled transports this holds once the message is handed off,
	// for ISSend as for ISend; it does not imply the peer has matched it.
	RequestComplete
	// RequestCancelled means Cancel was called, whether or not the request
	// had already completed; transport resources of a still-pending
	// request have been released.
	RequestCancelled
)

// String renders the request state for diagnostics.
func (s RequestState) String() string {
	switch s {
	case RequestPending:
		return "Pending"
	case RequestComplete:
		return "Complete"
	case RequestCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Request is a handle to a non-blocking transport operation started by
// ISend/ISSend. Test polls for completion without blocking; Cancel aborts
// it. Both are safe to call after the request has already reached a
// terminal state.
type Request interface {
	State() RequestState
	Test(ctx context.Context) (bool, error)
	Cancel() error
}
