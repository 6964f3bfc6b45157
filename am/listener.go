package am

import (
	"context"
	"sync"

	"github.com/pearl-replay/pearl/defs"
)

// Listener probes for incoming active messages on one communicator and a
// fixed tag, dispatching each to the handler named by the message's
// leading handler id. It is reference-counted (spec.md §4.8): it starts
// with zero external references at construction, and the Runtime that owns
// it calls AddRef exactly once when it begins tracking the listener. Any
// other code path that wants to hold the listener across progress calls
// must AddRef itself and Release when done.
type Listener struct {
	mu        sync.Mutex
	refs      int
	comm      defs.ID
	tag       uint32
	transport Transport
	rt        *Runtime
}

func newListener(rt *Runtime, transport Transport, comm defs.ID, tag uint32) *Listener {
	return &Listener{comm: comm, tag: tag, transport: transport, rt: rt}
}

// AddRef increments the listener's reference count.
func (l *Listener) AddRef() {
	l.mu.Lock()
	l.refs++
	l.mu.Unlock()
}

// Release decrements the listener's reference count. Once it reaches zero
// the Runtime drops the listener from its active set on the next Progress
// call.
func (l *Listener) Release() {
	l.mu.Lock()
	l.refs--
	l.mu.Unlock()
}

// refCount reports the listener's current reference count.
func (l *Listener) refCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refs
}

// Communicator returns the id of the communicator this listener probes.
func (l *Listener) Communicator() defs.ID { return l.comm }

// probe performs one non-blocking check for an incoming message and, if one
// is present, decodes and dispatches it. Per the §4.8 failure model: an
// unknown handler id skips dispatch and records a recoverable warning; a
// truncated payload aborts just that handler invocation, leaving the
// listener itself usable for the next probe.
func (l *Listener) probe(ctx context.Context) error {
	ok, buf, err := l.transport.Probe(ctx, true, l.tag)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	handlerID, err := buf.ReadU32()
	if err != nil {
		l.rt.warnings.record("listener on comm %d: buffer exhausted reading handler id: %v", l.comm, err)
		return nil
	}

	h, ok := l.rt.handler(handlerID)
	if !ok {
		l.rt.warnings.record("listener on comm %d: unknown handler id %d", l.comm, handlerID)
		return nil
	}

	if err := h.Execute(buf); err != nil {
		l.rt.warnings.record("listener on comm %d: handler %d aborted: %v", l.comm, handlerID, err)
	}
	return nil
}
