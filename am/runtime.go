package am

import (
	"context"
	"sync"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"golang.org/x/sync/errgroup"
)

// UNREGISTERED is a reserved handler id that never names a registered
// handler: a message carrying it is not dispatched.
const UNREGISTERED = ^uint32(0)

// warningCapacity bounds the recoverable-warning ring every Runtime keeps.
const warningCapacity = 64

// Handler executes the payload of one active message. A handler is
// registered once per process and addressed thereafter by its dense id.
type Handler interface {
	Execute(buf *buffer.Buffer) error
}

// Runtime is a per-location active-message engine: a handler registry plus
// the outstanding requests and listeners that one call to Progress
// advances. Per spec.md §9's resolution of the "global mutable AmRuntime"
// design note, Runtime is an ordinary value owned by whichever location (or
// task) needs it — never a package-level singleton.
type Runtime struct {
	transport Transport

	mu          sync.Mutex
	handlers    []Handler
	outstanding []Request
	listeners   []*Listener

	warnings *warningRing
}

// NewRuntime creates a Runtime sending and receiving over transport.
func NewRuntime(transport Transport) *Runtime {
	return &Runtime{
		transport: transport,
		warnings:  newWarningRing(warningCapacity),
	}
}

// RegisterHandler adds h to the registry and returns its dense id (P8:
// ids are 0..N-1 with no gaps after N registrations).
func (rt *Runtime) RegisterHandler(h Handler) uint32 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	id := uint32(len(rt.handlers))
	rt.handlers = append(rt.handlers, h)
	return id
}

// handler looks up a registered handler by id.
func (rt *Runtime) handler(id uint32) (Handler, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if id == UNREGISTERED || int(id) >= len(rt.handlers) {
		return nil, false
	}
	return rt.handlers[id], true
}

// Listen creates a Listener probing comm on tag and begins tracking it: per
// spec.md §9, the listener starts with zero references and the Runtime
// AddRefs it exactly once here, on the caller's behalf.
func (rt *Runtime) Listen(comm defs.ID, tag uint32) *Listener {
	l := newListener(rt, rt.transport, comm, tag)
	l.AddRef()
	rt.mu.Lock()
	rt.listeners = append(rt.listeners, l)
	rt.mu.Unlock()
	return l
}

// Start packs [handlerID][payload] into a fresh buffer and issues a
// non-blocking send to dest on tag, tracking the resulting Request so a
// later Progress call advances it. If rendezvous is set, the send is issued
// through Transport.ISSend; the bundled loopback and grpc transports
// complete such a request as soon as the message is handed off, without
// waiting for the peer to match it.
func (rt *Runtime) Start(ctx context.Context, handlerID uint32, payload []byte, dest uint32, tag uint32, rendezvous bool) (Request, error) {
	buf := buffer.New(4 + len(payload))
	buf.WriteU32(handlerID)
	if len(payload) > 0 {
		if _, err := buf.Write(payload); err != nil {
			return nil, err
		}
	}
	buf.Rewind()

	var inner Request
	var err error
	if rendezvous {
		inner, err = rt.transport.ISSend(ctx, buf, dest, tag)
	} else {
		inner, err = rt.transport.ISend(ctx, buf, dest, tag)
	}
	if err != nil {
		return nil, err
	}

	req := wrapRequest(inner)
	rt.mu.Lock()
	rt.outstanding = append(rt.outstanding, req)
	rt.mu.Unlock()
	return req, nil
}

// Warnings returns every recoverable warning recorded so far, oldest first.
func (rt *Runtime) Warnings() []string {
	return rt.warnings.Snapshot()
}

// Progress advances every outstanding request and every referenced
// listener by one non-blocking step, fanning the work out across
// goroutines via errgroup (§4.8's generalization of the teacher's
// one-goroutine-per-subscription tracking loops into a bounded, awaitable
// group) and releasing any request that reports finished. It returns the
// first error any request or listener reports; a callback/handler error
// surfaces as a recoverable warning instead, per the §4.8 failure model, and
// never fails Progress itself.
func (rt *Runtime) Progress(ctx context.Context) error {
	rt.mu.Lock()
	reqs := append([]Request(nil), rt.outstanding...)
	var live []*Listener
	for _, l := range rt.listeners {
		if l.refCount() > 0 {
			live = append(live, l)
		}
	}
	rt.listeners = live
	listeners := append([]*Listener(nil), live...)
	rt.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			_, err := req.Test(gctx)
			return err
		})
	}
	for _, l := range listeners {
		l := l
		g.Go(func() error { return l.probe(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rt.mu.Lock()
	kept := rt.outstanding[:0]
	for _, req := range rt.outstanding {
		if req.State() == RequestPending {
			kept = append(kept, req)
		}
	}
	rt.outstanding = kept
	rt.mu.Unlock()
	return nil
}
