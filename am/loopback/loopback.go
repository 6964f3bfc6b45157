// Package loopback implements an in-process am.Transport backed by Go
// channels, so am's tests can exercise handler dispatch, requests
// and listeners without a live network listener. It mirrors the teacher's
// pattern of offering both a networked path (am/grpc, like the teacher's
// Coordinator talking to a gRPC sidecar) and an in-process-library path
// (loopback, like the teacher's Worker calling dda.Dda directly) to the
// same communication surface.
package loopback

import (
	"context"
	"sync"

	"github.com/pearl-replay/pearl/am"
	"github.com/pearl-replay/pearl/buffer"
)

type inboxKey struct {
	rank uint32
	tag  uint32
}

type message struct {
	from    uint32
	payload []byte
}

// Network is a shared message fabric connecting loopback Transports by
// rank. Endpoint returns one Transport per rank; all Transports sharing a
// Network can Send/Probe each other.
type Network struct {
	mu      sync.Mutex
	inboxes map[inboxKey]chan message
}

// NewNetwork returns an empty, ready-to-use fabric.
func NewNetwork() *Network {
	return &Network{inboxes: map[inboxKey]chan message{}}
}

func (n *Network) inbox(rank, tag uint32) chan message {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := inboxKey{rank, tag}
	ch, ok := n.inboxes[key]
	if !ok {
		ch = make(chan message, 64)
		n.inboxes[key] = ch
	}
	return ch
}

// Endpoint returns a Transport that sends as rank and probes rank's own
// inboxes on n.
func (n *Network) Endpoint(rank uint32) *Transport {
	return &Transport{net: n, rank: rank}
}

// Transport is one rank's view of a Network, implementing am.Transport.
type Transport struct {
	net  *Network
	rank uint32
}

// Probe performs a non-blocking check of this endpoint's inbox for tag.
// anySource is accepted but ignored: a loopback inbox is already scoped to
// one (rank, tag) pair, so every message queued there is eligible.
func (t *Transport) Probe(ctx context.Context, anySource bool, tag uint32) (bool, *buffer.Buffer, error) {
	ch := t.net.inbox(t.rank, tag)
	select {
	case m := <-ch:
		return true, buffer.NewFromBytes(m.payload), nil
	default:
		return false, nil, nil
	}
}

// Send blocks until buf has been queued in dest's inbox for tag.
func (t *Transport) Send(ctx context.Context, buf *buffer.Buffer, dest uint32, tag uint32) error {
	ch := t.net.inbox(dest, tag)
	payload := append([]byte(nil), buf.Bytes()...)
	select {
	case ch <- message{from: t.rank, payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ISend starts a non-blocking send, completing once the payload has been
// queued in dest's inbox.
func (t *Transport) ISend(ctx context.Context, buf *buffer.Buffer, dest uint32, tag uint32) (am.Request, error) {
	return t.startSend(ctx, buf, dest, tag)
}

// ISSend starts a non-blocking send with rendezvous semantics. For this
// in-process transport, queuing into dest's buffered inbox already implies
// the peer can observe the message on its next Probe, so ISSend shares
// ISend's implementation rather than waiting for an explicit peer
// acknowledgement.
func (t *Transport) ISSend(ctx context.Context, buf *buffer.Buffer, dest uint32, tag uint32) (am.Request, error) {
	return t.startSend(ctx, buf, dest, tag)
}

func (t *Transport) startSend(ctx context.Context, buf *buffer.Buffer, dest uint32, tag uint32) (am.Request, error) {
	payload := append([]byte(nil), buf.Bytes()...)
	req := newRequest()
	ch := t.net.inbox(dest, tag)
	go func() {
		select {
		case ch <- message{from: t.rank, payload: payload}:
			req.complete(nil)
		case <-ctx.Done():
			req.complete(ctx.Err())
		case <-req.cancelCh:
		}
	}()
	return req, nil
}

// Bcast, called on root, sends buf on the fixed broadcastTag to every rank
// that has an inbox on the Network for any tag, except root itself; on any
// other rank it returns nil without sending. Since loopback has no fixed
// membership list, a rank that has never sent to or probed any inbox is
// not reached.
func (t *Transport) Bcast(ctx context.Context, buf *buffer.Buffer, root uint32) error {
	if t.rank != root {
		return nil
	}
	t.net.mu.Lock()
	dests := make([]uint32, 0, len(t.net.inboxes))
	seen := map[uint32]bool{}
	for k := range t.net.inboxes {
		if k.rank != root && !seen[k.rank] {
			seen[k.rank] = true
			dests = append(dests, k.rank)
		}
	}
	t.net.mu.Unlock()

	for _, dest := range dests {
		if err := t.Send(ctx, buffer.NewFromBytes(append([]byte(nil), buf.Bytes()...)), dest, broadcastTag); err != nil {
			return err
		}
	}
	return nil
}

// broadcastTag is the fixed tag Bcast delivers on; peers that want to
// receive a broadcast probe this tag specifically.
const broadcastTag = ^uint32(0) - 1

// Dup returns an independent Transport for the same rank on the same
// Network; since loopback endpoints carry no per-call state, this is just
// a fresh value.
func (t *Transport) Dup(ctx context.Context) (am.Transport, error) {
	return &Transport{net: t.net, rank: t.rank}, nil
}
