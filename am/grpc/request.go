package grpc

import (
	"context"
	"sync"

	"github.com/pearl-replay/pearl/am"
)

// clientRequest implements am.Request for a send issued over a Client's
// broker stream.
type clientRequest struct {
	mu    sync.Mutex
	state am.RequestState
	err   error
}

func newClientRequest() *clientRequest {
	return &clientRequest{state: am.RequestPending}
}

func (r *clientRequest) complete(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != am.RequestPending {
		return
	}
	r.state = am.RequestComplete
	r.err = err
}

func (r *clientRequest) State() am.RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *clientRequest) Test(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != am.RequestPending, r.err
}

// Cancel marks the request Cancelled. A frame already handed to the stream
// cannot be unsent, so Cancel only suppresses the locally observed
// completion; am.wrappedRequest still enforces P9's idempotence guarantee
// above this type.
func (r *clientRequest) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == am.RequestPending {
		r.state = am.RequestCancelled
	}
	return nil
}
