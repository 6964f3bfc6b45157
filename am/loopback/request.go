package loopback

import (
	"context"
	"sync"

	"github.com/pearl-replay/pearl/am"
)

// request implements am.Request for a send in flight on a Network.
type request struct {
	mu       sync.Mutex
	state    am.RequestState
	err      error
	cancelCh chan struct{}
	closed   bool
}

func newRequest() *request {
	return &request{state: am.RequestPending, cancelCh: make(chan struct{})}
}

func (r *request) complete(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != am.RequestPending {
		return
	}
	r.state = am.RequestComplete
	r.err = err
}

func (r *request) State() am.RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *request) Test(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != am.RequestPending, r.err
}

func (r *request) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != am.RequestPending {
		return nil
	}
	r.state = am.RequestCancelled
	if !r.closed {
		close(r.cancelCh)
		r.closed = true
	}
	return nil
}
