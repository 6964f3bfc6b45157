package am

import "context"

// wrappedRequest adapts a Transport-provided Request to guarantee the
// idempotent cancel() behavior spec.md §8 P9 requires regardless of
// whether the underlying Transport implementation gets that right on its
// own: once Cancel has succeeded once, every further call (and every Test)
// observes RequestCancelled without touching the inner request again.
type wrappedRequest struct {
	inner Request
	state RequestState
}

func wrapRequest(inner Request) *wrappedRequest {
	return &wrappedRequest{inner: inner, state: RequestPending}
}

// State returns the request's current lifecycle state.
func (r *wrappedRequest) State() RequestState {
	return r.state
}

// Test polls the underlying transport for completion. Once the request has
// left RequestPending, Test is a no-op that reports the terminal state
// without consulting the transport again.
func (r *wrappedRequest) Test(ctx context.Context) (bool, error) {
	if r.state != RequestPending {
		return true, nil
	}
	done, err := r.inner.Test(ctx)
	if err != nil {
		return false, err
	}
	if done {
		r.state = RequestComplete
	}
	return done, nil
}

// Cancel transitions the request to RequestCancelled regardless of its
// prior state, per spec.md §8 P9 ("cancel() called on any request state
// leaves it in Cancelled and is safe to call more than once"). Transport
// resources are released via the inner request's Cancel only while the
// request is still pending; a request that already completed has nothing
// left to release.
func (r *wrappedRequest) Cancel() error {
	if r.state == RequestCancelled {
		return nil
	}
	if r.state == RequestPending {
		if err := r.inner.Cancel(); err != nil {
			return err
		}
	}
	r.state = RequestCancelled
	return nil
}
