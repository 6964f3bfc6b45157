package replay

import "github.com/pearl-replay/pearl/event"

// Callback is the signature every registered handler has, adapting
// spec.md §4.6's `(CallbackManager&, int userId, const Event&, CallbackData*)
// → void` to Go: it returns an error instead of throwing, letting a
// callback abort the enclosing replay with a perrors.RuntimeError.
type Callback func(mgr *CallbackManager, userID int, ev Event, data CallbackData) error

// CallbackData is the per-replay state a driver thread owns across one
// forward or backward walk. Preprocess/Postprocess bracket each dispatch,
// per spec.md §4.7 steps 1 and 3.
type CallbackData interface {
	Preprocess(ev Event) error
	Postprocess(ev Event) error
}

type registration struct {
	kind   event.Kind
	userID int
	fn     Callback
}

// CallbackManager stores callbacks registered against a concrete event kind
// or a GROUP_* predicate, dispatching them in a single registration-order
// list per spec.md §4.6 ("callbacks registered under e.getType() and under
// every GROUP_* predicate matching e are invoked in registration order" —
// a single global order, not grouped by kind then by predicate).
type CallbackManager struct {
	regs []registration
}

// NewCallbackManager returns an empty registry.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{}
}

// Register adds fn under kind (a concrete Kind or a GROUP_* predicate),
// associated with userID for the callback's own bookkeeping. Registrations
// made from inside a callback take effect starting with the next dispatch,
// never the one in progress: Dispatch snapshots m.regs's length before
// invoking anything, and Go's slice semantics mean an append here, even one
// that reuses spare capacity, is invisible to a shorter slice header a
// concurrent Dispatch already captured.
func (m *CallbackManager) Register(kind event.Kind, userID int, fn Callback) {
	m.regs = append(m.regs, registration{kind: kind, userID: userID, fn: fn})
}

// Dispatch runs every callback applicable to ev — registered either under
// ev.Kind() directly or under a GROUP_* predicate ev satisfies — in
// registration order, stopping at the first error (P6 requires each
// applicable callback run exactly once per dispatch; an aborting callback
// forfeits the ones after it, same as the driver's own error propagation).
func (m *CallbackManager) Dispatch(ev Event, data CallbackData) error {
	snapshot := m.regs
	for _, r := range snapshot {
		if r.kind != ev.Kind() && !(r.kind.IsGroup() && ev.Record().IsOfType(r.kind)) {
			continue
		}
		if err := r.fn(m, r.userID, ev, data); err != nil {
			return err
		}
	}
	return nil
}
