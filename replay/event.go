// Package replay implements the replay-time event handles (C5), the
// callback registry (C6) and the forward/backward replay drivers (C7) that
// walk a trace.LocalTrace and dispatch registered callbacks in trace order.
package replay

import (
	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
)

// Event is the handle a driver passes to callbacks while walking a
// LocalTrace. It caches the "current callpath" (the call-node the replay is
// conceptually executing inside of at this point), so Callpath() is O(1)
// rather than re-deriving it from a stack on every access, per spec.md
// §4.5. The cache is populated once, by the driver, as it advances the
// walk; Event itself never mutates it.
type Event struct {
	rec      event.Record
	callpath defs.ID
	index    int
}

// Record returns the underlying event record.
func (e Event) Record() event.Record { return e.rec }

// Kind returns the record's concrete event kind.
func (e Event) Kind() event.Kind { return e.rec.Kind() }

// Timestamp returns the record's timestamp in seconds.
func (e Event) Timestamp() float64 { return e.rec.Timestamp() }

// Callpath returns the call-node the replay is currently inside of at this
// event: for an Enter it is the node just entered; for a Leave it is the
// node being left; for any other event it is whichever node is innermost on
// the call stack at this point (the "current cnode" a C++ caller would get
// from get_cnode()).
func (e Event) Callpath() defs.ID { return e.callpath }

// Index returns the event's position in the LocalTrace it was read from.
func (e Event) Index() int { return e.index }

// RemoteEvent is a self-contained event handle decoded directly from a wire
// buffer rather than read from a local in-memory trace — the shape a
// remote location's events take once they cross an active-message or
// transport boundary. Go's garbage collector owns the underlying record,
// so RemoteEvent needs no refcounting to share it safely between the
// decoder and whatever callback consumes it (see SPEC_FULL.md's resolution
// of the reference-counting open question).
type RemoteEvent struct {
	rec      event.Record
	location defs.ID
	callpath defs.ID
}

// DecodeRemoteEvent reads one event record from buf, validating its
// definition references against d, and resolves its callpath (if it carries
// a region/callpath payload) so RemoteEvent.Callpath is also O(1).
func DecodeRemoteEvent(buf *buffer.Buffer, d *defs.GlobalDefs, location defs.ID) (RemoteEvent, error) {
	rec, err := event.Decode(d, buf)
	if err != nil {
		return RemoteEvent{}, err
	}
	cp := defs.NoID
	if holder, ok := rec.(event.HasRegionPayload); ok {
		if id, ok := holder.RegionPayload().CallpathID(); ok {
			cp = id
		}
	}
	return RemoteEvent{rec: rec, location: location, callpath: cp}, nil
}

// Record returns the decoded event record.
func (r RemoteEvent) Record() event.Record { return r.rec }

// Location returns the id of the location the record was decoded for.
func (r RemoteEvent) Location() defs.ID { return r.location }

// Callpath returns the record's resolved callpath, or defs.NoID if the
// record carries no region/callpath payload, or it has not been resolved
// yet (preprocessing has not run on the source trace).
func (r RemoteEvent) Callpath() defs.ID { return r.callpath }

// Timestamp returns the record's timestamp in seconds.
func (r RemoteEvent) Timestamp() float64 { return r.rec.Timestamp() }
