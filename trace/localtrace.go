// Package trace implements LocalTrace (C4): the append-only, per-location
// store of event records, plus the two privileged passes that run over it
// once loading completes — calltree verification and callpath/request-chain
// preprocessing.
package trace

import (
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/perrors"
)

// chunkSize bounds each underlying slice-of-slices chunk so LocalTrace grows
// by appending new chunks rather than reallocating and copying prior ones,
// keeping entry addresses stable across the trace's lifetime.
const chunkSize = 4096

type entry struct {
	rec event.Record

	// relative offsets (in trace-global index units) linking a non-blocking
	// request's post event to its completion and back; 0 means unlinked.
	nextReqOffset int64
	prevReqOffset int64
}

// LocalTrace stores one location's event stream in insertion (i.e.
// timestamp-monotonic) order. It is mutated only while loading and during
// the two PreprocessAccess-gated passes; during replay it is read-only.
type LocalTrace struct {
	location defs.ID
	chunks   [][]entry
	count    int
	lastTs   float64
	hasLast  bool

	verified     bool
	preprocessed bool
}

// NewLocalTrace creates an empty trace for the given location.
func NewLocalTrace(location defs.ID) *LocalTrace {
	return &LocalTrace{location: location}
}

// Location returns the id of the location this trace belongs to.
func (lt *LocalTrace) Location() defs.ID { return lt.location }

// Len returns the number of events currently stored.
func (lt *LocalTrace) Len() int { return lt.count }

// Verified reports whether VerifyCalltree has succeeded on this trace.
func (lt *LocalTrace) Verified() bool { return lt.verified }

// Preprocessed reports whether Preprocess has completed on this trace.
func (lt *LocalTrace) Preprocessed() bool { return lt.preprocessed }

// Append adds rec to the end of the trace. Events must arrive in
// non-decreasing timestamp order, matching spec.md §4.4's "insertion order
// (i.e., timestamp-monotonic)" invariant; a decreasing timestamp is a
// loader bug and is reported as perrors.FormatError rather than silently
// accepted.
func (lt *LocalTrace) Append(rec event.Record) error {
	if lt.hasLast && rec.Timestamp() < lt.lastTs {
		return perrors.New(perrors.FormatError,
			"location %d: event timestamp %.6f precedes previous %.6f", lt.location, rec.Timestamp(), lt.lastTs)
	}
	lt.lastTs = rec.Timestamp()
	lt.hasLast = true

	chunkIdx := lt.count / chunkSize
	if chunkIdx == len(lt.chunks) {
		lt.chunks = append(lt.chunks, make([]entry, 0, chunkSize))
	}
	lt.chunks[chunkIdx] = append(lt.chunks[chunkIdx], entry{rec: rec})
	lt.count++
	return nil
}

func (lt *LocalTrace) entryAt(idx int) *entry {
	return &lt.chunks[idx/chunkSize][idx%chunkSize]
}

// At returns the event record stored at idx.
func (lt *LocalTrace) At(idx int) (event.Record, error) {
	if idx < 0 || idx >= lt.count {
		return nil, perrors.New(perrors.RuntimeError, "location %d: index %d out of range [0,%d)", lt.location, idx, lt.count)
	}
	return lt.entryAt(idx).rec, nil
}

// setRegionPayloadAt rewrites, in place, the region/callpath payload of the
// Enter/Leave-derived record at idx. Gated by PreprocessAccess: only
// Preprocess calls this.
func (lt *LocalTrace) setRegionPayloadAt(_ PreprocessAccess, idx int, callpath defs.ID) {
	if holder, ok := lt.entryAt(idx).rec.(event.HasRegionPayload); ok {
		holder.RegionPayload().ResolveToCallpath(callpath)
	}
}

// linkRequest records the forward (request→completion) and backward
// (completion→request) offsets between two indices. Gated by
// PreprocessAccess: only Preprocess calls this.
func (lt *LocalTrace) linkRequest(_ PreprocessAccess, requestIdx, completeIdx int) {
	delta := int64(completeIdx - requestIdx)
	lt.entryAt(requestIdx).nextReqOffset = delta
	lt.entryAt(completeIdx).prevReqOffset = -delta
}

// markVerified records that VerifyCalltree has passed. Gated by
// PreprocessAccess: only VerifyCalltree calls this.
func (lt *LocalTrace) markVerified(_ PreprocessAccess) { lt.verified = true }

// markPreprocessed records that Preprocess has completed. Gated by
// PreprocessAccess: only Preprocess calls this.
func (lt *LocalTrace) markPreprocessed(_ PreprocessAccess) { lt.preprocessed = true }

// NextRequestEvent returns the index of the event linked forward from idx
// (a *Request event's matching completion), if Preprocess has linked one.
func (lt *LocalTrace) NextRequestEvent(idx int) (int, bool) {
	off := lt.entryAt(idx).nextReqOffset
	if off == 0 {
		return 0, false
	}
	return idx + int(off), true
}

// PrevRequestEvent returns the index of the event linked backward from idx
// (a *Complete event's originating request), if Preprocess has linked one.
func (lt *LocalTrace) PrevRequestEvent(idx int) (int, bool) {
	off := lt.entryAt(idx).prevReqOffset
	if off == 0 {
		return 0, false
	}
	return idx + int(off), true
}

// Iterator walks a LocalTrace bidirectionally. Iterators are stable across
// the trace's lifetime: appends only add new chunks, never relocate
// existing ones, so an index captured earlier always denotes the same
// event.
type Iterator struct {
	t   *LocalTrace
	idx int
}

// Begin returns an iterator positioned at the first event.
func (lt *LocalTrace) Begin() Iterator { return Iterator{t: lt, idx: 0} }

// End returns an iterator positioned one past the last event (the forward
// sentinel).
func (lt *LocalTrace) End() Iterator { return Iterator{t: lt, idx: lt.count} }

// Last returns an iterator positioned at the last event (the starting point
// for a backward replay), or an invalid iterator if the trace is empty.
func (lt *LocalTrace) Last() Iterator { return Iterator{t: lt, idx: lt.count - 1} }

// Before returns an iterator positioned one before the first event (the
// backward sentinel).
func (lt *LocalTrace) Before() Iterator { return Iterator{t: lt, idx: -1} }

// Valid reports whether the iterator denotes an actual event.
func (it Iterator) Valid() bool { return it.idx >= 0 && it.idx < it.t.count }

// Index returns the iterator's position.
func (it Iterator) Index() int { return it.idx }

// Event returns the record the iterator currently denotes. Panics if the
// iterator is not Valid; callers drive iteration with Valid first.
func (it Iterator) Event() event.Record { return it.t.entryAt(it.idx).rec }

// Next returns an iterator advanced one position forward.
func (it Iterator) Next() Iterator { return Iterator{t: it.t, idx: it.idx + 1} }

// Prev returns an iterator advanced one position backward.
func (it Iterator) Prev() Iterator { return Iterator{t: it.t, idx: it.idx - 1} }
