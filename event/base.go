package event

import (
	"io"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/perrors"
)

// Record is the capability every event variant implements: classification,
// the GROUP_* predicate test, wire (de)serialization, and a human-readable
// rendering. Pack/Unpack at this level only ever handle the variant-specific
// payload; the shared header (discriminant byte, timestamp, metric vector)
// is handled once by Encode/Decode below.
type Record interface {
	Kind() Kind
	IsOfType(t Kind) bool
	Timestamp() float64
	MetricValues() []uint64

	packFields(b *buffer.Buffer)
	unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error
	outputFields(w io.Writer, d *defs.GlobalDefs) error
}

// Base carries the fields every event record has regardless of variant: a
// monotonically-non-decreasing timestamp (seconds) and an optional vector of
// hardware-counter metric samples, indexed positionally against
// GlobalDefs.Metrics().
type Base struct {
	Ts      float64
	Metrics []uint64
}

// Timestamp returns the event's recorded time in seconds.
func (b Base) Timestamp() float64 { return b.Ts }

// MetricValues returns the event's hardware-counter samples, or nil if none
// were recorded.
func (b Base) MetricValues() []uint64 { return b.Metrics }

// Encode writes a complete, self-delimited record to buf: the discriminant
// byte, the timestamp, the metric vector, then the variant's own fields via
// packFields.
func Encode(rec Record, buf *buffer.Buffer) {
	buf.WriteU8(uint8(rec.Kind()))
	buf.WriteTimestamp(rec.Timestamp())
	metrics := rec.MetricValues()
	buf.WriteU32(uint32(len(metrics)))
	for _, m := range metrics {
		buf.WriteU64(m)
	}
	rec.packFields(buf)
}

// Decode reads one complete record from buf, validating any definition
// references it carries against d. Returns perrors.FormatError for an
// unrecognized discriminant byte or a truncated record, and
// perrors.UnknownDefinition if a reference cannot be resolved.
func Decode(d *defs.GlobalDefs, buf *buffer.Buffer) (Record, error) {
	kindByte, err := buf.ReadU8()
	if err != nil {
		return nil, perrors.Wrap(perrors.FormatError, err, "reading event discriminant")
	}
	k := Kind(kindByte)

	ts, err := buf.ReadTimestamp()
	if err != nil {
		return nil, perrors.Wrap(perrors.FormatError, err, "reading event timestamp")
	}

	nMetrics, err := buf.ReadU32()
	if err != nil {
		return nil, perrors.Wrap(perrors.FormatError, err, "reading metric count")
	}
	var metrics []uint64
	if nMetrics > 0 {
		metrics = make([]uint64, nMetrics)
		for i := range metrics {
			v, err := buf.ReadU64()
			if err != nil {
				return nil, perrors.Wrap(perrors.FormatError, err, "reading metric value %d", i)
			}
			metrics[i] = v
		}
	}

	base := Base{Ts: ts, Metrics: metrics}

	ctor, ok := decoders[k]
	if !ok {
		return nil, perrors.New(perrors.FormatError, "unrecognized event discriminant %d", kindByte)
	}
	rec := ctor(base)
	if err := rec.unpackFields(d, buf); err != nil {
		return nil, err
	}
	return rec, nil
}

// decoders maps each concrete Kind to a constructor producing a
// zero-valued, ready-to-unpack Record; registered by each variant's source
// file via registerDecoder in an init func.
var decoders = map[Kind]func(Base) Record{}

func registerDecoder(k Kind, ctor func(Base) Record) {
	decoders[k] = ctor
}

// kindColumnWidth is wide enough for the longest symbolic Kind name
// (MPI_RMA_COLLECTIVE_BEGIN, 24 characters) plus two columns of separation.
const kindColumnWidth = 26

// Output writes a human-readable rendering of rec to w: its symbolic type
// name padded to a fixed display width, timestamp, and then the
// variant-specific fields (with definition references resolved to names via
// d where possible).
func Output(rec Record, w io.Writer, d *defs.GlobalDefs) error {
	if _, err := io.WriteString(w, PadToWidth(rec.Kind().String(), kindColumnWidth)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, formatTimestamp(rec.Timestamp())); err != nil {
		return err
	}
	return rec.outputFields(w, d)
}

// RegionRef is the "reinterpreted payload" field described by spec.md §3:
// before callpath preprocessing it holds a raw Region reference; after
// preprocessing it holds the resolved Callpath reference the walker
// assigned. Exactly one interpretation is ever valid at a time, tracked
// explicitly by Resolved rather than via a union.
type RegionRef struct {
	ref      defs.ID
	resolved bool
}

// NewRegionRef constructs an unresolved payload pointing at a Region.
func NewRegionRef(regionID defs.ID) RegionRef {
	return RegionRef{ref: regionID}
}

// Resolved reports whether preprocessing has rewritten this payload into a
// Callpath reference yet.
func (r RegionRef) Resolved() bool { return r.resolved }

// RegionID returns the raw region reference and true, if this payload has
// not yet been resolved to a callpath.
func (r RegionRef) RegionID() (defs.ID, bool) {
	if r.resolved {
		return defs.NoID, false
	}
	return r.ref, true
}

// CallpathID returns the resolved callpath reference and true, once
// preprocessing has rewritten this payload.
func (r RegionRef) CallpathID() (defs.ID, bool) {
	if !r.resolved {
		return defs.NoID, false
	}
	return r.ref, true
}

// ResolveToCallpath rewrites this payload in place to reference cp,
// transitioning it from "raw region" to "resolved callpath". Called only by
// trace.Preprocess via trace.PreprocessAccess.
func (r *RegionRef) ResolveToCallpath(cp defs.ID) {
	r.ref = cp
	r.resolved = true
}

// rawRef returns the single stored word regardless of resolution state, for
// wire packing (the wire format always carries whichever reference is
// currently valid; a reader reconstructs the same resolved/unresolved state
// the writer had).
func (r RegionRef) rawRef() defs.ID { return r.ref }

// HasRegionPayload is implemented by every Enter/Leave-derived event variant,
// giving trace.Preprocess a uniform way to reach and rewrite the shared
// RegionRef payload regardless of which concrete variant (Enter, EnterCS,
// EnterProgram, Leave, LeaveProgram) it is looking at.
type HasRegionPayload interface {
	Record
	RegionPayload() *RegionRef
}

// HasRequestID is implemented by the event variants trace.Preprocess links
// into request/completion chains (MpiSendRequest, MpiReceiveRequest,
// MpiSendComplete, MpiReceiveComplete), letting it correlate them by request
// id without a type switch.
type HasRequestID interface {
	Record
	ReqID() uint64
}
