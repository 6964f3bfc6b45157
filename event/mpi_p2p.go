package event

import (
	"fmt"
	"io"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/perrors"
)

func init() {
	registerDecoder(MpiSend, func(b Base) Record { return &MpiSendEvent{Base: b} })
	registerDecoder(MpiRecv, func(b Base) Record { return &MpiRecvEvent{Base: b} })
	registerDecoder(MpiSendRequest, func(b Base) Record { return &MpiSendRequestEvent{MpiSendEvent: MpiSendEvent{Base: b}} })
	registerDecoder(MpiReceiveRequest, func(b Base) Record { return &MpiReceiveRequestEvent{Base: b} })
	registerDecoder(MpiSendComplete, func(b Base) Record { return &MpiSendCompleteEvent{Base: b} })
	registerDecoder(MpiReceiveComplete, func(b Base) Record { return &MpiReceiveCompleteEvent{MpiRecvEvent: MpiRecvEvent{Base: b}} })
	registerDecoder(MpiRequestTested, func(b Base) Record { return &MpiRequestTestedEvent{Base: b} })
	registerDecoder(MpiCancelled, func(b Base) Record { return &MpiCancelledEvent{Base: b} })
}

// MpiSendEvent records a blocking point-to-point send.
type MpiSendEvent struct {
	Base
	Comm     defs.ID
	PeerRank uint32
	Tag      uint32
	Bytes    uint64
}

// NewMpiSend constructs an MpiSend event.
func NewMpiSend(ts float64, comm defs.ID, peerRank, tag uint32, bytes uint64) *MpiSendEvent {
	return &MpiSendEvent{Base: Base{Ts: ts}, Comm: comm, PeerRank: peerRank, Tag: tag, Bytes: bytes}
}

func (e *MpiSendEvent) Kind() Kind           { return MpiSend }
func (e *MpiSendEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiSendEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Comm)
	b.WriteU32(e.PeerRank)
	b.WriteU32(e.Tag)
	b.WriteU64(e.Bytes)
}

func (e *MpiSendEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	var err error
	if e.Comm, e.PeerRank, e.Tag, e.Bytes, err = unpackP2P(d, b); err != nil {
		return err
	}
	return nil
}

func (e *MpiSendEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputP2P(w, e.Comm, e.PeerRank, e.Tag, e.Bytes)
}

// MpiRecvEvent records a blocking point-to-point receive.
type MpiRecvEvent struct {
	Base
	Comm     defs.ID
	PeerRank uint32
	Tag      uint32
	Bytes    uint64
}

// NewMpiRecv constructs an MpiRecv event.
func NewMpiRecv(ts float64, comm defs.ID, peerRank, tag uint32, bytes uint64) *MpiRecvEvent {
	return &MpiRecvEvent{Base: Base{Ts: ts}, Comm: comm, PeerRank: peerRank, Tag: tag, Bytes: bytes}
}

func (e *MpiRecvEvent) Kind() Kind           { return MpiRecv }
func (e *MpiRecvEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiRecvEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Comm)
	b.WriteU32(e.PeerRank)
	b.WriteU32(e.Tag)
	b.WriteU64(e.Bytes)
}

func (e *MpiRecvEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	var err error
	if e.Comm, e.PeerRank, e.Tag, e.Bytes, err = unpackP2P(d, b); err != nil {
		return err
	}
	return nil
}

func (e *MpiRecvEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputP2P(w, e.Comm, e.PeerRank, e.Tag, e.Bytes)
}

// MpiSendRequestEvent extends MpiSendEvent, marking the posting of a
// non-blocking send. RequestID correlates this event with its eventual
// MpiSendCompleteEvent via trace.LocalTrace's request-offset linkage.
type MpiSendRequestEvent struct {
	MpiSendEvent
	RequestID uint64
}

// NewMpiSendRequest constructs an MpiSendRequest event.
func NewMpiSendRequest(ts float64, comm defs.ID, peerRank, tag uint32, bytes uint64, requestID uint64) *MpiSendRequestEvent {
	return &MpiSendRequestEvent{MpiSendEvent: *NewMpiSend(ts, comm, peerRank, tag, bytes), RequestID: requestID}
}

func (e *MpiSendRequestEvent) Kind() Kind           { return MpiSendRequest }
func (e *MpiSendRequestEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiSendRequestEvent) packFields(b *buffer.Buffer) {
	e.MpiSendEvent.packFields(b)
	b.WriteU64(e.RequestID)
}

func (e *MpiSendRequestEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.MpiSendEvent.unpackFields(d, b); err != nil {
		return err
	}
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiSendRequest request id")
	}
	e.RequestID = v
	return nil
}

func (e *MpiSendRequestEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.MpiSendEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " request=%d", e.RequestID)
	return err
}

// ReqID returns the request id this post correlates with its eventual
// completion event, per trace.Preprocess's request-offset linkage.
func (e *MpiSendRequestEvent) ReqID() uint64 { return e.RequestID }

// MpiReceiveRequestEvent marks the posting of a non-blocking receive. Unlike
// MpiSendRequestEvent, the actual peer/tag/byte count are not yet known at
// post time (may be MPI_ANY_SOURCE/MPI_ANY_TAG); they become known only at
// the matching MpiReceiveCompleteEvent.
type MpiReceiveRequestEvent struct {
	Base
	RequestID uint64
}

// NewMpiReceiveRequest constructs an MpiReceiveRequest event.
func NewMpiReceiveRequest(ts float64, requestID uint64) *MpiReceiveRequestEvent {
	return &MpiReceiveRequestEvent{Base: Base{Ts: ts}, RequestID: requestID}
}

func (e *MpiReceiveRequestEvent) Kind() Kind           { return MpiReceiveRequest }
func (e *MpiReceiveRequestEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiReceiveRequestEvent) packFields(b *buffer.Buffer) { b.WriteU64(e.RequestID) }

func (e *MpiReceiveRequestEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiReceiveRequest request id")
	}
	e.RequestID = v
	return nil
}

func (e *MpiReceiveRequestEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " request=%d", e.RequestID)
	return err
}

// ReqID returns the request id this post correlates with its eventual
// completion event, per trace.Preprocess's request-offset linkage.
func (e *MpiReceiveRequestEvent) ReqID() uint64 { return e.RequestID }

// MpiSendCompleteEvent marks completion of a non-blocking send. Carries no
// send parameters of its own; those were already recorded on the
// corresponding MpiSendRequestEvent, reachable via request-offset linkage.
type MpiSendCompleteEvent struct {
	Base
	RequestID uint64
}

// NewMpiSendComplete constructs an MpiSendComplete event.
func NewMpiSendComplete(ts float64, requestID uint64) *MpiSendCompleteEvent {
	return &MpiSendCompleteEvent{Base: Base{Ts: ts}, RequestID: requestID}
}

func (e *MpiSendCompleteEvent) Kind() Kind           { return MpiSendComplete }
func (e *MpiSendCompleteEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiSendCompleteEvent) packFields(b *buffer.Buffer) { b.WriteU64(e.RequestID) }

func (e *MpiSendCompleteEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiSendComplete request id")
	}
	e.RequestID = v
	return nil
}

func (e *MpiSendCompleteEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " request=%d", e.RequestID)
	return err
}

// ReqID returns the request id this completion correlates with its
// originating post event, per trace.Preprocess's request-offset linkage.
func (e *MpiSendCompleteEvent) ReqID() uint64 { return e.RequestID }

// MpiReceiveCompleteEvent extends MpiRecvEvent, marking completion of a
// non-blocking receive with the actual peer/tag/byte count now known.
type MpiReceiveCompleteEvent struct {
	MpiRecvEvent
	RequestID uint64
}

// NewMpiReceiveComplete constructs an MpiReceiveComplete event.
func NewMpiReceiveComplete(ts float64, comm defs.ID, peerRank, tag uint32, bytes uint64, requestID uint64) *MpiReceiveCompleteEvent {
	return &MpiReceiveCompleteEvent{MpiRecvEvent: *NewMpiRecv(ts, comm, peerRank, tag, bytes), RequestID: requestID}
}

func (e *MpiReceiveCompleteEvent) Kind() Kind           { return MpiReceiveComplete }
func (e *MpiReceiveCompleteEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiReceiveCompleteEvent) packFields(b *buffer.Buffer) {
	e.MpiRecvEvent.packFields(b)
	b.WriteU64(e.RequestID)
}

func (e *MpiReceiveCompleteEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.MpiRecvEvent.unpackFields(d, b); err != nil {
		return err
	}
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiReceiveComplete request id")
	}
	e.RequestID = v
	return nil
}

func (e *MpiReceiveCompleteEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.MpiRecvEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " request=%d", e.RequestID)
	return err
}

// ReqID returns the request id this completion correlates with its
// originating post event, per trace.Preprocess's request-offset linkage.
func (e *MpiReceiveCompleteEvent) ReqID() uint64 { return e.RequestID }

// MpiRequestTestedEvent records an unsuccessful test of a non-blocking
// request (the request had not yet completed when tested).
type MpiRequestTestedEvent struct {
	Base
	RequestID uint64
}

// NewMpiRequestTested constructs an MpiRequestTested event.
func NewMpiRequestTested(ts float64, requestID uint64) *MpiRequestTestedEvent {
	return &MpiRequestTestedEvent{Base: Base{Ts: ts}, RequestID: requestID}
}

func (e *MpiRequestTestedEvent) Kind() Kind           { return MpiRequestTested }
func (e *MpiRequestTestedEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *MpiRequestTestedEvent) packFields(b *buffer.Buffer) { b.WriteU64(e.RequestID) }

func (e *MpiRequestTestedEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiRequestTested request id")
	}
	e.RequestID = v
	return nil
}

func (e *MpiRequestTestedEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " request=%d", e.RequestID)
	return err
}

// MpiCancelledEvent records cancellation of a non-blocking request.
type MpiCancelledEvent struct {
	Base
	RequestID uint64
}

// NewMpiCancelled constructs an MpiCancelled event.
func NewMpiCancelled(ts float64, requestID uint64) *MpiCancelledEvent {
	return &MpiCancelledEvent{Base: Base{Ts: ts}, RequestID: requestID}
}

func (e *MpiCancelledEvent) Kind() Kind           { return MpiCancelled }
func (e *MpiCancelledEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *MpiCancelledEvent) packFields(b *buffer.Buffer) { b.WriteU64(e.RequestID) }

func (e *MpiCancelledEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiCancelled request id")
	}
	e.RequestID = v
	return nil
}

func (e *MpiCancelledEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " request=%d", e.RequestID)
	return err
}

func unpackP2P(d *defs.GlobalDefs, b *buffer.Buffer) (comm defs.ID, peerRank, tag uint32, bytes uint64, err error) {
	if comm, err = b.ReadRef(); err != nil {
		return 0, 0, 0, 0, perrors.Wrap(perrors.FormatError, err, "reading comm ref")
	}
	if comm != defs.NoID {
		if _, err = d.Communicator(comm); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	if peerRank, err = b.ReadU32(); err != nil {
		return 0, 0, 0, 0, perrors.Wrap(perrors.FormatError, err, "reading peer rank")
	}
	if tag, err = b.ReadU32(); err != nil {
		return 0, 0, 0, 0, perrors.Wrap(perrors.FormatError, err, "reading tag")
	}
	if bytes, err = b.ReadU64(); err != nil {
		return 0, 0, 0, 0, perrors.Wrap(perrors.FormatError, err, "reading byte count")
	}
	return comm, peerRank, tag, bytes, nil
}

func outputP2P(w io.Writer, comm defs.ID, peerRank, tag uint32, bytes uint64) error {
	_, err := fmt.Fprintf(w, " comm=%d peer=%d tag=%d bytes=%d", comm, peerRank, tag, bytes)
	return err
}
