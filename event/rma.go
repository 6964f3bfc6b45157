package event

import (
	"fmt"
	"io"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/perrors"
)

func init() {
	registerDecoder(RmaPutStart, func(b Base) Record { return &RmaPutStartEvent{Base: b} })
	registerDecoder(RmaPutEnd, func(b Base) Record { return &RmaPutEndEvent{Base: b} })
	registerDecoder(RmaGetStart, func(b Base) Record { return &RmaGetStartEvent{Base: b} })
	registerDecoder(RmaGetEnd, func(b Base) Record { return &RmaGetEndEvent{Base: b} })

	registerDecoder(MpiRmaPutStart, func(b Base) Record { return &MpiRmaPutStartEvent{RmaPutStartEvent: RmaPutStartEvent{Base: b}} })
	registerDecoder(MpiRmaPutEnd, func(b Base) Record { return &MpiRmaPutEndEvent{RmaPutEndEvent: RmaPutEndEvent{Base: b}} })
	registerDecoder(MpiRmaGetStart, func(b Base) Record { return &MpiRmaGetStartEvent{RmaGetStartEvent: RmaGetStartEvent{Base: b}} })
	registerDecoder(MpiRmaGetEnd, func(b Base) Record { return &MpiRmaGetEndEvent{RmaGetEndEvent: RmaGetEndEvent{Base: b}} })
	registerDecoder(MpiRmaGats, func(b Base) Record { return &MpiRmaGatsEvent{Base: b} })
	registerDecoder(MpiRmaCollBegin, func(b Base) Record { return &MpiRmaCollBeginEvent{Base: b} })
	registerDecoder(MpiRmaCollEnd, func(b Base) Record { return &MpiRmaCollEndEvent{Base: b} })
	registerDecoder(MpiRmaLock, func(b Base) Record { return &MpiRmaLockEvent{Base: b} })
	registerDecoder(MpiRmaUnlock, func(b Base) Record { return &MpiRmaUnlockEvent{Base: b} })
}

// --- generic (paradigm-independent) RMA events --------------------------

// RmaPutStartEvent marks the start of a one-sided put operation.
type RmaPutStartEvent struct {
	Base
	RmaID  uint64
	Remote uint32
	Bytes  uint64
}

// NewRmaPutStart constructs an RmaPutStart event.
func NewRmaPutStart(ts float64, rmaID uint64, remote uint32, bytes uint64) *RmaPutStartEvent {
	return &RmaPutStartEvent{Base: Base{Ts: ts}, RmaID: rmaID, Remote: remote, Bytes: bytes}
}

func (e *RmaPutStartEvent) Kind() Kind           { return RmaPutStart }
func (e *RmaPutStartEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *RmaPutStartEvent) packFields(b *buffer.Buffer) {
	b.WriteU64(e.RmaID)
	b.WriteU32(e.Remote)
	b.WriteU64(e.Bytes)
}

func (e *RmaPutStartEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	var err error
	if e.RmaID, e.Remote, e.Bytes, err = unpackRmaStart(b); err != nil {
		return err
	}
	return nil
}

func (e *RmaPutStartEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputRmaStart(w, e.RmaID, e.Remote, e.Bytes)
}

// RmaPutEndEvent marks the completion of a one-sided put operation.
type RmaPutEndEvent struct {
	Base
	RmaID uint64
}

// NewRmaPutEnd constructs an RmaPutEnd event.
func NewRmaPutEnd(ts float64, rmaID uint64) *RmaPutEndEvent {
	return &RmaPutEndEvent{Base: Base{Ts: ts}, RmaID: rmaID}
}

func (e *RmaPutEndEvent) Kind() Kind           { return RmaPutEnd }
func (e *RmaPutEndEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *RmaPutEndEvent) packFields(b *buffer.Buffer) { b.WriteU64(e.RmaID) }

func (e *RmaPutEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading RmaPutEnd rma id")
	}
	e.RmaID = v
	return nil
}

func (e *RmaPutEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " rma=%d", e.RmaID)
	return err
}

// RmaGetStartEvent marks the start of a one-sided get operation.
type RmaGetStartEvent struct {
	Base
	RmaID  uint64
	Remote uint32
	Bytes  uint64
}

// NewRmaGetStart constructs an RmaGetStart event.
func NewRmaGetStart(ts float64, rmaID uint64, remote uint32, bytes uint64) *RmaGetStartEvent {
	return &RmaGetStartEvent{Base: Base{Ts: ts}, RmaID: rmaID, Remote: remote, Bytes: bytes}
}

func (e *RmaGetStartEvent) Kind() Kind           { return RmaGetStart }
func (e *RmaGetStartEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *RmaGetStartEvent) packFields(b *buffer.Buffer) {
	b.WriteU64(e.RmaID)
	b.WriteU32(e.Remote)
	b.WriteU64(e.Bytes)
}

func (e *RmaGetStartEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	var err error
	if e.RmaID, e.Remote, e.Bytes, err = unpackRmaStart(b); err != nil {
		return err
	}
	return nil
}

func (e *RmaGetStartEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputRmaStart(w, e.RmaID, e.Remote, e.Bytes)
}

// RmaGetEndEvent marks the completion of a one-sided get operation.
type RmaGetEndEvent struct {
	Base
	RmaID uint64
}

// NewRmaGetEnd constructs an RmaGetEnd event.
func NewRmaGetEnd(ts float64, rmaID uint64) *RmaGetEndEvent {
	return &RmaGetEndEvent{Base: Base{Ts: ts}, RmaID: rmaID}
}

func (e *RmaGetEndEvent) Kind() Kind           { return RmaGetEnd }
func (e *RmaGetEndEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *RmaGetEndEvent) packFields(b *buffer.Buffer) { b.WriteU64(e.RmaID) }

func (e *RmaGetEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	v, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading RmaGetEnd rma id")
	}
	e.RmaID = v
	return nil
}

func (e *RmaGetEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " rma=%d", e.RmaID)
	return err
}

// --- MPI-specific RMA events, extending the generic ones over an MpiWindow

// MpiRmaPutStartEvent extends RmaPutStartEvent with the MPI window the
// one-sided put is performed against.
type MpiRmaPutStartEvent struct {
	RmaPutStartEvent
	Window defs.ID
}

// NewMpiRmaPutStart constructs an MpiRmaPutStart event.
func NewMpiRmaPutStart(ts float64, rmaID uint64, remote uint32, bytes uint64, window defs.ID) *MpiRmaPutStartEvent {
	return &MpiRmaPutStartEvent{RmaPutStartEvent: *NewRmaPutStart(ts, rmaID, remote, bytes), Window: window}
}

func (e *MpiRmaPutStartEvent) Kind() Kind           { return MpiRmaPutStart }
func (e *MpiRmaPutStartEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiRmaPutStartEvent) packFields(b *buffer.Buffer) {
	e.RmaPutStartEvent.packFields(b)
	b.WriteRef(e.Window)
}

func (e *MpiRmaPutStartEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.RmaPutStartEvent.unpackFields(d, b); err != nil {
		return err
	}
	return unpackWindowRef(d, b, &e.Window)
}

func (e *MpiRmaPutStartEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.RmaPutStartEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " window=%d", e.Window)
	return err
}

// MpiRmaPutEndEvent extends RmaPutEndEvent with the MPI window.
type MpiRmaPutEndEvent struct {
	RmaPutEndEvent
	Window defs.ID
}

// NewMpiRmaPutEnd constructs an MpiRmaPutEnd event.
func NewMpiRmaPutEnd(ts float64, rmaID uint64, window defs.ID) *MpiRmaPutEndEvent {
	return &MpiRmaPutEndEvent{RmaPutEndEvent: *NewRmaPutEnd(ts, rmaID), Window: window}
}

func (e *MpiRmaPutEndEvent) Kind() Kind           { return MpiRmaPutEnd }
func (e *MpiRmaPutEndEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiRmaPutEndEvent) packFields(b *buffer.Buffer) {
	e.RmaPutEndEvent.packFields(b)
	b.WriteRef(e.Window)
}

func (e *MpiRmaPutEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.RmaPutEndEvent.unpackFields(d, b); err != nil {
		return err
	}
	return unpackWindowRef(d, b, &e.Window)
}

func (e *MpiRmaPutEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.RmaPutEndEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " window=%d", e.Window)
	return err
}

// MpiRmaGetStartEvent extends RmaGetStartEvent with the MPI window.
type MpiRmaGetStartEvent struct {
	RmaGetStartEvent
	Window defs.ID
}

// NewMpiRmaGetStart constructs an MpiRmaGetStart event.
func NewMpiRmaGetStart(ts float64, rmaID uint64, remote uint32, bytes uint64, window defs.ID) *MpiRmaGetStartEvent {
	return &MpiRmaGetStartEvent{RmaGetStartEvent: *NewRmaGetStart(ts, rmaID, remote, bytes), Window: window}
}

func (e *MpiRmaGetStartEvent) Kind() Kind           { return MpiRmaGetStart }
func (e *MpiRmaGetStartEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiRmaGetStartEvent) packFields(b *buffer.Buffer) {
	e.RmaGetStartEvent.packFields(b)
	b.WriteRef(e.Window)
}

func (e *MpiRmaGetStartEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.RmaGetStartEvent.unpackFields(d, b); err != nil {
		return err
	}
	return unpackWindowRef(d, b, &e.Window)
}

func (e *MpiRmaGetStartEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.RmaGetStartEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " window=%d", e.Window)
	return err
}

// MpiRmaGetEndEvent extends RmaGetEndEvent with the MPI window.
type MpiRmaGetEndEvent struct {
	RmaGetEndEvent
	Window defs.ID
}

// NewMpiRmaGetEnd constructs an MpiRmaGetEnd event.
func NewMpiRmaGetEnd(ts float64, rmaID uint64, window defs.ID) *MpiRmaGetEndEvent {
	return &MpiRmaGetEndEvent{RmaGetEndEvent: *NewRmaGetEnd(ts, rmaID), Window: window}
}

func (e *MpiRmaGetEndEvent) Kind() Kind           { return MpiRmaGetEnd }
func (e *MpiRmaGetEndEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiRmaGetEndEvent) packFields(b *buffer.Buffer) {
	e.RmaGetEndEvent.packFields(b)
	b.WriteRef(e.Window)
}

func (e *MpiRmaGetEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.RmaGetEndEvent.unpackFields(d, b); err != nil {
		return err
	}
	return unpackWindowRef(d, b, &e.Window)
}

func (e *MpiRmaGetEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.RmaGetEndEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " window=%d", e.Window)
	return err
}

// MpiRmaGatsEvent records a generalized active target synchronization
// (MPI_Win_post/start/complete/wait) epoch boundary.
type MpiRmaGatsEvent struct {
	Base
	Window defs.ID
	Group  defs.ID
	Sync   uint32 // bitmask of synchronization flags (paradigm-defined)
}

// NewMpiRmaGats constructs an MpiRmaGats event.
func NewMpiRmaGats(ts float64, window, group defs.ID, sync uint32) *MpiRmaGatsEvent {
	return &MpiRmaGatsEvent{Base: Base{Ts: ts}, Window: window, Group: group, Sync: sync}
}

func (e *MpiRmaGatsEvent) Kind() Kind           { return MpiRmaGats }
func (e *MpiRmaGatsEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiRmaGatsEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Window)
	b.WriteRef(e.Group)
	b.WriteU32(e.Sync)
}

func (e *MpiRmaGatsEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := unpackWindowRef(d, b, &e.Window); err != nil {
		return err
	}
	group, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiRmaGats group ref")
	}
	if group != defs.NoID {
		if _, err := d.Group(group); err != nil {
			return err
		}
	}
	sync, err := b.ReadU32()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiRmaGats sync flags")
	}
	e.Group, e.Sync = group, sync
	return nil
}

func (e *MpiRmaGatsEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " window=%d group=%d sync=%#x", e.Window, e.Group, e.Sync)
	return err
}

// MpiRmaCollBeginEvent marks the start of an MPI RMA collective operation
// (e.g. MPI_Win_fence); carries no payload of its own.
type MpiRmaCollBeginEvent struct {
	Base
}

// NewMpiRmaCollBegin constructs an MpiRmaCollBegin event.
func NewMpiRmaCollBegin(ts float64) *MpiRmaCollBeginEvent {
	return &MpiRmaCollBeginEvent{Base: Base{Ts: ts}}
}

func (e *MpiRmaCollBeginEvent) Kind() Kind                                          { return MpiRmaCollBegin }
func (e *MpiRmaCollBeginEvent) IsOfType(t Kind) bool                                { return e.Kind().IsOfType(t) }
func (e *MpiRmaCollBeginEvent) packFields(b *buffer.Buffer)                         {}
func (e *MpiRmaCollBeginEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error { return nil }
func (e *MpiRmaCollBeginEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error  { return nil }

// MpiRmaCollEndEvent marks the end of an MPI RMA collective operation,
// naming the window the synchronization applies to.
type MpiRmaCollEndEvent struct {
	Base
	Window defs.ID
}

// NewMpiRmaCollEnd constructs an MpiRmaCollEnd event.
func NewMpiRmaCollEnd(ts float64, window defs.ID) *MpiRmaCollEndEvent {
	return &MpiRmaCollEndEvent{Base: Base{Ts: ts}, Window: window}
}

func (e *MpiRmaCollEndEvent) Kind() Kind           { return MpiRmaCollEnd }
func (e *MpiRmaCollEndEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *MpiRmaCollEndEvent) packFields(b *buffer.Buffer) { b.WriteRef(e.Window) }

func (e *MpiRmaCollEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	return unpackWindowRef(d, b, &e.Window)
}

func (e *MpiRmaCollEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " window=%d", e.Window)
	return err
}

// MpiRmaLockEvent records acquisition of a passive-target RMA lock.
type MpiRmaLockEvent struct {
	Base
	Window    defs.ID
	Location  defs.ID
	Exclusive bool
}

// NewMpiRmaLock constructs an MpiRmaLock event.
func NewMpiRmaLock(ts float64, window, location defs.ID, exclusive bool) *MpiRmaLockEvent {
	return &MpiRmaLockEvent{Base: Base{Ts: ts}, Window: window, Location: location, Exclusive: exclusive}
}

func (e *MpiRmaLockEvent) Kind() Kind           { return MpiRmaLock }
func (e *MpiRmaLockEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiRmaLockEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Window)
	b.WriteRef(e.Location)
	b.WriteU8(boolByte(e.Exclusive))
}

func (e *MpiRmaLockEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := unpackWindowRef(d, b, &e.Window); err != nil {
		return err
	}
	loc, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiRmaLock location ref")
	}
	if loc != defs.NoID {
		if _, err := d.Location(loc); err != nil {
			return err
		}
	}
	excl, err := b.ReadU8()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiRmaLock exclusive flag")
	}
	e.Location, e.Exclusive = loc, excl != 0
	return nil
}

func (e *MpiRmaLockEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " window=%d location=%d exclusive=%t", e.Window, e.Location, e.Exclusive)
	return err
}

// MpiRmaUnlockEvent records release of a passive-target RMA lock.
type MpiRmaUnlockEvent struct {
	Base
	Window defs.ID
}

// NewMpiRmaUnlock constructs an MpiRmaUnlock event.
func NewMpiRmaUnlock(ts float64, window defs.ID) *MpiRmaUnlockEvent {
	return &MpiRmaUnlockEvent{Base: Base{Ts: ts}, Window: window}
}

func (e *MpiRmaUnlockEvent) Kind() Kind           { return MpiRmaUnlock }
func (e *MpiRmaUnlockEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *MpiRmaUnlockEvent) packFields(b *buffer.Buffer) { b.WriteRef(e.Window) }

func (e *MpiRmaUnlockEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	return unpackWindowRef(d, b, &e.Window)
}

func (e *MpiRmaUnlockEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " window=%d", e.Window)
	return err
}

func unpackRmaStart(b *buffer.Buffer) (rmaID uint64, remote uint32, bytes uint64, err error) {
	if rmaID, err = b.ReadU64(); err != nil {
		return 0, 0, 0, perrors.Wrap(perrors.FormatError, err, "reading rma id")
	}
	if remote, err = b.ReadU32(); err != nil {
		return 0, 0, 0, perrors.Wrap(perrors.FormatError, err, "reading remote location")
	}
	if bytes, err = b.ReadU64(); err != nil {
		return 0, 0, 0, perrors.Wrap(perrors.FormatError, err, "reading byte count")
	}
	return rmaID, remote, bytes, nil
}

func outputRmaStart(w io.Writer, rmaID uint64, remote uint32, bytes uint64) error {
	_, err := fmt.Fprintf(w, " rma=%d remote=%d bytes=%d", rmaID, remote, bytes)
	return err
}

func unpackWindowRef(d *defs.GlobalDefs, b *buffer.Buffer, out *defs.ID) error {
	window, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading RMA window ref")
	}
	if window != defs.NoID {
		if _, err := d.RmaWindow(window); err != nil {
			return err
		}
	}
	*out = window
	return nil
}
