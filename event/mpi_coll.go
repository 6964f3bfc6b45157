package event

import (
	"fmt"
	"io"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/perrors"
)

func init() {
	registerDecoder(MpiCollBegin, func(b Base) Record { return &MpiCollBeginEvent{Base: b} })
	registerDecoder(MpiCollEnd, func(b Base) Record { return &MpiCollEndEvent{Base: b} })
}

// CollType enumerates the MPI collective operation kinds carried by an
// MpiCollEndEvent.
type CollType uint8

const (
	CollBarrier CollType = iota
	CollBcast
	CollGather
	CollGatherV
	CollScatter
	CollScatterV
	CollAllgather
	CollAllgatherV
	CollAlltoall
	CollAlltoallV
	CollAlltoallW
	CollAllreduce
	CollReduce
	CollReduceScatter
	CollReduceScatterBlock
	CollScan
	CollExscan
)

var collTypeNames = [...]string{
	"BARRIER", "BCAST", "GATHER", "GATHERV", "SCATTER", "SCATTERV",
	"ALLGATHER", "ALLGATHERV", "ALLTOALL", "ALLTOALLV", "ALLTOALLW",
	"ALLREDUCE", "REDUCE", "REDUCE_SCATTER", "REDUCE_SCATTER_BLOCK",
	"SCAN", "EXSCAN",
}

// String renders the collective type's symbolic name.
func (c CollType) String() string {
	if int(c) < len(collTypeNames) {
		return collTypeNames[c]
	}
	return "UNKNOWN"
}

// MpiCollBeginEvent marks the start of an MPI collective operation; it
// carries no payload of its own (the operation kind and parameters are
// recorded on the matching MpiCollEndEvent).
type MpiCollBeginEvent struct {
	Base
}

// NewMpiCollBegin constructs an MpiCollBegin event.
func NewMpiCollBegin(ts float64) *MpiCollBeginEvent {
	return &MpiCollBeginEvent{Base: Base{Ts: ts}}
}

func (e *MpiCollBeginEvent) Kind() Kind                                          { return MpiCollBegin }
func (e *MpiCollBeginEvent) IsOfType(t Kind) bool                                { return e.Kind().IsOfType(t) }
func (e *MpiCollBeginEvent) packFields(b *buffer.Buffer)                         {}
func (e *MpiCollBeginEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error { return nil }
func (e *MpiCollBeginEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error  { return nil }

// MpiCollEndEvent marks the end of an MPI collective operation, carrying its
// kind, communicator, root (where applicable), and transferred byte counts.
type MpiCollEndEvent struct {
	Base
	Type          CollType
	Comm          defs.ID
	Root          uint32
	BytesSent     uint64
	BytesReceived uint64
}

// NewMpiCollEnd constructs an MpiCollEnd event.
func NewMpiCollEnd(ts float64, collType CollType, comm defs.ID, root uint32, bytesSent, bytesReceived uint64) *MpiCollEndEvent {
	return &MpiCollEndEvent{
		Base: Base{Ts: ts}, Type: collType, Comm: comm, Root: root,
		BytesSent: bytesSent, BytesReceived: bytesReceived,
	}
}

func (e *MpiCollEndEvent) Kind() Kind           { return MpiCollEnd }
func (e *MpiCollEndEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *MpiCollEndEvent) packFields(b *buffer.Buffer) {
	b.WriteU8(uint8(e.Type))
	b.WriteRef(e.Comm)
	b.WriteU32(e.Root)
	b.WriteU64(e.BytesSent)
	b.WriteU64(e.BytesReceived)
}

func (e *MpiCollEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	t, err := b.ReadU8()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiCollEnd type")
	}
	comm, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiCollEnd comm")
	}
	if comm != defs.NoID {
		if _, err := d.Communicator(comm); err != nil {
			return err
		}
	}
	root, err := b.ReadU32()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiCollEnd root")
	}
	sent, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiCollEnd bytes sent")
	}
	recv, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading MpiCollEnd bytes received")
	}
	e.Type, e.Comm, e.Root, e.BytesSent, e.BytesReceived = CollType(t), comm, root, sent, recv
	return nil
}

func (e *MpiCollEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " type=%s comm=%d root=%d sent=%d recv=%d", e.Type, e.Comm, e.Root, e.BytesSent, e.BytesReceived)
	return err
}
