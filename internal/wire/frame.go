// Package wire is the envelope am/grpc exchanges between Client and Server:
// a small, fixed header encoded with buffer.Buffer (the same
// domain-specific wire format C1 specifies) wrapping an arbitrary payload,
// following the teacher's convention of mixing its own wire envelope with a
// general-purpose encoding for payload bodies (registry/pi, registry/wf use
// encoding/gob the same way around DDA's own envelope).
//
// See transport.proto for am/grpc's Exchange stream: each gRPC message on
// that stream carries exactly one Frame, serialized here and boxed in a
// google.golang.org/protobuf/types/known/wrapperspb.BytesValue so the
// stream itself is ordinary, already-correct generated protobuf code
// without requiring a protoc run in this environment.
package wire

import (
	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/perrors"
)

// Opcode selects how a broker (am/grpc.Server) and peer (am/grpc.Client)
// interpret a Frame.
type Opcode uint8

const (
	// OpHello is the first frame a Client sends after connecting,
	// declaring the rank it speaks for.
	OpHello Opcode = iota
	// OpSend carries one am.Transport payload addressed to Dest on Tag.
	OpSend
	// OpBcast carries one payload to be fanned out to every other
	// connected rank.
	OpBcast
)

// Frame is one unit exchanged over am/grpc's Exchange stream.
type Frame struct {
	Op      Opcode
	From    uint32
	Dest    uint32
	Tag     uint32
	Payload []byte
}

// Encode serializes f using the buffer wire format.
func (f Frame) Encode() []byte {
	buf := buffer.New(17 + len(f.Payload))
	buf.WriteU8(uint8(f.Op))
	buf.WriteU32(f.From)
	buf.WriteU32(f.Dest)
	buf.WriteU32(f.Tag)
	buf.WriteBlob(f.Payload)
	buf.Rewind()
	return append([]byte(nil), buf.Bytes()...)
}

// Decode parses raw, previously produced by Encode, back into a Frame.
func Decode(raw []byte) (Frame, error) {
	buf := buffer.NewFromBytes(raw)
	op, err := buf.ReadU8()
	if err != nil {
		return Frame{}, perrors.Wrap(perrors.FormatError, err, "wire: decoding opcode")
	}
	from, err := buf.ReadU32()
	if err != nil {
		return Frame{}, perrors.Wrap(perrors.FormatError, err, "wire: decoding from")
	}
	dest, err := buf.ReadU32()
	if err != nil {
		return Frame{}, perrors.Wrap(perrors.FormatError, err, "wire: decoding dest")
	}
	tag, err := buf.ReadU32()
	if err != nil {
		return Frame{}, perrors.Wrap(perrors.FormatError, err, "wire: decoding tag")
	}
	payload, err := buf.ReadBlob()
	if err != nil {
		return Frame{}, perrors.Wrap(perrors.FormatError, err, "wire: decoding payload")
	}
	return Frame{Op: Opcode(op), From: from, Dest: dest, Tag: tag, Payload: payload}, nil
}
