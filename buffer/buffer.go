// Package buffer implements the growable byte buffer with a typed pack/unpack
// cursor used as the transport for both on-disk trace records and
// active-message payloads.
//
// Wire layout: multi-byte integers are big-endian; floating-point values are
// written as their IEEE-754 bit pattern in the same byte order; timestamps
// are 8-byte IEEE-754 seconds; definition references are uint32 ids with
// NoID (all bits set) meaning "none".
package buffer

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// NoID is the reference value meaning "no definition referenced".
const NoID uint32 = math.MaxUint32

// ErrEndOfBuffer is returned by typed readers when the cursor runs past the
// written portion of the buffer.
var ErrEndOfBuffer = errors.New("buffer: end of buffer")

// Buffer is a growable byte array with a read/write cursor. Buffers are
// logically move-only: a *Buffer is uniquely owned by whichever holder has
// it (an event record during pack/unpack, an AmRequest while in flight, an
// AmListener while receiving), and should be passed by pointer, never copied
// by value. noCopy documents that intent to `go vet -copylocks`.
type Buffer struct {
	_    noCopy
	data []byte
	pos  int // read/write cursor
}

// noCopy is zero-size and has a Lock method, making `go vet -copylocks`
// flag any accidental copy-by-value of a Buffer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates an empty buffer with the given initial capacity hint.
func New(capacityHint int) *Buffer {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Buffer{data: make([]byte, 0, capacityHint)}
}

// NewFromBytes wraps an existing byte slice for reading. The slice is taken
// by reference, not copied; callers that need to retain the source should
// copy it first.
func NewFromBytes(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Reserve enlarges capacity by at least n bytes beyond the current length.
func (b *Buffer) Reserve(n int) {
	if n <= 0 {
		return
	}
	if cap(b.data)-len(b.data) >= n {
		return
	}
	grown := make([]byte, len(b.data), len(b.data)+n)
	copy(grown, b.data)
	b.data = grown
}

// Len returns the number of bytes currently written to the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Pos returns the current cursor position.
func (b *Buffer) Pos() int {
	return b.pos
}

// Rewind resets the read cursor to the start of the buffer without
// discarding its contents, so a freshly-packed buffer can be unpacked
// in-place.
func (b *Buffer) Rewind() {
	b.pos = 0
}

// Bytes returns the buffer's written contents. The returned slice aliases
// the buffer's internal storage and must not be retained across further
// writes.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Remaining reports how many unread bytes are left at the cursor.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

func (b *Buffer) append(p []byte) {
	b.Reserve(len(p))
	b.data = append(b.data, p...)
}

func (b *Buffer) take(n int) ([]byte, error) {
	if b.Remaining() < n {
		return nil, ErrEndOfBuffer
	}
	out := b.data[b.pos : b.pos+n]
	b.pos += n
	return out, nil
}

// --- typed writers ----------------------------------------------------

// WriteU8 appends a single byte.
func (b *Buffer) WriteU8(v uint8) {
	b.append([]byte{v})
}

// WriteU16 appends a uint16 in big-endian order.
func (b *Buffer) WriteU16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.append(tmp[:])
}

// WriteU32 appends a uint32 in big-endian order.
func (b *Buffer) WriteU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.append(tmp[:])
}

// WriteU64 appends a uint64 in big-endian order.
func (b *Buffer) WriteU64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.append(tmp[:])
}

// WriteI64 appends an int64 in big-endian order.
func (b *Buffer) WriteI64(v int64) {
	b.WriteU64(uint64(v))
}

// WriteF64 appends a float64 as its IEEE-754 bit pattern, big-endian.
func (b *Buffer) WriteF64(v float64) {
	b.WriteU64(math.Float64bits(v))
}

// WriteTimestamp appends a timestamp, encoded identically to WriteF64 (8-byte
// IEEE-754 seconds).
func (b *Buffer) WriteTimestamp(v float64) {
	b.WriteF64(v)
}

// WriteRef appends a definition reference: NoID if id is buffer.NoID,
// otherwise the id itself, both as a plain uint32.
func (b *Buffer) WriteRef(id uint32) {
	b.WriteU32(id)
}

// WriteBlob appends a length-prefixed (uint32) byte blob.
func (b *Buffer) WriteBlob(p []byte) {
	b.WriteU32(uint32(len(p)))
	b.append(p)
}

// WriteString appends a length-prefixed (uint32) UTF-8 string. This is
// distinct from a "string-id" reference (WriteRef into GlobalDefs' String
// table); it is used for the rare payloads (argv, handler-defined blobs)
// that carry raw text rather than an interned reference.
func (b *Buffer) WriteString(s string) {
	b.WriteBlob([]byte(s))
}

// --- typed readers ------------------------------------------------------

// ReadU8 consumes a single byte.
func (b *Buffer) ReadU8() (uint8, error) {
	p, err := b.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadU16 consumes a big-endian uint16.
func (b *Buffer) ReadU16() (uint16, error) {
	p, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

// ReadU32 consumes a big-endian uint32.
func (b *Buffer) ReadU32() (uint32, error) {
	p, err := b.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

// ReadU64 consumes a big-endian uint64.
func (b *Buffer) ReadU64() (uint64, error) {
	p, err := b.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}

// ReadI64 consumes a big-endian int64.
func (b *Buffer) ReadI64() (int64, error) {
	v, err := b.ReadU64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// ReadF64 consumes a float64 encoded as its IEEE-754 bit pattern.
func (b *Buffer) ReadF64() (float64, error) {
	v, err := b.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadTimestamp consumes a timestamp (identical wire shape to ReadF64).
func (b *Buffer) ReadTimestamp() (float64, error) {
	return b.ReadF64()
}

// ReadRef consumes a definition reference (a plain uint32; NoID means
// "none").
func (b *Buffer) ReadRef() (uint32, error) {
	return b.ReadU32()
}

// ReadBlob consumes a length-prefixed byte blob. The returned slice aliases
// the buffer's storage.
func (b *Buffer) ReadBlob() ([]byte, error) {
	n, err := b.ReadU32()
	if err != nil {
		return nil, err
	}
	return b.take(int(n))
}

// ReadString consumes a length-prefixed UTF-8 string.
func (b *Buffer) ReadString() (string, error) {
	p, err := b.ReadBlob()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// Read implements io.Reader over the unread portion of the buffer, so a
// Buffer can be handed to any code that expects a plain io.Reader.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.Remaining() == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

// Write implements io.Writer by appending to the buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.append(p)
	return len(p), nil
}
