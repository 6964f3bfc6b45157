package buffer_test

import (
	"io"
	"testing"

	"github.com/pearl-replay/pearl/buffer"
)

func TestTypedRoundTrip(t *testing.T) {
	b := buffer.New(0)
	b.WriteU8(7)
	b.WriteU16(1234)
	b.WriteU32(987654321)
	b.WriteU64(1 << 40)
	b.WriteI64(-42)
	b.WriteF64(3.5)
	b.WriteTimestamp(12.75)
	b.WriteRef(buffer.NoID)
	b.WriteRef(5)
	b.WriteBlob([]byte{1, 2, 3})
	b.WriteString("hello")

	b.Rewind()

	if v, err := b.ReadU8(); err != nil || v != 7 {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := b.ReadU16(); err != nil || v != 1234 {
		t.Fatalf("ReadU16 = %v, %v", v, err)
	}
	if v, err := b.ReadU32(); err != nil || v != 987654321 {
		t.Fatalf("ReadU32 = %v, %v", v, err)
	}
	if v, err := b.ReadU64(); err != nil || v != 1<<40 {
		t.Fatalf("ReadU64 = %v, %v", v, err)
	}
	if v, err := b.ReadI64(); err != nil || v != -42 {
		t.Fatalf("ReadI64 = %v, %v", v, err)
	}
	if v, err := b.ReadF64(); err != nil || v != 3.5 {
		t.Fatalf("ReadF64 = %v, %v", v, err)
	}
	if v, err := b.ReadTimestamp(); err != nil || v != 12.75 {
		t.Fatalf("ReadTimestamp = %v, %v", v, err)
	}
	if v, err := b.ReadRef(); err != nil || v != buffer.NoID {
		t.Fatalf("ReadRef(NoID) = %v, %v", v, err)
	}
	if v, err := b.ReadRef(); err != nil || v != 5 {
		t.Fatalf("ReadRef(5) = %v, %v", v, err)
	}
	if v, err := b.ReadBlob(); err != nil || string(v) != "\x01\x02\x03" {
		t.Fatalf("ReadBlob = %v, %v", v, err)
	}
	if v, err := b.ReadString(); err != nil || v != "hello" {
		t.Fatalf("ReadString = %v, %v", v, err)
	}
}

func TestEndOfBuffer(t *testing.T) {
	b := buffer.New(0)
	b.WriteU8(1)
	b.Rewind()

	if _, err := b.ReadU8(); err != nil {
		t.Fatalf("unexpected error on first read: %v", err)
	}
	if _, err := b.ReadU8(); err != buffer.ErrEndOfBuffer {
		t.Fatalf("expected ErrEndOfBuffer, got %v", err)
	}
}

func TestIOReaderWriter(t *testing.T) {
	b := buffer.New(0)
	if _, err := io.WriteString(b, "abc"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	b.Rewind()
	got := make([]byte, 3)
	if _, err := io.ReadFull(b, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestBigEndianWireLayout(t *testing.T) {
	b := buffer.New(0)
	b.WriteU32(0x01020304)
	raw := b.Bytes()
	want := []byte{0x01, 0x02, 0x03, 0x04}
	for i := range want {
		if raw[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, raw[i], want[i])
		}
	}
}
