package wire_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pearl-replay/pearl/internal/wire"
)

func TestFrameRoundTrip(t *testing.T) {
	f := wire.Frame{Op: wire.OpSend, From: 1, Dest: 2, Tag: 170275, Payload: []byte("hello")}

	got, err := wire.Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameEmptyPayload(t *testing.T) {
	f := wire.Frame{Op: wire.OpHello, From: 3}
	got, err := wire.Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Op != wire.OpHello || got.From != 3 {
		t.Errorf("got %+v, want Op=OpHello From=3", got)
	}
}
