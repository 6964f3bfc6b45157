package fixture

import (
	"bytes"
	"encoding/gob"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/trace"
)

// Snapshot is a gob-transmissible capture of one LocalTrace: every record
// encoded through the real wire format (buffer.Buffer/event.Encode) and
// then wrapped in gob, mirroring the teacher's registry/pi and registry/wf
// computations, which encode their domain payloads with encoding/gob while
// the surrounding DDA envelope uses its own wire format.
type Snapshot struct {
	Location defs.ID
	Records  [][]byte
}

// EncodeSnapshot captures every record currently in lt.
func EncodeSnapshot(lt *trace.LocalTrace) (Snapshot, error) {
	snap := Snapshot{Location: lt.Location()}
	for i := 0; i < lt.Len(); i++ {
		rec, err := lt.At(i)
		if err != nil {
			return Snapshot{}, err
		}
		buf := buffer.New(32)
		event.Encode(rec, buf)
		buf.Rewind()
		snap.Records = append(snap.Records, append([]byte(nil), buf.Bytes()...))
	}
	return snap, nil
}

// EncodeSnapshotGob gob-encodes snap for storage or transmission.
func EncodeSnapshotGob(snap Snapshot) ([]byte, error) {
	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(snap); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeSnapshotGob reverses EncodeSnapshotGob.
func DecodeSnapshotGob(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Restore rebuilds a LocalTrace from snap, decoding each record against d.
func (snap Snapshot) Restore(d *defs.GlobalDefs) (*trace.LocalTrace, error) {
	lt := trace.NewLocalTrace(snap.Location)
	for _, raw := range snap.Records {
		buf := buffer.NewFromBytes(raw)
		rec, err := event.Decode(d, buf)
		if err != nil {
			return nil, err
		}
		if err := lt.Append(rec); err != nil {
			return nil, err
		}
	}
	return lt, nil
}
