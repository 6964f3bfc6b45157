package fixture_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/fixture"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadDefsAndTraces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "defs.json", `{
		"regions": [{"name": "main"}],
		"locations": [{"name": "rank0", "type": "process"}]
	}`)
	writeFile(t, dir, "rank0.trace.json", `{
		"location": 0,
		"events": [
			{"kind": "Enter", "ts": 0.0, "region": 0},
			{"kind": "Leave", "ts": 1.5, "region": 0}
		]
	}`)

	d, err := fixture.LoadDefs(filepath.Join(dir, "defs.json"))
	if err != nil {
		t.Fatalf("LoadDefs: %v", err)
	}
	if _, err := d.Region(0); err != nil {
		t.Fatalf("Region(0): %v", err)
	}

	traces, err := fixture.LoadTraces(filepath.Join(dir, "*.trace.json"))
	if err != nil {
		t.Fatalf("LoadTraces: %v", err)
	}
	if len(traces) != 1 {
		t.Fatalf("got %d traces, want 1", len(traces))
	}
	lt := traces[0]
	if lt.Len() != 2 {
		t.Fatalf("got %d events, want 2", lt.Len())
	}
	first, err := lt.At(0)
	if err != nil {
		t.Fatalf("At(0): %v", err)
	}
	if first.Kind() != event.Enter {
		t.Fatalf("first event kind = %v, want Enter", first.Kind())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "defs.json", `{"regions": [{"name": "main"}], "locations": [{"name": "rank0"}]}`)
	writeFile(t, dir, "rank0.trace.json", `{
		"location": 0,
		"events": [
			{"kind": "Enter", "ts": 0.0, "region": 0},
			{"kind": "Leave", "ts": 2.0, "region": 0}
		]
	}`)

	d, err := fixture.LoadDefs(filepath.Join(dir, "defs.json"))
	if err != nil {
		t.Fatalf("LoadDefs: %v", err)
	}
	traces, err := fixture.LoadTraces(filepath.Join(dir, "*.trace.json"))
	if err != nil {
		t.Fatalf("LoadTraces: %v", err)
	}

	snap, err := fixture.EncodeSnapshot(traces[0])
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	blob, err := fixture.EncodeSnapshotGob(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshotGob: %v", err)
	}

	decoded, err := fixture.DecodeSnapshotGob(blob)
	if err != nil {
		t.Fatalf("DecodeSnapshotGob: %v", err)
	}
	restored, err := decoded.Restore(d)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Len() != traces[0].Len() {
		t.Fatalf("restored %d events, want %d", restored.Len(), traces[0].Len())
	}
}
