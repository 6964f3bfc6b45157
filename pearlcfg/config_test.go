package pearlcfg_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pearl-replay/pearl/pearlcfg"
)

func TestLoadAppliesDefaultTag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pearl.yaml")
	content := `
location: rank0
rank: 0
transport:
  listenAddr: ":0"
  dialAddr: "localhost:9000"
fixtures:
  defsGlob: "testdata/defs.json"
  traceGlobs:
    - "testdata/*.trace.json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := pearlcfg.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Location != "rank0" {
		t.Errorf("Location = %q, want rank0", cfg.Location)
	}
	if cfg.Transport.Tag != pearlcfg.DefaultAmTag {
		t.Errorf("Transport.Tag = %d, want default %d", cfg.Transport.Tag, pearlcfg.DefaultAmTag)
	}
	if len(cfg.Fixtures.TraceGlobs) != 1 {
		t.Fatalf("got %d trace globs, want 1", len(cfg.Fixtures.TraceGlobs))
	}
}

func TestLoadRespectsExplicitTag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pearl.yaml")
	if err := os.WriteFile(path, []byte("transport:\n  tag: 42\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := pearlcfg.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport.Tag != 42 {
		t.Errorf("Transport.Tag = %d, want 42", cfg.Transport.Tag)
	}
}
