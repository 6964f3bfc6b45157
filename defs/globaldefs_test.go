package defs_test

import (
	"errors"
	"testing"

	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/perrors"
)

func buildSimple(t *testing.T) *defs.GlobalDefs {
	t.Helper()
	b := defs.NewBuilder()
	nameMain := b.AddString("main")
	nameWorld := b.AddString("world")
	b.AddRegion(defs.Region{NameRef: nameMain, Paradigm: defs.ParadigmMPI})
	worldGroup := b.AddGroup(defs.Group{NameRef: nameWorld, Property: defs.PropertyWorld}, true)
	if _, err := b.AddCommunicator(defs.Communicator{NameRef: nameWorld, Paradigm: defs.ParadigmMPI, GroupID: worldGroup, ParentID: defs.NoID}, true); err != nil {
		t.Fatalf("AddCommunicator: %v", err)
	}
	root, err := b.AddCallpath(defs.NoID, 0)
	if err != nil {
		t.Fatalf("AddCallpath: %v", err)
	}
	if root != 0 {
		t.Fatalf("expected root callpath id 0, got %d", root)
	}
	return b.Build()
}

func TestLookupsAndWorldFinders(t *testing.T) {
	d := buildSimple(t)

	r, err := d.Region(0)
	if err != nil {
		t.Fatalf("Region(0): %v", err)
	}
	if r.Paradigm != defs.ParadigmMPI {
		t.Fatalf("expected MPI paradigm, got %v", r.Paradigm)
	}

	if _, err := d.Region(99); err == nil {
		t.Fatal("expected UnknownDefinition error for out-of-range region")
	} else if cat, ok := perrors.Categorize(err); !ok || cat != perrors.UnknownDefinition {
		t.Fatalf("expected UnknownDefinition category, got %v", err)
	}

	wc, err := d.WorldComm()
	if err != nil {
		t.Fatalf("WorldComm: %v", err)
	}
	if wc.Paradigm != defs.ParadigmMPI {
		t.Fatalf("expected world comm to be MPI, got %v", wc.Paradigm)
	}

	wg, err := d.WorldGroup()
	if err != nil {
		t.Fatalf("WorldGroup: %v", err)
	}
	if wg.Property != defs.PropertyWorld {
		t.Fatalf("expected PropertyWorld, got %v", wg.Property)
	}

	roots := d.CalltreeRoots()
	if len(roots) != 1 || roots[0] != 0 {
		t.Fatalf("expected single root callpath 0, got %v", roots)
	}
}

func TestUnknownDefinitionIsASentinel(t *testing.T) {
	d := buildSimple(t)
	_, err := d.Location(42)
	if !errors.Is(err, perrors.ErrUnknownDefinition) {
		t.Fatalf("expected errors.Is match against ErrUnknownDefinition, got %v", err)
	}
}

func TestBuilderRejectsDanglingReferences(t *testing.T) {
	b := defs.NewBuilder()
	if _, err := b.AddCommunicator(defs.Communicator{GroupID: 7}, false); err == nil {
		t.Fatal("expected error for communicator referencing nonexistent group")
	}
	if _, err := b.AddCallpath(7, 0); err == nil {
		t.Fatal("expected error for callpath referencing nonexistent parent")
	}
}

func TestParadigmStringRoundTrip(t *testing.T) {
	for p := defs.ParadigmUnknown; p <= defs.ParadigmNone; p++ {
		s := p.String()
		if defs.ParseParadigm(s) != p {
			t.Fatalf("round trip failed for paradigm %d (%s)", p, s)
		}
	}
}
