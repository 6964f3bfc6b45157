package trace

import (
	"errors"
	"testing"

	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/perrors"
)

func buildDefs(t *testing.T, numRegions int) *defs.GlobalDefs {
	t.Helper()
	b := defs.NewBuilder()
	for i := 0; i < numRegions; i++ {
		b.AddRegion(defs.Region{Paradigm: defs.ParadigmUser})
	}
	return b.Build()
}

// S1: matched bracket — one location, Enter(R=1)@0.0, Leave(R=1)@1.0.
func TestMatchedBracketVerifiesAndPreprocesses(t *testing.T) {
	d := buildDefs(t, 1)
	lt := NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0.0, 0))
	mustAppend(t, lt, event.NewLeave(1.0, 0))

	if err := VerifyCalltree(lt); err != nil {
		t.Fatalf("VerifyCalltree: %v", err)
	}
	if err := Preprocess(lt, d); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	enter, _ := lt.At(0)
	leave, _ := lt.At(1)
	enterCP, ok := enter.(event.HasRegionPayload).RegionPayload().CallpathID()
	if !ok {
		t.Fatal("enter payload not resolved to callpath")
	}
	leaveCP, ok := leave.(event.HasRegionPayload).RegionPayload().CallpathID()
	if !ok {
		t.Fatal("leave payload not resolved to callpath")
	}
	if enterCP != leaveCP {
		t.Fatalf("enter/leave callpath mismatch: %d != %d", enterCP, leaveCP)
	}
}

// S2: call-stack — [Enter(1)@0, Enter(2)@1, Leave(2)@2, Leave(1)@3];
// preprocessing assigns cp1, cp2 with parent(cp2) == cp1, and
// get_cnode()-equivalent values at the four events are cp1, cp2, cp2, cp1.
func TestCallStackAssignsNestedCallpaths(t *testing.T) {
	d := buildDefs(t, 2)
	lt := NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	mustAppend(t, lt, event.NewEnter(1, 1))
	mustAppend(t, lt, event.NewLeave(2, 1))
	mustAppend(t, lt, event.NewLeave(3, 0))

	if err := VerifyCalltree(lt); err != nil {
		t.Fatalf("VerifyCalltree: %v", err)
	}
	if err := Preprocess(lt, d); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	cp := make([]defs.ID, 4)
	for i := range cp {
		rec, _ := lt.At(i)
		id, ok := rec.(event.HasRegionPayload).RegionPayload().CallpathID()
		if !ok {
			t.Fatalf("event %d: payload not resolved", i)
		}
		cp[i] = id
	}

	if cp[0] != cp[3] {
		t.Fatalf("expected outer enter/leave to share a callpath: %d != %d", cp[0], cp[3])
	}
	if cp[1] != cp[2] {
		t.Fatalf("expected inner enter/leave to share a callpath: %d != %d", cp[1], cp[2])
	}
	if cp[0] == cp[1] {
		t.Fatal("expected distinct callpaths for outer and inner regions")
	}

	inner, err := d.Callpath(cp[1])
	if err != nil {
		t.Fatalf("Callpath(%d): %v", cp[1], err)
	}
	if inner.ParentID != cp[0] {
		t.Fatalf("inner callpath parent = %d, want %d", inner.ParentID, cp[0])
	}
	outer, err := d.Callpath(cp[0])
	if err != nil {
		t.Fatalf("Callpath(%d): %v", cp[0], err)
	}
	if outer.ParentID != defs.NoID {
		t.Fatalf("outer callpath parent = %d, want NoID", outer.ParentID)
	}
}

// S3: non-blocking request chain — [SendRequest(id=7)@0, Enter.../Leave...,
// SendComplete(id=7)@5] — after preprocessing, PrevRequestEvent(SendComplete)
// yields exactly the SendRequest event (P4).
func TestRequestLinkage(t *testing.T) {
	d := buildDefs(t, 1)
	lt := NewLocalTrace(0)
	mustAppend(t, lt, event.NewMpiSendRequest(0, defs.NoID, 1, 2, 10, 7))
	mustAppend(t, lt, event.NewEnter(1, 0))
	mustAppend(t, lt, event.NewLeave(2, 0))
	mustAppend(t, lt, event.NewMpiSendComplete(5, 7))

	if err := VerifyCalltree(lt); err != nil {
		t.Fatalf("VerifyCalltree: %v", err)
	}
	if err := Preprocess(lt, d); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	prevIdx, ok := lt.PrevRequestEvent(3)
	if !ok {
		t.Fatal("expected SendComplete to have a linked prior request")
	}
	if prevIdx != 0 {
		t.Fatalf("PrevRequestEvent(3) = %d, want 0", prevIdx)
	}

	nextIdx, ok := lt.NextRequestEvent(0)
	if !ok {
		t.Fatal("expected SendRequest to have a linked completion")
	}
	if nextIdx != 3 {
		t.Fatalf("NextRequestEvent(0) = %d, want 3", nextIdx)
	}

	rec, _ := lt.At(prevIdx)
	req, ok := rec.(event.HasRequestID)
	if !ok || req.ReqID() != 7 {
		t.Fatalf("linked request event has wrong id: %+v", rec)
	}
}

// S4: calltree violation — [Enter(1)@0, Leave(2)@1] fails verification with
// CalltreeViolation.
func TestMismatchedLeaveFailsVerification(t *testing.T) {
	d := buildDefs(t, 2)
	lt := NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	mustAppend(t, lt, event.NewLeave(1, 1))

	err := VerifyCalltree(lt)
	if err == nil {
		t.Fatal("expected CalltreeViolation, got nil")
	}
	if cat, ok := perrors.Categorize(err); !ok || cat != perrors.CalltreeViolation {
		t.Fatalf("error category = %v, want CalltreeViolation", cat)
	}
	_ = d
}

func TestUnclosedEnterFailsVerification(t *testing.T) {
	lt := NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))

	err := VerifyCalltree(lt)
	if err == nil {
		t.Fatal("expected CalltreeViolation for unclosed enter")
	}
	if !errors.Is(err, perrors.ErrCalltreeViolation) {
		t.Fatalf("expected errors.Is match against ErrCalltreeViolation, got %v", err)
	}
}

func TestAppendRejectsDecreasingTimestamp(t *testing.T) {
	lt := NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(5.0, 0))
	if err := lt.Append(event.NewLeave(4.0, 0)); err == nil {
		t.Fatal("expected error appending a decreasing timestamp")
	}
}

func TestIteratorBidirectional(t *testing.T) {
	lt := NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	mustAppend(t, lt, event.NewLeave(1, 0))

	var forward []float64
	for it := lt.Begin(); it.Valid(); it = it.Next() {
		forward = append(forward, it.Event().Timestamp())
	}
	if len(forward) != 2 || forward[0] != 0 || forward[1] != 1 {
		t.Fatalf("forward iteration = %v", forward)
	}

	var backward []float64
	for it := lt.Last(); it.Valid(); it = it.Prev() {
		backward = append(backward, it.Event().Timestamp())
	}
	if len(backward) != 2 || backward[0] != 1 || backward[1] != 0 {
		t.Fatalf("backward iteration = %v", backward)
	}
}

func mustAppend(t *testing.T, lt *LocalTrace, rec event.Record) {
	t.Helper()
	if err := lt.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
}
