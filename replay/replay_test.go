package replay

import (
	"testing"

	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/perrors"
	"github.com/pearl-replay/pearl/trace"
)

func buildDefs(t *testing.T, numRegions int) *defs.GlobalDefs {
	t.Helper()
	b := defs.NewBuilder()
	for i := 0; i < numRegions; i++ {
		b.AddRegion(defs.Region{Paradigm: defs.ParadigmUser})
	}
	return b.Build()
}

func mustAppend(t *testing.T, lt *trace.LocalTrace, rec event.Record) {
	t.Helper()
	if err := lt.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func preprocessed(t *testing.T, d *defs.GlobalDefs, lt *trace.LocalTrace) {
	t.Helper()
	if err := trace.VerifyCalltree(lt); err != nil {
		t.Fatalf("VerifyCalltree: %v", err)
	}
	if err := trace.Preprocess(lt, d); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
}

// recordingData collects every event a replay dispatches to it, in the
// order Postprocess is called, for assertion after the walk completes.
type recordingData struct {
	events []Event
}

func (d *recordingData) Preprocess(ev Event) error  { return nil }
func (d *recordingData) Postprocess(ev Event) error { d.events = append(d.events, ev); return nil }

// S1 (matched bracket): one location, Enter(R=1)@0.0, Leave(R=1)@1.0;
// forward replay with a callback counting enters/leaves; expected
// enters==1, leaves==1, duration==1.0.
func TestMatchedBracketReplay(t *testing.T) {
	d := buildDefs(t, 1)
	lt := trace.NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0.0, 0))
	mustAppend(t, lt, event.NewLeave(1.0, 0))
	preprocessed(t, d, lt)

	var enters, leaves int
	cm := NewCallbackManager()
	cm.Register(event.GroupEnter, 0, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
		enters++
		return nil
	})
	cm.Register(event.GroupLeave, 0, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
		leaves++
		return nil
	})

	data := &recordingData{}
	if err := Forward(lt, cm, data); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if enters != 1 || leaves != 1 {
		t.Fatalf("enters=%d leaves=%d, want 1,1", enters, leaves)
	}

	seg, err := NewTimeSegment(data.events[0], data.events[1])
	if err != nil {
		t.Fatalf("NewTimeSegment: %v", err)
	}
	if seg.Duration() != 1.0 {
		t.Fatalf("duration = %v, want 1.0", seg.Duration())
	}
}

// S2 (call-stack): [Enter(1)@0, Enter(2)@1, Leave(2)@2, Leave(1)@3];
// get_cnode()-equivalent values at the four events are cp1, cp2, cp2, cp1.
func TestCallStackCallpathSequence(t *testing.T) {
	d := buildDefs(t, 2)
	lt := trace.NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	mustAppend(t, lt, event.NewEnter(1, 1))
	mustAppend(t, lt, event.NewLeave(2, 1))
	mustAppend(t, lt, event.NewLeave(3, 0))
	preprocessed(t, d, lt)

	var seen []defs.ID
	cm := NewCallbackManager()
	cm.Register(event.GroupAll, 0, func(_ *CallbackManager, _ int, ev Event, _ CallbackData) error {
		seen = append(seen, ev.Callpath())
		return nil
	})

	if err := Forward(lt, cm, &recordingData{}); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("saw %d callpaths, want 4", len(seen))
	}
	if seen[0] != seen[3] {
		t.Fatalf("outer enter/leave callpath mismatch: %d != %d", seen[0], seen[3])
	}
	if seen[1] != seen[2] {
		t.Fatalf("inner enter/leave callpath mismatch: %d != %d", seen[1], seen[2])
	}
	if seen[0] == seen[1] {
		t.Fatal("expected distinct outer/inner callpaths")
	}
}

// P5: in a forward replay, callback invocation timestamps are
// non-decreasing; in a backward replay, non-increasing.
func TestReplayMonotonicity(t *testing.T) {
	d := buildDefs(t, 3)
	lt := trace.NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	mustAppend(t, lt, event.NewEnter(1, 1))
	mustAppend(t, lt, event.NewEnter(2, 2))
	mustAppend(t, lt, event.NewLeave(3, 2))
	mustAppend(t, lt, event.NewLeave(4, 1))
	mustAppend(t, lt, event.NewLeave(5, 0))
	preprocessed(t, d, lt)

	var forwardTs []float64
	fcm := NewCallbackManager()
	fcm.Register(event.GroupAll, 0, func(_ *CallbackManager, _ int, ev Event, _ CallbackData) error {
		forwardTs = append(forwardTs, ev.Timestamp())
		return nil
	})
	if err := Forward(lt, fcm, &recordingData{}); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for i := 1; i < len(forwardTs); i++ {
		if forwardTs[i] < forwardTs[i-1] {
			t.Fatalf("forward timestamps not non-decreasing: %v", forwardTs)
		}
	}

	var backwardTs []float64
	bcm := NewCallbackManager()
	bcm.Register(event.GroupAll, 0, func(_ *CallbackManager, _ int, ev Event, _ CallbackData) error {
		backwardTs = append(backwardTs, ev.Timestamp())
		return nil
	})
	if err := Backward(lt, bcm, &recordingData{}); err != nil {
		t.Fatalf("Backward: %v", err)
	}
	for i := 1; i < len(backwardTs); i++ {
		if backwardTs[i] > backwardTs[i-1] {
			t.Fatalf("backward timestamps not non-increasing: %v", backwardTs)
		}
	}
	if len(forwardTs) != 6 || len(backwardTs) != 6 {
		t.Fatalf("expected 6 dispatches each way, got %d forward, %d backward", len(forwardTs), len(backwardTs))
	}
}

// P6: when event e is dispatched, every callback registered under
// e.getType() and every callback under each GROUP_* containing e runs
// exactly once per dispatch.
func TestDispatchFanOut(t *testing.T) {
	d := buildDefs(t, 1)
	lt := trace.NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	preprocessed(t, d, lt)

	var kindHits, allHits, enterHits int
	cm := NewCallbackManager()
	cm.Register(event.Enter, 0, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
		kindHits++
		return nil
	})
	cm.Register(event.GroupAll, 0, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
		allHits++
		return nil
	})
	cm.Register(event.GroupEnter, 0, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
		enterHits++
		return nil
	})
	// A callback for an unrelated predicate must not fire.
	var sendHits int
	cm.Register(event.GroupSend, 0, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
		sendHits++
		return nil
	})

	if err := ForwardRange(lt, cm, &recordingData{}, 0, 1); err != nil {
		t.Fatalf("ForwardRange: %v", err)
	}
	if kindHits != 1 || allHits != 1 || enterHits != 1 {
		t.Fatalf("kindHits=%d allHits=%d enterHits=%d, want 1,1,1", kindHits, allHits, enterHits)
	}
	if sendHits != 0 {
		t.Fatalf("sendHits=%d, want 0", sendHits)
	}
}

// Registrations added from inside a callback take effect starting with the
// next dispatch, never the one in progress.
func TestRegistrationDuringDispatchIsDeferred(t *testing.T) {
	d := buildDefs(t, 1)
	lt := trace.NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	mustAppend(t, lt, event.NewLeave(1, 0))
	preprocessed(t, d, lt)

	var lateHits int
	cm := NewCallbackManager()
	registered := false
	cm.Register(event.GroupEnter, 0, func(mgr *CallbackManager, _ int, _ Event, _ CallbackData) error {
		if !registered {
			registered = true
			mgr.Register(event.GroupAll, 1, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
				lateHits++
				return nil
			})
		}
		return nil
	})

	if err := Forward(lt, cm, &recordingData{}); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	// Registered during the Enter's own dispatch: must not fire for that
	// Enter, only for the Leave that follows.
	if lateHits != 1 {
		t.Fatalf("lateHits = %d, want 1", lateHits)
	}
}

// A callback returning an error aborts the replay; the driver propagates it
// unchanged.
func TestCallbackErrorAbortsReplay(t *testing.T) {
	d := buildDefs(t, 1)
	lt := trace.NewLocalTrace(0)
	mustAppend(t, lt, event.NewEnter(0, 0))
	mustAppend(t, lt, event.NewLeave(1, 0))
	preprocessed(t, d, lt)

	boom := perrors.New(perrors.RuntimeError, "callback aborted")
	cm := NewCallbackManager()
	var dispatches int
	cm.Register(event.GroupAll, 0, func(_ *CallbackManager, _ int, _ Event, _ CallbackData) error {
		dispatches++
		return boom
	})

	err := Forward(lt, cm, &recordingData{})
	if err == nil {
		t.Fatal("expected error")
	}
	if cat, ok := perrors.Categorize(err); !ok || cat != perrors.RuntimeError {
		t.Fatalf("error category = %v, want RuntimeError", cat)
	}
	if dispatches != 1 {
		t.Fatalf("dispatches = %d, want 1 (replay should have stopped)", dispatches)
	}
}
