package task_test

import (
	"testing"

	"github.com/pearl-replay/pearl/perrors"
	"github.com/pearl-replay/pearl/task"
)

type stepTask struct {
	ran bool
	err error
}

func (s *stepTask) Execute() error {
	s.ran = true
	return s.err
}

// S6 (compound pipeline): CompoundTask[T1, T2_fails, T3]. Expected: T1 runs,
// T2 runs and fails, T3 does not run, Execute() returns a non-nil error, and
// CurrentStep()==1.
func TestCompoundTaskStopsAtFirstFailure(t *testing.T) {
	t1 := &stepTask{}
	t2 := &stepTask{err: perrors.New(perrors.RuntimeError, "t2 fails")}
	t3 := &stepTask{}

	ct := task.NewCompoundTask()
	ct.Add(t1)
	ct.Add(t2)
	ct.Add(t3)

	err := ct.Execute()
	if err == nil {
		t.Fatal("Execute() = nil, want an error from T2")
	}
	if !t1.ran {
		t.Error("T1 did not run")
	}
	if !t2.ran {
		t.Error("T2 did not run")
	}
	if t3.ran {
		t.Error("T3 ran, want it skipped after T2 failed")
	}
	if ct.CurrentStep() != 1 {
		t.Errorf("CurrentStep() = %d, want 1", ct.CurrentStep())
	}
}

// P7 (CompoundTask atomicity): finish() still runs iff prepare() succeeded,
// even when a child fails.
func TestCompoundTaskFinishRunsAfterChildFailure(t *testing.T) {
	finished := false
	ct := task.NewCompoundTask()
	ct.FinishFunc = func() error {
		finished = true
		return nil
	}
	ct.Add(&stepTask{err: perrors.New(perrors.RuntimeError, "boom")})

	if err := ct.Execute(); err == nil {
		t.Fatal("Execute() = nil, want an error")
	}
	if !finished {
		t.Error("finish() did not run after a child failed")
	}
}

// P7: a failing prepare() aborts the whole task before any child, or
// finish(), runs.
func TestCompoundTaskPrepareFailureSkipsChildrenAndFinish(t *testing.T) {
	child := &stepTask{}
	finished := false
	ct := task.NewCompoundTask()
	ct.PrepareFunc = func() error { return perrors.New(perrors.RuntimeError, "prepare failed") }
	ct.FinishFunc = func() error {
		finished = true
		return nil
	}
	ct.Add(child)

	if err := ct.Execute(); err == nil {
		t.Fatal("Execute() = nil, want the prepare() error")
	}
	if child.ran {
		t.Error("child ran despite prepare() failing")
	}
	if finished {
		t.Error("finish() ran despite prepare() failing")
	}
}

// Children may themselves be compound, forming a tree with a back-pointer
// to their parent.
func TestCompoundTaskNestingSetsParent(t *testing.T) {
	parent := task.NewCompoundTask()
	child := task.NewCompoundTask()
	parent.Add(child)

	if child.Parent != parent {
		t.Error("nested CompoundTask's Parent was not set to its owner")
	}
}
