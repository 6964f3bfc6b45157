// Package task implements CompoundTask (C8): a sequenceable unit of work
// with prepare/execute/finish phases and parent linkage, generalizing the
// teacher's Coordinator.Start prepare/track/execute/finalize lifecycle
// (components/coordinator.go) into a reusable tree instead of one hard-coded
// pipeline.
package task

// Task is one step of a CompoundTask; Execute returning a non-nil error
// aborts the surrounding CompoundTask. The interface has Execute only: the
// prepare and finish phases exist solely as CompoundTask's PrepareFunc and
// FinishFunc hooks, not as methods of every Task.
type Task interface {
	Execute() error
}

// CompoundTask owns an ordered list of child Tasks and runs them in
// insertion order, tracking which one is in flight via CurrentStep. Parent
// is the tree's back-pointer, set automatically when a CompoundTask is
// added as another CompoundTask's child.
type CompoundTask struct {
	Parent *CompoundTask

	// PrepareFunc and FinishFunc are the hooks spec.md calls prepare()/
	// finish(); either may be left nil for a pipeline stage with no
	// setup/teardown of its own.
	PrepareFunc func() error
	FinishFunc  func() error

	children    []Task
	currentStep int
}

// NewCompoundTask returns an empty CompoundTask ready to accept children.
func NewCompoundTask() *CompoundTask {
	return &CompoundTask{currentStep: -1}
}

// Add appends child to the task's children, taking ownership of it: if
// child is itself a *CompoundTask, its Parent is set to this task.
func (c *CompoundTask) Add(child Task) {
	c.children = append(c.children, child)
	if nested, ok := child.(*CompoundTask); ok {
		nested.Parent = c
	}
}

// CurrentStep returns the index of the child currently executing, or the
// last child attempted if Execute has returned. -1 before Execute has run.
func (c *CompoundTask) CurrentStep() int {
	return c.currentStep
}

// Execute runs prepare(), then each child in insertion order, stopping at
// the first child that fails; finish() always runs afterward provided
// prepare() succeeded, regardless of whether a child failed. The first
// error encountered, from either a child or finish(), is returned.
func (c *CompoundTask) Execute() error {
	if c.PrepareFunc != nil {
		if err := c.PrepareFunc(); err != nil {
			return err
		}
	}

	var failure error
	for i, child := range c.children {
		c.currentStep = i
		if err := child.Execute(); err != nil {
			failure = err
			break
		}
	}

	if c.FinishFunc != nil {
		if err := c.FinishFunc(); err != nil && failure == nil {
			failure = err
		}
	}
	return failure
}
