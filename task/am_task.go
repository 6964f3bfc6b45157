package task

import (
	"context"

	"github.com/pearl-replay/pearl/am"
)

// AmProgressTask wraps one am.Runtime.Progress drain as a CompoundTask
// pipeline step, letting a pipeline interleave replay steps with rounds of
// active-message traffic.
type AmProgressTask struct {
	ctx context.Context
	rt  *am.Runtime
}

// NewAmProgressTask returns a Task that drains a single Progress round on
// rt when executed.
func NewAmProgressTask(ctx context.Context, rt *am.Runtime) *AmProgressTask {
	return &AmProgressTask{ctx: ctx, rt: rt}
}

func (t *AmProgressTask) Execute() error {
	return t.rt.Progress(t.ctx)
}
