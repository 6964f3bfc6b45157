package task

import (
	"github.com/pearl-replay/pearl/replay"
	"github.com/pearl-replay/pearl/trace"
)

// ReplayTask wraps a single forward or backward walk of a LocalTrace as one
// CompoundTask pipeline step, per SPEC_FULL.md's generalization of the
// teacher's Partition-Compute-Accumulate pattern into sequenceable analysis
// steps.
type ReplayTask struct {
	lt      *trace.LocalTrace
	cm      *replay.CallbackManager
	data    replay.CallbackData
	forward bool
}

// NewReplayTask returns a Task that replays lt through cm/data once,
// forward if forward is true, backward otherwise.
func NewReplayTask(lt *trace.LocalTrace, cm *replay.CallbackManager, data replay.CallbackData, forward bool) *ReplayTask {
	return &ReplayTask{lt: lt, cm: cm, data: data, forward: forward}
}

func (t *ReplayTask) Execute() error {
	if t.forward {
		return replay.Forward(t.lt, t.cm, t.data)
	}
	return replay.Backward(t.lt, t.cm, t.data)
}
