package replay

import (
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/trace"
)

// callpathStack tracks the call-node a replay walk is currently inside of,
// letting each Event's Callpath() be a cached read rather than a re-derived
// lookup. Enter pushes its own (already-preprocessed) callpath, becoming
// current for its own dispatch and everything nested inside it; Leave's own
// callpath is current for its own dispatch, then pops back to the parent
// once the driver moves past it. A backward walk sees the same brackets in
// reverse, so the roles invert: the first of a pair encountered is a Leave,
// which pushes, and the bracket closes on the matching Enter, which pops.
type callpathStack struct {
	stack []defs.ID
}

func (s *callpathStack) current() defs.ID {
	if len(s.stack) == 0 {
		return defs.NoID
	}
	return s.stack[len(s.stack)-1]
}

// observe updates the stack for rec and returns the callpath to report as
// current for rec's own dispatch.
func (s *callpathStack) observe(rec event.Record, forward bool) defs.ID {
	holder, ok := rec.(event.HasRegionPayload)
	if !ok {
		return s.current()
	}
	cp, resolved := holder.RegionPayload().CallpathID()
	if !resolved {
		return s.current()
	}
	opens := rec.IsOfType(event.GroupEnter) == forward
	if opens {
		s.stack = append(s.stack, cp)
		return cp
	}
	current := cp
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
	return current
}

// Forward replays every event of lt in trace order, per spec.md §4.7.
func Forward(lt *trace.LocalTrace, cm *CallbackManager, data CallbackData) error {
	return ForwardRange(lt, cm, data, 0, lt.Len())
}

// ForwardRange replays events [from, to) of lt in trace order.
func ForwardRange(lt *trace.LocalTrace, cm *CallbackManager, data CallbackData, from, to int) error {
	stack := &callpathStack{}
	for idx := from; idx < to; idx++ {
		rec, err := lt.At(idx)
		if err != nil {
			return err
		}
		ev := Event{rec: rec, callpath: stack.observe(rec, true), index: idx}
		if err := data.Preprocess(ev); err != nil {
			return err
		}
		if err := cm.Dispatch(ev, data); err != nil {
			return err
		}
		if err := data.Postprocess(ev); err != nil {
			return err
		}
	}
	return nil
}

// Backward replays every event of lt in reverse trace order.
func Backward(lt *trace.LocalTrace, cm *CallbackManager, data CallbackData) error {
	return BackwardRange(lt, cm, data, lt.Len()-1, -1)
}

// BackwardRange replays events (to, from] of lt in reverse trace order
// (from the higher index down to, but not including, to).
func BackwardRange(lt *trace.LocalTrace, cm *CallbackManager, data CallbackData, from, to int) error {
	stack := &callpathStack{}
	for idx := from; idx > to; idx-- {
		rec, err := lt.At(idx)
		if err != nil {
			return err
		}
		ev := Event{rec: rec, callpath: stack.observe(rec, false), index: idx}
		if err := data.Preprocess(ev); err != nil {
			return err
		}
		if err := cm.Dispatch(ev, data); err != nil {
			return err
		}
		if err := data.Postprocess(ev); err != nil {
			return err
		}
	}
	return nil
}
