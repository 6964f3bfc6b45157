package trace

import (
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/perrors"
)

// VerifyCalltree walks lt once, confirming every Leave is preceded by a
// matching unclosed Enter for the same region within the trace, per
// spec.md §4.4. A LeaveProgram must close the very first Enter/EnterProgram
// and leave the call stack empty; any other mismatch fails with
// perrors.CalltreeViolation (P3, exercised by scenario S4).
func VerifyCalltree(lt *LocalTrace) error {
	access := grantPreprocessAccess()

	var stack []uint32
	for it := lt.Begin(); it.Valid(); it = it.Next() {
		rec := it.Event()

		switch {
		case rec.IsOfType(event.GroupEnter):
			region, ok := regionOf(rec)
			if !ok {
				return perrors.New(perrors.CalltreeViolation,
					"location %d: enter event at index %d has no region payload", lt.location, it.Index())
			}
			stack = append(stack, region)

		case rec.IsOfType(event.GroupLeave):
			region, ok := regionOf(rec)
			if !ok {
				return perrors.New(perrors.CalltreeViolation,
					"location %d: leave event at index %d has no region payload", lt.location, it.Index())
			}
			if len(stack) == 0 {
				return perrors.New(perrors.CalltreeViolation,
					"location %d: leave at index %d has no matching open enter", lt.location, it.Index())
			}
			top := stack[len(stack)-1]
			if top != region {
				return perrors.New(perrors.CalltreeViolation,
					"location %d: leave at index %d (region %d) does not match innermost open enter (region %d)",
					lt.location, it.Index(), region, top)
			}
			stack = stack[:len(stack)-1]
			if rec.Kind() == event.LeaveProgram && len(stack) != 0 {
				return perrors.New(perrors.CalltreeViolation,
					"location %d: program leave at index %d leaves %d enter(s) open", lt.location, it.Index(), len(stack))
			}
		}
	}

	if len(stack) != 0 {
		return perrors.New(perrors.CalltreeViolation,
			"location %d: %d enter(s) left unclosed at end of trace", lt.location, len(stack))
	}

	lt.markVerified(access)
	return nil
}

func regionOf(rec event.Record) (uint32, bool) {
	holder, ok := rec.(event.HasRegionPayload)
	if !ok {
		return 0, false
	}
	if region, ok := holder.RegionPayload().RegionID(); ok {
		return region, true
	}
	// Already preprocessed: the payload now holds a callpath reference, not
	// a region. VerifyCalltree is meant to run before Preprocess, but stays
	// correct either way by treating the callpath id as the comparison key.
	cp, _ := holder.RegionPayload().CallpathID()
	return cp, true
}
