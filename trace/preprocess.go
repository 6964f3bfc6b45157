package trace

import (
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/perrors"
)

// Preprocess runs the second privileged pass over lt, per spec.md §4.4:
//   - every Enter/Leave's raw region reference is rewritten in place to the
//     unique Callpath reached by descending/ascending the call stack,
//     creating Callpath nodes in d on demand (defs.GlobalDefs.EnsureCallpath);
//   - every non-blocking request (MpiSendRequest/MpiReceiveRequest) is
//     linked by request id to its completion (MpiSendComplete/
//     MpiReceiveComplete), in both directions, via relative index offsets
//     (P4, exercised by scenario S3).
//
// Preprocess does not itself require VerifyCalltree to have run first, but
// callers invoke the two in sequence (verify, then preprocess) since a
// malformed calltree makes callpath assignment meaningless.
func Preprocess(lt *LocalTrace, d *defs.GlobalDefs) error {
	access := grantPreprocessAccess()

	var stack []defs.ID // callpath ids, innermost last
	pending := map[uint64]int{} // request id -> index of its unmatched post

	for it := lt.Begin(); it.Valid(); it = it.Next() {
		idx := it.Index()
		rec := it.Event()

		switch {
		case rec.IsOfType(event.GroupEnter):
			holder, ok := rec.(event.HasRegionPayload)
			if !ok {
				return perrors.New(perrors.RuntimeError,
					"location %d: enter event at index %d has no region payload", lt.location, idx)
			}
			region, ok := holder.RegionPayload().RegionID()
			if !ok {
				return perrors.New(perrors.RuntimeError,
					"location %d: enter event at index %d already preprocessed twice", lt.location, idx)
			}
			var parent defs.ID = defs.NoID
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			cp, err := d.EnsureCallpath(parent, region)
			if err != nil {
				return err
			}
			lt.setRegionPayloadAt(access, idx, cp)
			stack = append(stack, cp)

		case rec.IsOfType(event.GroupLeave):
			holder, ok := rec.(event.HasRegionPayload)
			if !ok {
				return perrors.New(perrors.RuntimeError,
					"location %d: leave event at index %d has no region payload", lt.location, idx)
			}
			if len(stack) == 0 {
				return perrors.New(perrors.CalltreeViolation,
					"location %d: leave at index %d has no matching open enter", lt.location, idx)
			}
			cp := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := holder.RegionPayload().RegionID(); !ok {
				return perrors.New(perrors.RuntimeError,
					"location %d: leave event at index %d already preprocessed twice", lt.location, idx)
			}
			lt.setRegionPayloadAt(access, idx, cp)
		}

		switch rec.Kind() {
		case event.MpiSendRequest, event.MpiReceiveRequest:
			if h, ok := rec.(event.HasRequestID); ok {
				pending[h.ReqID()] = idx
			}
		case event.MpiSendComplete, event.MpiReceiveComplete:
			if h, ok := rec.(event.HasRequestID); ok {
				if requestIdx, ok := pending[h.ReqID()]; ok {
					lt.linkRequest(access, requestIdx, idx)
					delete(pending, h.ReqID())
				}
			}
		}
	}

	if len(stack) != 0 {
		return perrors.New(perrors.CalltreeViolation,
			"location %d: %d enter(s) left unclosed at end of trace", lt.location, len(stack))
	}

	lt.markPreprocessed(access)
	return nil
}
