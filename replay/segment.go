package replay

import (
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/perrors"
)

// TimeSegment wraps a matched Enter/Leave pair read from one LocalTrace,
// exposing the region's callpath and its [start, end) interval, per
// spec.md §4.5.
type TimeSegment struct {
	enter Event
	leave Event
}

// NewTimeSegment validates and wraps enter/leave into a TimeSegment. enter
// must satisfy GROUP_ENTER, leave must satisfy GROUP_LEAVE, and
// enter.Timestamp() must not exceed leave.Timestamp().
func NewTimeSegment(enter, leave Event) (TimeSegment, error) {
	if !enter.rec.IsOfType(event.GroupEnter) {
		return TimeSegment{}, perrors.New(perrors.RuntimeError, "TimeSegment: enter event is not GROUP_ENTER (kind %v)", enter.Kind())
	}
	if !leave.rec.IsOfType(event.GroupLeave) {
		return TimeSegment{}, perrors.New(perrors.RuntimeError, "TimeSegment: leave event is not GROUP_LEAVE (kind %v)", leave.Kind())
	}
	if enter.Timestamp() > leave.Timestamp() {
		return TimeSegment{}, perrors.New(perrors.RuntimeError,
			"TimeSegment: enter timestamp %.6f exceeds leave timestamp %.6f", enter.Timestamp(), leave.Timestamp())
	}
	return TimeSegment{enter: enter, leave: leave}, nil
}

// Callpath returns the segment's call-node, shared by its enter and leave.
func (s TimeSegment) Callpath() defs.ID { return s.enter.Callpath() }

// Start returns the segment's start timestamp (the enter event's).
func (s TimeSegment) Start() float64 { return s.enter.Timestamp() }

// End returns the segment's end timestamp (the leave event's).
func (s TimeSegment) End() float64 { return s.leave.Timestamp() }

// Duration returns End() - Start().
func (s TimeSegment) Duration() float64 { return s.End() - s.Start() }

// Enter returns the segment's underlying Enter-kind event.
func (s TimeSegment) Enter() Event { return s.enter }

// Leave returns the segment's underlying Leave-kind event.
func (s TimeSegment) Leave() Event { return s.leave }

// TimeSegments orders a slice of TimeSegment by start time, giving the
// total order spec.md §4.5 requires.
type TimeSegments []TimeSegment

func (s TimeSegments) Len() int           { return len(s) }
func (s TimeSegments) Less(i, j int) bool { return s[i].Start() < s[j].Start() }
func (s TimeSegments) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// RemoteTimeSegment mirrors TimeSegment for a pair of RemoteEvent handles
// decoded off the wire rather than read from a local trace.
type RemoteTimeSegment struct {
	enter RemoteEvent
	leave RemoteEvent
}

// NewRemoteTimeSegment validates and wraps enter/leave, under the same
// preconditions as NewTimeSegment.
func NewRemoteTimeSegment(enter, leave RemoteEvent) (RemoteTimeSegment, error) {
	if !enter.rec.IsOfType(event.GroupEnter) {
		return RemoteTimeSegment{}, perrors.New(perrors.RuntimeError, "RemoteTimeSegment: enter event is not GROUP_ENTER (kind %v)", enter.rec.Kind())
	}
	if !leave.rec.IsOfType(event.GroupLeave) {
		return RemoteTimeSegment{}, perrors.New(perrors.RuntimeError, "RemoteTimeSegment: leave event is not GROUP_LEAVE (kind %v)", leave.rec.Kind())
	}
	if enter.Timestamp() > leave.Timestamp() {
		return RemoteTimeSegment{}, perrors.New(perrors.RuntimeError,
			"RemoteTimeSegment: enter timestamp %.6f exceeds leave timestamp %.6f", enter.Timestamp(), leave.Timestamp())
	}
	return RemoteTimeSegment{enter: enter, leave: leave}, nil
}

// Callpath returns the segment's call-node.
func (s RemoteTimeSegment) Callpath() defs.ID { return s.enter.Callpath() }

// Start returns the segment's start timestamp.
func (s RemoteTimeSegment) Start() float64 { return s.enter.Timestamp() }

// End returns the segment's end timestamp.
func (s RemoteTimeSegment) End() float64 { return s.leave.Timestamp() }

// Duration returns End() - Start().
func (s RemoteTimeSegment) Duration() float64 { return s.End() - s.Start() }

// RemoteTimeSegments orders a slice of RemoteTimeSegment by start time.
type RemoteTimeSegments []RemoteTimeSegment

func (s RemoteTimeSegments) Len() int           { return len(s) }
func (s RemoteTimeSegments) Less(i, j int) bool { return s[i].Start() < s[j].Start() }
func (s RemoteTimeSegments) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
