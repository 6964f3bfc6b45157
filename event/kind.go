// Package event implements the closed, extensible-by-variant event-record
// family traced parallel programs are made of (C3 of the design): Enter/
// Leave pairs, MPI point-to-point and collective operations, RMA, and
// threading events, plus the GROUP_* predicates used for O(1) callback
// dispatch.
package event

// Kind is the dense classification of an event record. The concrete Kind
// values (Enter .. ThreadWait) are the only values ever returned by a
// Record's Kind() method; the Group* values are predicates tested via
// Record.IsOfType, never a record's own primary classification.
type Kind uint8

const (
	Enter Kind = iota
	EnterCS
	EnterProgram
	Leave
	LeaveProgram

	MpiSend
	MpiRecv
	MpiSendRequest
	MpiReceiveRequest
	MpiSendComplete
	MpiReceiveComplete
	MpiRequestTested
	MpiCancelled

	MpiCollBegin
	MpiCollEnd

	RmaPutStart
	RmaPutEnd
	RmaGetStart
	RmaGetEnd

	MpiRmaPutStart
	MpiRmaPutEnd
	MpiRmaGetStart
	MpiRmaGetEnd
	MpiRmaGats
	MpiRmaCollBegin
	MpiRmaCollEnd
	MpiRmaLock
	MpiRmaUnlock

	ThreadFork
	ThreadJoin
	ThreadTeamBegin
	ThreadTeamEnd
	ThreadAcquireLock
	ThreadReleaseLock
	ThreadTaskCreate
	ThreadTaskComplete
	ThreadTaskSwitch
	ThreadBegin
	ThreadEnd
	ThreadCreate
	ThreadWait

	numConcreteKinds
)

// GROUP_* pseudo-types: predicates over the concrete kinds above, never
// returned by a Record's Kind() method. Numbered well past any plausible
// concrete kind count so the two ranges can never collide.
const (
	GroupAll Kind = 100 + iota
	GroupEnter
	GroupLeave
	GroupSend
	GroupRecv
	GroupBegin
	GroupEnd
	GroupNonblock
)

var kindNames = map[Kind]string{
	Enter:              "ENTER",
	EnterCS:            "ENTER_CS",
	EnterProgram:       "ENTER_PROGRAM",
	Leave:              "LEAVE",
	LeaveProgram:       "LEAVE_PROGRAM",
	MpiSend:            "MPI_SEND",
	MpiRecv:            "MPI_RECV",
	MpiSendRequest:     "MPI_SEND_REQUEST",
	MpiReceiveRequest:  "MPI_RECV_REQUEST",
	MpiSendComplete:    "MPI_SEND_COMPLETE",
	MpiReceiveComplete: "MPI_RECV_COMPLETE",
	MpiRequestTested:   "MPI_REQUEST_TESTED",
	MpiCancelled:       "MPI_CANCELLED",
	MpiCollBegin:       "MPI_COLLECTIVE_BEGIN",
	MpiCollEnd:         "MPI_COLLECTIVE_END",
	RmaPutStart:        "RMA_PUT_START",
	RmaPutEnd:          "RMA_PUT_END",
	RmaGetStart:        "RMA_GET_START",
	RmaGetEnd:          "RMA_GET_END",
	MpiRmaPutStart:     "MPI_RMA_PUT_START",
	MpiRmaPutEnd:       "MPI_RMA_PUT_END",
	MpiRmaGetStart:     "MPI_RMA_GET_START",
	MpiRmaGetEnd:       "MPI_RMA_GET_END",
	MpiRmaGats:         "MPI_RMA_GATS",
	MpiRmaCollBegin:    "MPI_RMA_COLLECTIVE_BEGIN",
	MpiRmaCollEnd:      "MPI_RMA_COLLECTIVE_END",
	MpiRmaLock:         "MPI_RMA_LOCK",
	MpiRmaUnlock:       "MPI_RMA_UNLOCK",
	ThreadFork:         "THREAD_FORK",
	ThreadJoin:         "THREAD_JOIN",
	ThreadTeamBegin:    "THREAD_TEAM_BEGIN",
	ThreadTeamEnd:      "THREAD_TEAM_END",
	ThreadAcquireLock:  "THREAD_ACQUIRE_LOCK",
	ThreadReleaseLock:  "THREAD_RELEASE_LOCK",
	ThreadTaskCreate:   "THREAD_TASK_CREATE",
	ThreadTaskComplete: "THREAD_TASK_COMPLETE",
	ThreadTaskSwitch:   "THREAD_TASK_SWITCH",
	ThreadBegin:        "THREAD_BEGIN",
	ThreadEnd:          "THREAD_END",
	ThreadCreate:       "THREAD_CREATE",
	ThreadWait:         "THREAD_WAIT",
	GroupAll:           "GROUP_ALL",
	GroupEnter:         "GROUP_ENTER",
	GroupLeave:         "GROUP_LEAVE",
	GroupSend:          "GROUP_SEND",
	GroupRecv:          "GROUP_RECV",
	GroupBegin:         "GROUP_BEGIN",
	GroupEnd:           "GROUP_END",
	GroupNonblock:      "GROUP_NONBLOCK",
}

// String renders the event type's symbolic name, matching spec.md's
// event_t enumerator names.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// membership flags classifying each concrete Kind for O(1) GROUP_* tests.
const (
	flagEnter = 1 << iota
	flagLeave
	flagSend
	flagRecv
	flagBegin
	flagEnd
	flagNonblock
)

var kindFlags = map[Kind]uint8{
	Enter:              flagEnter,
	EnterCS:            flagEnter,
	EnterProgram:       flagEnter,
	Leave:              flagLeave,
	LeaveProgram:       flagLeave,
	MpiSend:            flagSend,
	MpiRecv:            flagRecv,
	MpiSendRequest:     flagSend | flagNonblock,
	MpiReceiveRequest:  flagNonblock,
	MpiSendComplete:    flagNonblock,
	MpiReceiveComplete: flagRecv | flagNonblock,
	MpiRequestTested:   flagNonblock,
	MpiCancelled:       flagNonblock,
	RmaPutEnd:          flagEnd,
	RmaGetEnd:          flagEnd,
	MpiRmaPutEnd:       flagEnd,
	MpiRmaGetEnd:       flagEnd,
	MpiCollBegin:       flagBegin,
	MpiCollEnd:         flagEnd,
	MpiRmaCollBegin:    flagBegin,
	MpiRmaCollEnd:      flagEnd,
	ThreadTeamBegin:    flagBegin,
	ThreadTeamEnd:      flagEnd,
	ThreadBegin:        flagBegin,
	ThreadEnd:          flagEnd,
}

// IsOfType reports whether the event classified as k satisfies the type
// predicate t: true when t equals k itself, or t is a GROUP_* predicate
// whose membership set contains k. Matches spec.md's
// `isOfType(t) ⇔ getType() ∈ members(t)` invariant (P2) for every
// concrete/group pairing.
func (k Kind) IsOfType(t Kind) bool {
	if k == t {
		return true
	}
	switch t {
	case GroupAll:
		return true
	case GroupEnter:
		return kindFlags[k]&flagEnter != 0
	case GroupLeave:
		return kindFlags[k]&flagLeave != 0
	case GroupSend:
		return kindFlags[k]&flagSend != 0
	case GroupRecv:
		return kindFlags[k]&flagRecv != 0
	case GroupBegin:
		return kindFlags[k]&flagBegin != 0
	case GroupEnd:
		return kindFlags[k]&flagEnd != 0
	case GroupNonblock:
		return kindFlags[k]&flagNonblock != 0
	default:
		return false
	}
}

// IsGroup reports whether k is one of the GROUP_* predicate pseudo-types
// rather than a concrete event kind.
func (k Kind) IsGroup() bool {
	return k >= GroupAll
}

// AllGroups returns every GROUP_* predicate kind, in a stable order, for use
// by CallbackManager when fanning out registrations/dispatch.
func AllGroups() []Kind {
	return []Kind{GroupAll, GroupEnter, GroupLeave, GroupSend, GroupRecv, GroupBegin, GroupEnd, GroupNonblock}
}

// AllConcreteKinds returns every concrete (non-group) event kind, in a
// stable order matching their wire-format discriminant byte.
func AllConcreteKinds() []Kind {
	kinds := make([]Kind, 0, numConcreteKinds)
	for k := Kind(0); k < numConcreteKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
