package defs

import "github.com/pearl-replay/pearl/buffer"

// ID is a dense, zero-based definition identifier. NoID means "no
// definition referenced".
type ID = uint32

// NoID is the reference value used whenever a definition field is absent.
const NoID ID = buffer.NoID

// Location describes one traced location (an MPI rank, a thread, ...).
type Location struct {
	ID       ID
	NameRef  ID // into the String table
	Type     string
	ParentID ID // NoID if this location has no parent
}

// Region describes a source-level scope (a function, a loop, a user region)
// traced by Enter/Leave events.
type Region struct {
	ID       ID
	NameRef  ID
	Paradigm Paradigm
}

// Callsite describes the specific call site an EnterCS event was recorded
// at, independent of the callpath reached through it.
type Callsite struct {
	ID      ID
	NameRef ID
	Line    uint32
}

// Callpath is a node in the global calltree: a dynamic invocation context
// identified by (Parent, Region). Callpaths form a forest; a Callpath whose
// Parent is NoID is a calltree root.
type Callpath struct {
	ID       ID
	ParentID ID
	RegionID ID
}

// GroupProperty classifies the member-rank list of a CommSet/Group.
type GroupProperty int

const (
	PropertyNone GroupProperty = iota
	PropertySelf
	PropertyWorld
	PropertyGlobalRanks
)

// Group is the member set of a communicator, independent of the
// communicator's own identity. Its rank list is either empty, self-only,
// world, or an explicit rank vector, per GroupProperty.
type Group struct {
	ID       ID
	NameRef  ID
	Property GroupProperty
	Ranks    []uint32 // explicit global ranks; meaningful only for PropertyGlobalRanks
}

// NumRanks returns the number of member ranks this group represents,
// resolving the PropertySelf/PropertyWorld special cases against worldSize.
func (g Group) NumRanks(worldSize int) int {
	switch g.Property {
	case PropertyNone:
		return 0
	case PropertySelf:
		return 1
	case PropertyWorld:
		return worldSize
	case PropertyGlobalRanks:
		return len(g.Ranks)
	default:
		return 0
	}
}

// Communicator is an ordered set of locations with a paradigm tag, used as
// the address space for collective and point-to-point operations.
type Communicator struct {
	ID       ID
	NameRef  ID
	Paradigm Paradigm
	GroupID  ID // member set reference
	ParentID ID // NoID if this communicator has no parent
}

// RmaWindow is a memory region exposed for one-sided access, bound to a
// communicator.
type RmaWindow struct {
	ID     ID
	CommID ID
}

// Metric describes one hardware-counter metric sampled alongside events.
type Metric struct {
	ID      ID
	NameRef ID
}
