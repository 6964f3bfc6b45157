// Package defs implements GlobalDefs (C2 of the design): the
// densely-indexed catalogue of definitions — locations, regions, callsites,
// callpaths, communicators, groups, RMA windows and metrics — that every
// traced event's references resolve against.
//
// GlobalDefs is read-only after construction (via Builder), except that
// EnsureCallpath appends callpath nodes during preprocessing. Lookups are by
// dense id in O(1); an unresolvable id raises perrors.UnknownDefinition.
package defs

import "github.com/pearl-replay/pearl/perrors"

// GlobalDefs is the read-only, unified catalogue of definitions for one
// trace. The external definition loader (out of scope for this core) is
// responsible for populating one via Builder before replay begins.
type GlobalDefs struct {
	strings   []string
	locations []Location
	regions   []Region
	callsites []Callsite
	callpaths []Callpath
	groups    []Group
	comms     []Communicator
	windows   []RmaWindow
	metrics   []Metric

	worldComm ID
	worldGrp  ID

	callpathIndex map[callpathKey]ID
}

type callpathKey struct {
	parent ID
	region ID
}

// String resolves a string-table reference.
func (d *GlobalDefs) String(id ID) (string, error) {
	if id == NoID || int(id) >= len(d.strings) {
		return "", perrors.New(perrors.UnknownDefinition, "unknown string id %d", id)
	}
	return d.strings[id], nil
}

// Location resolves a location reference.
func (d *GlobalDefs) Location(id ID) (*Location, error) {
	if id == NoID || int(id) >= len(d.locations) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown location id %d", id)
	}
	return &d.locations[id], nil
}

// NumLocations returns the number of defined locations.
func (d *GlobalDefs) NumLocations() int { return len(d.locations) }

// Region resolves a region reference.
func (d *GlobalDefs) Region(id ID) (*Region, error) {
	if id == NoID || int(id) >= len(d.regions) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown region id %d", id)
	}
	return &d.regions[id], nil
}

// Callsite resolves a callsite reference.
func (d *GlobalDefs) Callsite(id ID) (*Callsite, error) {
	if id == NoID || int(id) >= len(d.callsites) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown callsite id %d", id)
	}
	return &d.callsites[id], nil
}

// Callpath resolves a callpath reference.
func (d *GlobalDefs) Callpath(id ID) (*Callpath, error) {
	if id == NoID || int(id) >= len(d.callpaths) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown callpath id %d", id)
	}
	return &d.callpaths[id], nil
}

// NumCallpaths returns the number of callpath nodes currently defined.
func (d *GlobalDefs) NumCallpaths() int { return len(d.callpaths) }

// EnsureCallpath returns the dense id of the Callpath node for (parent,
// region), creating one on first use. This is the one mutation GlobalDefs
// permits after construction: trace.Preprocess calls it to build the
// calltree lazily as each location's enter/leave stream is walked, per
// spec.md §4.4 ("creating callpath nodes on demand").
func (d *GlobalDefs) EnsureCallpath(parent, region ID) (ID, error) {
	if parent != NoID {
		if _, err := d.Callpath(parent); err != nil {
			return NoID, err
		}
	}
	if _, err := d.Region(region); err != nil {
		return NoID, err
	}
	if d.callpathIndex == nil {
		d.callpathIndex = make(map[callpathKey]ID, len(d.callpaths))
		for _, cp := range d.callpaths {
			d.callpathIndex[callpathKey{cp.ParentID, cp.RegionID}] = cp.ID
		}
	}
	key := callpathKey{parent, region}
	if id, ok := d.callpathIndex[key]; ok {
		return id, nil
	}
	id := ID(len(d.callpaths))
	d.callpaths = append(d.callpaths, Callpath{ID: id, ParentID: parent, RegionID: region})
	d.callpathIndex[key] = id
	return id, nil
}

// Group resolves a group (CommSet) reference.
func (d *GlobalDefs) Group(id ID) (*Group, error) {
	if id == NoID || int(id) >= len(d.groups) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown group id %d", id)
	}
	return &d.groups[id], nil
}

// Communicator resolves a communicator reference.
func (d *GlobalDefs) Communicator(id ID) (*Communicator, error) {
	if id == NoID || int(id) >= len(d.comms) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown communicator id %d", id)
	}
	return &d.comms[id], nil
}

// RmaWindow resolves an RMA window reference.
func (d *GlobalDefs) RmaWindow(id ID) (*RmaWindow, error) {
	if id == NoID || int(id) >= len(d.windows) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown RMA window id %d", id)
	}
	return &d.windows[id], nil
}

// Metric resolves a metric reference.
func (d *GlobalDefs) Metric(id ID) (*Metric, error) {
	if id == NoID || int(id) >= len(d.metrics) {
		return nil, perrors.New(perrors.UnknownDefinition, "unknown metric id %d", id)
	}
	return &d.metrics[id], nil
}

// Metrics returns the ordered list of all defined metrics, used to interpret
// the positional MetricValues vector carried by events.
func (d *GlobalDefs) Metrics() []Metric {
	return d.metrics
}

// CalltreeRoots returns the ids of all callpaths whose parent is NoID, i.e.
// the roots of the calltree forest.
func (d *GlobalDefs) CalltreeRoots() []ID {
	var roots []ID
	for _, cp := range d.callpaths {
		if cp.ParentID == NoID {
			roots = append(roots, cp.ID)
		}
	}
	return roots
}

// WorldComm returns the designated "world" communicator, i.e. the one whose
// group has PropertyWorld. Returns perrors.UnknownDefinition if none has
// been marked as such.
func (d *GlobalDefs) WorldComm() (*Communicator, error) {
	if d.worldComm == NoID {
		return nil, perrors.New(perrors.UnknownDefinition, "no world communicator defined")
	}
	return d.Communicator(d.worldComm)
}

// WorldGroup returns the designated "world" group, i.e. the one with
// PropertyWorld. Returns perrors.UnknownDefinition if none has been marked
// as such.
func (d *GlobalDefs) WorldGroup() (*Group, error) {
	if d.worldGrp == NoID {
		return nil, perrors.New(perrors.UnknownDefinition, "no world group defined")
	}
	return d.Group(d.worldGrp)
}

// RegionName resolves a region's human-readable name through the string
// table, returning "<unknown>" rather than an error for display purposes.
func (d *GlobalDefs) RegionName(id ID) string {
	r, err := d.Region(id)
	if err != nil {
		return "<unknown>"
	}
	s, err := d.String(r.NameRef)
	if err != nil {
		return "<unknown>"
	}
	return s
}
