package defs

import "github.com/pearl-replay/pearl/perrors"

// Builder assembles a GlobalDefs snapshot. It is the single entry point an
// external definition loader (OTF2/EPILOG decoding, or this module's own
// fixture package) uses to populate densely-numbered tables before replay
// begins; GlobalDefs itself is read-only once Build returns.
type Builder struct {
	d GlobalDefs
}

// NewBuilder returns an empty Builder with no world communicator/group
// designated yet.
func NewBuilder() *Builder {
	return &Builder{d: GlobalDefs{worldComm: NoID, worldGrp: NoID}}
}

// AddString appends a string to the string table, returning its dense id.
func (b *Builder) AddString(s string) ID {
	id := ID(len(b.d.strings))
	b.d.strings = append(b.d.strings, s)
	return id
}

// AddLocation appends a location, assigning it the next dense id. The id
// field of loc is overwritten with the assigned value and returned.
func (b *Builder) AddLocation(loc Location) ID {
	loc.ID = ID(len(b.d.locations))
	b.d.locations = append(b.d.locations, loc)
	return loc.ID
}

// AddRegion appends a region, assigning it the next dense id.
func (b *Builder) AddRegion(r Region) ID {
	r.ID = ID(len(b.d.regions))
	b.d.regions = append(b.d.regions, r)
	return r.ID
}

// AddCallsite appends a callsite, assigning it the next dense id.
func (b *Builder) AddCallsite(c Callsite) ID {
	c.ID = ID(len(b.d.callsites))
	b.d.callsites = append(b.d.callsites, c)
	return c.ID
}

// AddCallpath appends a callpath node, assigning it the next dense id. The
// parent (if any) must already exist. Preprocessing a trace creates callpath
// nodes on demand through GlobalDefs.EnsureCallpath instead.
func (b *Builder) AddCallpath(parentID, regionID ID) (ID, error) {
	if parentID != NoID && int(parentID) >= len(b.d.callpaths) {
		return NoID, perrors.New(perrors.UnknownDefinition, "callpath parent %d does not exist", parentID)
	}
	id := ID(len(b.d.callpaths))
	b.d.callpaths = append(b.d.callpaths, Callpath{ID: id, ParentID: parentID, RegionID: regionID})
	return id, nil
}

// AddGroup appends a group (CommSet), assigning it the next dense id. If
// markWorld is true, this group becomes the GlobalDefs' designated world
// group (WorldGroup()); at most one group should be so marked.
func (b *Builder) AddGroup(g Group, markWorld bool) ID {
	g.ID = ID(len(b.d.groups))
	b.d.groups = append(b.d.groups, g)
	if markWorld {
		b.d.worldGrp = g.ID
	}
	return g.ID
}

// AddCommunicator appends a communicator, assigning it the next dense id. If
// markWorld is true, this communicator becomes the GlobalDefs' designated
// world communicator (WorldComm()).
func (b *Builder) AddCommunicator(c Communicator, markWorld bool) (ID, error) {
	if int(c.GroupID) >= len(b.d.groups) {
		return NoID, perrors.New(perrors.UnknownDefinition, "communicator group %d does not exist", c.GroupID)
	}
	c.ID = ID(len(b.d.comms))
	b.d.comms = append(b.d.comms, c)
	if markWorld {
		b.d.worldComm = c.ID
	}
	return c.ID, nil
}

// AddRmaWindow appends an RMA window, assigning it the next dense id.
func (b *Builder) AddRmaWindow(w RmaWindow) (ID, error) {
	if int(w.CommID) >= len(b.d.comms) {
		return NoID, perrors.New(perrors.UnknownDefinition, "RMA window communicator %d does not exist", w.CommID)
	}
	w.ID = ID(len(b.d.windows))
	b.d.windows = append(b.d.windows, w)
	return w.ID, nil
}

// AddMetric appends a metric, assigning it the next dense id.
func (b *Builder) AddMetric(m Metric) ID {
	m.ID = ID(len(b.d.metrics))
	b.d.metrics = append(b.d.metrics, m)
	return m.ID
}

// Build finalizes and returns the assembled, read-only GlobalDefs. The
// Builder must not be reused afterwards.
func (b *Builder) Build() *GlobalDefs {
	d := b.d
	return &d
}
