package event

import (
	"strings"
	"testing"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
)

// buildFixtureDefs assembles a minimal GlobalDefs with one of everything a
// concrete event kind might reference, so every variant's unpackFields can
// validate its references without UnknownDefinition errors.
func buildFixtureDefs(t *testing.T) *defs.GlobalDefs {
	t.Helper()
	b := defs.NewBuilder()
	region := b.AddRegion(defs.Region{Paradigm: defs.ParadigmMPI})
	b.AddCallsite(defs.Callsite{Line: 42})
	cp, err := b.AddCallpath(defs.NoID, region)
	if err != nil {
		t.Fatalf("AddCallpath: %v", err)
	}
	grp := b.AddGroup(defs.Group{Property: defs.PropertyWorld}, true)
	comm, err := b.AddCommunicator(defs.Communicator{Paradigm: defs.ParadigmMPI, GroupID: grp}, true)
	if err != nil {
		t.Fatalf("AddCommunicator: %v", err)
	}
	if _, err := b.AddRmaWindow(defs.RmaWindow{CommID: comm}); err != nil {
		t.Fatalf("AddRmaWindow: %v", err)
	}
	b.AddLocation(defs.Location{ParentID: defs.NoID})
	_ = cp
	return b.Build()
}

// fixtures returns one sample Record per concrete Kind, built against d's
// dense ids (all zero, since buildFixtureDefs adds exactly one of each
// table entry).
func fixtures(d *defs.GlobalDefs) []Record {
	const region = defs.ID(0)
	const callsite = defs.ID(0)
	const callpath = defs.ID(0)
	const comm = defs.ID(0)
	const window = defs.ID(0)
	const group = defs.ID(0)
	const team = defs.ID(0)

	return []Record{
		NewEnter(1.0, region),
		NewEnterCS(1.0, region, callsite),
		NewEnterProgram(1.0, region, "a.out", []string{"a.out", "-x"}),
		NewLeave(2.0, region),
		NewLeaveProgram(2.0, region, 0),

		NewMpiSend(3.0, comm, 1, 7, 1024),
		NewMpiRecv(3.0, comm, 1, 7, 1024),
		NewMpiSendRequest(3.0, comm, 1, 7, 1024, 99),
		NewMpiReceiveRequest(3.0, 99),
		NewMpiSendComplete(3.0, 99),
		NewMpiReceiveComplete(3.0, comm, 1, 7, 1024, 99),
		NewMpiRequestTested(3.0, 99),
		NewMpiCancelled(3.0, 99),

		NewMpiCollBegin(4.0),
		NewMpiCollEnd(4.0, CollBarrier, comm, 0, 0, 0),

		NewRmaPutStart(5.0, 1, 2, 512),
		NewRmaPutEnd(5.0, 1),
		NewRmaGetStart(5.0, 1, 2, 512),
		NewRmaGetEnd(5.0, 1),

		NewMpiRmaPutStart(5.0, 1, 2, 512, window),
		NewMpiRmaPutEnd(5.0, 1, window),
		NewMpiRmaGetStart(5.0, 1, 2, 512, window),
		NewMpiRmaGetEnd(5.0, 1, window),
		NewMpiRmaGats(5.0, window, group, 0x3),
		NewMpiRmaCollBegin(5.0),
		NewMpiRmaCollEnd(5.0, window),
		NewMpiRmaLock(5.0, window, defs.NoID, true),
		NewMpiRmaUnlock(5.0, window),

		NewThreadFork(6.0, 4),
		NewThreadJoin(6.0),
		NewThreadTeamBegin(6.0, team),
		NewThreadTeamEnd(6.0, team),
		NewThreadAcquireLock(6.0, 1, 0),
		NewThreadReleaseLock(6.0, 1, 0),
		NewThreadTaskCreate(6.0, team, 5),
		NewThreadTaskComplete(6.0, team, 5),
		NewThreadTaskSwitch(6.0, team, 5),
		NewThreadBegin(6.0, 10, 0),
		NewThreadEnd(6.0),
		NewThreadCreate(6.0),
		NewThreadWait(6.0),
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	d := buildFixtureDefs(t)
	recs := fixtures(d)

	seen := map[Kind]bool{}
	for _, rec := range recs {
		seen[rec.Kind()] = true

		buf := buffer.New(64)
		Encode(rec, buf)

		buf.Rewind()
		got, err := Decode(d, buf)
		if err != nil {
			t.Fatalf("Decode(%s): %v", rec.Kind(), err)
		}
		if got.Kind() != rec.Kind() {
			t.Fatalf("kind mismatch: got %s, want %s", got.Kind(), rec.Kind())
		}
		if got.Timestamp() != rec.Timestamp() {
			t.Fatalf("%s: timestamp mismatch: got %v, want %v", rec.Kind(), got.Timestamp(), rec.Timestamp())
		}

		var out strings.Builder
		if err := Output(got, &out, d); err != nil {
			t.Fatalf("%s: Output: %v", rec.Kind(), err)
		}
		if !strings.Contains(out.String(), rec.Kind().String()) {
			t.Fatalf("%s: rendered output missing kind name: %q", rec.Kind(), out.String())
		}
	}

	for _, k := range AllConcreteKinds() {
		if !seen[k] {
			t.Errorf("no fixture covers concrete kind %s", k)
		}
	}
}

func TestEncodeDecodeMetricValues(t *testing.T) {
	d := buildFixtureDefs(t)
	rec := NewMpiSend(1.5, 0, 1, 2, 256)
	rec.Metrics = []uint64{10, 20, 30}

	buf := buffer.New(64)
	Encode(rec, buf)
	buf.Rewind()

	got, err := Decode(d, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	values := got.MetricValues()
	if len(values) != 3 || values[0] != 10 || values[1] != 20 || values[2] != 30 {
		t.Fatalf("metric values round-trip mismatch: got %v", values)
	}
}

func TestDecodeUnknownDiscriminant(t *testing.T) {
	buf := buffer.New(16)
	buf.WriteU8(255)
	buf.WriteTimestamp(0)
	buf.WriteU32(0)
	buf.Rewind()

	if _, err := Decode(buildFixtureDefs(t), buf); err == nil {
		t.Fatal("expected error decoding unrecognized discriminant")
	}
}

func TestDecodeDanglingDefinitionReference(t *testing.T) {
	d := buildFixtureDefs(t)
	rec := NewMpiSend(1.0, 999, 1, 2, 10) // comm 999 does not exist

	buf := buffer.New(64)
	Encode(rec, buf)
	buf.Rewind()

	if _, err := Decode(d, buf); err == nil {
		t.Fatal("expected UnknownDefinition error for dangling comm ref")
	}
}

// groupMembership is the expected member set for each GROUP_* predicate,
// enumerated independently of kindFlags so this test can catch a
// mis-registered flag.
var groupMembership = map[Kind][]Kind{
	GroupEnter: {Enter, EnterCS, EnterProgram},
	GroupLeave: {Leave, LeaveProgram},
	GroupSend:  {MpiSend, MpiSendRequest},
	GroupRecv:  {MpiRecv, MpiReceiveComplete},
	GroupBegin: {MpiCollBegin, MpiRmaCollBegin, ThreadTeamBegin, ThreadBegin},
	GroupEnd: {
		MpiCollEnd, MpiRmaCollEnd, ThreadTeamEnd, ThreadEnd,
		RmaPutEnd, RmaGetEnd, MpiRmaPutEnd, MpiRmaGetEnd,
	},
	GroupNonblock: {
		MpiSendRequest, MpiReceiveRequest, MpiSendComplete, MpiReceiveComplete,
		MpiRequestTested, MpiCancelled,
	},
}

func TestGroupPredicateMembership(t *testing.T) {
	for group, members := range groupMembership {
		want := map[Kind]bool{}
		for _, m := range members {
			want[m] = true
		}
		for _, k := range AllConcreteKinds() {
			got := k.IsOfType(group)
			if got != want[k] {
				t.Errorf("%s.IsOfType(%s) = %v, want %v", k, group, got, want[k])
			}
		}
	}
}

func TestGroupAllMatchesEveryConcreteKind(t *testing.T) {
	for _, k := range AllConcreteKinds() {
		if !k.IsOfType(GroupAll) {
			t.Errorf("%s.IsOfType(GroupAll) = false, want true", k)
		}
	}
}

func TestKindIsOfTypeSelf(t *testing.T) {
	for _, k := range AllConcreteKinds() {
		if !k.IsOfType(k) {
			t.Errorf("%s.IsOfType(itself) = false, want true", k)
		}
	}
}

func TestIsGroupDistinguishesPseudoKinds(t *testing.T) {
	for _, k := range AllConcreteKinds() {
		if k.IsGroup() {
			t.Errorf("concrete kind %s reports IsGroup() = true", k)
		}
	}
	for _, g := range AllGroups() {
		if !g.IsGroup() {
			t.Errorf("group kind %s reports IsGroup() = false", g)
		}
	}
}

func TestRegionRefResolution(t *testing.T) {
	ref := NewRegionRef(7)
	if ref.Resolved() {
		t.Fatal("freshly constructed RegionRef should be unresolved")
	}
	region, ok := ref.RegionID()
	if !ok || region != 7 {
		t.Fatalf("RegionID() = (%d, %v), want (7, true)", region, ok)
	}
	if _, ok := ref.CallpathID(); ok {
		t.Fatal("CallpathID() should fail before resolution")
	}

	ref.ResolveToCallpath(3)
	if !ref.Resolved() {
		t.Fatal("ResolveToCallpath should mark the payload resolved")
	}
	cp, ok := ref.CallpathID()
	if !ok || cp != 3 {
		t.Fatalf("CallpathID() = (%d, %v), want (3, true)", cp, ok)
	}
	if _, ok := ref.RegionID(); ok {
		t.Fatal("RegionID() should fail after resolution")
	}
}
