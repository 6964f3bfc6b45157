package event

import (
	"fmt"
	"io"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/perrors"
)

func init() {
	registerDecoder(Enter, func(b Base) Record { return &EnterEvent{Base: b} })
	registerDecoder(EnterCS, func(b Base) Record { return &EnterCSEvent{EnterEvent: EnterEvent{Base: b}} })
	registerDecoder(EnterProgram, func(b Base) Record { return &EnterProgramEvent{EnterEvent: EnterEvent{Base: b}} })
	registerDecoder(Leave, func(b Base) Record { return &LeaveEvent{Base: b} })
	registerDecoder(LeaveProgram, func(b Base) Record { return &LeaveProgramEvent{LeaveEvent: LeaveEvent{Base: b}} })
}

// EnterEvent records entry into a source-level scope (Region). Payload
// reinterpretation: before preprocessing, Payload.RegionID() is valid; after
// preprocessing (trace.Preprocess), Payload.CallpathID() is valid instead.
type EnterEvent struct {
	Base
	Payload RegionRef
}

// NewEnter constructs an Enter event from its raw region reference.
func NewEnter(ts float64, region defs.ID) *EnterEvent {
	return &EnterEvent{Base: Base{Ts: ts}, Payload: NewRegionRef(region)}
}

func (e *EnterEvent) Kind() Kind             { return Enter }
func (e *EnterEvent) IsOfType(t Kind) bool   { return e.Kind().IsOfType(t) }
func (e *EnterEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Payload.rawRef())
	b.WriteU8(boolByte(e.Payload.resolved))
}

func (e *EnterEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	ref, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading Enter region/callpath ref")
	}
	resolvedByte, err := b.ReadU8()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading Enter resolved flag")
	}
	resolved := resolvedByte != 0
	if ref != defs.NoID {
		if resolved {
			if _, err := d.Callpath(ref); err != nil {
				return err
			}
		} else {
			if _, err := d.Region(ref); err != nil {
				return err
			}
		}
	}
	e.Payload = RegionRef{ref: ref, resolved: resolved}
	return nil
}

func (e *EnterEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return writeRegionRef(w, d, e.Payload)
}

// RegionPayload returns the shared region/callpath payload for rewriting by
// trace.Preprocess.
func (e *EnterEvent) RegionPayload() *RegionRef { return &e.Payload }

// EnterCSEvent extends EnterEvent with the specific call site the enter was
// recorded at, independent of the callpath ultimately reached through it.
type EnterCSEvent struct {
	EnterEvent
	Callsite defs.ID
}

// NewEnterCS constructs an EnterCS event.
func NewEnterCS(ts float64, region, callsite defs.ID) *EnterCSEvent {
	return &EnterCSEvent{EnterEvent: *NewEnter(ts, region), Callsite: callsite}
}

func (e *EnterCSEvent) Kind() Kind           { return EnterCS }
func (e *EnterCSEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *EnterCSEvent) packFields(b *buffer.Buffer) {
	e.EnterEvent.packFields(b)
	b.WriteRef(e.Callsite)
}

func (e *EnterCSEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.EnterEvent.unpackFields(d, b); err != nil {
		return err
	}
	ref, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading EnterCS callsite ref")
	}
	if ref != defs.NoID {
		if _, err := d.Callsite(ref); err != nil {
			return err
		}
	}
	e.Callsite = ref
	return nil
}

func (e *EnterCSEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.EnterEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " callsite=%d", e.Callsite)
	return err
}

// EnterProgramEvent extends EnterEvent marking the very first event of a
// location's trace, carrying the invoked program's name and arguments.
type EnterProgramEvent struct {
	EnterEvent
	Name string
	Argv []string
}

// NewEnterProgram constructs an EnterProgram event.
func NewEnterProgram(ts float64, region defs.ID, name string, argv []string) *EnterProgramEvent {
	return &EnterProgramEvent{EnterEvent: *NewEnter(ts, region), Name: name, Argv: argv}
}

func (e *EnterProgramEvent) Kind() Kind           { return EnterProgram }
func (e *EnterProgramEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *EnterProgramEvent) packFields(b *buffer.Buffer) {
	e.EnterEvent.packFields(b)
	b.WriteString(e.Name)
	b.WriteU32(uint32(len(e.Argv)))
	for _, a := range e.Argv {
		b.WriteString(a)
	}
}

func (e *EnterProgramEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.EnterEvent.unpackFields(d, b); err != nil {
		return err
	}
	name, err := b.ReadString()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading EnterProgram name")
	}
	n, err := b.ReadU32()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading EnterProgram argc")
	}
	argv := make([]string, n)
	for i := range argv {
		a, err := b.ReadString()
		if err != nil {
			return perrors.Wrap(perrors.FormatError, err, "reading EnterProgram argv[%d]", i)
		}
		argv[i] = a
	}
	e.Name = name
	e.Argv = argv
	return nil
}

func (e *EnterProgramEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.EnterEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " program=%q argv=%v", e.Name, e.Argv)
	return err
}

// LeaveEvent records the matching exit of a Region entered by an
// EnterEvent/EnterCSEvent, with the same payload reinterpretation scheme.
type LeaveEvent struct {
	Base
	Payload RegionRef
}

// NewLeave constructs a Leave event from its raw region reference.
func NewLeave(ts float64, region defs.ID) *LeaveEvent {
	return &LeaveEvent{Base: Base{Ts: ts}, Payload: NewRegionRef(region)}
}

func (e *LeaveEvent) Kind() Kind           { return Leave }
func (e *LeaveEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *LeaveEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Payload.rawRef())
	b.WriteU8(boolByte(e.Payload.resolved))
}

func (e *LeaveEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	ref, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading Leave region/callpath ref")
	}
	resolvedByte, err := b.ReadU8()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading Leave resolved flag")
	}
	resolved := resolvedByte != 0
	if ref != defs.NoID {
		if resolved {
			if _, err := d.Callpath(ref); err != nil {
				return err
			}
		} else {
			if _, err := d.Region(ref); err != nil {
				return err
			}
		}
	}
	e.Payload = RegionRef{ref: ref, resolved: resolved}
	return nil
}

func (e *LeaveEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return writeRegionRef(w, d, e.Payload)
}

// RegionPayload returns the shared region/callpath payload for rewriting by
// trace.Preprocess.
func (e *LeaveEvent) RegionPayload() *RegionRef { return &e.Payload }

// LeaveProgramEvent extends LeaveEvent marking the very last event of a
// location's trace, carrying the program's exit status.
type LeaveProgramEvent struct {
	LeaveEvent
	ExitStatus int32
}

// NewLeaveProgram constructs a LeaveProgram event.
func NewLeaveProgram(ts float64, region defs.ID, exitStatus int32) *LeaveProgramEvent {
	return &LeaveProgramEvent{LeaveEvent: *NewLeave(ts, region), ExitStatus: exitStatus}
}

func (e *LeaveProgramEvent) Kind() Kind           { return LeaveProgram }
func (e *LeaveProgramEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *LeaveProgramEvent) packFields(b *buffer.Buffer) {
	e.LeaveEvent.packFields(b)
	b.WriteI64(int64(e.ExitStatus))
}

func (e *LeaveProgramEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	if err := e.LeaveEvent.unpackFields(d, b); err != nil {
		return err
	}
	v, err := b.ReadI64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading LeaveProgram exit status")
	}
	e.ExitStatus = int32(v)
	return nil
}

func (e *LeaveProgramEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	if err := e.LeaveEvent.outputFields(w, d); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, " exit=%d", e.ExitStatus)
	return err
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func writeRegionRef(w io.Writer, d *defs.GlobalDefs, ref RegionRef) error {
	if cp, ok := ref.CallpathID(); ok {
		_, err := fmt.Fprintf(w, " callpath=%d", cp)
		return err
	}
	if r, ok := ref.RegionID(); ok {
		name := "<none>"
		if r != defs.NoID && d != nil {
			name = d.RegionName(r)
		}
		_, err := fmt.Fprintf(w, " region=%d(%s)", r, name)
		return err
	}
	_, err := io.WriteString(w, " <empty payload>")
	return err
}
