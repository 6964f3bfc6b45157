package event

import (
	"fmt"
	"io"

	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/perrors"
)

func init() {
	registerDecoder(ThreadFork, func(b Base) Record { return &ThreadForkEvent{Base: b} })
	registerDecoder(ThreadJoin, func(b Base) Record { return &ThreadJoinEvent{Base: b} })
	registerDecoder(ThreadTeamBegin, func(b Base) Record { return &ThreadTeamBeginEvent{Base: b} })
	registerDecoder(ThreadTeamEnd, func(b Base) Record { return &ThreadTeamEndEvent{Base: b} })
	registerDecoder(ThreadAcquireLock, func(b Base) Record { return &ThreadAcquireLockEvent{Base: b} })
	registerDecoder(ThreadReleaseLock, func(b Base) Record { return &ThreadReleaseLockEvent{Base: b} })
	registerDecoder(ThreadTaskCreate, func(b Base) Record { return &ThreadTaskCreateEvent{Base: b} })
	registerDecoder(ThreadTaskComplete, func(b Base) Record { return &ThreadTaskCompleteEvent{Base: b} })
	registerDecoder(ThreadTaskSwitch, func(b Base) Record { return &ThreadTaskSwitchEvent{Base: b} })
	registerDecoder(ThreadBegin, func(b Base) Record { return &ThreadBeginEvent{Base: b} })
	registerDecoder(ThreadEnd, func(b Base) Record { return &ThreadEndEvent{Base: b} })
	registerDecoder(ThreadCreate, func(b Base) Record { return &ThreadCreateEvent{Base: b} })
	registerDecoder(ThreadWait, func(b Base) Record { return &ThreadWaitEvent{Base: b} })
}

// ThreadForkEvent records a thread-model fork (e.g. OMP_FORK), carrying the
// requested team size.
type ThreadForkEvent struct {
	Base
	TeamSize uint32
}

// NewThreadFork constructs a ThreadFork event.
func NewThreadFork(ts float64, teamSize uint32) *ThreadForkEvent {
	return &ThreadForkEvent{Base: Base{Ts: ts}, TeamSize: teamSize}
}

func (e *ThreadForkEvent) Kind() Kind           { return ThreadFork }
func (e *ThreadForkEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *ThreadForkEvent) packFields(b *buffer.Buffer) { b.WriteU32(e.TeamSize) }

func (e *ThreadForkEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	v, err := b.ReadU32()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading ThreadFork team size")
	}
	e.TeamSize = v
	return nil
}

func (e *ThreadForkEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " team_size=%d", e.TeamSize)
	return err
}

// ThreadJoinEvent records the matching join of a ThreadForkEvent; it carries
// no payload of its own.
type ThreadJoinEvent struct {
	Base
}

// NewThreadJoin constructs a ThreadJoin event.
func NewThreadJoin(ts float64) *ThreadJoinEvent {
	return &ThreadJoinEvent{Base: Base{Ts: ts}}
}

func (e *ThreadJoinEvent) Kind() Kind                                          { return ThreadJoin }
func (e *ThreadJoinEvent) IsOfType(t Kind) bool                                { return e.Kind().IsOfType(t) }
func (e *ThreadJoinEvent) packFields(b *buffer.Buffer)                         {}
func (e *ThreadJoinEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error { return nil }
func (e *ThreadJoinEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error  { return nil }

// ThreadTeamBeginEvent marks the start of a thread's membership in a team
// (named as a Region for consistency with the calltree).
type ThreadTeamBeginEvent struct {
	Base
	Team defs.ID
}

// NewThreadTeamBegin constructs a ThreadTeamBegin event.
func NewThreadTeamBegin(ts float64, team defs.ID) *ThreadTeamBeginEvent {
	return &ThreadTeamBeginEvent{Base: Base{Ts: ts}, Team: team}
}

func (e *ThreadTeamBeginEvent) Kind() Kind           { return ThreadTeamBegin }
func (e *ThreadTeamBeginEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *ThreadTeamBeginEvent) packFields(b *buffer.Buffer) { b.WriteRef(e.Team) }

func (e *ThreadTeamBeginEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	return unpackRegionRefField(d, b, &e.Team)
}

func (e *ThreadTeamBeginEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " team=%d", e.Team)
	return err
}

// ThreadTeamEndEvent marks the end of a thread's membership in a team.
type ThreadTeamEndEvent struct {
	Base
	Team defs.ID
}

// NewThreadTeamEnd constructs a ThreadTeamEnd event.
func NewThreadTeamEnd(ts float64, team defs.ID) *ThreadTeamEndEvent {
	return &ThreadTeamEndEvent{Base: Base{Ts: ts}, Team: team}
}

func (e *ThreadTeamEndEvent) Kind() Kind           { return ThreadTeamEnd }
func (e *ThreadTeamEndEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }
func (e *ThreadTeamEndEvent) packFields(b *buffer.Buffer) { b.WriteRef(e.Team) }

func (e *ThreadTeamEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	return unpackRegionRefField(d, b, &e.Team)
}

func (e *ThreadTeamEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " team=%d", e.Team)
	return err
}

// ThreadAcquireLockEvent records acquisition of a user-level thread lock.
type ThreadAcquireLockEvent struct {
	Base
	LockID           uint32
	AcquisitionOrder uint32
}

// NewThreadAcquireLock constructs a ThreadAcquireLock event.
func NewThreadAcquireLock(ts float64, lockID, order uint32) *ThreadAcquireLockEvent {
	return &ThreadAcquireLockEvent{Base: Base{Ts: ts}, LockID: lockID, AcquisitionOrder: order}
}

func (e *ThreadAcquireLockEvent) Kind() Kind           { return ThreadAcquireLock }
func (e *ThreadAcquireLockEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *ThreadAcquireLockEvent) packFields(b *buffer.Buffer) {
	b.WriteU32(e.LockID)
	b.WriteU32(e.AcquisitionOrder)
}

func (e *ThreadAcquireLockEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	lock, order, err := unpackLockPair(b)
	if err != nil {
		return err
	}
	e.LockID, e.AcquisitionOrder = lock, order
	return nil
}

func (e *ThreadAcquireLockEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputLockPair(w, e.LockID, e.AcquisitionOrder)
}

// ThreadReleaseLockEvent records release of a user-level thread lock.
type ThreadReleaseLockEvent struct {
	Base
	LockID           uint32
	AcquisitionOrder uint32
}

// NewThreadReleaseLock constructs a ThreadReleaseLock event.
func NewThreadReleaseLock(ts float64, lockID, order uint32) *ThreadReleaseLockEvent {
	return &ThreadReleaseLockEvent{Base: Base{Ts: ts}, LockID: lockID, AcquisitionOrder: order}
}

func (e *ThreadReleaseLockEvent) Kind() Kind           { return ThreadReleaseLock }
func (e *ThreadReleaseLockEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *ThreadReleaseLockEvent) packFields(b *buffer.Buffer) {
	b.WriteU32(e.LockID)
	b.WriteU32(e.AcquisitionOrder)
}

func (e *ThreadReleaseLockEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	lock, order, err := unpackLockPair(b)
	if err != nil {
		return err
	}
	e.LockID, e.AcquisitionOrder = lock, order
	return nil
}

func (e *ThreadReleaseLockEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputLockPair(w, e.LockID, e.AcquisitionOrder)
}

// ThreadTaskCreateEvent records creation of a task-model task (e.g. OMP
// task) within a team.
type ThreadTaskCreateEvent struct {
	Base
	Team   defs.ID
	TaskID uint64
}

// NewThreadTaskCreate constructs a ThreadTaskCreate event.
func NewThreadTaskCreate(ts float64, team defs.ID, taskID uint64) *ThreadTaskCreateEvent {
	return &ThreadTaskCreateEvent{Base: Base{Ts: ts}, Team: team, TaskID: taskID}
}

func (e *ThreadTaskCreateEvent) Kind() Kind           { return ThreadTaskCreate }
func (e *ThreadTaskCreateEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *ThreadTaskCreateEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Team)
	b.WriteU64(e.TaskID)
}

func (e *ThreadTaskCreateEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	team, taskID, err := unpackTeamTask(d, b)
	if err != nil {
		return err
	}
	e.Team, e.TaskID = team, taskID
	return nil
}

func (e *ThreadTaskCreateEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputTeamTask(w, e.Team, e.TaskID)
}

// ThreadTaskCompleteEvent records completion of a task-model task.
type ThreadTaskCompleteEvent struct {
	Base
	Team   defs.ID
	TaskID uint64
}

// NewThreadTaskComplete constructs a ThreadTaskComplete event.
func NewThreadTaskComplete(ts float64, team defs.ID, taskID uint64) *ThreadTaskCompleteEvent {
	return &ThreadTaskCompleteEvent{Base: Base{Ts: ts}, Team: team, TaskID: taskID}
}

func (e *ThreadTaskCompleteEvent) Kind() Kind           { return ThreadTaskComplete }
func (e *ThreadTaskCompleteEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *ThreadTaskCompleteEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Team)
	b.WriteU64(e.TaskID)
}

func (e *ThreadTaskCompleteEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	team, taskID, err := unpackTeamTask(d, b)
	if err != nil {
		return err
	}
	e.Team, e.TaskID = team, taskID
	return nil
}

func (e *ThreadTaskCompleteEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputTeamTask(w, e.Team, e.TaskID)
}

// ThreadTaskSwitchEvent records a thread switching to execute a different
// task within the team.
type ThreadTaskSwitchEvent struct {
	Base
	Team   defs.ID
	TaskID uint64
}

// NewThreadTaskSwitch constructs a ThreadTaskSwitch event.
func NewThreadTaskSwitch(ts float64, team defs.ID, taskID uint64) *ThreadTaskSwitchEvent {
	return &ThreadTaskSwitchEvent{Base: Base{Ts: ts}, Team: team, TaskID: taskID}
}

func (e *ThreadTaskSwitchEvent) Kind() Kind           { return ThreadTaskSwitch }
func (e *ThreadTaskSwitchEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *ThreadTaskSwitchEvent) packFields(b *buffer.Buffer) {
	b.WriteRef(e.Team)
	b.WriteU64(e.TaskID)
}

func (e *ThreadTaskSwitchEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	team, taskID, err := unpackTeamTask(d, b)
	if err != nil {
		return err
	}
	e.Team, e.TaskID = team, taskID
	return nil
}

func (e *ThreadTaskSwitchEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	return outputTeamTask(w, e.Team, e.TaskID)
}

// ThreadBeginEvent marks the start of a thread's execution within a
// contingent (a set of threads cooperating on a parallel region across its
// lifetime), identified by a sequence number unique within it.
type ThreadBeginEvent struct {
	Base
	Contingent uint64
	Seq        uint64
}

// NewThreadBegin constructs a ThreadBegin event.
func NewThreadBegin(ts float64, contingent, seq uint64) *ThreadBeginEvent {
	return &ThreadBeginEvent{Base: Base{Ts: ts}, Contingent: contingent, Seq: seq}
}

func (e *ThreadBeginEvent) Kind() Kind           { return ThreadBegin }
func (e *ThreadBeginEvent) IsOfType(t Kind) bool { return e.Kind().IsOfType(t) }

func (e *ThreadBeginEvent) packFields(b *buffer.Buffer) {
	b.WriteU64(e.Contingent)
	b.WriteU64(e.Seq)
}

func (e *ThreadBeginEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error {
	contingent, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading ThreadBegin contingent")
	}
	seq, err := b.ReadU64()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading ThreadBegin seq")
	}
	e.Contingent, e.Seq = contingent, seq
	return nil
}

func (e *ThreadBeginEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error {
	_, err := fmt.Fprintf(w, " contingent=%d seq=%d", e.Contingent, e.Seq)
	return err
}

// ThreadEndEvent marks the end of a thread's execution; the matching
// ThreadBeginEvent's contingent/seq pair identifies which thread ended.
type ThreadEndEvent struct {
	Base
}

// NewThreadEnd constructs a ThreadEnd event.
func NewThreadEnd(ts float64) *ThreadEndEvent {
	return &ThreadEndEvent{Base: Base{Ts: ts}}
}

func (e *ThreadEndEvent) Kind() Kind                                          { return ThreadEnd }
func (e *ThreadEndEvent) IsOfType(t Kind) bool                                { return e.Kind().IsOfType(t) }
func (e *ThreadEndEvent) packFields(b *buffer.Buffer)                         {}
func (e *ThreadEndEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error { return nil }
func (e *ThreadEndEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error  { return nil }

// ThreadCreateEvent records creation of an OS-level thread.
type ThreadCreateEvent struct {
	Base
}

// NewThreadCreate constructs a ThreadCreate event.
func NewThreadCreate(ts float64) *ThreadCreateEvent {
	return &ThreadCreateEvent{Base: Base{Ts: ts}}
}

func (e *ThreadCreateEvent) Kind() Kind                                          { return ThreadCreate }
func (e *ThreadCreateEvent) IsOfType(t Kind) bool                                { return e.Kind().IsOfType(t) }
func (e *ThreadCreateEvent) packFields(b *buffer.Buffer)                         {}
func (e *ThreadCreateEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error { return nil }
func (e *ThreadCreateEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error  { return nil }

// ThreadWaitEvent records a thread blocking on another thread's completion.
type ThreadWaitEvent struct {
	Base
}

// NewThreadWait constructs a ThreadWait event.
func NewThreadWait(ts float64) *ThreadWaitEvent {
	return &ThreadWaitEvent{Base: Base{Ts: ts}}
}

func (e *ThreadWaitEvent) Kind() Kind                                          { return ThreadWait }
func (e *ThreadWaitEvent) IsOfType(t Kind) bool                                { return e.Kind().IsOfType(t) }
func (e *ThreadWaitEvent) packFields(b *buffer.Buffer)                         {}
func (e *ThreadWaitEvent) unpackFields(d *defs.GlobalDefs, b *buffer.Buffer) error { return nil }
func (e *ThreadWaitEvent) outputFields(w io.Writer, d *defs.GlobalDefs) error  { return nil }

func unpackRegionRefField(d *defs.GlobalDefs, b *buffer.Buffer, out *defs.ID) error {
	ref, err := b.ReadRef()
	if err != nil {
		return perrors.Wrap(perrors.FormatError, err, "reading team/region ref")
	}
	if ref != defs.NoID {
		if _, err := d.Region(ref); err != nil {
			return err
		}
	}
	*out = ref
	return nil
}

func unpackLockPair(b *buffer.Buffer) (lockID, order uint32, err error) {
	if lockID, err = b.ReadU32(); err != nil {
		return 0, 0, perrors.Wrap(perrors.FormatError, err, "reading lock id")
	}
	if order, err = b.ReadU32(); err != nil {
		return 0, 0, perrors.Wrap(perrors.FormatError, err, "reading acquisition order")
	}
	return lockID, order, nil
}

func outputLockPair(w io.Writer, lockID, order uint32) error {
	_, err := fmt.Fprintf(w, " lock=%d order=%d", lockID, order)
	return err
}

func unpackTeamTask(d *defs.GlobalDefs, b *buffer.Buffer) (team defs.ID, taskID uint64, err error) {
	if team, err = b.ReadRef(); err != nil {
		return 0, 0, perrors.Wrap(perrors.FormatError, err, "reading team ref")
	}
	if team != defs.NoID {
		if _, err := d.Region(team); err != nil {
			return 0, 0, err
		}
	}
	if taskID, err = b.ReadU64(); err != nil {
		return 0, 0, perrors.Wrap(perrors.FormatError, err, "reading task id")
	}
	return team, taskID, nil
}

func outputTeamTask(w io.Writer, team defs.ID, taskID uint64) error {
	_, err := fmt.Fprintf(w, " team=%d task=%d", team, taskID)
	return err
}
