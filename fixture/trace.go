package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/trace"
)

// TraceFixture is the JSON shape of one per-location trace file.
type TraceFixture struct {
	Location defs.ID        `json:"location"`
	Events   []EventFixture `json:"events"`
}

// EventFixture is a symbolic, JSON-friendly stand-in for one wire event
// record; Kind selects which fields LoadTraces interprets.
type EventFixture struct {
	Kind      string  `json:"kind"`
	Ts        float64 `json:"ts"`
	Region    defs.ID `json:"region"`
	Comm      defs.ID `json:"comm"`
	Peer      uint32  `json:"peer"`
	Tag       uint32  `json:"tag"`
	Bytes     uint64  `json:"bytes"`
	RequestID uint64  `json:"requestId"`
	TeamSize  uint32  `json:"teamSize"`
}

// LoadTraces reads every file matching glob as a TraceFixture and returns
// one trace.LocalTrace per file, sorted by location id.
func LoadTraces(glob string) ([]*trace.LocalTrace, error) {
	matches, err := doublestar.FilepathGlob(glob)
	if err != nil {
		return nil, fmt.Errorf("fixture: bad trace glob %q: %w", glob, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("fixture: no trace files matched %q", glob)
	}
	sort.Strings(matches)

	var traces []*trace.LocalTrace
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("fixture: reading %s: %w", path, err)
		}
		var f TraceFixture
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("fixture: parsing %s: %w", path, err)
		}

		lt := trace.NewLocalTrace(f.Location)
		for i, ev := range f.Events {
			rec, err := buildRecord(ev)
			if err != nil {
				return nil, fmt.Errorf("fixture: %s event %d: %w", path, i, err)
			}
			if err := lt.Append(rec); err != nil {
				return nil, fmt.Errorf("fixture: %s event %d: %w", path, i, err)
			}
		}
		traces = append(traces, lt)
	}

	sort.Slice(traces, func(i, j int) bool { return traces[i].Location() < traces[j].Location() })
	return traces, nil
}

// buildRecord translates one symbolic EventFixture into the concrete
// event.Record constructor it names. Only the kinds a demo fixture is
// likely to need are wired up; extending the set means adding a case here,
// not changing the fixture file format.
func buildRecord(ev EventFixture) (event.Record, error) {
	switch ev.Kind {
	case "Enter":
		return event.NewEnter(ev.Ts, ev.Region), nil
	case "Leave":
		return event.NewLeave(ev.Ts, ev.Region), nil
	case "EnterProgram":
		return event.NewEnterProgram(ev.Ts, ev.Region, "", nil), nil
	case "LeaveProgram":
		return event.NewLeaveProgram(ev.Ts, ev.Region, 0), nil
	case "MpiSend":
		return event.NewMpiSend(ev.Ts, ev.Comm, ev.Peer, ev.Tag, ev.Bytes), nil
	case "MpiRecv":
		return event.NewMpiRecv(ev.Ts, ev.Comm, ev.Peer, ev.Tag, ev.Bytes), nil
	case "MpiSendRequest":
		return event.NewMpiSendRequest(ev.Ts, ev.Comm, ev.Peer, ev.Tag, ev.Bytes, ev.RequestID), nil
	case "MpiSendComplete":
		return event.NewMpiSendComplete(ev.Ts, ev.RequestID), nil
	case "MpiReceiveRequest":
		return event.NewMpiReceiveRequest(ev.Ts, ev.RequestID), nil
	case "MpiReceiveComplete":
		return event.NewMpiReceiveComplete(ev.Ts, ev.Comm, ev.Peer, ev.Tag, ev.Bytes, ev.RequestID), nil
	case "ThreadFork":
		return event.NewThreadFork(ev.Ts, ev.TeamSize), nil
	case "ThreadJoin":
		return event.NewThreadJoin(ev.Ts), nil
	default:
		return nil, fmt.Errorf("unknown fixture event kind %q", ev.Kind)
	}
}
