/*
Starts a replay driver that loads a fixture (a GlobalDefs file plus one or
more per-location trace files, both glob-matched), verifies and preprocesses
each location's trace, and replays it through a small pipeline of
CompoundTask steps.

In -dump mode, instead of running a pipeline, it prints a human-readable
rendering of every event to stdout and exits.

For usage details, run pearl-replay with the command line flag -h or --help.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pearl-replay/pearl/defs"
	"github.com/pearl-replay/pearl/event"
	"github.com/pearl-replay/pearl/fixture"
	"github.com/pearl-replay/pearl/internal/clog"
	"github.com/pearl-replay/pearl/pearlcfg"
	"github.com/pearl-replay/pearl/replay"
	"github.com/pearl-replay/pearl/task"
	"github.com/pearl-replay/pearl/trace"
)

func main() {
	var configPath string
	var help bool
	var logOutput bool
	var dump bool
	var backward bool

	flag.Usage = usage
	flag.StringVar(&configPath, "c", "pearl.yaml", "path to a pearlcfg YAML configuration file")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.BoolVar(&logOutput, "l", false, "Show logging output (for debugging)")
	flag.BoolVar(&dump, "dump", false, "Print a human-readable rendering of every event and exit")
	flag.BoolVar(&backward, "backward", false, "Replay backward instead of forward")
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}
	if logOutput {
		clog.Enable()
	}

	cfg, err := pearlcfg.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pearl-replay: %v\n", err)
		os.Exit(1)
	}

	d, traces, err := loadFixture(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pearl-replay: %v\n", err)
		os.Exit(1)
	}

	if dump {
		for _, lt := range traces {
			if err := dumpTrace(lt, d); err != nil {
				fmt.Fprintf(os.Stderr, "pearl-replay: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	signaled := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer close(signaled)
		fmt.Printf("Terminating pearl-replay on signal %v...\n", <-sigCh)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, lt := range traces {
		if err := runPipeline(ctx, lt, d, backward); err != nil {
			fmt.Fprintf(os.Stderr, "pearl-replay: location %d: %v\n", lt.Location(), err)
			os.Exit(1)
		}
		select {
		case <-signaled:
			return
		default:
		}
	}
}

func loadFixture(cfg *pearlcfg.Config) (*defs.GlobalDefs, []*trace.LocalTrace, error) {
	d, err := fixture.LoadDefs(cfg.Fixtures.DefsGlob)
	if err != nil {
		return nil, nil, err
	}

	var traces []*trace.LocalTrace
	for _, glob := range cfg.Fixtures.TraceGlobs {
		matched, err := fixture.LoadTraces(glob)
		if err != nil {
			return nil, nil, err
		}
		traces = append(traces, matched...)
	}
	return d, traces, nil
}

// runPipeline assembles prepare (verify+preprocess) and execute (replay)
// as one CompoundTask, following the teacher's Coordinator.Start lifecycle
// of preparing state before running the actual computation.
func runPipeline(ctx context.Context, lt *trace.LocalTrace, d *defs.GlobalDefs, backward bool) error {
	ct := task.NewCompoundTask()
	ct.PrepareFunc = func() error {
		if err := trace.VerifyCalltree(lt); err != nil {
			return err
		}
		return trace.Preprocess(lt, d)
	}

	cm := replay.NewCallbackManager()
	printer := &printingCallbackData{d: d}
	cm.Register(event.GroupAll, 0, func(_ *replay.CallbackManager, _ int, ev replay.Event, _ replay.CallbackData) error {
		return event.Output(ev.Record(), os.Stdout, d)
	})
	ct.Add(task.NewReplayTask(lt, cm, printer, !backward))

	return ct.Execute()
}

type printingCallbackData struct {
	d *defs.GlobalDefs
}

func (p *printingCallbackData) Preprocess(ev replay.Event) error  { return nil }
func (p *printingCallbackData) Postprocess(ev replay.Event) error { _, err := os.Stdout.WriteString("\n"); return err }

func dumpTrace(lt *trace.LocalTrace, d *defs.GlobalDefs) error {
	fmt.Printf("location %d (%d events):\n", lt.Location(), lt.Len())
	for i := 0; i < lt.Len(); i++ {
		rec, err := lt.At(i)
		if err != nil {
			return err
		}
		fmt.Print("  ")
		if err := event.Output(rec, os.Stdout, d); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func usage() {
	fmt.Print(`usage: pearl-replay [-h|--help] [-l] [-c configPath] [-dump] [-backward]

Loads a fixture named by the pearlcfg configuration at configPath, verifies
and preprocesses each location's trace, and replays it through a
CompoundTask pipeline, printing every dispatched event.

With -dump, prints every event in each location's trace without running a
replay pipeline.

Flags:
`)
	flag.PrintDefaults()
}
