/*
Starts either an am/grpc broker (-server) or a client rank (-rank) that
exercises the active-message runtime end to end: a client with rank 0 sends
a ping payload to rank 1, rank 1's registered handler echoes it back, and
rank 0 waits for the echo before exiting.

For usage details, run pearl-amping with the command line flag -h or --help.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pearl-replay/pearl/am"
	pgrpc "github.com/pearl-replay/pearl/am/grpc"
	"github.com/pearl-replay/pearl/buffer"
	"github.com/pearl-replay/pearl/internal/clog"
)

func main() {
	var listenAddr string
	var dialAddr string
	var rank uint
	var server bool
	var help bool
	var logOutput bool

	flag.Usage = usage
	flag.StringVar(&listenAddr, "listen", ":8950", "address the broker listens on (-server mode)")
	flag.StringVar(&dialAddr, "dial", "localhost:8950", "broker address to dial (client mode)")
	flag.UintVar(&rank, "rank", 0, "this process's rank (client mode)")
	flag.BoolVar(&server, "server", false, "run as the broker instead of a client rank")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.BoolVar(&logOutput, "l", false, "Show logging output (for debugging)")
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}
	if logOutput {
		clog.Enable()
	}

	signaled := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer close(signaled)
		fmt.Printf("Terminating pearl-amping on signal %v...\n", <-sigCh)
	}()

	if server {
		runServer(listenAddr, signaled)
		return
	}
	if err := runClient(dialAddr, uint32(rank)); err != nil {
		fmt.Fprintf(os.Stderr, "pearl-amping: %v\n", err)
		os.Exit(1)
	}
}

func runServer(listenAddr string, signaled <-chan struct{}) {
	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pearl-amping: %v\n", err)
		os.Exit(1)
	}
	srv := pgrpc.NewServer()
	fmt.Printf("Broker listening on %s...\n", listenAddr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.GRPCServer().Serve(lis) }()

	select {
	case <-signaled:
		srv.Stop()
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "pearl-amping: broker stopped: %v\n", err)
		}
	}
}

// echoHandler registers itself as handler 0 on both ranks. On rank 1 it
// echoes the payload back to the sender; on rank 0 it records the echo.
type echoHandler struct {
	rt   *am.Runtime
	self uint32
	got  chan []byte
}

func (h *echoHandler) Execute(buf *buffer.Buffer) error {
	payload := append([]byte(nil), buf.Bytes()[buf.Pos():]...)
	if h.self == 1 {
		reply := buffer.New(len(payload))
		reply.Write(payload)
		reply.Rewind()
		_, err := h.rt.Start(context.Background(), 0, reply.Bytes(), 0, pgrpc.DefaultTag, false)
		return err
	}
	h.got <- payload
	return nil
}

func runClient(dialAddr string, rank uint32) error {
	client := pgrpc.NewClient(dialAddr, rank)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Dial(ctx); err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}
	defer client.Close()

	rt := am.NewRuntime(client)
	h := &echoHandler{rt: rt, self: rank, got: make(chan []byte, 1)}
	rt.RegisterHandler(h)
	rt.Listen(0, pgrpc.DefaultTag)

	if rank == 0 {
		payload := buffer.New(5)
		payload.Write([]byte("ping!"))
		payload.Rewind()
		if _, err := rt.Start(ctx, 0, payload.Bytes(), 1, pgrpc.DefaultTag, false); err != nil {
			return fmt.Errorf("sending ping: %w", err)
		}
		fmt.Println("rank 0: ping sent, waiting for echo...")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case got := <-h.got:
			fmt.Printf("rank 0: received echo %q\n", got)
			return nil
		default:
			if err := rt.Progress(ctx); err != nil {
				return err
			}
			if rank != 0 {
				time.Sleep(10 * time.Millisecond)
			}
		}
	}
}

func usage() {
	fmt.Print(`usage: pearl-amping [-h|--help] [-l] [-server | -rank N] [-listen addr] [-dial addr]

Exercises the active-message runtime end to end over am/grpc: run one
process with -server, then two client processes with -rank 0 and -rank 1
dialing the broker; rank 0 sends a ping, rank 1 echoes it back.

Flags:
`)
	flag.PrintDefaults()
}
