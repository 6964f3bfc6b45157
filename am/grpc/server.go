package grpc

import (
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/pearl-replay/pearl/internal/clog"
	"github.com/pearl-replay/pearl/internal/wire"
)

// Server is am/grpc's broker: a grpc.Server exposing the Exchange stream
// that every location's Client connects to. It routes each inbound
// wire.Frame to the stream registered for its Dest rank (OpSend) or to
// every other registered stream (OpBcast), generalizing the teacher's
// Coordinator, which every Worker announces itself to and is tracked by.
type Server struct {
	grpcServer *grpc.Server
	log        *clog.Logger

	mu    sync.Mutex
	peers map[uint32]Transport_ExchangeServer
}

// NewServer returns a Server ready to Serve once peers connect.
func NewServer() *Server {
	s := &Server{
		grpcServer: grpc.NewServer(),
		log:        clog.New("[am/grpc server] "),
		peers:      map[uint32]Transport_ExchangeServer{},
	}
	RegisterTransportServer(s.grpcServer, s)
	return s
}

// GRPCServer returns the underlying grpc.Server so callers can Serve it on
// a net.Listener (GRPCServer().Serve(lis)) and register additional
// services if needed.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// Stop gracefully stops the broker, closing every peer stream.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// Exchange implements TransportServer: the first frame a peer sends must be
// OpHello, declaring the rank it speaks for; every subsequent frame is
// routed to its Dest (OpSend) or fanned out to all other peers (OpBcast).
func (s *Server) Exchange(stream Transport_ExchangeServer) error {
	rank, err := s.registerPeer(stream)
	if err != nil {
		return err
	}
	defer s.unregisterPeer(rank)
	s.log.Printf("peer %d connected", rank)

	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		frame, err := wire.Decode(msg.GetValue())
		if err != nil {
			s.log.Printf("peer %d sent malformed frame: %v", rank, err)
			continue
		}
		s.route(rank, frame)
	}
}

func (s *Server) registerPeer(stream Transport_ExchangeServer) (uint32, error) {
	msg, err := stream.Recv()
	if err != nil {
		return 0, err
	}
	hello, err := wire.Decode(msg.GetValue())
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.peers[hello.From] = stream
	s.mu.Unlock()
	return hello.From, nil
}

func (s *Server) unregisterPeer(rank uint32) {
	s.mu.Lock()
	delete(s.peers, rank)
	s.mu.Unlock()
	s.log.Printf("peer %d disconnected", rank)
}

func (s *Server) route(from uint32, frame wire.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch frame.Op {
	case wire.OpSend:
		if peer, ok := s.peers[frame.Dest]; ok {
			s.send(peer, frame)
		}
	case wire.OpBcast:
		for rank, peer := range s.peers {
			if rank == from {
				continue
			}
			s.send(peer, frame)
		}
	}
}

func (s *Server) send(peer Transport_ExchangeServer, frame wire.Frame) {
	if err := peer.Send(wrapperspb.Bytes(frame.Encode())); err != nil {
		s.log.Printf("routing to peer: %v", err)
	}
}
