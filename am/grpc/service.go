// Package grpc is am/grpc: the one bundled am.Transport binding, realized
// as a gRPC broker (Server) that every location's Client connects to over
// one bidirectional stream, mirroring the teacher's Coordinator (a central
// gRPC-served component other components track and exchange state with)
// alongside its gRPC-client-side Worker path.
//
// service.go is the hand-authored equivalent of what protoc-gen-go-grpc
// would generate from transport.proto: no protoc toolchain is available in
// this environment, so the client/server stream plumbing below is written
// directly against google.golang.org/grpc following that generator's exact,
// well-known mechanical pattern for a single bidi-streaming RPC.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "pearl.am.Transport"

// DefaultTag is the reserved active-message tag (per spec.md §9's design
// note). pearlcfg.TransportConfig.Tag can carry a different value, but
// neither bundled driver applies it: both use DefaultTag.
const DefaultTag = 170275

var transportServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TransportServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Exchange",
			Handler:       exchangeHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "am/grpc/transport.proto",
}

// TransportServer is implemented by am/grpc.Server.
type TransportServer interface {
	Exchange(Transport_ExchangeServer) error
}

// RegisterTransportServer registers srv as the Transport service on s.
func RegisterTransportServer(s *grpc.Server, srv TransportServer) {
	s.RegisterService(&transportServiceDesc, srv)
}

func exchangeHandler(srv any, stream grpc.ServerStream) error {
	return srv.(TransportServer).Exchange(&transportExchangeServer{stream})
}

// Transport_ExchangeServer is the server-side view of one Exchange stream.
type Transport_ExchangeServer interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ServerStream
}

type transportExchangeServer struct {
	grpc.ServerStream
}

func (x *transportExchangeServer) Send(m *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(m)
}

func (x *transportExchangeServer) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// TransportClient is the stub am/grpc.Client dials through.
type TransportClient interface {
	Exchange(ctx context.Context, opts ...grpc.CallOption) (Transport_ExchangeClient, error)
}

type transportClient struct {
	cc grpc.ClientConnInterface
}

// NewTransportClient returns a stub issuing Exchange streams over cc.
func NewTransportClient(cc grpc.ClientConnInterface) TransportClient {
	return &transportClient{cc: cc}
}

func (c *transportClient) Exchange(ctx context.Context, opts ...grpc.CallOption) (Transport_ExchangeClient, error) {
	stream, err := c.cc.NewStream(ctx, &transportServiceDesc.Streams[0], "/"+serviceName+"/Exchange", opts...)
	if err != nil {
		return nil, err
	}
	return &transportExchangeClient{stream}, nil
}

// Transport_ExchangeClient is the client-side view of one Exchange stream.
type Transport_ExchangeClient interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ClientStream
}

type transportExchangeClient struct {
	grpc.ClientStream
}

func (x *transportExchangeClient) Send(m *wrapperspb.BytesValue) error {
	return x.ClientStream.SendMsg(m)
}

func (x *transportExchangeClient) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
