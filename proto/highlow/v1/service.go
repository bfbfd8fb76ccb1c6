package highlowv1

import (
	"context"

	"HighLow/pkg/grpcx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName e' il nome completo del servizio, usato anche dall'health check.
const ServiceName = "highlow.v1.HighLowService"

const (
	methodStartSession   = "/" + ServiceName + "/StartSession"
	methodStartRound     = "/" + ServiceName + "/StartRound"
	methodEndSession     = "/" + ServiceName + "/EndSession"
	methodTimeoutSession = "/" + ServiceName + "/TimeoutSession"
	methodGetSession     = "/" + ServiceName + "/GetSession"
	methodListRounds     = "/" + ServiceName + "/ListRounds"
)

// HighLowServiceServer e' l'interfaccia implementata dal game-svc.
type HighLowServiceServer interface {
	StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error)
	StartRound(context.Context, *StartRoundRequest) (*StartRoundResponse, error)
	EndSession(context.Context, *EndSessionRequest) (*EndSessionResponse, error)
	TimeoutSession(context.Context, *TimeoutSessionRequest) (*TimeoutSessionResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error)
	ListRounds(context.Context, *ListRoundsRequest) (*ListRoundsResponse, error)
}

// UnimplementedHighLowServiceServer va embeddato per compatibilita' in avanti.
type UnimplementedHighLowServiceServer struct{}

func (UnimplementedHighLowServiceServer) StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartSession not implemented")
}

func (UnimplementedHighLowServiceServer) StartRound(context.Context, *StartRoundRequest) (*StartRoundResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartRound not implemented")
}

func (UnimplementedHighLowServiceServer) EndSession(context.Context, *EndSessionRequest) (*EndSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method EndSession not implemented")
}

func (UnimplementedHighLowServiceServer) TimeoutSession(context.Context, *TimeoutSessionRequest) (*TimeoutSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method TimeoutSession not implemented")
}

func (UnimplementedHighLowServiceServer) GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSession not implemented")
}

func (UnimplementedHighLowServiceServer) ListRounds(context.Context, *ListRoundsRequest) (*ListRoundsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListRounds not implemented")
}

// RegisterHighLowServiceServer registra l'implementazione sul server gRPC.
func RegisterHighLowServiceServer(s grpc.ServiceRegistrar, srv HighLowServiceServer) {
	s.RegisterService(&HighLowServiceDesc, srv)
}

// HighLowServiceDesc descrive il servizio per grpc.Server.
var HighLowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HighLowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartSession", Handler: unaryHandler(methodStartSession, HighLowServiceServer.StartSession)},
		{MethodName: "StartRound", Handler: unaryHandler(methodStartRound, HighLowServiceServer.StartRound)},
		{MethodName: "EndSession", Handler: unaryHandler(methodEndSession, HighLowServiceServer.EndSession)},
		{MethodName: "TimeoutSession", Handler: unaryHandler(methodTimeoutSession, HighLowServiceServer.TimeoutSession)},
		{MethodName: "GetSession", Handler: unaryHandler(methodGetSession, HighLowServiceServer.GetSession)},
		{MethodName: "ListRounds", Handler: unaryHandler(methodListRounds, HighLowServiceServer.ListRounds)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "highlow/v1",
}

// unaryHandler adatta un metodo dell'interfaccia a grpc.MethodHandler.
func unaryHandler[Req, Resp any](fullMethod string, call func(HighLowServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HighLowServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(HighLowServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// HighLowServiceClient e' il client del game-svc.
type HighLowServiceClient interface {
	StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error)
	StartRound(ctx context.Context, in *StartRoundRequest, opts ...grpc.CallOption) (*StartRoundResponse, error)
	EndSession(ctx context.Context, in *EndSessionRequest, opts ...grpc.CallOption) (*EndSessionResponse, error)
	TimeoutSession(ctx context.Context, in *TimeoutSessionRequest, opts ...grpc.CallOption) (*TimeoutSessionResponse, error)
	GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error)
	ListRounds(ctx context.Context, in *ListRoundsRequest, opts ...grpc.CallOption) (*ListRoundsResponse, error)
}

type highLowServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewHighLowServiceClient crea un client che forza il codec JSON.
func NewHighLowServiceClient(cc grpc.ClientConnInterface) HighLowServiceClient {
	return &highLowServiceClient{cc: cc}
}

func (c *highLowServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(grpcx.JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOpts...)
}

func (c *highLowServiceClient) StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error) {
	out := new(StartSessionResponse)
	if err := c.invoke(ctx, methodStartSession, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *highLowServiceClient) StartRound(ctx context.Context, in *StartRoundRequest, opts ...grpc.CallOption) (*StartRoundResponse, error) {
	out := new(StartRoundResponse)
	if err := c.invoke(ctx, methodStartRound, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *highLowServiceClient) EndSession(ctx context.Context, in *EndSessionRequest, opts ...grpc.CallOption) (*EndSessionResponse, error) {
	out := new(EndSessionResponse)
	if err := c.invoke(ctx, methodEndSession, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *highLowServiceClient) TimeoutSession(ctx context.Context, in *TimeoutSessionRequest, opts ...grpc.CallOption) (*TimeoutSessionResponse, error) {
	out := new(TimeoutSessionResponse)
	if err := c.invoke(ctx, methodTimeoutSession, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *highLowServiceClient) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error) {
	out := new(GetSessionResponse)
	if err := c.invoke(ctx, methodGetSession, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *highLowServiceClient) ListRounds(ctx context.Context, in *ListRoundsRequest, opts ...grpc.CallOption) (*ListRoundsResponse, error) {
	out := new(ListRoundsResponse)
	if err := c.invoke(ctx, methodListRounds, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
