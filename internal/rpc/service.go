package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service
// ServiceName is the fully qualified gRPC service name.
const ServiceName = "twin.v1.TwinService"

const (
	methodConfigure = "/" + ServiceName + "/Configure"
	methodProcess   = "/" + ServiceName + "/Process"
	methodGetState  = "/" + ServiceName + "/GetState"
	methodReset     = "/" + ServiceName + "/Reset"
)

// TwinServiceServer is the server side of the twin service. Every message is
// a google.protobuf.Struct carrying the same JSON shapes the controller uses.
type TwinServiceServer interface {
	Configure(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes TwinService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TwinServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Configure", Handler: unary(methodConfigure, TwinServiceServer.Configure)},
		{MethodName: "Process", Handler: unary(methodProcess, TwinServiceServer.Process)},
		{MethodName: "GetState", Handler: unary(methodGetState, TwinServiceServer.GetState)},
		{MethodName: "Reset", Handler: unary(methodReset, TwinServiceServer.Reset)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "twin/v1/twin.proto",
}

type unaryMethod func(TwinServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TwinServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TwinServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
// #endregion service
