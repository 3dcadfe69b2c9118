package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Payloads are google.protobuf.Struct messages, see internal/proto_utils for their fields.
const (
	ServiceName           = "drainservice.DrainService"
	RunCommandFullMethod  = "/" + ServiceName + "/RunCommand"
	CancelJobFullMethod   = "/" + ServiceName + "/CancelJob"
	runCommandStreamIndex = 0
)

type DrainServiceServer interface {
	RunCommand(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
	CancelJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterDrainServiceServer(s grpc.ServiceRegistrar, srv DrainServiceServer) {
	s.RegisterService(&DrainService_ServiceDesc, srv)
}

func _DrainService_RunCommand_Handler(srv any, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DrainServiceServer).RunCommand(m, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

func _DrainService_CancelJob_Handler(
	srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DrainServiceServer).CancelJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CancelJobFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DrainServiceServer).CancelJob(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var DrainService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DrainServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CancelJob", Handler: _DrainService_CancelJob_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "RunCommand", Handler: _DrainService_RunCommand_Handler, ServerStreams: true},
	},
	Metadata: "drainservice",
}

type DrainServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDrainServiceClient(cc grpc.ClientConnInterface) *DrainServiceClient {
	return &DrainServiceClient{cc: cc}
}

func (c *DrainServiceClient) RunCommand(
	ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &DrainService_ServiceDesc.Streams[runCommandStreamIndex], RunCommandFullMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *DrainServiceClient) CancelJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CancelJobFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
