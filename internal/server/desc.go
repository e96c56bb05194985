package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ballooning.v1.BallooningService"

const (
	ProcessDrawingMethod   = "/" + ServiceName + "/ProcessDrawing"
	IngestDirectoryMethod  = "/" + ServiceName + "/IngestDirectory"
	ListDimensionsMethod   = "/" + ServiceName + "/ListDimensions"
	ExportDimensionsMethod = "/" + ServiceName + "/ExportDimensions"
)

// BallooningServiceServer is the server API. Requests and list responses are
// free-form structs validated against JSON schemas; exports are raw bytes.
type BallooningServiceServer interface {
	ProcessDrawing(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDimensions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportDimensions(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
}

func RegisterBallooningServiceServer(s grpc.ServiceRegistrar, srv BallooningServiceServer) {
	s.RegisterService(&BallooningService_ServiceDesc, srv)
}

func unaryHandler[Resp any](method string, call func(BallooningServiceServer, context.Context, *structpb.Struct) (Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BallooningServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BallooningServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var BallooningService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BallooningServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ProcessDrawing",
			Handler:    unaryHandler(ProcessDrawingMethod, BallooningServiceServer.ProcessDrawing),
		},
		{
			MethodName: "IngestDirectory",
			Handler:    unaryHandler(IngestDirectoryMethod, BallooningServiceServer.IngestDirectory),
		},
		{
			MethodName: "ListDimensions",
			Handler:    unaryHandler(ListDimensionsMethod, BallooningServiceServer.ListDimensions),
		},
		{
			MethodName: "ExportDimensions",
			Handler:    unaryHandler(ExportDimensionsMethod, BallooningServiceServer.ExportDimensions),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ballooning/v1/ballooning.proto",
}

// BallooningServiceClient is the client API for the service.
type BallooningServiceClient interface {
	ProcessDrawing(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	IngestDirectory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListDimensions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ExportDimensions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type ballooningServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBallooningServiceClient(cc grpc.ClientConnInterface) BallooningServiceClient {
	return &ballooningServiceClient{cc}
}

func (c *ballooningServiceClient) ProcessDrawing(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ProcessDrawingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ballooningServiceClient) IngestDirectory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, IngestDirectoryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ballooningServiceClient) ListDimensions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListDimensionsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ballooningServiceClient) ExportDimensions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ExportDimensionsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
