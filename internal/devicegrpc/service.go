// Package devicegrpc exposes a haptic device pool over gRPC and provides the
// matching client, so the server can drive devices attached to another host.
package devicegrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName     = "hapticnote.device.v1.DeviceBridge"
	methodDiscover  = "/" + serviceName + "/Discover"
	methodCommand   = "/" + serviceName + "/Command"
	fieldClient     = "client"
	fieldCount      = "count"
	fieldDevices    = "devices"
	fieldDevice     = "device"
	fieldCommand    = "command"
	fieldR          = "r"
	fieldG          = "g"
	fieldB          = "b"
	fieldMode       = "mode"
	fieldHz         = "hz"
	fieldIntensity  = "intensity"
	protoDescriptor = "hapticnote/device/v1/bridge.proto"
)

// bridgeServer is the handler surface registered on a grpc.Server.
type bridgeServer interface {
	Discover(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Command(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*bridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Discover", Handler: discoverHandler},
		{MethodName: "Command", Handler: commandHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoDescriptor,
}

func registerBridgeServer(s grpc.ServiceRegistrar, srv bridgeServer) {
	s.RegisterService(&serviceDesc, srv)
}

func discoverHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(bridgeServer).Discover(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDiscover}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(bridgeServer).Discover(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func commandHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(bridgeServer).Command(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCommand}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(bridgeServer).Command(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
