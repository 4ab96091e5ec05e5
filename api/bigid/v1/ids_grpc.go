// Package bigidv1 defines the bigid.v1.IDService gRPC contract over protobuf
// well-known types, so neither side needs generated message code.
//
//	Next(StringValue namespace)            returns (UInt64Value id)
//	Batch(Struct{namespace, count})         returns (stream UInt64Value id)
//	Decode(UInt64Value id)                 returns (Struct parts)
//	Namespaces(Empty)                      returns (Struct{namespaces})
//	Events(Struct{namespace, after, limit, reverse}) returns (Struct{events, next})
package bigidv1

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	IDServiceName = "bigid.v1.IDService"

	IDService_Next_FullMethodName       = "/bigid.v1.IDService/Next"
	IDService_Batch_FullMethodName      = "/bigid.v1.IDService/Batch"
	IDService_Decode_FullMethodName     = "/bigid.v1.IDService/Decode"
	IDService_Namespaces_FullMethodName = "/bigid.v1.IDService/Namespaces"
	IDService_Events_FullMethodName     = "/bigid.v1.IDService/Events"
)

// IDServiceClient is the client API for IDService.
type IDServiceClient interface {
	Next(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	Batch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (IDService_BatchClient, error)
	Decode(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*structpb.Struct, error)
	Namespaces(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Events(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type idServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIDServiceClient(cc grpc.ClientConnInterface) IDServiceClient {
	return &idServiceClient{cc}
}

func (c *idServiceClient) Next(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, IDService_Next_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *idServiceClient) Batch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (IDService_BatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &IDService_ServiceDesc.Streams[0], IDService_Batch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &idServiceBatchClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *idServiceClient) Events(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, IDService_Events_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type IDService_BatchClient interface {
	Recv() (*wrapperspb.UInt64Value, error)
	grpc.ClientStream
}

type idServiceBatchClient struct {
	grpc.ClientStream
}

func (x *idServiceBatchClient) Recv() (*wrapperspb.UInt64Value, error) {
	m := new(wrapperspb.UInt64Value)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *idServiceClient) Decode(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, IDService_Decode_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *idServiceClient) Namespaces(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, IDService_Namespaces_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// IDServiceServer is the server API for IDService.
type IDServiceServer interface {
	Next(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error)
	Batch(*structpb.Struct, IDService_BatchServer) error
	Decode(context.Context, *wrapperspb.UInt64Value) (*structpb.Struct, error)
	Namespaces(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Events(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedIDServiceServer can be embedded for forward compatibility.
type UnimplementedIDServiceServer struct{}

func (UnimplementedIDServiceServer) Next(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Next not implemented")
}
func (UnimplementedIDServiceServer) Batch(*structpb.Struct, IDService_BatchServer) error {
	return status.Errorf(codes.Unimplemented, "method Batch not implemented")
}
func (UnimplementedIDServiceServer) Decode(context.Context, *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Decode not implemented")
}
func (UnimplementedIDServiceServer) Namespaces(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Namespaces not implemented")
}

func (UnimplementedIDServiceServer) Events(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Events not implemented")
}

func RegisterIDServiceServer(s grpc.ServiceRegistrar, srv IDServiceServer) {
	s.RegisterService(&IDService_ServiceDesc, srv)
}

func _IDService_Next_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IDServiceServer).Next(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IDService_Next_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IDServiceServer).Next(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _IDService_Batch_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(IDServiceServer).Batch(m, &idServiceBatchServer{stream})
}

type IDService_BatchServer interface {
	Send(*wrapperspb.UInt64Value) error
	grpc.ServerStream
}

type idServiceBatchServer struct {
	grpc.ServerStream
}

func (x *idServiceBatchServer) Send(m *wrapperspb.UInt64Value) error {
	return x.ServerStream.SendMsg(m)
}

func _IDService_Decode_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IDServiceServer).Decode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IDService_Decode_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IDServiceServer).Decode(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _IDService_Namespaces_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IDServiceServer).Namespaces(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IDService_Namespaces_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IDServiceServer).Namespaces(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _IDService_Events_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IDServiceServer).Events(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IDService_Events_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IDServiceServer).Events(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// IDService_ServiceDesc is the grpc.ServiceDesc for IDService.
var IDService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: IDServiceName,
	HandlerType: (*IDServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Next", Handler: _IDService_Next_Handler},
		{MethodName: "Decode", Handler: _IDService_Decode_Handler},
		{MethodName: "Namespaces", Handler: _IDService_Namespaces_Handler},
		{MethodName: "Events", Handler: _IDService_Events_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Batch", Handler: _IDService_Batch_Handler, ServerStreams: true},
	},
	Metadata: "bigid/v1/ids.proto",
}

// BatchRequest builds the Struct Batch expects.
func BatchRequest(namespace string, count int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"namespace": structpb.NewStringValue(namespace),
		"count":     structpb.NewNumberValue(float64(count)),
	}}
}

// ParseBatchRequest reads the fields BatchRequest writes.
func ParseBatchRequest(in *structpb.Struct) (namespace string, count int) {
	f := in.GetFields()
	return f["namespace"].GetStringValue(), int(f["count"].GetNumberValue())
}

// EventsRequest builds the Struct Events expects. Reverse pages newest first.
func EventsRequest(namespace string, after uint64, limit int, reverse bool) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"namespace": structpb.NewStringValue(namespace),
		"after":     structpb.NewStringValue(strconv.FormatUint(after, 10)),
		"limit":     structpb.NewNumberValue(float64(limit)),
		"reverse":   structpb.NewBoolValue(reverse),
	}}
}

// ParseEventsRequest reads the fields EventsRequest writes. A malformed
// cursor reads as zero.
func ParseEventsRequest(in *structpb.Struct) (namespace string, after uint64, limit int, reverse bool) {
	f := in.GetFields()
	after, _ = strconv.ParseUint(f["after"].GetStringValue(), 10, 64)
	return f["namespace"].GetStringValue(), after, int(f["limit"].GetNumberValue()), f["reverse"].GetBoolValue()
}
