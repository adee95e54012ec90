// Package notesrpc describes the gRPC note service shared by the server and
// the client transport.
//
// Messages are protobuf well-known types, so no generated code is needed:
// a note travels as a structpb.Struct, a listing as a structpb.ListValue, and
// an owner id as a wrapperspb.StringValue.
package notesrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "gophnotes.notes.v1.NoteService"

const (
	MethodPing       = "/" + ServiceName + "/Ping"
	MethodSelectAll  = "/" + ServiceName + "/SelectAll"
	MethodInsert     = "/" + ServiceName + "/Insert"
	MethodUpdateByID = "/" + ServiceName + "/UpdateByID"
	MethodDeleteByID = "/" + ServiceName + "/DeleteByID"
)

// NoteServiceServer is implemented by the server side of the service.
type NoteServiceServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	SelectAll(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Insert(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	UpdateByID(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DeleteByID(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterNoteServiceServer attaches srv to s.
func RegisterNoteServiceServer(s grpc.ServiceRegistrar, srv NoteServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc of the note service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NoteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "SelectAll", Handler: selectAllHandler},
		{MethodName: "Insert", Handler: insertHandler},
		{MethodName: "UpdateByID", Handler: updateByIDHandler},
		{MethodName: "DeleteByID", Handler: deleteByIDHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophnotes/notes/v1/notes.proto",
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NoteServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodPing}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NoteServiceServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func selectAllHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NoteServiceServer).SelectAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSelectAll}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NoteServiceServer).SelectAll(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func insertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NoteServiceServer).Insert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodInsert}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NoteServiceServer).Insert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func updateByIDHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NoteServiceServer).UpdateByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodUpdateByID}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NoteServiceServer).UpdateByID(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteByIDHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NoteServiceServer).DeleteByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDeleteByID}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NoteServiceServer).DeleteByID(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// NoteServiceClient is the client side of the service.
type NoteServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNoteServiceClient(cc grpc.ClientConnInterface) *NoteServiceClient {
	return &NoteServiceClient{cc: cc}
}

func (c *NoteServiceClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodPing, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *NoteServiceClient) SelectAll(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodSelectAll, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *NoteServiceClient) Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodInsert, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *NoteServiceClient) UpdateByID(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodUpdateByID, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *NoteServiceClient) DeleteByID(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodDeleteByID, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
