// Package proto declares the depotkeeper.ContentDirectory gRPC service.
//
// Requests and replies are protobuf well-known types; structured requests
// travel as google.protobuf.Struct and are built and parsed with the helpers
// in messages.go.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "depotkeeper.ContentDirectory"

const (
	ContentDirectory_Ping_FullMethodName                   = "/depotkeeper.ContentDirectory/Ping"
	ContentDirectory_GetSalt_FullMethodName                = "/depotkeeper.ContentDirectory/GetSalt"
	ContentDirectory_Login_FullMethodName                  = "/depotkeeper.ContentDirectory/Login"
	ContentDirectory_LoginAnonymous_FullMethodName         = "/depotkeeper.ContentDirectory/LoginAnonymous"
	ContentDirectory_GetDepotKey_FullMethodName            = "/depotkeeper.ContentDirectory/GetDepotKey"
	ContentDirectory_GetManifestRequestCode_FullMethodName = "/depotkeeper.ContentDirectory/GetManifestRequestCode"
	ContentDirectory_GetManifest_FullMethodName            = "/depotkeeper.ContentDirectory/GetManifest"
	ContentDirectory_GetProductInfo_FullMethodName         = "/depotkeeper.ContentDirectory/GetProductInfo"
	ContentDirectory_GetFileURL_FullMethodName             = "/depotkeeper.ContentDirectory/GetFileURL"
)

// ContentDirectoryClient is the client API for the ContentDirectory service.
type ContentDirectoryClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetSalt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	LoginAnonymous(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetDepotKey(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	GetManifestRequestCode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	GetManifest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	GetProductInfo(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetFileURL(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type contentDirectoryClient struct {
	cc grpc.ClientConnInterface
}

func NewContentDirectoryClient(cc grpc.ClientConnInterface) ContentDirectoryClient {
	return &contentDirectoryClient{cc}
}

func (c *contentDirectoryClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ContentDirectory_Ping_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) GetSalt(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ContentDirectory_GetSalt_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ContentDirectory_Login_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) LoginAnonymous(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ContentDirectory_LoginAnonymous_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) GetDepotKey(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ContentDirectory_GetDepotKey_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) GetManifestRequestCode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, ContentDirectory_GetManifestRequestCode_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) GetManifest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ContentDirectory_GetManifest_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) GetProductInfo(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ContentDirectory_GetProductInfo_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *contentDirectoryClient) GetFileURL(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, ContentDirectory_GetFileURL_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ContentDirectoryServer is the server API for the ContentDirectory service.
// All implementations must embed UnimplementedContentDirectoryServer.
type ContentDirectoryServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	GetSalt(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Login(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	LoginAnonymous(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	GetDepotKey(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	GetManifestRequestCode(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error)
	GetManifest(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	GetProductInfo(context.Context, *wrapperspb.UInt32Value) (*structpb.Struct, error)
	GetFileURL(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	mustEmbedUnimplementedContentDirectoryServer()
}

// UnimplementedContentDirectoryServer must be embedded to have forward compatible implementations.
type UnimplementedContentDirectoryServer struct{}

func (UnimplementedContentDirectoryServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedContentDirectoryServer) GetSalt(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSalt not implemented")
}
func (UnimplementedContentDirectoryServer) Login(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedContentDirectoryServer) LoginAnonymous(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method LoginAnonymous not implemented")
}
func (UnimplementedContentDirectoryServer) GetDepotKey(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetDepotKey not implemented")
}
func (UnimplementedContentDirectoryServer) GetManifestRequestCode(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetManifestRequestCode not implemented")
}
func (UnimplementedContentDirectoryServer) GetManifest(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetManifest not implemented")
}
func (UnimplementedContentDirectoryServer) GetProductInfo(context.Context, *wrapperspb.UInt32Value) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetProductInfo not implemented")
}
func (UnimplementedContentDirectoryServer) GetFileURL(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetFileURL not implemented")
}
func (UnimplementedContentDirectoryServer) mustEmbedUnimplementedContentDirectoryServer() {}

func RegisterContentDirectoryServer(s grpc.ServiceRegistrar, srv ContentDirectoryServer) {
	s.RegisterService(&ContentDirectory_ServiceDesc, srv)
}

// unary builds a method handler that decodes a request of type Req and
// dispatches it to call, honouring any configured interceptor.
func unary[Req any, Resp any](fullMethod string, call func(ContentDirectoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ContentDirectoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ContentDirectoryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ContentDirectory_ServiceDesc is the grpc.ServiceDesc for the ContentDirectory service.
var ContentDirectory_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContentDirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(ContentDirectory_Ping_FullMethodName, ContentDirectoryServer.Ping)},
		{MethodName: "GetSalt", Handler: unary(ContentDirectory_GetSalt_FullMethodName, ContentDirectoryServer.GetSalt)},
		{MethodName: "Login", Handler: unary(ContentDirectory_Login_FullMethodName, ContentDirectoryServer.Login)},
		{MethodName: "LoginAnonymous", Handler: unary(ContentDirectory_LoginAnonymous_FullMethodName, ContentDirectoryServer.LoginAnonymous)},
		{MethodName: "GetDepotKey", Handler: unary(ContentDirectory_GetDepotKey_FullMethodName, ContentDirectoryServer.GetDepotKey)},
		{MethodName: "GetManifestRequestCode", Handler: unary(ContentDirectory_GetManifestRequestCode_FullMethodName, ContentDirectoryServer.GetManifestRequestCode)},
		{MethodName: "GetManifest", Handler: unary(ContentDirectory_GetManifest_FullMethodName, ContentDirectoryServer.GetManifest)},
		{MethodName: "GetProductInfo", Handler: unary(ContentDirectory_GetProductInfo_FullMethodName, ContentDirectoryServer.GetProductInfo)},
		{MethodName: "GetFileURL", Handler: unary(ContentDirectory_GetFileURL_FullMethodName, ContentDirectoryServer.GetFileURL)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "depotkeeper.proto",
}
