package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/depotkeeper/internal/proto"
	"github.com/dmitrijs2005/depotkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {

	return wrapperspb.String("OK"), nil

}

func (s *GRPCServer) GetSalt(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {

	salt, err := s.users.GetSalt(ctx, req.GetValue())
	if err != nil {
		return nil, s.statusError(ctx, "GetSalt", err)
	}

	return wrapperspb.Bytes(salt), nil

}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {

	req, err := pb.ParseLoginRequest(in)
	if err != nil {
		return nil, s.statusError(ctx, "Login", err)
	}

	token, err := s.users.Login(ctx, req.Username, req.Verifier, req.TwoFactorCode)
	if err != nil {
		return nil, s.statusError(ctx, "Login", err)
	}

	s.logger.Info(ctx, "Logged on", "username", req.Username)
	return wrapperspb.String(token), nil

}

func (s *GRPCServer) LoginAnonymous(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {

	token, err := s.users.LoginAnonymous(ctx)
	if err != nil {
		return nil, s.statusError(ctx, "LoginAnonymous", err)
	}

	return wrapperspb.String(token), nil

}

// session returns the principal placed in ctx by the interceptor.
func session(ctx context.Context) (services.Principal, error) {
	p, ok := principalFrom(ctx)
	if !ok {
		return services.Principal{}, status.Error(codes.Unauthenticated, "no session")
	}
	return p, nil
}

func (s *GRPCServer) GetDepotKey(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	p, err := session(ctx)
	if err != nil {
		return nil, err
	}
	req, err := pb.ParseDepotKeyRequest(in)
	if err != nil {
		return nil, s.statusError(ctx, "GetDepotKey", err)
	}

	key, err := s.content.DepotKey(ctx, p, req.AppID, req.DepotID)
	if err != nil {
		return nil, s.statusError(ctx, "GetDepotKey", err)
	}
	return wrapperspb.Bytes(key), nil
}

func (s *GRPCServer) GetManifestRequestCode(ctx context.Context, in *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	p, err := session(ctx)
	if err != nil {
		return nil, err
	}
	req, err := pb.ParseRequestCodeRequest(in)
	if err != nil {
		return nil, s.statusError(ctx, "GetManifestRequestCode", err)
	}

	code, err := s.content.RequestCode(ctx, p, req.AppID, req.DepotID, req.ManifestID)
	if err != nil {
		return nil, s.statusError(ctx, "GetManifestRequestCode", err)
	}
	return wrapperspb.UInt64(code), nil
}

func (s *GRPCServer) GetManifest(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	p, err := session(ctx)
	if err != nil {
		return nil, err
	}
	req, err := pb.ParseManifestRequest(in)
	if err != nil {
		return nil, s.statusError(ctx, "GetManifest", err)
	}

	raw, err := s.content.Manifest(ctx, p, req.DepotID, req.ManifestID, req.RequestCode)
	if err != nil {
		return nil, s.statusError(ctx, "GetManifest", err)
	}
	return wrapperspb.Bytes(raw), nil
}

func (s *GRPCServer) GetProductInfo(ctx context.Context, in *wrapperspb.UInt32Value) (*structpb.Struct, error) {
	info, err := s.content.ProductInfo(ctx, in.GetValue())
	if err != nil {
		return nil, s.statusError(ctx, "GetProductInfo", err)
	}

	out, err := structpb.NewStruct(info)
	if err != nil {
		return nil, s.statusError(ctx, "GetProductInfo", err)
	}
	return out, nil
}

func (s *GRPCServer) GetFileURL(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	p, err := session(ctx)
	if err != nil {
		return nil, err
	}
	req, err := pb.ParseFileURLRequest(in)
	if err != nil {
		return nil, s.statusError(ctx, "GetFileURL", err)
	}

	url, err := s.content.FileURL(ctx, p, req.DepotID, req.ContentKey)
	if err != nil {
		return nil, s.statusError(ctx, "GetFileURL", err)
	}
	return wrapperspb.String(url), nil
}
