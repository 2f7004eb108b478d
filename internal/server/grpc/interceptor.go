package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	pb "github.com/dmitrijs2005/depotkeeper/internal/proto"
	"github.com/dmitrijs2005/depotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/depotkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const principalKey ctxKey = "principal"

// publicMethods can be called without a session token.
var publicMethods = map[string]bool{
	pb.ContentDirectory_Ping_FullMethodName:           true,
	pb.ContentDirectory_GetSalt_FullMethodName:        true,
	pb.ContentDirectory_Login_FullMethodName:          true,
	pb.ContentDirectory_LoginAnonymous_FullMethodName: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			// Clients match on this message to drop their session.
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, principalKey, services.Principal{UserID: claims.UserID, Anonymous: claims.Anonymous})

	return handler(ctx, req)
}

func principalFrom(ctx context.Context) (services.Principal, bool) {
	p, ok := ctx.Value(principalKey).(services.Principal)
	return p, ok
}
