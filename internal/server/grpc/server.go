// Package grpc exposes the gateway's services as the
// depotkeeper.ContentDirectory gRPC service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	pb "github.com/dmitrijs2005/depotkeeper/internal/proto"
	"github.com/dmitrijs2005/depotkeeper/internal/server/services"
	"google.golang.org/grpc"
)

// UserService authenticates sessions.
type UserService interface {
	GetSalt(ctx context.Context, userName string) ([]byte, error)
	Login(ctx context.Context, userName string, verifier []byte, twoFactorCode string) (string, error)
	LoginAnonymous(ctx context.Context) (string, error)
}

// ContentService answers directory queries for an authenticated session.
type ContentService interface {
	DepotKey(ctx context.Context, p services.Principal, appID, depotID uint32) ([]byte, error)
	RequestCode(ctx context.Context, p services.Principal, appID, depotID uint32, manifestID uint64) (uint64, error)
	Manifest(ctx context.Context, p services.Principal, depotID uint32, manifestID, code uint64) ([]byte, error)
	ProductInfo(ctx context.Context, appID uint32) (map[string]any, error)
	FileURL(ctx context.Context, p services.Principal, depotID uint32, contentKey string) (string, error)
}

type GRPCServer struct {
	pb.UnimplementedContentDirectoryServer
	address   string
	users     UserService
	content   ContentService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us UserService, cs ContentService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		content:   cs,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	pb.RegisterContentDirectoryServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
