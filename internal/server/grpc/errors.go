package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	pb "github.com/dmitrijs2005/depotkeeper/internal/proto"
	"github.com/dmitrijs2005/depotkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusError maps service errors to gRPC status codes. Unexpected errors
// are logged and reported without detail.
func (s *GRPCServer) statusError(ctx context.Context, method string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		code = codes.Unauthenticated
	case errors.Is(err, common.ErrRequestDenied):
		code = codes.PermissionDenied
	case errors.Is(err, common.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, pb.ErrBadRequest), errors.Is(err, services.ErrBadContentKey):
		code = codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
		return status.Error(codes.Internal, common.ErrInternal.Error())
	}

	s.logger.Debug(ctx, "request rejected", "method", method, "code", code.String(), "error", err)
	return status.Error(code, err.Error())
}
