package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/netx"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mapError turns gRPC status errors into the common sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrUnauthenticated, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrRequestDenied, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrNetwork, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// mapHTTPError classifies failures of a content read.
func mapHTTPError(err error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	switch se.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", common.ErrNotFound, err)
	case http.StatusForbidden, http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", common.ErrRequestDenied, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
}
