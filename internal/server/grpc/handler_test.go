package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	pb "github.com/dmitrijs2005/depotkeeper/internal/proto"
	"github.com/dmitrijs2005/depotkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func withPrincipal(p services.Principal) context.Context {
	return context.WithValue(context.Background(), principalKey, p)
}

func TestPing(t *testing.T) {
	s := newTestServer(&fakeContent{})
	resp, err := s.Ping(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.GetValue())
}

func TestLogin(t *testing.T) {
	s := newTestServer(&fakeContent{})
	ctx := context.Background()

	resp, err := s.Login(ctx, (&pb.LoginRequest{Username: "gaben", Verifier: []byte("v")}).Struct())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.GetValue())

	_, err = s.Login(ctx, (&pb.LoginRequest{Username: "gaben", Verifier: []byte("x")}).Struct())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.Login(ctx, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetDepotKey_PassesPrincipal(t *testing.T) {
	content := &fakeContent{}
	s := newTestServer(content)

	resp, err := s.GetDepotKey(withPrincipal(services.Principal{UserID: "u1"}),
		(&pb.DepotKeyRequest{AppID: 7, DepotID: 8}).Struct())
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8}, resp.GetValue())
	assert.Equal(t, "u1", content.seen.UserID)

	_, err = s.GetDepotKey(context.Background(), (&pb.DepotKeyRequest{AppID: 7, DepotID: 8}).Struct())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGetManifestRequestCode(t *testing.T) {
	s := newTestServer(&fakeContent{})
	resp, err := s.GetManifestRequestCode(withPrincipal(services.Principal{Anonymous: true}),
		(&pb.RequestCodeRequest{AppID: 1, DepotID: 2, ManifestID: 41}).Struct())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), resp.GetValue())
}

func TestGetProductInfo(t *testing.T) {
	s := newTestServer(&fakeContent{info: map[string]any{
		"apps": map[string]any{"480": map[string]any{"common": map[string]any{"name": "Spacewar"}}},
	}})
	resp, err := s.GetProductInfo(context.Background(), wrapperspb.UInt32(480))
	require.NoError(t, err)
	apps := resp.AsMap()["apps"].(map[string]any)
	assert.Contains(t, apps, "480")
}

func TestGetFileURL(t *testing.T) {
	content := &fakeContent{}
	s := newTestServer(content)
	req := (&pb.FileURLRequest{DepotID: 1, ContentKey: "abc"}).Struct()

	resp, err := s.GetFileURL(withPrincipal(services.Principal{UserID: "u1"}), req)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/abc", resp.GetValue())
	assert.Equal(t, "u1", content.seen.UserID)

	_, err = s.GetFileURL(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.GetManifest(context.Background(), (&pb.ManifestRequest{DepotID: 1, ManifestID: 2}).Struct())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHandlers_ErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrNotFound, codes.NotFound},
		{fmt.Errorf("depot: %w", common.ErrRequestDenied), codes.PermissionDenied},
		{common.ErrUnauthenticated, codes.Unauthenticated},
		{services.ErrBadContentKey, codes.InvalidArgument},
		{pb.ErrBadRequest, codes.InvalidArgument},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{errors.New("disk on fire"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(&fakeContent{err: tt.err})

			_, err := s.GetManifest(withPrincipal(services.Principal{UserID: "u1"}), (&pb.ManifestRequest{DepotID: 1, ManifestID: 2}).Struct())
			assert.Equal(t, tt.code, status.Code(err))

			_, err = s.GetFileURL(withPrincipal(services.Principal{UserID: "u1"}), (&pb.FileURLRequest{DepotID: 1, ContentKey: "k"}).Struct())
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestStatusError_HidesInternalDetail(t *testing.T) {
	s := newTestServer(&fakeContent{err: errors.New("pq: password authentication failed")})
	_, err := s.GetProductInfo(context.Background(), wrapperspb.UInt32(1))
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.NotContains(t, st.Message(), "password")
}
