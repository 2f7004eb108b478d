package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/cryptox"
	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
	"github.com/dmitrijs2005/depotkeeper/internal/netx"
	pb "github.com/dmitrijs2005/depotkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultRequestTimeout = 30 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.ContentDirectoryClient
	httpClient  *http.Client
	timeout     time.Duration

	mu          sync.RWMutex
	accessToken string
	anonymous   bool
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the session token to every call and drops
// the session once the gateway reports it expired.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	if token != "" {
		ctx = withAccessToken(ctx, token)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error() {
		s.mu.Lock()
		if s.accessToken == token {
			s.accessToken = ""
			s.anonymous = false
		}
		s.mu.Unlock()
	}
	return err
}

// NewGRPCClient connects to the content gateway at endpointURL. Extra dial
// options are appended to the defaults.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c := &GRPCClient{
		endpointURL: endpointURL,
		httpClient:  &http.Client{},
		timeout:     timeout,
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewContentDirectoryClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) setSession(token string, anonymous bool) {
	s.mu.Lock()
	s.accessToken = token
	s.anonymous = anonymous
	s.mu.Unlock()
}

func (s *GRPCClient) IsLoggedOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

func (s *GRPCClient) IsAnonymous() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != "" && s.anonymous
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return mapError(err)
	}
	if resp.GetValue() != "OK" {
		return fmt.Errorf("%w: gateway status %q", common.ErrNetwork, resp.GetValue())
	}
	return nil
}

func (s *GRPCClient) LoginAnonymous(ctx context.Context) error {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.LoginAnonymous(ctx, &emptypb.Empty{})
	if err != nil {
		return mapError(err)
	}
	s.setSession(resp.GetValue(), true)
	return nil
}

// LoginWithCredentials derives the account verifier from password and the
// salt stored by the gateway; the password itself never leaves the client.
func (s *GRPCClient) LoginWithCredentials(ctx context.Context, username string, password []byte, twoFactorCode string) error {
	ctx, cancel := s.call(ctx)
	defer cancel()

	salt, err := s.client.GetSalt(ctx, wrapperspb.String(username))
	if err != nil {
		return mapError(err)
	}

	masterKey := cryptox.DeriveMasterKey(password, salt.GetValue())
	defer common.WipeByteArray(masterKey)

	req := &pb.LoginRequest{
		Username:      username,
		Verifier:      cryptox.MakeVerifier(masterKey),
		TwoFactorCode: twoFactorCode,
	}
	resp, err := s.client.Login(ctx, req.Struct())
	if err != nil {
		return mapError(err)
	}
	s.setSession(resp.GetValue(), false)
	return nil
}

// Logout forgets the session token; gateway tokens expire on their own.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if !s.IsLoggedOn() {
		return fmt.Errorf("logout: %w", common.ErrUnauthenticated)
	}
	s.setSession("", false)
	return nil
}

func (s *GRPCClient) DepotKey(ctx context.Context, appID, depotID uint32) ([]byte, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	req := &pb.DepotKeyRequest{AppID: appID, DepotID: depotID}
	resp, err := s.client.GetDepotKey(ctx, req.Struct())
	if err != nil {
		return nil, mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) ManifestRequestCode(ctx context.Context, appID, depotID uint32, manifestID uint64) (uint64, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	req := &pb.RequestCodeRequest{AppID: appID, DepotID: depotID, ManifestID: manifestID}
	resp, err := s.client.GetManifestRequestCode(ctx, req.Struct())
	if err != nil {
		return 0, mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) ManifestBytes(ctx context.Context, depotID uint32, manifestID, requestCode uint64) ([]byte, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	req := &pb.ManifestRequest{DepotID: depotID, ManifestID: manifestID, RequestCode: requestCode}
	resp, err := s.client.GetManifest(ctx, req.Struct())
	if err != nil {
		return nil, mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) ProductInfo(ctx context.Context, appID uint32) (map[string]any, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.GetProductInfo(ctx, wrapperspb.UInt32(appID))
	if err != nil {
		return nil, mapError(err)
	}
	return resp.AsMap(), nil
}

// OpenFile asks the gateway for a short-lived URL of the entry's content and
// starts reading it at offset. Reading the body is not bound by the request
// timeout; ctx still cancels it.
func (s *GRPCClient) OpenFile(ctx context.Context, depotID uint32, entry manifest.FileEntry, offset int64) (io.ReadCloser, error) {
	callCtx, cancel := s.call(ctx)
	req := &pb.FileURLRequest{DepotID: depotID, ContentKey: entry.ContentKey}
	resp, err := s.client.GetFileURL(callCtx, req.Struct())
	cancel()
	if err != nil {
		return nil, mapError(err)
	}

	body, err := netx.OpenRange(ctx, s.httpClient, resp.GetValue(), offset)
	if err != nil {
		return nil, mapHTTPError(err)
	}
	return body, nil
}
