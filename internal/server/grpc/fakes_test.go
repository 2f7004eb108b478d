package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/depotkeeper/internal/server/services"
)

const testSecret = "secret"

type fakeUsers struct {
	verifier []byte
}

func (f *fakeUsers) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	return []byte("salt-" + userName), nil
}

func (f *fakeUsers) Login(ctx context.Context, userName string, verifier []byte, code string) (string, error) {
	if string(verifier) != string(f.verifier) {
		return "", common.ErrUnauthenticated
	}
	return auth.GenerateToken("id-"+userName, false, []byte(testSecret), time.Minute)
}

func (f *fakeUsers) LoginAnonymous(ctx context.Context) (string, error) {
	return auth.GenerateToken("", true, []byte(testSecret), time.Minute)
}

type fakeContent struct {
	seen services.Principal
	err  error
	info map[string]any
}

func (f *fakeContent) DepotKey(ctx context.Context, p services.Principal, appID, depotID uint32) ([]byte, error) {
	f.seen = p
	if f.err != nil {
		return nil, f.err
	}
	return []byte{byte(appID), byte(depotID)}, nil
}

func (f *fakeContent) RequestCode(ctx context.Context, p services.Principal, appID, depotID uint32, manifestID uint64) (uint64, error) {
	f.seen = p
	if f.err != nil {
		return 0, f.err
	}
	return manifestID + 1, nil
}

func (f *fakeContent) Manifest(ctx context.Context, p services.Principal, depotID uint32, manifestID, code uint64) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("manifest"), nil
}

func (f *fakeContent) ProductInfo(ctx context.Context, appID uint32) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func (f *fakeContent) FileURL(ctx context.Context, p services.Principal, depotID uint32, contentKey string) (string, error) {
	f.seen = p
	if f.err != nil {
		return "", f.err
	}
	return "http://cdn.test/" + contentKey, nil
}

func newTestServer(content *fakeContent) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Discard(), &fakeUsers{verifier: []byte("v")}, content, testSecret)
}
