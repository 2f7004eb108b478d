package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/client/client"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeClient is an in-memory gateway: keys and manifests are keyed by depot.
type fakeClient struct {
	loggedOn  bool
	anonymous bool

	loginErr error
	pingErr  error

	keys      map[uint32][]byte
	manifests map[uint32][]byte
	keyErr    map[uint32]error
	info      map[string]any
	infoErr   error
	content   map[string][]byte

	codeCalls     []ticket.Identity
	manifestCalls []uint64
	lastUser      string
	lastCode      string
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) LoginAnonymous(ctx context.Context) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedOn, f.anonymous = true, true
	return nil
}

func (f *fakeClient) LoginWithCredentials(ctx context.Context, username string, password []byte, code string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.lastUser, f.lastCode = username, code
	f.loggedOn, f.anonymous = true, false
	return nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	if !f.loggedOn {
		return common.ErrUnauthenticated
	}
	f.loggedOn, f.anonymous = false, false
	return nil
}

func (f *fakeClient) IsLoggedOn() bool  { return f.loggedOn }
func (f *fakeClient) IsAnonymous() bool { return f.loggedOn && f.anonymous }
func (f *fakeClient) Close() error      { return nil }

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) DepotKey(ctx context.Context, appID, depotID uint32) ([]byte, error) {
	if err := f.keyErr[depotID]; err != nil {
		return nil, err
	}
	k, ok := f.keys[depotID]
	if !ok {
		return nil, fmt.Errorf("depot %d: %w", depotID, common.ErrNotFound)
	}
	return k, nil
}

func (f *fakeClient) ManifestRequestCode(ctx context.Context, appID, depotID uint32, manifestID uint64) (uint64, error) {
	f.codeCalls = append(f.codeCalls, ticket.Identity{AppID: appID, DepotID: depotID, ManifestID: manifestID})
	return 777, nil
}

func (f *fakeClient) ManifestBytes(ctx context.Context, depotID uint32, manifestID, requestCode uint64) ([]byte, error) {
	f.manifestCalls = append(f.manifestCalls, requestCode)
	m, ok := f.manifests[depotID]
	if !ok {
		return nil, fmt.Errorf("manifest %d: %w", manifestID, common.ErrNotFound)
	}
	return m, nil
}

func (f *fakeClient) ProductInfo(ctx context.Context, appID uint32) (map[string]any, error) {
	return f.info, f.infoErr
}

func (f *fakeClient) OpenFile(ctx context.Context, depotID uint32, entry manifest.FileEntry, offset int64) (io.ReadCloser, error) {
	data, ok := f.content[entry.Path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", entry.Path, common.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data[offset:])), nil
}

var (
	spacewarKey  = bytes.Repeat([]byte{0x5a}, 32)
	spacewarID   = ticket.Identity{AppID: 480, DepotID: 481, ManifestID: 3183503801510301321}
	spacewarTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func encodeManifest(t *testing.T, id ticket.Identity, key []byte, files ...manifest.FileEntry) []byte {
	t.Helper()
	raw, err := manifest.Encode(id, spacewarTime, files, key)
	require.NoError(t, err)
	return raw
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos.DB
}
