package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/dmitrijs2005/depotkeeper/internal/server/config"
	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		RequestCodeSecret:           "codes",
		RequestCodeWindow:           5 * time.Minute,
		PresignTTL:                  15 * time.Minute,
	}
}

type memUsers struct {
	byName map[string]*models.User
	owned  map[string]map[uint32]bool
	err    error
}

func newMemUsers() *memUsers {
	return &memUsers{byName: map[string]*models.User{}, owned: map[string]map[uint32]bool{}}
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u.ID = fmt.Sprintf("id-%s", u.UserName)
	m.byName[u.UserName] = u
	return u, nil
}

func (m *memUsers) GetUserByLogin(ctx context.Context, name string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byName[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Grant(ctx context.Context, userID string, appID uint32) error {
	if m.owned[userID] == nil {
		m.owned[userID] = map[uint32]bool{}
	}
	m.owned[userID][appID] = true
	return nil
}

func (m *memUsers) Owns(ctx context.Context, userID string, appID uint32) (bool, error) {
	return m.owned[userID][appID], nil
}

type manifestKey struct {
	depot    uint32
	manifest uint64
}

type memCatalog struct {
	apps      map[uint32]*models.App
	depots    map[uint32]*models.Depot
	manifests map[manifestKey]*models.Manifest
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		apps:      map[uint32]*models.App{},
		depots:    map[uint32]*models.Depot{},
		manifests: map[manifestKey]*models.Manifest{},
	}
}

func (c *memCatalog) UpsertApp(ctx context.Context, app *models.App) error {
	if old, ok := c.apps[app.ID]; ok {
		old.Name, old.Free = app.Name, app.Free
		return nil
	}
	cp := *app
	c.apps[app.ID] = &cp
	return nil
}

func (c *memCatalog) GetApp(ctx context.Context, appID uint32) (*models.App, error) {
	a, ok := c.apps[appID]
	if !ok {
		return nil, fmt.Errorf("app %d: %w", appID, common.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (c *memCatalog) SetProductInfo(ctx context.Context, appID uint32, info []byte) error {
	a, ok := c.apps[appID]
	if !ok {
		return common.ErrNotFound
	}
	a.ProductInfo = info
	return nil
}

func (c *memCatalog) CreateDepot(ctx context.Context, d *models.Depot) error {
	if old, ok := c.depots[d.ID]; ok {
		old.Name = d.Name
		return nil
	}
	cp := *d
	c.depots[d.ID] = &cp
	return nil
}

func (c *memCatalog) GetDepot(ctx context.Context, depotID uint32) (*models.Depot, error) {
	d, ok := c.depots[depotID]
	if !ok {
		return nil, fmt.Errorf("depot %d: %w", depotID, common.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (c *memCatalog) PutManifest(ctx context.Context, m *models.Manifest) error {
	cp := *m
	c.manifests[manifestKey{m.DepotID, m.ManifestID}] = &cp
	return nil
}

func (c *memCatalog) GetManifest(ctx context.Context, depotID uint32, manifestID uint64) (*models.Manifest, error) {
	m, ok := c.manifests[manifestKey{depotID, manifestID}]
	if !ok {
		return nil, fmt.Errorf("manifest %d/%d: %w", depotID, manifestID, common.ErrNotFound)
	}
	return m, nil
}

type fakeRepoManager struct {
	users   *memUsers
	catalog *memCatalog
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{users: newMemUsers(), catalog: newMemCatalog()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.users }
func (m *fakeRepoManager) Catalog(db dbx.DBTX) catalog.Repository       { return m.catalog }

// fakeBucket implements ObjectStore and URLSigner in memory.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	lastTTL time.Duration
	putErr  error
}

func newFakeBucket() *fakeBucket { return &fakeBucket{objects: map[string][]byte{}} }

func (b *fakeBucket) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch for %s: %d != %d", key, len(data), size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = bytes.Clone(data)
	b.puts++
	return nil
}

func (b *fakeBucket) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *fakeBucket) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	b.lastTTL = ttl
	return "http://cdn.test/" + key + "?sig=1", nil
}
