package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/server/config"
	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/repomanager"
)

// ErrBadContentKey is returned for content keys that are not a lowercase
// hex SHA-256.
var ErrBadContentKey = errors.New("bad content key")

// Principal is the owner of a session as recorded in its token.
type Principal struct {
	UserID    string
	Anonymous bool
}

// URLSigner hands out time-limited read URLs for stored objects.
type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ContentService answers directory queries: depot keys, manifest request
// codes, manifests, product info and content URLs.
type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      URLSigner
	codeSecret  []byte
	codeWindow  time.Duration
	presignTTL  time.Duration
	now         func() time.Time
}

func NewContentService(db *sql.DB, m repomanager.RepositoryManager, signer URLSigner, cfg *config.Config) *ContentService {
	window := cfg.RequestCodeWindow
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &ContentService{
		db:          db,
		repomanager: m,
		signer:      signer,
		codeSecret:  []byte(cfg.RequestCodeSecret),
		codeWindow:  window,
		presignTTL:  cfg.PresignTTL,
		now:         time.Now,
	}
}

// ObjectKey is where the content identified by contentKey is stored.
func ObjectKey(depotID uint32, contentKey string) string {
	return fmt.Sprintf("depots/%d/%s", depotID, contentKey)
}

// depotOf loads depotID and checks that it belongs to appID.
func (s *ContentService) depotOf(ctx context.Context, appID, depotID uint32) (*models.Depot, error) {
	depot, err := s.repomanager.Catalog(s.db).GetDepot(ctx, depotID)
	if err != nil {
		return nil, err
	}
	if depot.AppID != appID {
		return nil, fmt.Errorf("depot %d of app %d: %w", depotID, appID, common.ErrNotFound)
	}
	return depot, nil
}

// entitled reports whether p may read keys of appID: free apps are open to
// every session, others need an account that owns them.
func (s *ContentService) entitled(ctx context.Context, p Principal, appID uint32) error {
	app, err := s.repomanager.Catalog(s.db).GetApp(ctx, appID)
	if err != nil {
		return err
	}
	if app.Free {
		return nil
	}
	if p.Anonymous || p.UserID == "" {
		return fmt.Errorf("%w: app %d needs an account that owns it", common.ErrRequestDenied, appID)
	}
	owns, err := s.repomanager.Users(s.db).Owns(ctx, p.UserID, appID)
	if err != nil {
		return err
	}
	if !owns {
		return fmt.Errorf("%w: app %d is not owned", common.ErrRequestDenied, appID)
	}
	return nil
}

func (s *ContentService) DepotKey(ctx context.Context, p Principal, appID, depotID uint32) ([]byte, error) {
	if err := s.entitled(ctx, p, appID); err != nil {
		return nil, err
	}
	depot, err := s.depotOf(ctx, appID, depotID)
	if err != nil {
		return nil, err
	}
	return depot.Key, nil
}

// RequestCode returns the code that unlocks manifestID during the current
// window.
func (s *ContentService) RequestCode(ctx context.Context, p Principal, appID, depotID uint32, manifestID uint64) (uint64, error) {
	if err := s.entitled(ctx, p, appID); err != nil {
		return 0, err
	}
	if _, err := s.depotOf(ctx, appID, depotID); err != nil {
		return 0, err
	}
	if _, err := s.repomanager.Catalog(s.db).GetManifest(ctx, depotID, manifestID); err != nil {
		return 0, err
	}
	return s.requestCode(depotID, manifestID, s.window(s.now())), nil
}

// Manifest returns the raw payload. Manifests flagged RequiresCode accept
// the codes of the current and the previous window, which are only issued
// to entitled sessions. The rest ignore the code and check p directly.
func (s *ContentService) Manifest(ctx context.Context, p Principal, depotID uint32, manifestID, code uint64) ([]byte, error) {
	cat := s.repomanager.Catalog(s.db)
	m, err := cat.GetManifest(ctx, depotID, manifestID)
	if err != nil {
		return nil, err
	}
	if m.RequiresCode {
		w := s.window(s.now())
		if code == 0 || (code != s.requestCode(depotID, manifestID, w) && code != s.requestCode(depotID, manifestID, w-1)) {
			return nil, fmt.Errorf("%w: invalid manifest request code", common.ErrRequestDenied)
		}
		return m.Payload, nil
	}

	depot, err := cat.GetDepot(ctx, depotID)
	if err != nil {
		return nil, err
	}
	if err := s.entitled(ctx, p, depot.AppID); err != nil {
		return nil, err
	}
	return m.Payload, nil
}

// ProductInfo returns {"apps": {"<appID>": node}}. Unknown apps give an
// empty apps mapping.
func (s *ContentService) ProductInfo(ctx context.Context, appID uint32) (map[string]any, error) {
	apps := map[string]any{}
	out := map[string]any{"apps": apps}

	app, err := s.repomanager.Catalog(s.db).GetApp(ctx, appID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return out, nil
		}
		return nil, err
	}

	node := map[string]any{}
	if len(app.ProductInfo) > 0 {
		if err := json.Unmarshal(app.ProductInfo, &node); err != nil {
			return nil, fmt.Errorf("%w: stored product info of %d: %v", common.ErrInternal, appID, err)
		}
	}
	apps[strconv.FormatUint(uint64(appID), 10)] = node
	return out, nil
}

// FileURL presigns a read of one content object. Content is stored in the
// clear, so p must be entitled to the depot's app.
func (s *ContentService) FileURL(ctx context.Context, p Principal, depotID uint32, contentKey string) (string, error) {
	if !validContentKey(contentKey) {
		return "", fmt.Errorf("%w: %q", ErrBadContentKey, contentKey)
	}
	depot, err := s.repomanager.Catalog(s.db).GetDepot(ctx, depotID)
	if err != nil {
		return "", err
	}
	if err := s.entitled(ctx, p, depot.AppID); err != nil {
		return "", err
	}
	return s.signer.PresignGet(ctx, ObjectKey(depotID, contentKey), s.presignTTL)
}

func (s *ContentService) window(t time.Time) int64 {
	return t.UnixNano() / int64(s.codeWindow)
}

// requestCode is HMAC-SHA256(depot, manifest, window) truncated to 64 bits.
// Zero is reserved for "no code".
func (s *ContentService) requestCode(depotID uint32, manifestID uint64, window int64) uint64 {
	var msg [20]byte
	binary.BigEndian.PutUint32(msg[0:4], depotID)
	binary.BigEndian.PutUint64(msg[4:12], manifestID)
	binary.BigEndian.PutUint64(msg[12:20], uint64(window))

	mac := hmac.New(sha256.New, s.codeSecret)
	mac.Write(msg[:])
	code := binary.BigEndian.Uint64(mac.Sum(nil))
	if code == 0 {
		code = 1
	}
	return code
}

func validContentKey(k string) bool {
	if len(k) != sha256.Size*2 {
		return false
	}
	for _, c := range k {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
