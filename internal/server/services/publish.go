package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// ObjectStore is the write side of the content bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PublishRequest describes one depot version built from a local directory.
type PublishRequest struct {
	AppID     uint32
	AppName   string
	Free      bool
	DepotID   uint32
	DepotName string
	OSList    string
	// ManifestID of 0 derives the id from the directory content.
	ManifestID   uint64
	RequiresCode bool
	Dir          string
}

type PublishResult struct {
	ManifestID uint64
	Files      int
	Dirs       int
	Uploaded   int
	Size       uint64
}

// PublishService turns directories into stored content, manifests and
// product info.
type PublishService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	logger      logging.Logger
	now         func() time.Time
}

func NewPublishService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, logger logging.Logger) *PublishService {
	return &PublishService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "publisher"),
		now:         time.Now,
	}
}

// Publish uploads every file of req.Dir that the bucket does not hold yet,
// then records the depot, its sealed manifest and the app's product info
// in one transaction. Files are stored under their SHA-256, so unchanged
// files are never uploaded twice.
func (s *PublishService) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	entries, err := scanDir(req.Dir)
	if err != nil {
		return nil, err
	}

	res := &PublishResult{ManifestID: req.ManifestID}
	for _, e := range entries {
		if e.IsDirectory {
			res.Dirs++
			continue
		}
		res.Files++
		res.Size += e.Size

		uploaded, err := s.upload(ctx, req, e)
		if err != nil {
			return nil, err
		}
		if uploaded {
			res.Uploaded++
		}
	}
	if res.ManifestID == 0 {
		res.ManifestID = deriveManifestID(req.DepotID, entries)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cat := s.repomanager.Catalog(tx)

		if err := cat.UpsertApp(ctx, &models.App{ID: req.AppID, Name: req.AppName, Free: req.Free}); err != nil {
			return err
		}
		key, err := s.depotKey(ctx, cat, req)
		if err != nil {
			return err
		}

		id := ticket.Identity{AppID: req.AppID, DepotID: req.DepotID, ManifestID: res.ManifestID}
		raw, err := manifest.Encode(id, s.now(), entries, key)
		if err != nil {
			return fmt.Errorf("encode manifest: %w", err)
		}
		if err := cat.PutManifest(ctx, &models.Manifest{
			DepotID: req.DepotID, ManifestID: res.ManifestID, Payload: raw, RequiresCode: req.RequiresCode,
		}); err != nil {
			return err
		}

		app, err := cat.GetApp(ctx, req.AppID)
		if err != nil {
			return err
		}
		info, err := withPublicManifest(app.ProductInfo, req, res)
		if err != nil {
			return err
		}
		return cat.SetProductInfo(ctx, req.AppID, info)
	})
	if err != nil {
		return nil, fmt.Errorf("publish depot %d: %w", req.DepotID, err)
	}

	s.logger.Info(ctx, "depot published", "app_id", req.AppID, "depot_id", req.DepotID,
		"manifest_id", res.ManifestID, "files", res.Files, "uploaded", res.Uploaded, "size", res.Size)
	return res, nil
}

func (s *PublishService) upload(ctx context.Context, req PublishRequest, e manifest.FileEntry) (bool, error) {
	key := ObjectKey(req.DepotID, e.ContentKey)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug(ctx, "content already stored", "depot_id", req.DepotID, "path", e.Path)
		return false, nil
	}

	f, err := os.Open(filepath.Join(req.Dir, filepath.FromSlash(e.Path)))
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrIO, err)
	}
	defer f.Close()

	if err := s.store.Put(ctx, key, f, int64(e.Size)); err != nil {
		return false, err
	}
	s.logger.Debug(ctx, "content uploaded", "depot_id", req.DepotID, "path", e.Path, "size", e.Size)
	return true, nil
}

// depotKey returns the key of an existing depot or creates the depot with
// a fresh one.
func (s *PublishService) depotKey(ctx context.Context, cat catalog.Repository, req PublishRequest) ([]byte, error) {
	depot, err := cat.GetDepot(ctx, req.DepotID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		depot = &models.Depot{
			ID:    req.DepotID,
			AppID: req.AppID,
			Name:  req.DepotName,
			Key:   common.GenerateRandByteArray(common.MaxDepotKeySize),
		}
	case err != nil:
		return nil, err
	case depot.AppID != req.AppID:
		return nil, fmt.Errorf("depot %d belongs to app %d", req.DepotID, depot.AppID)
	default:
		depot.Name = req.DepotName
	}

	if err := cat.CreateDepot(ctx, depot); err != nil {
		return nil, err
	}
	return depot.Key, nil
}

// scanDir lists every directory and regular file below root in lexical
// order, with slash-separated relative paths and content hashes.
func scanDir(root string) ([]manifest.FileEntry, error) {
	var entries []manifest.FileEntry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			entries = append(entries, manifest.FileEntry{Path: rel, IsDirectory: true})
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		sum, size, err := hashFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, manifest.FileEntry{Path: rel, Size: size, SHA256: sum, ContentKey: sum})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", common.ErrIO, root, err)
	}
	return entries, nil
}

func hashFile(path string) (string, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), uint64(n), nil
}

// deriveManifestID hashes the listing, so publishing identical content
// twice yields the same id.
func deriveManifestID(depotID uint32, entries []manifest.FileEntry) uint64 {
	h := sha256.New()
	var b [8]byte
	binary.BigEndian.PutUint32(b[:4], depotID)
	h.Write(b[:4])
	for _, e := range entries {
		binary.BigEndian.PutUint64(b[:], e.Size)
		h.Write([]byte(e.Path))
		h.Write([]byte{0})
		h.Write(b[:])
		h.Write([]byte(e.SHA256))
		h.Write([]byte{0})
	}
	id := binary.BigEndian.Uint64(h.Sum(nil))
	if id == 0 {
		id = 1
	}
	return id
}

// withPublicManifest sets depots.<id>.manifests.public of the stored product
// info node. Other keys of the node are kept.
func withPublicManifest(raw []byte, req PublishRequest, res *PublishResult) ([]byte, error) {
	node := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("%w: stored product info: %v", common.ErrInternal, err)
		}
	}

	general := child(node, "common")
	general["name"] = req.AppName
	if req.OSList != "" {
		general["oslist"] = req.OSList
	}

	depot := child(child(node, "depots"), strconv.FormatUint(uint64(req.DepotID), 10))
	depot["name"] = req.DepotName
	if req.OSList != "" {
		child(depot, "config")["oslist"] = req.OSList
	}
	size := strconv.FormatUint(res.Size, 10)
	child(depot, "manifests")["public"] = map[string]any{
		"gid":      strconv.FormatUint(res.ManifestID, 10),
		"size":     size,
		"download": size,
	}

	return json.Marshal(node)
}

func child(m map[string]any, key string) map[string]any {
	if c, ok := m[key].(map[string]any); ok {
		return c
	}
	c := map[string]any{}
	m[key] = c
	return c
}
