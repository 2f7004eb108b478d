package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/depotkeeper/internal/manifest"
)

// Session is the authentication capability of a content gateway connection.
// It is owned by a single caller and is not meant for unsynchronized use
// from several goroutines.
type Session interface {
	LoginAnonymous(ctx context.Context) error
	LoginWithCredentials(ctx context.Context, username string, password []byte, twoFactorCode string) error
	Logout(ctx context.Context) error
	IsLoggedOn() bool
	IsAnonymous() bool
	Close() error
}

// Directory supplies depot keys, manifests, product info and file content
// for a logged-on session.
type Directory interface {
	Ping(ctx context.Context) error
	DepotKey(ctx context.Context, appID, depotID uint32) ([]byte, error)
	ManifestRequestCode(ctx context.Context, appID, depotID uint32, manifestID uint64) (uint64, error)
	ManifestBytes(ctx context.Context, depotID uint32, manifestID, requestCode uint64) ([]byte, error)
	ProductInfo(ctx context.Context, appID uint32) (map[string]any, error)
	OpenFile(ctx context.Context, depotID uint32, entry manifest.FileEntry, offset int64) (io.ReadCloser, error)
}

// Client is a Session and Directory over one connection.
type Client interface {
	Session
	Directory
}
