// Package catalog stores the gateway's apps, depots and manifests.
package catalog

import (
	"context"

	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
)

type Repository interface {
	UpsertApp(ctx context.Context, app *models.App) error
	GetApp(ctx context.Context, appID uint32) (*models.App, error)
	SetProductInfo(ctx context.Context, appID uint32, info []byte) error

	// CreateDepot inserts the depot or updates its name; an existing key is
	// never replaced.
	CreateDepot(ctx context.Context, depot *models.Depot) error
	GetDepot(ctx context.Context, depotID uint32) (*models.Depot, error)

	PutManifest(ctx context.Context, m *models.Manifest) error
	GetManifest(ctx context.Context, depotID uint32, manifestID uint64) (*models.Manifest, error)
}
