package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) UpsertApp(ctx context.Context, app *models.App) error {
	query :=
		`INSERT INTO apps (id, name, free)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, free = EXCLUDED.free
		 `

	if _, err := r.db.ExecContext(ctx, query, int64(app.ID), app.Name, app.Free); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetApp(ctx context.Context, appID uint32) (*models.App, error) {
	query :=
		`SELECT id, name, free, product_info FROM apps
		 WHERE id = $1
		 `

	var id int64
	app := &models.App{}
	err := r.db.QueryRowContext(ctx, query, int64(appID)).Scan(&id, &app.Name, &app.Free, &app.ProductInfo)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("app %d", appID))
	}
	app.ID = uint32(id)
	return app, nil
}

func (r *PostgresRepository) SetProductInfo(ctx context.Context, appID uint32, info []byte) error {
	query := `UPDATE apps SET product_info = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, int64(appID), info)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("app %d: %w", appID, common.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) CreateDepot(ctx context.Context, depot *models.Depot) error {
	query :=
		`INSERT INTO depots (id, app_id, name, key)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		 `

	_, err := r.db.ExecContext(ctx, query, int64(depot.ID), int64(depot.AppID), depot.Name, depot.Key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetDepot(ctx context.Context, depotID uint32) (*models.Depot, error) {
	query :=
		`SELECT id, app_id, name, key FROM depots
		 WHERE id = $1
		 `

	var id, appID int64
	d := &models.Depot{}
	if err := r.db.QueryRowContext(ctx, query, int64(depotID)).Scan(&id, &appID, &d.Name, &d.Key); err != nil {
		return nil, notFound(err, fmt.Sprintf("depot %d", depotID))
	}
	d.ID, d.AppID = uint32(id), uint32(appID)
	return d, nil
}

// PutManifest stores a manifest payload, replacing an earlier upload of the
// same id.
func (r *PostgresRepository) PutManifest(ctx context.Context, m *models.Manifest) error {
	query :=
		`INSERT INTO manifests (depot_id, manifest_id, payload, requires_code)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (depot_id, manifest_id) DO UPDATE
		 SET payload = EXCLUDED.payload, requires_code = EXCLUDED.requires_code
		 `

	_, err := r.db.ExecContext(ctx, query,
		int64(m.DepotID), strconv.FormatUint(m.ManifestID, 10), m.Payload, m.RequiresCode)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetManifest(ctx context.Context, depotID uint32, manifestID uint64) (*models.Manifest, error) {
	query :=
		`SELECT payload, requires_code, created_at FROM manifests
		 WHERE depot_id = $1 AND manifest_id = $2
		 `

	m := &models.Manifest{DepotID: depotID, ManifestID: manifestID}
	err := r.db.QueryRowContext(ctx, query, int64(depotID), strconv.FormatUint(manifestID, 10)).
		Scan(&m.Payload, &m.RequiresCode, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("manifest %d/%d", depotID, manifestID))
	}
	return m, nil
}
