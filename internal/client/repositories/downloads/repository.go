// Package downloads keeps the history of download runs of the client.
package downloads

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// Run is one invocation of the download engine for a single manifest.
type Run struct {
	ID          string
	Identity    ticket.Identity
	Destination string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Counters    Counters
}

type Counters struct {
	Total      int
	Skipped    int
	Resumed    int
	Corrupted  int
	Fetched    int
	Empty      int
	Incomplete int
	Failed     int
}

type Repository interface {
	Start(ctx context.Context, run *Run) error
	Finish(ctx context.Context, id string, finishedAt time.Time, c Counters) error
	List(ctx context.Context, limit int) ([]Run, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Start(ctx context.Context, run *Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downloads (id, app_id, depot_id, manifest_id, destination, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Identity.AppID, run.Identity.DepotID,
		strconv.FormatUint(run.Identity.ManifestID, 10), run.Destination, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record download start: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Finish(ctx context.Context, id string, finishedAt time.Time, c Counters) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE downloads SET finished_at = ?, total = ?, skipped = ?, resumed = ?, corrupted = ?,
			fetched = ?, empty = ?, incomplete = ?, failed = ?
		WHERE id = ?
	`, finishedAt.UTC(), c.Total, c.Skipped, c.Resumed, c.Corrupted, c.Fetched, c.Empty, c.Incomplete, c.Failed, id)
	if err != nil {
		return fmt.Errorf("failed to record download finish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("download run %s: wrong rows affected count %d", id, n)
	}
	return nil
}

// List returns the latest runs first. A non-positive limit means no limit.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, app_id, depot_id, manifest_id, destination, started_at, finished_at,
			total, skipped, resumed, corrupted, fetched, empty, incomplete, failed
		FROM downloads ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run      Run
			manifest string
			finished sql.NullTime
			c        = &run.Counters
		)
		if err := rows.Scan(&run.ID, &run.Identity.AppID, &run.Identity.DepotID, &manifest, &run.Destination,
			&run.StartedAt, &finished, &c.Total, &c.Skipped, &c.Resumed, &c.Corrupted, &c.Fetched,
			&c.Empty, &c.Incomplete, &c.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}
		if run.Identity.ManifestID, err = strconv.ParseUint(manifest, 10, 64); err != nil {
			return nil, fmt.Errorf("manifest id %q: %w", manifest, err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate download rows: %w", err)
	}
	return out, nil
}
