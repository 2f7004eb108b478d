// Package tickets indexes ticket files known to the client by identity,
// so a ticket can be located without rescanning the tickets directory.
package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

type Record struct {
	Path      string
	Identity  ticket.Identity
	CreatedAt time.Time
}

type Repository interface {
	Upsert(ctx context.Context, rec Record) error
	GetByIdentity(ctx context.Context, id ticket.Identity) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	DeleteByPath(ctx context.Context, path string) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Manifest ids are stored as text: SQLite integers are signed 64-bit.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (path, app_id, depot_id, manifest_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			app_id = excluded.app_id,
			depot_id = excluded.depot_id,
			manifest_id = excluded.manifest_id,
			created_at = excluded.created_at
	`, rec.Path, rec.Identity.AppID, rec.Identity.DepotID,
		strconv.FormatUint(rec.Identity.ManifestID, 10), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert ticket %s: %w", rec.Path, err)
	}
	return nil
}

// GetByIdentity returns the most recently recorded file for id.
func (r *SQLiteRepository) GetByIdentity(ctx context.Context, id ticket.Identity) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT path, app_id, depot_id, manifest_id, created_at FROM tickets
		WHERE app_id = ? AND depot_id = ? AND manifest_id = ?
		ORDER BY created_at DESC LIMIT 1
	`, id.AppID, id.DepotID, strconv.FormatUint(id.ManifestID, 10))

	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT path, app_id, depot_id, manifest_id, created_at FROM tickets
		ORDER BY app_id, depot_id, path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteByPath(ctx context.Context, path string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete ticket %s: %w", path, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*Record, error) {
	var (
		rec      Record
		manifest string
	)
	if err := s.Scan(&rec.Path, &rec.Identity.AppID, &rec.Identity.DepotID, &manifest, &rec.CreatedAt); err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(manifest, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("manifest id %q: %w", manifest, err)
	}
	rec.Identity.ManifestID = id
	return &rec, nil
}
