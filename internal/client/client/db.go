package client

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/depotkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/downloads"
	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/tickets"
	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type Repositories struct {
	DB        *sql.DB
	Metadata  metadata.Repository
	Tickets   tickets.Repository
	Downloads downloads.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := dbx.Migrate(ctx, db, goose.DialectSQLite3, migrations.Migrations)
	return err
}

// InitDatabase opens the local SQLite database at dsn, applies pending
// migrations and wires the repositories.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		DB:        db,
		Metadata:  metadata.NewSQLiteRepository(db),
		Tickets:   tickets.NewSQLiteRepository(db),
		Downloads: downloads.NewSQLiteRepository(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
