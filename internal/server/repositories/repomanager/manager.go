package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DB or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Catalog(db dbx.DBTX) catalog.Repository
}
