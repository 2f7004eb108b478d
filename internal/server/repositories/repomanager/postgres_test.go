package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewPostgresRepositoryManager()
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}
	if c := m.Catalog(db); c == nil {
		t.Fatal("Catalog() nil")
	}

	var _ users.Repository = m.Users(db)
	var _ catalog.Repository = m.Catalog(db)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := migrate
	migrate = func(ctx context.Context, db *sql.DB, dialect goose.Dialect, fsys fs.FS) (int, error) {
		if dialect != goose.DialectPostgres {
			return 0, errors.New("unexpected dialect")
		}
		names, err := fs.Glob(fsys, "*.sql")
		if err != nil || len(names) != 3 {
			return 0, errors.New("unexpected migrations")
		}
		return len(names), nil
	}
	defer func() { migrate = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := migrate
	migrate = func(ctx context.Context, db *sql.DB, dialect goose.Dialect, fsys fs.FS) (int, error) {
		return 0, errors.New("boom")
	}
	defer func() { migrate = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
