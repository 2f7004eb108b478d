package catalog

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var wrapped = regexp.MustCompile(`db error: .*boom`)

func TestUpsertApp(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^INSERT\s+INTO\s+apps\s*\(id,\s*name,\s*free\).*ON\s+CONFLICT\s*\(id\)\s+DO\s+UPDATE`
	mock.ExpectExec(q).WithArgs(int64(480), "Spacewar", true).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(480), "Spacewar", true).WillReturnError(errors.New("boom"))

	app := &models.App{ID: 480, Name: "Spacewar", Free: true}
	require.NoError(t, repo.UpsertApp(context.Background(), app))
	assert.Regexp(t, wrapped, repo.UpsertApp(context.Background(), app).Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApp(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,\s*name,\s*free,\s*product_info\s+FROM\s+apps\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs(int64(480)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "free", "product_info"}).
			AddRow(int64(480), "Spacewar", false, []byte(`{"depots":{}}`)))
	mock.ExpectQuery(q).WithArgs(int64(1)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs(int64(2)).WillReturnError(errors.New("boom"))

	app, err := repo.GetApp(context.Background(), 480)
	require.NoError(t, err)
	assert.Equal(t, &models.App{ID: 480, Name: "Spacewar", ProductInfo: []byte(`{"depots":{}}`)}, app)

	_, err = repo.GetApp(context.Background(), 1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetApp(context.Background(), 2)
	assert.Regexp(t, wrapped, err.Error())
}

func TestSetProductInfo(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+apps\s+SET\s+product_info\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs(int64(480), []byte(`{}`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(9), []byte(`{}`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetProductInfo(context.Background(), 480, []byte(`{}`)))
	assert.ErrorIs(t, repo.SetProductInfo(context.Background(), 9, []byte(`{}`)), common.ErrNotFound)
}

func TestDepots(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	ins := `(?s)^INSERT\s+INTO\s+depots\s*\(id,\s*app_id,\s*name,\s*key\).*DO\s+UPDATE\s+SET\s+name\s*=\s*EXCLUDED\.name\s*$`
	sel := `(?s)^SELECT\s+id,\s*app_id,\s*name,\s*key\s+FROM\s+depots\s+WHERE\s+id\s*=\s*\$1`

	key := []byte("0123456789abcdef")
	mock.ExpectExec(ins).WithArgs(int64(481), int64(480), "Content", key).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sel).WithArgs(int64(481)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_id", "name", "key"}).AddRow(int64(481), int64(480), "Content", key))
	mock.ExpectQuery(sel).WithArgs(int64(482)).WillReturnError(sql.ErrNoRows)

	require.NoError(t, repo.CreateDepot(context.Background(), &models.Depot{ID: 481, AppID: 480, Name: "Content", Key: key}))

	d, err := repo.GetDepot(context.Background(), 481)
	require.NoError(t, err)
	assert.Equal(t, &models.Depot{ID: 481, AppID: 480, Name: "Content", Key: key}, d)

	_, err = repo.GetDepot(context.Background(), 482)
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestManifests_StoreIDAsDecimalText(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	ins := `(?s)^INSERT\s+INTO\s+manifests\s*\(depot_id,\s*manifest_id,\s*payload,\s*requires_code\)`
	sel := `(?s)^SELECT\s+payload,\s*requires_code,\s*created_at\s+FROM\s+manifests\s+WHERE\s+depot_id\s*=\s*\$1\s+AND\s+manifest_id\s*=\s*\$2`

	const big = uint64(18446744073709551615)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(ins).WithArgs(int64(481), "18446744073709551615", []byte("raw"), true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sel).WithArgs(int64(481), "18446744073709551615").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "requires_code", "created_at"}).AddRow([]byte("raw"), true, created))
	mock.ExpectQuery(sel).WithArgs(int64(481), "1").WillReturnError(sql.ErrNoRows)

	require.NoError(t, repo.PutManifest(context.Background(), &models.Manifest{
		DepotID: 481, ManifestID: big, Payload: []byte("raw"), RequiresCode: true,
	}))

	m, err := repo.GetManifest(context.Background(), 481, big)
	require.NoError(t, err)
	assert.Equal(t, &models.Manifest{DepotID: 481, ManifestID: big, Payload: []byte("raw"), RequiresCode: true, CreatedAt: created}, m)

	_, err = repo.GetManifest(context.Background(), 481, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
