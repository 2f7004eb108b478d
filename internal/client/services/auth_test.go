package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login_RemembersUser(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{}
	a := NewAuthService(fc, db, logging.Discard())
	ctx := context.Background()

	require.NoError(t, a.Login(ctx, "gaben", []byte("pw"), "F00D"))
	assert.Equal(t, SessionStatus{LoggedOn: true, Username: "gaben"}, a.Status())
	assert.Equal(t, "F00D", fc.lastCode)

	last, err := a.LastUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gaben", last)

	lt, err := metadata.NewSQLiteRepository(db).GetString(ctx, metadata.KeyLoginType)
	require.NoError(t, err)
	assert.Equal(t, LoginTypeCredentials, lt)
}

func TestAuthService_Anonymous_KeepsLastUsername(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{}
	a := NewAuthService(fc, db, logging.Discard())
	ctx := context.Background()

	require.NoError(t, a.Login(ctx, "gaben", []byte("pw"), ""))
	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.Status().LoggedOn)

	require.NoError(t, a.LoginAnonymous(ctx))
	assert.Equal(t, SessionStatus{LoggedOn: true, Anonymous: true}, a.Status())

	last, err := a.LastUsername(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gaben", last)
}

func TestAuthService_Errors(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	fc := &fakeClient{loginErr: common.ErrUnauthenticated}
	a := NewAuthService(fc, db, logging.Discard())

	err := a.Login(ctx, "gaben", []byte("bad"), "")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
	require.ErrorIs(t, a.LoginAnonymous(ctx), common.ErrUnauthenticated)
	require.ErrorIs(t, a.Logout(ctx), common.ErrUnauthenticated)

	last, err := a.LastUsername(ctx)
	require.NoError(t, err)
	assert.Empty(t, last)
}

func TestAuthService_Ping(t *testing.T) {
	fc := &fakeClient{pingErr: errors.New("down")}
	a := NewAuthService(fc, setupDB(t), logging.Discard())
	require.Error(t, a.Ping(context.Background()))
	require.NoError(t, a.Close(context.Background()))
}
