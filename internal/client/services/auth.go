// Package services contains the application services of the depotkeeper
// client: session handling, ticket building and loading, bulk builds and
// local ticket bookkeeping.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/depotkeeper/internal/client/client"
	"github.com/dmitrijs2005/depotkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/depotkeeper/internal/dbx"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
)

const (
	LoginTypeAnonymous   = "anonymous"
	LoginTypeCredentials = "credentials"
)

// SessionStatus is a snapshot of the current session.
type SessionStatus struct {
	LoggedOn  bool
	Anonymous bool
	Username  string
}

// AuthService defines session operations for the CLI.
type AuthService interface {
	LoginAnonymous(ctx context.Context) error
	Login(ctx context.Context, username string, password []byte, twoFactorCode string) error
	Logout(ctx context.Context) error
	Status() SessionStatus
	LastUsername(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client   client.Client
	db       *sql.DB
	logger   logging.Logger
	username string
}

// NewAuthService binds an AuthService to a gateway client and the local
// database used to remember the last login.
func NewAuthService(c client.Client, db *sql.DB, logger logging.Logger) AuthService {
	return &authService{client: c, db: db, logger: logger}
}

func (a *authService) LoginAnonymous(ctx context.Context) error {
	if err := a.client.LoginAnonymous(ctx); err != nil {
		return fmt.Errorf("anonymous login: %w", err)
	}
	a.username = ""
	a.logger.Info(ctx, "logged on anonymously")
	return a.remember(ctx, "", LoginTypeAnonymous)
}

func (a *authService) Login(ctx context.Context, username string, password []byte, twoFactorCode string) error {
	if err := a.client.LoginWithCredentials(ctx, username, password, twoFactorCode); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	a.username = username
	a.logger.Info(ctx, "logged on", "username", username)
	return a.remember(ctx, username, LoginTypeCredentials)
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	a.username = ""
	a.logger.Info(ctx, "logged off")
	return nil
}

func (a *authService) Status() SessionStatus {
	return SessionStatus{
		LoggedOn:  a.client.IsLoggedOn(),
		Anonymous: a.client.IsAnonymous(),
		Username:  a.username,
	}
}

// LastUsername returns the account used by the last successful credential
// login, or "" when there was none.
func (a *authService) LastUsername(ctx context.Context) (string, error) {
	return metadata.NewSQLiteRepository(a.db).GetString(ctx, metadata.KeyLastUsername)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) remember(ctx context.Context, username, loginType string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if username != "" {
			if err := repo.SetString(ctx, metadata.KeyLastUsername, username); err != nil {
				return err
			}
		}
		return repo.SetString(ctx, metadata.KeyLoginType, loginType)
	})
}
