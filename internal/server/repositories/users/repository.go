package users

import (
	"context"

	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
)

// Repository stores accounts and the apps they own.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	Grant(ctx context.Context, userID string, appID uint32) error
	Owns(ctx context.Context, userID string, appID uint32) (bool, error)
}
