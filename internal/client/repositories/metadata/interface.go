package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyLastUsername = "last_username"
	KeyLoginType    = "login_type"
	KeyLastTicket   = "last_ticket"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
