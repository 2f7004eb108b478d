// Package services contains the gateway's business logic. This file
// implements UserService, which handles accounts, ownership grants and the
// issuing of session tokens.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/cryptox"
	"github.com/dmitrijs2005/depotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/depotkeeper/internal/server/config"
	"github.com/dmitrijs2005/depotkeeper/internal/server/models"
	"github.com/dmitrijs2005/depotkeeper/internal/server/repositories/repomanager"
)

const saltSize = 32

// UserService provides authentication-related operations:
//   - Register: create accounts
//   - Login / LoginAnonymous: verify credentials and mint session tokens
//   - Grant: record app ownership
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// MakeCredentials derives what the gateway stores for password: a fresh
// salt and the verifier a client computes from the same inputs.
func MakeCredentials(password []byte) (salt, verifier []byte) {
	salt = common.GenerateRandByteArray(saltSize)
	masterKey := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(masterKey)
	return salt, cryptox.MakeVerifier(masterKey)
}

// Register creates a new user. A non-empty guardCode must be presented as
// the two-factor code on every login.
func (s *UserService) Register(ctx context.Context, username string, salt, verifier []byte, guardCode string) (*models.User, error) {
	user := &models.User{UserName: username, Salt: salt, Verifier: verifier, GuardCode: strings.ToUpper(guardCode)}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// GetSalt returns the user's stored salt or a random salt if the user is
// absent, so that lookups do not reveal which accounts exist.
func (s *UserService) GetSalt(ctx context.Context, userName string) ([]byte, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return s.getRandomSalt(), nil
		}
		return nil, common.ErrInternal
	}
	return user.Salt, nil
}

// Login verifies the verifier candidate and, when the account has one, the
// two-factor code. It returns a session token.
func (s *UserService) Login(ctx context.Context, userName string, verifierCandidate []byte, twoFactorCode string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthenticated
		}
		return "", common.ErrInternal
	}
	if !s.checkVerifier(user.Verifier, verifierCandidate) {
		return "", common.ErrUnauthenticated
	}
	if user.GuardCode != "" && !s.checkVerifier([]byte(user.GuardCode), []byte(strings.ToUpper(twoFactorCode))) {
		return "", fmt.Errorf("%w: two-factor code required", common.ErrUnauthenticated)
	}
	return s.generateAccessToken(user.ID, false)
}

// LoginAnonymous issues a token that may only read free content.
func (s *UserService) LoginAnonymous(ctx context.Context) (string, error) {
	return s.generateAccessToken("", true)
}

// Grant records that userName owns appID.
func (s *UserService) Grant(ctx context.Context, userName string, appID uint32) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		return fmt.Errorf("user %q: %w", userName, err)
	}
	if err := repo.Grant(ctx, user.ID, appID); err != nil {
		return fmt.Errorf("grant %d to %q: %w", appID, userName, err)
	}
	return nil
}

// --- helpers below ---

func (s *UserService) getRandomSalt() []byte { return common.GenerateRandByteArray(saltSize) }

func (s *UserService) generateAccessToken(userID string, anonymous bool) (string, error) {
	token, err := auth.GenerateToken(userID, anonymous, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}

func (s *UserService) checkVerifier(verifier []byte, candidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}
