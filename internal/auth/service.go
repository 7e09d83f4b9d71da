package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apotekcloud/pos-terminal/internal/seed"
	pkgauth "github.com/apotekcloud/pos-terminal/pkg/auth"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
	"github.com/apotekcloud/pos-terminal/pkg/security"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

type userReader interface {
	GetByUniqueKey(ctx context.Context, entityType enums.EntityType, uniqueKey string) (*models.Record, error)
}

// SessionUser is the operator identity returned to the front end. It never
// carries the password hash.
type SessionUser struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Name     string         `json:"name"`
	Role     enums.UserRole `json:"role"`
}

// LoginResult bundles the minted token with the operator it identifies.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      SessionUser `json:"user"`
}

// Service authenticates operators against the local user collection. The
// terminal works fully offline, so login never consults the cloud.
type Service struct {
	users userReader
	jwt   config.JWTConfig
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the auth service.
func NewService(users userReader, jwt config.JWTConfig, logg *logger.Logger) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	return &Service{users: users, jwt: jwt, logg: logg, now: time.Now}, nil
}

// Login verifies the credentials and mints a session token. Unknown usernames
// and bad passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	record, err := s.users.GetByUniqueKey(ctx, enums.EntityUser, username)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	user, err := seed.DecodeUser(*record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding user record")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "username", username), "login rejected")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := pkgauth.MintAccessToken(s.jwt, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting session token")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID), "operator logged in")
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwt.ExpirationMinutes) * time.Minute),
		User: SessionUser{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Role:     user.Role,
		},
	}, nil
}

// UserFromRecord exposes the session view of a stored user.
func UserFromRecord(user types.User) SessionUser {
	return SessionUser{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	}
}
