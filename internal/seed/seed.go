package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apotekcloud/pos-terminal/internal/store"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
	"github.com/apotekcloud/pos-terminal/pkg/security"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

// DefaultUser is one factory-default operator account.
type DefaultUser struct {
	Username string
	Name     string
	Role     enums.UserRole
	Password string
}

// DefaultUsers is the fixed account set a fresh terminal ships with. The
// passwords are first-boot defaults; operators change them from the back
// office.
var DefaultUsers = []DefaultUser{
	{Username: "admin", Name: "Administrator", Role: enums.UserRoleAdmin, Password: "admin123"},
	{Username: "kasir", Name: "Kasir 1", Role: enums.UserRoleKasir, Password: "kasir123"},
}

type userStore interface {
	Put(ctx context.Context, entityType enums.EntityType, input store.PutInput) (*models.Record, error)
	GetAll(ctx context.Context, entityType enums.EntityType) ([]models.Record, error)
}

// Seeder provisions the default operator accounts.
type Seeder struct {
	store    userStore
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewSeeder builds the seeder.
func NewSeeder(userStore userStore, password config.PasswordConfig, logg *logger.Logger) (*Seeder, error) {
	if userStore == nil {
		return nil, fmt.Errorf("user store required")
	}
	return &Seeder{store: userStore, password: password, logg: logg, now: time.Now}, nil
}

// EnsureDefaults seeds the default users only when the user collection is
// empty, so a terminal restart never clobbers changed passwords.
func (s *Seeder) EnsureDefaults(ctx context.Context) error {
	existing, err := s.store.GetAll(ctx, enums.EntityUser)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return s.Reseed(ctx)
}

// Reseed writes the full default user set unconditionally. The admin reset
// uses this after clearing the collection.
func (s *Seeder) Reseed(ctx context.Context) error {
	for _, def := range DefaultUsers {
		hash, err := security.HashPassword(def.Password, s.password)
		if err != nil {
			return fmt.Errorf("hashing default password for %s: %w", def.Username, err)
		}
		user := types.User{
			ID:           uuid.NewString(),
			Username:     def.Username,
			Name:         def.Name,
			Role:         def.Role,
			PasswordHash: hash,
			CreatedAt:    s.now().UTC(),
		}
		if _, err := s.store.Put(ctx, enums.EntityUser, store.PutInput{
			ID:        user.ID,
			UniqueKey: user.Username,
			Payload:   user,
		}); err != nil {
			return fmt.Errorf("seeding user %s: %w", def.Username, err)
		}
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "count", len(DefaultUsers)), "default users seeded")
	}
	return nil
}

// DecodeUser unmarshals a user record payload.
func DecodeUser(record models.Record) (types.User, error) {
	var user types.User
	if err := json.Unmarshal(record.Payload, &user); err != nil {
		return types.User{}, fmt.Errorf("decoding user record %s: %w", record.ID, err)
	}
	return user, nil
}
