package reset

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/apotekcloud/pos-terminal/pkg/enums"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

type collectionClearer interface {
	Clear(ctx context.Context, entityType enums.EntityType) error
}

type userSeeder interface {
	Reseed(ctx context.Context) error
}

// Service performs the administrative reset: wipe the transaction ledger and
// restore the factory-default operator accounts. This is the only deletion
// path in the terminal; records are never removed one at a time.
type Service struct {
	store  collectionClearer
	seeder userSeeder
	logg   *logger.Logger
}

// NewService builds the reset service.
func NewService(store collectionClearer, seeder userSeeder, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if seeder == nil {
		return nil, fmt.Errorf("seeder required")
	}
	return &Service{store: store, seeder: seeder, logg: logg}, nil
}

// Run executes every reset step and reports all failures together, so a
// partial reset is visible rather than silently half-done.
func (s *Service) Run(ctx context.Context) error {
	var errs error

	if err := s.store.Clear(ctx, enums.EntityTransaction); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("clearing transactions: %w", err))
	}
	if err := s.store.Clear(ctx, enums.EntityUser); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("clearing users: %w", err))
	} else if err := s.seeder.Reseed(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("reseeding users: %w", err))
	}

	if errs != nil {
		return errs
	}
	if s.logg != nil {
		s.logg.Info(ctx, "terminal reset complete")
	}
	return nil
}
