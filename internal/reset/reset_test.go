package reset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/apotekcloud/pos-terminal/pkg/enums"
)

type stubClearer struct {
	cleared []enums.EntityType
	errFor  map[enums.EntityType]error
}

func (s *stubClearer) Clear(_ context.Context, entityType enums.EntityType) error {
	if err := s.errFor[entityType]; err != nil {
		return err
	}
	s.cleared = append(s.cleared, entityType)
	return nil
}

type stubSeeder struct {
	called bool
	err    error
}

func (s *stubSeeder) Reseed(_ context.Context) error {
	s.called = true
	return s.err
}

func TestRunClearsAndReseeds(t *testing.T) {
	clearer := &stubClearer{errFor: map[enums.EntityType]error{}}
	seeder := &stubSeeder{}
	svc, err := NewService(clearer, seeder, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(clearer.cleared) != 2 {
		t.Fatalf("expected transactions and users cleared, got %v", clearer.cleared)
	}
	if !seeder.called {
		t.Fatal("expected reseed")
	}
}

func TestRunAggregatesPartialFailures(t *testing.T) {
	clearer := &stubClearer{errFor: map[enums.EntityType]error{
		enums.EntityTransaction: errors.New("locked"),
	}}
	seeder := &stubSeeder{err: errors.New("hash failure")}
	svc, _ := NewService(clearer, seeder, nil)

	err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	parts := multierr.Errors(err)
	if len(parts) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(parts), err)
	}
	if !strings.Contains(err.Error(), "clearing transactions") {
		t.Fatalf("missing transaction failure in %v", err)
	}
	// Users were still cleared and reseed attempted despite the first failure.
	if len(clearer.cleared) != 1 || clearer.cleared[0] != enums.EntityUser {
		t.Fatalf("expected users cleared, got %v", clearer.cleared)
	}
	if !seeder.called {
		t.Fatal("expected reseed attempt despite earlier failure")
	}
}

func TestRunSkipsReseedWhenUserClearFails(t *testing.T) {
	clearer := &stubClearer{errFor: map[enums.EntityType]error{
		enums.EntityUser: errors.New("locked"),
	}}
	seeder := &stubSeeder{}
	svc, _ := NewService(clearer, seeder, nil)

	err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if seeder.called {
		t.Fatal("expected no reseed over a collection that failed to clear")
	}
}
