package seed

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/apotekcloud/pos-terminal/internal/store"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	"github.com/apotekcloud/pos-terminal/pkg/security"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

func testPasswordConfig() config.PasswordConfig {
	// Minimal parameters keep the test fast.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

type stubUserStore struct {
	existing []models.Record
	puts     []store.PutInput
}

func (s *stubUserStore) Put(_ context.Context, _ enums.EntityType, input store.PutInput) (*models.Record, error) {
	s.puts = append(s.puts, input)
	return &models.Record{ID: input.ID}, nil
}

func (s *stubUserStore) GetAll(_ context.Context, _ enums.EntityType) ([]models.Record, error) {
	return s.existing, nil
}

func TestEnsureDefaultsSeedsEmptyCollection(t *testing.T) {
	userStore := &stubUserStore{}
	seeder, err := NewSeeder(userStore, testPasswordConfig(), nil)
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}

	if err := seeder.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}
	if len(userStore.puts) != len(DefaultUsers) {
		t.Fatalf("expected %d seeded users, got %d", len(DefaultUsers), len(userStore.puts))
	}

	payload, err := json.Marshal(userStore.puts[0].Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var user types.User
	if err := json.Unmarshal(payload, &user); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if user.Username != "admin" || user.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected first user %+v", user)
	}
	ok, err := security.VerifyPassword("admin123", user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected default password to verify, ok=%v err=%v", ok, err)
	}
}

func TestEnsureDefaultsSkipsNonEmptyCollection(t *testing.T) {
	userStore := &stubUserStore{existing: []models.Record{{ID: "u1"}}}
	seeder, _ := NewSeeder(userStore, testPasswordConfig(), nil)

	if err := seeder.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}
	if len(userStore.puts) != 0 {
		t.Fatal("expected no writes when users already exist")
	}
}

func TestReseedWritesUnconditionally(t *testing.T) {
	userStore := &stubUserStore{existing: []models.Record{{ID: "u1"}}}
	seeder, _ := NewSeeder(userStore, testPasswordConfig(), nil)

	if err := seeder.Reseed(context.Background()); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if len(userStore.puts) != len(DefaultUsers) {
		t.Fatalf("expected %d writes, got %d", len(DefaultUsers), len(userStore.puts))
	}
}

func TestDecodeUser(t *testing.T) {
	record := models.Record{
		ID:      "u1",
		Payload: json.RawMessage(`{"id":"u1","username":"kasir","role":"kasir"}`),
	}
	user, err := DecodeUser(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Username != "kasir" {
		t.Fatalf("unexpected user %+v", user)
	}

	if _, err := DecodeUser(models.Record{Payload: json.RawMessage(`{`)}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
