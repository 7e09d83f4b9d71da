package auth

import (
	"context"
	"encoding/json"
	"testing"

	pkgauth "github.com/apotekcloud/pos-terminal/pkg/auth"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/security"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "pos-terminal",
		ExpirationMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

type stubUserReader struct {
	record *models.Record
	err    error
}

func (s *stubUserReader) GetByUniqueKey(_ context.Context, _ enums.EntityType, _ string) (*models.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func userRecord(t *testing.T, password string) *models.Record {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := types.User{
		ID:           "u1",
		Username:     "kasir",
		Name:         "Kasir 1",
		Role:         enums.UserRoleKasir,
		PasswordHash: hash,
	}
	payload, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	return &models.Record{ID: user.ID, EntityType: enums.EntityUser, UniqueKey: user.Username, Payload: payload}
}

func TestLoginSuccess(t *testing.T) {
	reader := &stubUserReader{record: userRecord(t, "kasir123")}
	svc, err := NewService(reader, testJWTConfig(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.Login(context.Background(), "kasir", "kasir123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.Username != "kasir" || result.User.Role != enums.UserRoleKasir {
		t.Fatalf("unexpected session user %+v", result.User)
	}
	if result.Token == "" {
		t.Fatal("expected token")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != enums.UserRoleKasir {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	reader := &stubUserReader{record: userRecord(t, "kasir123")}
	svc, _ := NewService(reader, testJWTConfig(), nil)

	_, err := svc.Login(context.Background(), "kasir", "wrong")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownUserLooksLikeBadPassword(t *testing.T) {
	reader := &stubUserReader{err: pkgerrors.New(pkgerrors.CodeNotFound, "user missing not found")}
	svc, _ := NewService(reader, testJWTConfig(), nil)

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginValidation(t *testing.T) {
	svc, _ := NewService(&stubUserReader{}, testJWTConfig(), nil)

	_, err := svc.Login(context.Background(), "", "pass")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.Login(context.Background(), "kasir", "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginStoreFailurePassesThrough(t *testing.T) {
	reader := &stubUserReader{err: pkgerrors.New(pkgerrors.CodeDependency, "db gone")}
	svc, _ := NewService(reader, testJWTConfig(), nil)

	_, err := svc.Login(context.Background(), "kasir", "kasir123")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
