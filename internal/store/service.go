package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/apotekcloud/pos-terminal/pkg/db"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

const uniqueKeyConstraint = "ux_records_entity_unique_key"

type recordRepository interface {
	Upsert(ctx context.Context, record models.Record) error
	Find(ctx context.Context, entityType enums.EntityType, id string) (*models.Record, error)
	FindByUniqueKey(ctx context.Context, entityType enums.EntityType, uniqueKey string) (*models.Record, error)
	FindAll(ctx context.Context, entityType enums.EntityType) ([]models.Record, error)
	FindBySyncStatus(ctx context.Context, entityType enums.EntityType, statuses ...enums.SyncStatus) ([]models.Record, error)
	CountBySyncStatus(ctx context.Context, entityType enums.EntityType, status enums.SyncStatus) (int64, error)
	UpdateSyncStatus(ctx context.Context, entityType enums.EntityType, id string, status enums.SyncStatus) error
	DeleteAll(ctx context.Context, entityType enums.EntityType) error
}

// PutInput carries one record into the store. UniqueKey is the
// collection-scoped secondary key (transactionNumber, barcode, username,
// settings key); it defaults to ID when the collection has no natural key.
type PutInput struct {
	ID        string
	UniqueKey string
	Payload   any
}

// Store is the durable local store: generic entity collections that survive
// process restart. Every write lands on disk before the caller returns.
type Store struct {
	repo recordRepository
	logg *logger.Logger
	now  func() time.Time
}

// NewStore builds the store service.
func NewStore(repo recordRepository, logg *logger.Logger) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("record repository required")
	}
	return &Store{repo: repo, logg: logg, now: time.Now}, nil
}

// Put upserts one record by primary key and refreshes lastModified. A
// secondary-key collision with a different record surfaces as CONFLICT and
// leaves the prior record, if any, untouched.
func (s *Store) Put(ctx context.Context, entityType enums.EntityType, input PutInput) (*models.Record, error) {
	if !entityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity type %q", entityType))
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	uniqueKey := strings.TrimSpace(input.UniqueKey)
	if uniqueKey == "" {
		uniqueKey = id
	}

	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encoding record payload")
	}

	record := models.Record{
		ID:           id,
		EntityType:   entityType,
		UniqueKey:    uniqueKey,
		Payload:      payload,
		SyncStatus:   enums.SyncPending,
		LastModified: s.now().UTC(),
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		if dbpkg.IsUniqueViolation(err, uniqueKeyConstraint) || dbpkg.IsUniqueViolation(err, "records.unique_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("unique key %q already in use", uniqueKey)).
				WithDetails(map[string]any{"entity_type": entityType, "unique_key": uniqueKey})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting record")
	}

	if s.logg != nil {
		fields := map[string]any{
			"entity_type": entityType,
			"record_id":   id,
			"unique_key":  uniqueKey,
		}
		s.logg.Debug(s.logg.WithFields(ctx, fields), "record persisted")
	}
	return &record, nil
}

// Get returns one record or NOT_FOUND.
func (s *Store) Get(ctx context.Context, entityType enums.EntityType, id string) (*models.Record, error) {
	record, err := s.repo.Find(ctx, entityType, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s %s not found", entityType, id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading record")
	}
	return record, nil
}

// GetByUniqueKey returns one record by its secondary key or NOT_FOUND.
func (s *Store) GetByUniqueKey(ctx context.Context, entityType enums.EntityType, uniqueKey string) (*models.Record, error) {
	record, err := s.repo.FindByUniqueKey(ctx, entityType, uniqueKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s with key %s not found", entityType, uniqueKey))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading record")
	}
	return record, nil
}

// GetAll returns the whole collection, unordered.
func (s *Store) GetAll(ctx context.Context, entityType enums.EntityType) ([]models.Record, error) {
	records, err := s.repo.FindAll(ctx, entityType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing records")
	}
	return records, nil
}

// PendingSync returns the records still awaiting cloud confirmation
// (pending or sync_failed). This is the outbox tracker's backing query.
func (s *Store) PendingSync(ctx context.Context, entityType enums.EntityType) ([]models.Record, error) {
	records, err := s.repo.FindBySyncStatus(ctx, entityType, enums.SyncPending, enums.SyncFailed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing unsynced records")
	}
	return records, nil
}

// CountSyncStatus reports how many records of the collection are in the
// given state.
func (s *Store) CountSyncStatus(ctx context.Context, entityType enums.EntityType, status enums.SyncStatus) (int64, error) {
	count, err := s.repo.CountBySyncStatus(ctx, entityType, status)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting records")
	}
	return count, nil
}

// MarkSyncStatus transitions a record's sync bookkeeping without touching
// its payload. Illegal transitions (anything after synced) are rejected.
func (s *Store) MarkSyncStatus(ctx context.Context, entityType enums.EntityType, id string, status enums.SyncStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown sync status %q", status))
	}
	err := s.repo.UpdateSyncStatus(ctx, entityType, id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s %s not found", entityType, id))
		}
		if errors.Is(err, ErrAlreadySynced) {
			// A confirmed record stays confirmed; treat the late update as a no-op.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating sync status")
	}
	return nil
}

// Clear empties a collection. Only the administrative reset calls this.
func (s *Store) Clear(ctx context.Context, entityType enums.EntityType) error {
	if !entityType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity type %q", entityType))
	}
	if err := s.repo.DeleteAll(ctx, entityType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing collection")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "entity_type", entityType), "collection cleared")
	}
	return nil
}
