package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
)

// ErrAlreadySynced guards the one-way sync status transition: a confirmed
// record never becomes pending again.
var ErrAlreadySynced = errors.New("record is already synced")

// Repository owns all SQL touching the records table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds the records repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the record in a single atomic statement keyed by
// (entity_type, id). A unique-key collision with a different row fails the
// statement and leaves any prior row untouched.
func (r *Repository) Upsert(ctx context.Context, record models.Record) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "entity_type"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"unique_key", "payload", "sync_status", "last_modified",
			}),
		}).
		Create(&record).Error
}

// Find loads one record by collection and primary key.
func (r *Repository) Find(ctx context.Context, entityType enums.EntityType, id string) (*models.Record, error) {
	var record models.Record
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND id = ?", entityType, id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByUniqueKey loads one record by its collection-scoped unique key.
func (r *Repository) FindByUniqueKey(ctx context.Context, entityType enums.EntityType, uniqueKey string) (*models.Record, error) {
	var record models.Record
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND unique_key = ?", entityType, uniqueKey).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindAll returns the full collection. Ordering is not part of the contract;
// consumers sort as needed.
func (r *Repository) FindAll(ctx context.Context, entityType enums.EntityType) ([]models.Record, error) {
	var records []models.Record
	err := r.db.WithContext(ctx).
		Where("entity_type = ?", entityType).
		Find(&records).Error
	return records, err
}

// FindBySyncStatus returns the records of a collection in any of the given
// sync states.
func (r *Repository) FindBySyncStatus(ctx context.Context, entityType enums.EntityType, statuses ...enums.SyncStatus) ([]models.Record, error) {
	var records []models.Record
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND sync_status IN ?", entityType, statuses).
		Find(&records).Error
	return records, err
}

// CountBySyncStatus counts records of a collection per sync state.
func (r *Repository) CountBySyncStatus(ctx context.Context, entityType enums.EntityType, status enums.SyncStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Record{}).
		Where("entity_type = ? AND sync_status = ?", entityType, status).
		Count(&count).Error
	return count, err
}

// UpdateSyncStatus flips only the sync_status column. The WHERE guard
// enforces that a synced record is terminal.
func (r *Repository) UpdateSyncStatus(ctx context.Context, entityType enums.EntityType, id string, status enums.SyncStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Record{}).
		Where("entity_type = ? AND id = ?", entityType, id).
		Where("sync_status <> ?", enums.SyncSynced).
		Update("sync_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Find(ctx, entityType, id); err != nil {
			return err
		}
		return ErrAlreadySynced
	}
	return nil
}

// DeleteAll empties a collection. Used only by the administrative reset.
func (r *Repository) DeleteAll(ctx context.Context, entityType enums.EntityType) error {
	return r.db.WithContext(ctx).
		Where("entity_type = ?", entityType).
		Delete(&models.Record{}).Error
}
