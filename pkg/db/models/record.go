package models

import (
	"encoding/json"
	"time"

	"github.com/apotekcloud/pos-terminal/pkg/enums"
)

// Record is the generic persisted entity: one row per domain object, grouped
// into collections by entity type. The domain payload is stored opaquely;
// sync bookkeeping lives in dedicated columns so a sync pass never rewrites
// the payload.
type Record struct {
	ID           string           `gorm:"column:id;primaryKey"`
	EntityType   enums.EntityType `gorm:"column:entity_type;primaryKey;uniqueIndex:ux_records_entity_unique_key,priority:1"`
	UniqueKey    string           `gorm:"column:unique_key;not null;uniqueIndex:ux_records_entity_unique_key,priority:2"`
	Payload      json.RawMessage  `gorm:"column:payload;not null"`
	SyncStatus   enums.SyncStatus `gorm:"column:sync_status;not null;default:pending"`
	LastModified time.Time        `gorm:"column:last_modified;not null"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table used by the generic store.
func (Record) TableName() string {
	return "records"
}
