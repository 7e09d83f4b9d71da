package outbox

import (
	"context"
	"fmt"

	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
)

// recordSource is the slice of the store the tracker reads from.
type recordSource interface {
	PendingSync(ctx context.Context, entityType enums.EntityType) ([]models.Record, error)
	CountSyncStatus(ctx context.Context, entityType enums.EntityType, status enums.SyncStatus) (int64, error)
}

// Counts summarizes a collection's sync backlog.
type Counts struct {
	Pending int64 `json:"pending"`
	Failed  int64 `json:"failed"`
	Synced  int64 `json:"synced"`
}

// Outstanding is the backlog still awaiting the remote authority.
func (c Counts) Outstanding() int64 {
	return c.Pending + c.Failed
}

// Tracker is a filtered view over the store: the records whose sync status
// marks them as not yet confirmed by the cloud. There is no second persisted
// queue; the store's sync_status column is the only bookkeeping.
type Tracker struct {
	source recordSource
}

// NewTracker builds the outbox tracker.
func NewTracker(source recordSource) (*Tracker, error) {
	if source == nil {
		return nil, fmt.Errorf("record source required")
	}
	return &Tracker{source: source}, nil
}

// Pending returns the records of the collection in pending or sync_failed
// state. A record appears here until a sync pass confirms it.
func (t *Tracker) Pending(ctx context.Context, entityType enums.EntityType) ([]models.Record, error) {
	return t.source.PendingSync(ctx, entityType)
}

// CountsFor reports the collection's backlog per sync state.
func (t *Tracker) CountsFor(ctx context.Context, entityType enums.EntityType) (Counts, error) {
	pending, err := t.source.CountSyncStatus(ctx, entityType, enums.SyncPending)
	if err != nil {
		return Counts{}, err
	}
	failed, err := t.source.CountSyncStatus(ctx, entityType, enums.SyncFailed)
	if err != nil {
		return Counts{}, err
	}
	synced, err := t.source.CountSyncStatus(ctx, entityType, enums.SyncSynced)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Pending: pending, Failed: failed, Synced: synced}, nil
}
