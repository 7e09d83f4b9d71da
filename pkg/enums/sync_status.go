package enums

import "fmt"

// SyncStatus tracks a record's progress toward the remote authority.
// Synced is terminal: once confirmed, a record never re-enters the outbox.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "sync_failed"
)

var validSyncStatuses = []SyncStatus{
	SyncPending,
	SyncSynced,
	SyncFailed,
}

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncStatus.
func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// NeedsSync reports whether a record in this state still awaits remote
// confirmation.
func (s SyncStatus) NeedsSync() bool {
	return s == SyncPending || s == SyncFailed
}

// CanTransitionTo reports whether moving to the target state is legal.
func (s SyncStatus) CanTransitionTo(target SyncStatus) bool {
	if !s.IsValid() || !target.IsValid() {
		return false
	}
	if s == SyncSynced {
		return false
	}
	return true
}

// ParseSyncStatus converts raw input into a SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}
