package enums

import "testing"

func TestSyncStatusNeedsSync(t *testing.T) {
	cases := []struct {
		status SyncStatus
		want   bool
	}{
		{SyncPending, true},
		{SyncFailed, true},
		{SyncSynced, false},
	}
	for _, tc := range cases {
		if got := tc.status.NeedsSync(); got != tc.want {
			t.Errorf("%s.NeedsSync() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestSyncStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from SyncStatus
		to   SyncStatus
		want bool
	}{
		{SyncPending, SyncSynced, true},
		{SyncPending, SyncFailed, true},
		{SyncFailed, SyncPending, true},
		{SyncFailed, SyncSynced, true},
		{SyncSynced, SyncPending, false},
		{SyncSynced, SyncFailed, false},
		{SyncPending, SyncStatus("bogus"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseSyncStatus(t *testing.T) {
	if _, err := ParseSyncStatus("pending"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseSyncStatus("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseEntityType(t *testing.T) {
	for _, value := range []string{"transaction", "product", "customer", "user", "setting"} {
		if _, err := ParseEntityType(value); err != nil {
			t.Fatalf("unexpected error for %q: %v", value, err)
		}
	}
	if _, err := ParseEntityType("order"); err == nil {
		t.Fatal("expected error for unknown entity type")
	}
}
