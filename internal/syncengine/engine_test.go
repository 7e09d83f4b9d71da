package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/apotekcloud/pos-terminal/pkg/cloud"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
)

type fakeTracker struct {
	mu      sync.Mutex
	batches [][]models.Record
	calls   int
}

func (f *fakeTracker) Pending(_ context.Context, _ enums.EntityType) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

type fakeStore struct {
	mu    sync.Mutex
	marks map[string]enums.SyncStatus
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{marks: make(map[string]enums.SyncStatus)}
}

func (f *fakeStore) MarkSyncStatus(_ context.Context, _ enums.EntityType, id string, status enums.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.marks[id] = status
	return nil
}

func (f *fakeStore) markOf(id string) enums.SyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks[id]
}

type fakeOnline struct {
	mu     sync.Mutex
	online bool
}

func (f *fakeOnline) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeOnline) set(online bool) {
	f.mu.Lock()
	f.online = online
	f.mu.Unlock()
}

type fakeSubmitter struct {
	mu       sync.Mutex
	attempts map[string]int
	respond  func(key string, attempt int) error
	onSubmit func(key string)
}

func newFakeSubmitter(respond func(key string, attempt int) error) *fakeSubmitter {
	return &fakeSubmitter{attempts: make(map[string]int), respond: respond}
}

func (f *fakeSubmitter) Submit(_ context.Context, key string, _ json.RawMessage) error {
	f.mu.Lock()
	f.attempts[key]++
	attempt := f.attempts[key]
	onSubmit := f.onSubmit
	f.mu.Unlock()
	if onSubmit != nil {
		onSubmit(key)
	}
	return f.respond(key, attempt)
}

func (f *fakeSubmitter) attemptsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[key]
}

func testConfig() config.SyncConfig {
	return config.SyncConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func record(id, number string) models.Record {
	return models.Record{
		ID:         id,
		EntityType: enums.EntityTransaction,
		UniqueKey:  number,
		Payload:    json.RawMessage(`{"id":"` + id + `"}`),
		SyncStatus: enums.SyncPending,
	}
}

func newEngine(t *testing.T, tracker *fakeTracker, store *fakeStore, online *fakeOnline, client *fakeSubmitter) *Engine {
	t.Helper()
	engine, err := NewEngine(tracker, store, online, client, nil, nil, testConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestDrainWhileOfflineReturnsOfflineError(t *testing.T) {
	tracker := &fakeTracker{batches: [][]models.Record{{record("a", "TRX1")}}}
	store := newFakeStore()
	client := newFakeSubmitter(func(string, int) error { return nil })
	engine := newEngine(t, tracker, store, &fakeOnline{online: false}, client)

	_, err := engine.Drain(context.Background(), ReasonManual)
	if !pkgerrors.IsCode(err, pkgerrors.CodeOffline) {
		t.Fatalf("expected offline error, got %v", err)
	}
	if client.attemptsFor("TRX1") != 0 {
		t.Fatal("expected no submissions while offline")
	}
	if len(store.marks) != 0 {
		t.Fatal("expected no status changes while offline")
	}
}

func TestDrainMarksSynced(t *testing.T) {
	tracker := &fakeTracker{batches: [][]models.Record{{
		record("a", "TRX1"),
		record("b", "TRX2"),
	}}}
	store := newFakeStore()
	client := newFakeSubmitter(func(string, int) error { return nil })
	engine := newEngine(t, tracker, store, &fakeOnline{online: true}, client)

	result, err := engine.Drain(context.Background(), ReasonBecameOnline)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if result.Synced != 2 || result.Failed != 0 || result.Remaining != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if store.markOf("a") != enums.SyncSynced || store.markOf("b") != enums.SyncSynced {
		t.Fatalf("expected both records synced, got %v", store.marks)
	}
}

func TestDrainRetriesTransportFailuresThenMarksFailed(t *testing.T) {
	tracker := &fakeTracker{batches: [][]models.Record{{record("a", "TRX1")}}}
	store := newFakeStore()
	client := newFakeSubmitter(func(string, int) error {
		return errors.New("connection refused")
	})
	engine := newEngine(t, tracker, store, &fakeOnline{online: true}, client)

	result, err := engine.Drain(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if client.attemptsFor("TRX1") != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.attemptsFor("TRX1"))
	}
	if store.markOf("a") != enums.SyncFailed {
		t.Fatalf("expected sync_failed, got %s", store.markOf("a"))
	}
	if result.Failed != 1 || result.Remaining != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDrainDoesNotRetryRejections(t *testing.T) {
	tracker := &fakeTracker{batches: [][]models.Record{{record("a", "TRX1")}}}
	store := newFakeStore()
	client := newFakeSubmitter(func(string, int) error {
		return &cloud.RejectionError{StatusCode: 400, Body: "bad payload"}
	})
	engine := newEngine(t, tracker, store, &fakeOnline{online: true}, client)

	if _, err := engine.Drain(context.Background(), ReasonManual); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if client.attemptsFor("TRX1") != 1 {
		t.Fatalf("expected a single attempt for a rejection, got %d", client.attemptsFor("TRX1"))
	}
	if store.markOf("a") != enums.SyncFailed {
		t.Fatalf("expected sync_failed, got %s", store.markOf("a"))
	}
}

func TestDrainTransientFailureSucceedsOnRetry(t *testing.T) {
	tracker := &fakeTracker{batches: [][]models.Record{{record("a", "TRX1")}}}
	store := newFakeStore()
	client := newFakeSubmitter(func(_ string, attempt int) error {
		if attempt < 2 {
			return errors.New("timeout")
		}
		return nil
	})
	engine := newEngine(t, tracker, store, &fakeOnline{online: true}, client)

	result, err := engine.Drain(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if result.Synced != 1 {
		t.Fatalf("expected 1 synced, got %+v", result)
	}
	if store.markOf("a") != enums.SyncSynced {
		t.Fatalf("expected synced, got %s", store.markOf("a"))
	}
}

func TestDrainStopsWhenConnectivityDropsMidPass(t *testing.T) {
	tracker := &fakeTracker{batches: [][]models.Record{{
		record("a", "TRX1"),
		record("b", "TRX2"),
		record("c", "TRX3"),
	}}}
	store := newFakeStore()
	online := &fakeOnline{online: true}
	client := newFakeSubmitter(func(key string, _ int) error { return nil })
	client.onSubmit = func(key string) {
		if key == "TRX1" {
			online.set(false)
		}
	}
	engine := newEngine(t, tracker, store, online, client)

	result, err := engine.Drain(context.Background(), ReasonBecameOnline)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if !result.Aborted {
		t.Fatal("expected aborted pass")
	}
	if result.Synced != 1 {
		t.Fatalf("expected 1 synced before the drop, got %+v", result)
	}
	// Completed marks survive the offline transition.
	if store.markOf("a") != enums.SyncSynced {
		t.Fatalf("expected first record to stay synced, got %s", store.markOf("a"))
	}
	if _, marked := store.marks["b"]; marked {
		t.Fatal("expected untouched record after the drop")
	}
}

func TestDrainCoalescesOverlappingTriggers(t *testing.T) {
	blocking := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once

	tracker := &fakeTracker{batches: [][]models.Record{
		{record("a", "TRX1")},
		{record("b", "TRX2")},
	}}
	store := newFakeStore()
	client := newFakeSubmitter(func(string, int) error { return nil })
	client.onSubmit = func(string) {
		startedOnce.Do(func() { close(started) })
		<-blocking
	}
	engine := newEngine(t, tracker, store, &fakeOnline{online: true}, client)

	done := engine.TriggerAsync(context.Background(), ReasonBecameOnline)
	<-started

	overlapping, err := engine.Drain(context.Background(), ReasonManual)
	if err != nil {
		t.Fatalf("overlapping drain: %v", err)
	}
	if !overlapping.Coalesced {
		t.Fatalf("expected coalesced result, got %+v", overlapping)
	}

	close(blocking)
	result := <-done
	// The queued rerun drained the second batch inside the original call.
	if tracker.calls != 2 {
		t.Fatalf("expected 2 passes, got %d", tracker.calls)
	}
	if result.Synced != 2 {
		t.Fatalf("expected both batches synced, got %+v", result)
	}
}

func TestDrainFailureRetriedOnNextTrigger(t *testing.T) {
	tracker := &fakeTracker{batches: [][]models.Record{
		{record("a", "TRX1")},
		{record("a", "TRX1")},
	}}
	store := newFakeStore()
	fail := true
	client := newFakeSubmitter(func(string, int) error {
		if fail {
			return errors.New("gateway down")
		}
		return nil
	})
	engine := newEngine(t, tracker, store, &fakeOnline{online: true}, client)
	ctx := context.Background()

	if _, err := engine.Drain(ctx, ReasonManual); err != nil {
		t.Fatalf("first drain: %v", err)
	}
	if store.markOf("a") != enums.SyncFailed {
		t.Fatalf("expected sync_failed after first drain, got %s", store.markOf("a"))
	}

	fail = false
	if _, err := engine.Drain(ctx, ReasonManual); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if store.markOf("a") != enums.SyncSynced {
		t.Fatalf("expected synced after second drain, got %s", store.markOf("a"))
	}
}

func TestTriggerAsyncClosesDoneChannel(t *testing.T) {
	tracker := &fakeTracker{}
	store := newFakeStore()
	client := newFakeSubmitter(func(string, int) error { return nil })
	engine := newEngine(t, tracker, store, &fakeOnline{online: true}, client)

	done := engine.TriggerAsync(context.Background(), ReasonPostCheckout)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async drain")
	}
}
