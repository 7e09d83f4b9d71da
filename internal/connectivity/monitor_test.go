package connectivity

import (
	"context"
	"testing"
	"time"
)

func receiveEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case event := <-sub.C:
		t.Fatalf("unexpected event %v", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

type stubSourceFn func() bool

func (f stubSourceFn) Sample(_ context.Context) bool { return f() }

func TestNewMonitorRequiresSource(t *testing.T) {
	if _, err := NewMonitor(nil, nil); err == nil {
		t.Fatal("expected error creating monitor without source")
	}
}

func TestMonitorEdgeTriggered(t *testing.T) {
	monitor, err := NewMonitor(stubSourceFn(func() bool { return false }), nil)
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	sub := monitor.Subscribe()
	defer sub.Close()
	ctx := context.Background()

	monitor.Observe(ctx, true)
	if event := receiveEvent(t, sub); event.Type != BecameOnline {
		t.Fatalf("expected became_online, got %s", event.Type)
	}
	if !monitor.Online() {
		t.Fatal("expected monitor to report online")
	}

	// Duplicate samples of the same state are silent.
	monitor.Observe(ctx, true)
	monitor.Observe(ctx, true)
	assertNoEvent(t, sub)

	monitor.Observe(ctx, false)
	if event := receiveEvent(t, sub); event.Type != BecameOffline {
		t.Fatalf("expected became_offline, got %s", event.Type)
	}
	if monitor.Online() {
		t.Fatal("expected monitor to report offline")
	}
}

func TestMonitorStartsOffline(t *testing.T) {
	monitor, _ := NewMonitor(stubSourceFn(func() bool { return false }), nil)
	sub := monitor.Subscribe()
	defer sub.Close()

	monitor.Observe(context.Background(), false)
	assertNoEvent(t, sub)
	if monitor.Online() {
		t.Fatal("expected monitor to start offline")
	}
}

func TestMonitorMultipleSubscribers(t *testing.T) {
	monitor, _ := NewMonitor(stubSourceFn(func() bool { return false }), nil)
	first := monitor.Subscribe()
	second := monitor.Subscribe()
	defer first.Close()
	defer second.Close()
	ctx := context.Background()

	monitor.Observe(ctx, true)
	monitor.Observe(ctx, false)

	for _, sub := range []*Subscription{first, second} {
		if event := receiveEvent(t, sub); event.Type != BecameOnline {
			t.Fatalf("expected became_online, got %s", event.Type)
		}
		if event := receiveEvent(t, sub); event.Type != BecameOffline {
			t.Fatalf("expected became_offline, got %s", event.Type)
		}
	}
}

func TestMonitorSlowSubscriberDoesNotDropEvents(t *testing.T) {
	monitor, _ := NewMonitor(stubSourceFn(func() bool { return false }), nil)
	sub := monitor.Subscribe()
	defer sub.Close()
	ctx := context.Background()

	// Generate a burst of transitions before the consumer reads anything.
	for i := 0; i < 10; i++ {
		monitor.Observe(ctx, true)
		monitor.Observe(ctx, false)
	}

	for i := 0; i < 10; i++ {
		if event := receiveEvent(t, sub); event.Type != BecameOnline {
			t.Fatalf("event %d: expected became_online, got %s", i, event.Type)
		}
		if event := receiveEvent(t, sub); event.Type != BecameOffline {
			t.Fatalf("event %d: expected became_offline, got %s", i, event.Type)
		}
	}
}

func TestMonitorUnsubscribeStopsDelivery(t *testing.T) {
	monitor, _ := NewMonitor(stubSourceFn(func() bool { return false }), nil)
	sub := monitor.Subscribe()
	ctx := context.Background()

	sub.Close()
	monitor.Observe(ctx, true)

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatal("expected no event after unsubscribe")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected channel to close after unsubscribe")
	}

	// Closing twice is safe.
	sub.Close()
}

func TestMonitorRunPollsSource(t *testing.T) {
	online := make(chan bool, 1)
	online <- false
	current := false
	source := stubSourceFn(func() bool {
		select {
		case current = <-online:
		default:
		}
		return current
	})

	monitor, _ := NewMonitor(source, nil)
	sub := monitor.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx, 10*time.Millisecond)

	online <- true
	if event := receiveEvent(t, sub); event.Type != BecameOnline {
		t.Fatalf("expected became_online, got %s", event.Type)
	}
}
