package connectivity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

// EventType is an edge in the terminal's reachability state.
type EventType string

const (
	BecameOnline  EventType = "became_online"
	BecameOffline EventType = "became_offline"
)

// Event is one reachability transition.
type Event struct {
	Type EventType
	At   time.Time
}

// Source supplies raw reachability samples from the platform. It never
// probes a remote endpoint; the sync engine learns about dead links from its
// own submission failures.
type Source interface {
	Sample(ctx context.Context) bool
}

// Subscription is one listener's view of the monitor. Events arrive on C in
// order with no loss; Close detaches the listener and closes C once the
// backlog drains.
type Subscription struct {
	C <-chan Event

	once   sync.Once
	cancel func()
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	ch     chan Event
}

func newSubscriber() *subscriber {
	sub := &subscriber{ch: make(chan Event)}
	sub.cond = sync.NewCond(&sub.mu)
	go sub.pump()
	return sub
}

func (s *subscriber) enqueue(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, event)
	s.cond.Signal()
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cond.Signal()
}

// pump drains the queue into the channel so a slow consumer never blocks the
// monitor's sampling loop.
func (s *subscriber) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			close(s.ch)
			return
		}
		event := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.ch <- event
	}
}

// Monitor tracks reachability and fans out edge-triggered transition events.
// Duplicate samples of the same state produce no event. The monitor starts
// offline; the first online sample emits became_online.
type Monitor struct {
	source Source
	logg   *logger.Logger
	now    func() time.Time

	mu     sync.Mutex
	online bool
	subs   map[*subscriber]struct{}
}

// NewMonitor builds the monitor around a sample source.
func NewMonitor(source Source, logg *logger.Logger) (*Monitor, error) {
	if source == nil {
		return nil, fmt.Errorf("connectivity source required")
	}
	return &Monitor{
		source: source,
		logg:   logg,
		now:    time.Now,
		subs:   make(map[*subscriber]struct{}),
	}, nil
}

// Online reports the last observed reachability state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a listener for transition events.
func (m *Monitor) Subscribe() *Subscription {
	sub := newSubscriber()
	m.mu.Lock()
	m.subs[sub] = struct{}{}
	m.mu.Unlock()

	return &Subscription{
		C: sub.ch,
		cancel: func() {
			m.mu.Lock()
			delete(m.subs, sub)
			m.mu.Unlock()
			sub.close()
		},
	}
}

// Observe applies one reachability sample. A state change fans an event out
// to every subscriber; a repeat of the current state does nothing.
func (m *Monitor) Observe(ctx context.Context, online bool) {
	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online

	event := Event{Type: BecameOffline, At: m.now()}
	if online {
		event.Type = BecameOnline
	}
	targets := make([]*subscriber, 0, len(m.subs))
	for sub := range m.subs {
		targets = append(targets, sub)
	}
	m.mu.Unlock()

	for _, sub := range targets {
		sub.enqueue(event)
	}
	if m.logg != nil {
		m.logg.Info(m.logg.WithField(ctx, "event", string(event.Type)), "connectivity transition")
	}
}

// Run polls the source until the context ends. An immediate first sample
// establishes the starting state without waiting a full interval.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	m.Observe(ctx, m.source.Sample(ctx))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Observe(ctx, m.source.Sample(ctx))
		}
	}
}
