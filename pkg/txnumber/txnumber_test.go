package txnumber

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNextIsUniqueUnderRapidSuccession(t *testing.T) {
	gen := New()

	const n = 500
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		number := gen.Next()
		if _, dup := seen[number]; dup {
			t.Fatalf("duplicate transaction number %s", number)
		}
		seen[number] = struct{}{}
	}
}

func TestNextIsUniqueAcrossGoroutines(t *testing.T) {
	gen := New()

	const workers = 8
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				number := gen.Next()
				mu.Lock()
				if _, dup := seen[number]; dup {
					mu.Unlock()
					t.Errorf("duplicate transaction number %s", number)
					return
				}
				seen[number] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestNextFormat(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 14, 30, 52, 0, time.UTC)
	gen := NewWithClock(func() time.Time { return fixed })

	number := gen.Next()
	if !strings.HasPrefix(number, "TRX20250601143052") {
		t.Fatalf("unexpected number format %s", number)
	}
	if len(number) != len("TRX")+14+3 {
		t.Fatalf("unexpected number length %d (%s)", len(number), number)
	}
}

func TestNextToleratesClockGoingBackwards(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 6, 1, 14, 30, 52, 0, time.UTC),
		time.Date(2025, 6, 1, 14, 30, 51, 0, time.UTC),
	}
	idx := 0
	gen := NewWithClock(func() time.Time {
		t := times[idx]
		if idx < len(times)-1 {
			idx++
		}
		return t
	})

	first := gen.Next()
	second := gen.Next()
	if first == second {
		t.Fatalf("expected distinct numbers, got %s twice", first)
	}
}
