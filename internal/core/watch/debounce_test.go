package watch

import (
	"sync"
	"testing"
	"time"
)

func TestDebounce_CoalescesPerPath(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)

	var mu sync.Mutex
	fired := map[string]int{}
	d.OnFire(func(path string) {
		mu.Lock()
		fired[path]++
		mu.Unlock()
	})

	d.Push("a.go")
	d.Push("a.go")
	d.Push("a.go")
	d.Push("b.go")
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired["a.go"] != 1 {
		t.Fatalf("a.go fired %d times, want 1", fired["a.go"])
	}
	if fired["b.go"] != 1 {
		t.Fatalf("b.go fired %d times, want 1", fired["b.go"])
	}
}

func TestDebounce_RepushDelaysFiring(t *testing.T) {
	d := NewDebouncer(150 * time.Millisecond)

	var mu sync.Mutex
	var firedAt time.Time
	d.OnFire(func(string) {
		mu.Lock()
		firedAt = time.Now()
		mu.Unlock()
	})

	start := time.Now()
	d.Push("x")
	time.Sleep(100 * time.Millisecond)
	d.Push("x") // re-arms, pushing the deadline out
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if firedAt.IsZero() {
		t.Fatalf("never fired")
	}
	if firedAt.Sub(start) < 250*time.Millisecond {
		t.Fatalf("fired after %v, want >= 250ms", firedAt.Sub(start))
	}
}

func TestDebounce_CancelAll(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var mu sync.Mutex
	count := 0
	d.OnFire(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	d.Push("a")
	d.Push("b")
	if d.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", d.Pending())
	}
	d.CancelAll()
	d.Push("c") // ignored after shutdown
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("fired %d times after cancel", count)
	}
	if d.Pending() != 0 {
		t.Fatalf("pending = %d after cancel", d.Pending())
	}
}
