package watch

import (
	"sync"
	"testing"
	"time"
)

func TestChangeDebouncer_CoalescesToLatestChange(t *testing.T) {
	var mu sync.Mutex
	var fired int
	var lastPath, lastOp string
	d := newChangeDebouncer(50*time.Millisecond, func(path, op string) {
		mu.Lock()
		defer mu.Unlock()
		fired++
		lastPath, lastOp = path, op
	})
	defer d.Stop()

	d.Record("patrol.yaml", "create")
	for i := 0; i < 9; i++ {
		d.Record("patrol.yaml", "write")
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for debounce window to expire
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("expected 1 notification, got %d", fired)
	}
	if lastPath != "patrol.yaml" || lastOp != "write" {
		t.Errorf("notification = %q %q, want latest change", lastPath, lastOp)
	}
}

func TestChangeDebouncer_Stop(t *testing.T) {
	var mu sync.Mutex
	var fired int
	d := newChangeDebouncer(50*time.Millisecond, func(string, string) {
		mu.Lock()
		defer mu.Unlock()
		fired++
	})

	d.Record("patrol.yaml", "write")
	d.Stop()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Errorf("expected 0 notifications after stop, got %d", fired)
	}
}
