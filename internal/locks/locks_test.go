package locks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex(0)
	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(context.Background(), "timetable:teacher:T1:weekday:Monday")
			if err != nil {
				t.Errorf("Lock returned error: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex(50 * time.Millisecond)
	release, err := m.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}
	defer release()

	other, err := m.Lock(context.Background(), "b")
	if err != nil {
		t.Fatalf("expected independent key to be free, got %v", err)
	}
	other()
}

func TestKeyedMutexTimesOut(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex(20 * time.Millisecond)
	release, err := m.Lock(context.Background(), "b", "a")
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}

	if _, err := m.Lock(context.Background(), "c", "a"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	// The failed attempt must not keep "c".
	c, err := m.Lock(context.Background(), "c")
	if err != nil {
		t.Fatalf("expected c to be free after failed attempt, got %v", err)
	}
	c()

	release()
	release()

	again, err := m.Lock(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("expected keys to be free after release, got %v", err)
	}
	again()
	if len(m.entries) != 0 {
		t.Fatalf("expected entries to be cleaned up, got %d", len(m.entries))
	}
}

func TestKeyedMutexHonoursCancellation(t *testing.T) {
	t.Parallel()

	m := NewKeyedMutex(0)
	release, err := m.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Lock(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := normalize([]string{"b", "", "a", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected normalized keys %v", got)
	}
}
