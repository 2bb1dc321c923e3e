// Package locks serialises check-and-commit sequences on the resources a
// slot write touches. Keys are acquired in sorted order so two writers
// sharing resources cannot deadlock.
package locks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTimeout is returned when a lock could not be acquired in time.
var ErrTimeout = errors.New("locks: timed out waiting for lock")

// Locker acquires a set of named locks. The returned release function
// frees all of them and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// normalize sorts and deduplicates keys.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func withWait(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, wait)
}

// waitErr maps an expired wait deadline onto ErrTimeout and passes caller
// cancellation through.
func waitErr(parent, waitCtx context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return waitCtx.Err()
}

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
	wait    time.Duration
}

// NewKeyedMutex returns a Locker that gives up after wait. A zero wait
// blocks until the context ends.
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry), wait: wait}
}

func (m *KeyedMutex) ref(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *KeyedMutex) unref(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// Lock acquires every key or none.
func (m *KeyedMutex) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	waitCtx, cancel := withWait(ctx, m.wait)
	defer cancel()

	held := make([]string, 0, len(keys))
	entries := make([]*entry, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-entries[i].ch
			m.unref(held[i], entries[i])
		}
	}

	for _, key := range keys {
		e := m.ref(key)
		select {
		case e.ch <- struct{}{}:
			held = append(held, key)
			entries = append(entries, e)
		case <-waitCtx.Done():
			m.unref(key, e)
			release()
			return nil, waitErr(ctx, waitCtx)
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
