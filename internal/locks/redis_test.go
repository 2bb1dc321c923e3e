package locks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis serves the two commands RedisLocker issues: SET NX and the
// release script (via EVALSHA). Any other call panics on the nil embed.
type fakeRedis struct {
	redis.Cmdable

	mu      sync.Mutex
	keys    map[string]string
	ttls    map[string]time.Duration
	failSet map[string]error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]string{}, ttls: map[string]time.Duration{}, failSet: map[string]error{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSet[key]; err != nil {
		return redis.NewBoolResult(false, err)
	}
	if _, taken := f.keys[key]; taken {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[keys[0]] != args[0].(string) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(f.keys, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) set(key, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = token
}

func (f *fakeRedis) snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.keys))
	for k, v := range f.keys {
		out[k] = v
	}
	return out
}

func newTestRedisLocker(client redis.Cmdable, wait time.Duration) *RedisLocker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisLocker(client, RedisConfig{Prefix: "test:", TTL: time.Minute, Wait: wait, Retry: 2 * time.Millisecond}, logger)
}

func TestRedisLockerAcquiresAndReleasesEveryKey(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	l := newTestRedisLocker(client, time.Second)

	release, err := l.Lock(context.Background(), "room:R1", "teacher:T1", "room:R1", "")
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}
	held := client.snapshot()
	if len(held) != 2 || held["test:room:R1"] == "" || held["test:room:R1"] != held["test:teacher:T1"] {
		t.Fatalf("expected both keys under one token, got %v", held)
	}
	if client.ttls["test:room:R1"] != time.Minute {
		t.Fatalf("expected a 1m ttl, got %s", client.ttls["test:room:R1"])
	}

	release()
	release()
	if held := client.snapshot(); len(held) != 0 {
		t.Fatalf("expected no keys after release, got %v", held)
	}
}

func TestRedisLockerReleasesPartialAcquisition(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	client.failSet["test:teacher:T1"] = errors.New("connection reset")
	l := newTestRedisLocker(client, time.Second)

	_, err := l.Lock(context.Background(), "room:R1", "teacher:T1")
	if err == nil {
		t.Fatalf("expected an error when a key cannot be set")
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("expected the redis error, got %v", err)
	}
	if held := client.snapshot(); len(held) != 0 {
		t.Fatalf("expected the first key to be released, got %v", held)
	}
}

func TestRedisLockerLeavesForeignTokenInPlace(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	l := newTestRedisLocker(client, time.Second)

	release, err := l.Lock(context.Background(), "class:C1")
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}
	// Our key expired and another instance took it over.
	client.set("test:class:C1", "other-instance")
	release()

	if got := client.snapshot()["test:class:C1"]; got != "other-instance" {
		t.Fatalf("expected the other holder to keep the key, got %q", got)
	}
}

func TestRedisLockerTimesOut(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	client.set("test:teacher:T1", "other-instance")
	l := newTestRedisLocker(client, 20*time.Millisecond)

	_, err := l.Lock(context.Background(), "room:R1", "teacher:T1")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	held := client.snapshot()
	if len(held) != 1 || held["test:teacher:T1"] != "other-instance" {
		t.Fatalf("expected only the foreign key to remain, got %v", held)
	}
}

func TestRedisLockerPassesCallerCancellation(t *testing.T) {
	t.Parallel()

	client := newFakeRedis()
	client.set("test:room:R1", "other-instance")
	l := newTestRedisLocker(client, 0)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	_, err := l.Lock(ctx, "room:R1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
