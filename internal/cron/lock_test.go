package cron

import (
	"context"
	"testing"
	"time"
)

type memoryLockStore struct {
	values map[string]string
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) ReleaseIfOwner(_ context.Context, key, token string) (bool, error) {
	if m.values[key] != token {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	ctx := context.Background()
	first, err := NewRedisLock(store, "ef:lock:cron", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewRedisLock(store, "ef:lock:cron", time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second holder acquired a held lock")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-holder: %v", err)
	}
	if _, held := store.values["ef:lock:cron"]; !held {
		t.Fatal("non-holder released the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected lock to be free after release")
	}
}

func TestRedisLockKeepsForeignToken(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	ctx := context.Background()
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire failed")
	}
	// simulate expiry followed by another worker taking the lock
	store.values["k"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["k"] != "someone-else" {
		t.Fatal("released a lock owned by another worker")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewRedisLock(&memoryLockStore{}, "", 0); err == nil {
		t.Fatal("expected error for empty key")
	}
	lock, err := NewRedisLock(&memoryLockStore{}, "k", 0)
	if err != nil || lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v (%v)", lock.ttl, err)
	}
}
