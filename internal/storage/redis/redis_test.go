package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"finance-tracker/internal/storage"
)

func setupTestRedis(t *testing.T) *Store {
	t.Helper()
	config := DefaultConfig()
	config.KeyPrefix = fmt.Sprintf("test:finance-tracker:%d:", time.Now().UnixNano())
	config.DialTimeout = 2 * time.Second

	s, err := NewStore(config)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStoreRequiresAddr(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error without address")
	}
}

func TestStoreSetGet(t *testing.T) {
	s := setupTestRedis(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "transactions"); !storage.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Set(ctx, "transactions", `[{"id":1}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "transactions")
	if err != nil || got != `[{"id":1}]` {
		t.Fatalf("unexpected get: %q %v", got, err)
	}
	if s.Name() != "redis" {
		t.Fatalf("unexpected name %q", s.Name())
	}
}
