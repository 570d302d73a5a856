package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return &Client{rdb: rdb, logger: zap.NewNop()}, mr
}

func TestIdempotencyService_NewRequest(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc := NewIdempotencyService(client, time.Hour, zap.NewNop())

	result, err := svc.CheckOrReserve(context.Background(), "client-1", "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result for new request, got: %+v", result)
	}
}

func TestIdempotencyService_DuplicateWhileProcessing(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc := NewIdempotencyService(client, time.Hour, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.CheckOrReserve(ctx, "client-1", "key-1"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := svc.CheckOrReserve(ctx, "client-1", "key-1"); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got: %v", err)
	}
}

func TestIdempotencyService_ReplaysStoredResponse(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc := NewIdempotencyService(client, time.Hour, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.CheckOrReserve(ctx, "client-1", "key-1"); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	body := json.RawMessage(`{"success":true,"totalJobsCreated":2}`)
	if err := svc.Store(ctx, "client-1", "key-1", &IdempotencyResult{StatusCode: 202, Body: body}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	cached, err := svc.CheckOrReserve(ctx, "client-1", "key-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if cached == nil {
		t.Fatal("expected cached result")
	}
	if cached.StatusCode != 202 {
		t.Errorf("expected status 202, got %d", cached.StatusCode)
	}
	if string(cached.Body) != string(body) {
		t.Errorf("expected body %s, got %s", body, cached.Body)
	}
	if cached.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}

	ttl := mr.TTL("courier:idempotency:client-1:key-1")
	if ttl != time.Hour {
		t.Errorf("expected ttl 1h, got %v", ttl)
	}
}

func TestIdempotencyService_ClientIsolation(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc := NewIdempotencyService(client, time.Hour, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.CheckOrReserve(ctx, "client-A", "same-key"); err != nil {
		t.Fatalf("client A failed: %v", err)
	}

	result, err := svc.CheckOrReserve(ctx, "client-B", "same-key")
	if err != nil {
		t.Fatalf("client B should succeed: %v", err)
	}
	if result != nil {
		t.Fatal("client B should get nil (new request)")
	}
}

func TestIdempotencyService_Release(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc := NewIdempotencyService(client, time.Hour, zap.NewNop())
	ctx := context.Background()

	reserved, err := svc.Reserve(ctx, "client-1", "key-1")
	if err != nil || !reserved {
		t.Fatalf("reserve failed: %v, reserved: %v", err, reserved)
	}
	if err := svc.Release(ctx, "client-1", "key-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	reserved, err = svc.Reserve(ctx, "client-1", "key-1")
	if err != nil || !reserved {
		t.Fatalf("expected key to be free after release: %v, reserved: %v", err, reserved)
	}

	// A stored result survives Release.
	if err := svc.Store(ctx, "client-1", "key-1", &IdempotencyResult{StatusCode: 202}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := svc.Release(ctx, "client-1", "key-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	cached, err := svc.Check(ctx, "client-1", "key-1")
	if err != nil || cached == nil {
		t.Fatalf("expected stored result, got %v, %v", cached, err)
	}

	// Unknown keys are a no-op.
	if err := svc.Release(ctx, "client-1", "missing"); err != nil {
		t.Fatalf("release of missing key failed: %v", err)
	}
}

func TestIdempotencyService_DefaultTTL(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc := NewIdempotencyService(client, 0, zap.NewNop())
	if svc.ttl != DefaultIdempotencyTTL {
		t.Errorf("expected default ttl, got %v", svc.ttl)
	}
}

func TestIdempotencyService_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc := NewIdempotencyService(client, time.Hour, zap.NewNop())

	if err := mr.Set("courier:idempotency:client-1:key-1", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Check(context.Background(), "client-1", "key-1"); err == nil {
		t.Fatal("expected error for corrupt entry")
	}
}
