package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewRedisCache(rdb, ttl)
}

func TestRedisCache_StoreSent_Success(t *testing.T) {
	t.Parallel()

	mr, cache := newTestCache(t, 10*time.Second)

	ctx := context.Background()
	msgID := uuid.MustParse("9b2f6c1e-3f41-4a53-9a0e-2b7f0d3c1a10")
	recID := uuid.MustParse("0f1d2c3b-4a59-4687-9a5b-1c2d3e4f5a6b")
	remoteID := "remote-123"
	sentAt := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)

	if err := cache.StoreSent(ctx, msgID, recID, "2026-02-02", remoteID, sentAt); err != nil {
		t.Fatalf("StoreSent() error: %v", err)
	}

	key := "sent:9b2f6c1e-3f41-4a53-9a0e-2b7f0d3c1a10:0f1d2c3b-4a59-4687-9a5b-1c2d3e4f5a6b:2026-02-02"

	if !mr.Exists(key) {
		t.Fatalf("expected key %q to exist", key)
	}

	if ttlRemaining := mr.TTL(key); ttlRemaining <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttlRemaining)
	}

	raw, err := mr.Get(key)
	if err != nil {
		t.Fatalf("failed to get key %q: %v", key, err)
	}

	var got sentValue
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}

	if got.RemoteMessageID != remoteID {
		t.Fatalf("expected RemoteMessageID %q, got %q", remoteID, got.RemoteMessageID)
	}
	if !got.SentAt.Equal(sentAt) {
		t.Fatalf("expected SentAt %v, got %v", sentAt, got.SentAt)
	}
}

func TestRedisCache_WasSent(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t, time.Minute)
	ctx := context.Background()
	msgID, recID := uuid.New(), uuid.New()

	sent, err := cache.WasSent(ctx, msgID, recID, "2026-02-02")
	if err != nil {
		t.Fatalf("WasSent() error: %v", err)
	}
	if sent {
		t.Fatalf("expected not sent before StoreSent")
	}

	if err := cache.StoreSent(ctx, msgID, recID, "2026-02-02", "r", time.Now()); err != nil {
		t.Fatalf("StoreSent() error: %v", err)
	}

	sent, err = cache.WasSent(ctx, msgID, recID, "2026-02-02")
	if err != nil {
		t.Fatalf("WasSent() error: %v", err)
	}
	if !sent {
		t.Fatalf("expected sent after StoreSent")
	}

	sent, err = cache.WasSent(ctx, msgID, recID, "2026-02-03")
	if err != nil {
		t.Fatalf("WasSent() error: %v", err)
	}
	if sent {
		t.Fatalf("expected a different day to be unsent")
	}
}

func TestRedisCache_KeyExpires(t *testing.T) {
	t.Parallel()

	mr, cache := newTestCache(t, time.Minute)
	ctx := context.Background()
	msgID, recID := uuid.New(), uuid.New()

	if err := cache.StoreSent(ctx, msgID, recID, "2026-02-02", "r", time.Now()); err != nil {
		t.Fatalf("StoreSent() error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	sent, err := cache.WasSent(ctx, msgID, recID, "2026-02-02")
	if err != nil {
		t.Fatalf("WasSent() error: %v", err)
	}
	if sent {
		t.Fatalf("expected key to expire after ttl")
	}
}

func TestRedisCache_StoreSent_ContextCanceled(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cache.StoreSent(ctx, uuid.New(), uuid.New(), "2026-02-02", "x", time.Now()); err == nil {
		t.Fatalf("expected error due to canceled context, got nil")
	}
}

func TestNoop(t *testing.T) {
	var c SentCache = Noop{}

	sent, err := c.WasSent(context.Background(), uuid.New(), uuid.New(), "2026-02-02")
	if err != nil || sent {
		t.Fatalf("expected (false, nil), got (%v, %v)", sent, err)
	}
	if err := c.StoreSent(context.Background(), uuid.New(), uuid.New(), "2026-02-02", "x", time.Now()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
