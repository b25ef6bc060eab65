package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type sentValue struct {
	RemoteMessageID string    `json:"remoteMessageId"`
	SentAt          time.Time `json:"sentAt"`
}

func sentKey(messageID, recipientID uuid.UUID, day string) string {
	return fmt.Sprintf("sent:%s:%s:%s", messageID, recipientID, day)
}

func (c *RedisCache) WasSent(ctx context.Context, messageID, recipientID uuid.UUID, day string) (bool, error) {
	_, err := c.rdb.Get(ctx, sentKey(messageID, recipientID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) StoreSent(ctx context.Context, messageID, recipientID uuid.UUID, day, remoteMessageID string, sentAt time.Time) error {
	val := sentValue{
		RemoteMessageID: remoteMessageID,
		SentAt:          sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, sentKey(messageID, recipientID, day), b, c.ttl).Err()
}
