package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "hostguard:chat:msg:"

// Redis records message IDs with SET NX so duplicates are dropped across replicas.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, keyPrefix+messageID, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record chat message id: %w", err)
	}
	return ok, nil
}
