package alerts

import (
	"context"
	"time"

	"github.com/posfin/pos-engine/pkg/redis"
)

// RedisThrottle shares the alert window across engine replicas. SetNX with a
// TTL is the whole mechanism: whoever sets the key first owns the window,
// expiry reopens it.
type RedisThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewRedisThrottle wraps the shared client.
func NewRedisThrottle(client *redis.Client, window time.Duration) *RedisThrottle {
	return &RedisThrottle{client: client, window: window}
}

func (t *RedisThrottle) Admit(ctx context.Context, productID string) (bool, error) {
	return t.client.SetNX(ctx, t.client.ThrottleKey(productID), time.Now().UTC().Format(time.RFC3339), t.window)
}

func (t *RedisThrottle) Reset(ctx context.Context, productID string) error {
	return t.client.Del(ctx, t.client.ThrottleKey(productID))
}
