package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

type CachedStatus struct {
	Status    string    `json:"status"`
	UserID    string    `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusCache keeps the latest order status for GET /orders/{id}/status.
type StatusCache struct {
	RDB redis.Cmdable
}

func (c *StatusCache) Get(ctx context.Context, orderID string) (*CachedStatus, bool, error) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s CachedStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

func (c *StatusCache) Set(ctx context.Context, orderID string, s CachedStatus) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err()
}

func (c *StatusCache) Invalidate(ctx context.Context, orderID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}
