package redisx

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

const pending = "pending"

// Idempotency tracks Idempotency-Key headers for order placement. A key is
// claimed before the order is placed and completed with the order id after.
type Idempotency struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func (i *Idempotency) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return TTLIdempotency
}

func idemKey(userID, key string) string { return fmt.Sprintf(KeyIdemOrderPlace, userID, key) }

// Claim reserves key for userID. When the key is already known it returns
// claimed=false and the stored order id ("" while the first attempt is
// still running).
func (i *Idempotency) Claim(ctx context.Context, userID, key string) (claimed bool, orderID string, err error) {
	k := idemKey(userID, key)
	ok, err := i.RDB.SetNX(ctx, k, pending, i.ttl()).Result()
	if err != nil {
		return false, "", fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return true, "", nil
	}
	v, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; try once more
		ok, err = i.RDB.SetNX(ctx, k, pending, i.ttl()).Result()
		if err != nil {
			return false, "", fmt.Errorf("claim idempotency key: %w", err)
		}
		return ok, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read idempotency key: %w", err)
	}
	if v == pending {
		return false, "", nil
	}
	return false, v, nil
}

func (i *Idempotency) Complete(ctx context.Context, userID, key, orderID string) error {
	return i.RDB.Set(ctx, idemKey(userID, key), orderID, i.ttl()).Err()
}

// Release forgets a claim whose attempt failed so the client can retry.
func (i *Idempotency) Release(ctx context.Context, userID, key string) error {
	return i.RDB.Del(ctx, idemKey(userID, key)).Err()
}
