package redisx

import "time"

const (
	// Idempotency for order placement: idem:order:place:{user_id}:{key} -> "pending" | order_id
	KeyIdemOrderPlace = "idem:order:place:%s:%s"

	// Order status cache: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for consumed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
