package appointments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dentalops/booking-gateway/internal/nexhealth"
)

const typeCacheKey = "nexhealth:appointment_types"

// TypeCache is a read-through Redis cache for appointment-type reference
// data. Upstream stays authoritative; entries expire after the TTL. A nil
// *TypeCache disables caching, so callers never need to branch.
type TypeCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewTypeCache builds a cache over the given Redis client. Returns nil (cache
// disabled) when the client is nil.
func NewTypeCache(client *redis.Client, ttl time.Duration) *TypeCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TypeCache{redis: client, ttl: ttl}
}

// Get returns the cached type list, or (nil, false) on a miss or any Redis
// failure. Cache errors are never surfaced to the booking flow.
func (c *TypeCache) Get(ctx context.Context) ([]nexhealth.AppointmentType, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, typeCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var types []nexhealth.AppointmentType
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, false
	}
	return types, true
}

// Set stores the type list with the configured TTL. Best effort.
func (c *TypeCache) Set(ctx context.Context, types []nexhealth.AppointmentType) {
	if c == nil {
		return
	}
	data, err := json.Marshal(types)
	if err != nil {
		return
	}
	c.redis.Set(ctx, typeCacheKey, data, c.ttl)
}
