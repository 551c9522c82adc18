package geo

import (
	"context"
	"strings"
	"time"

	"github.com/jobscout/jobscout/internal/cache"
	"github.com/jobscout/jobscout/internal/domain/job"
)

// Cached wraps a Geocoder with a TTL cache keyed on the normalized address.
// Only successful lookups are cached.
type Cached struct {
	inner Geocoder
	cache *cache.Cache
}

func NewCached(inner Geocoder, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cached{inner: inner, cache: cache.New(ttl)}
}

func (c *Cached) Geocode(ctx context.Context, address string) (job.Location, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if v, ok := c.cache.Get(key); ok {
		if loc, ok := v.(job.Location); ok {
			return loc, nil
		}
	}

	loc, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return job.Location{}, err
	}

	c.cache.Set(key, loc)
	return loc, nil
}
