package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key inside fixed windows.
type Store interface {
	// Incr records one hit for key and returns how many hits the current
	// window has seen, plus how long until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int, retryAfter time.Duration, err error)
}
