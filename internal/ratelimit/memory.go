package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Counts are per instance, so behind a
// load balancer the effective limit is limit*replicas; use RedisStore there.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++

	// Opportunistic sweep so abandoned keys do not pile up.
	if len(s.buckets) > 10_000 {
		for k, v := range s.buckets {
			if now.After(v.resetAt) {
				delete(s.buckets, k)
			}
		}
	}

	return b.count, time.Until(b.resetAt), nil
}
