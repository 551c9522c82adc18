package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/domain/user"
	"github.com/jobscout/jobscout/internal/http/middlewares"
	"github.com/jobscout/jobscout/internal/ratelimit"
)

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("redis down")
}

func limitedRouter(store ratelimit.Store, limit int) *gin.Engine {
	rl := middlewares.NewRateLimiter(store, limit, time.Minute, apperrors.Responder{})

	r := gin.New()
	r.GET("/ping", rl.Middleware(middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	r := limitedRouter(ratelimit.NewMemoryStore(), 3)

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request got status %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestRateLimiterUnderLimit(t *testing.T) {
	r := limitedRouter(ratelimit.NewMemoryStore(), 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d got status %d", i+1, w.Code)
		}
	}
}

// With an identity on the context the bucket follows the account, not the
// caller's address.
func TestRateLimiterKeysByUser(t *testing.T) {
	rl := middlewares.NewRateLimiter(ratelimit.NewMemoryStore(), 2, time.Minute, apperrors.Responder{})

	r := gin.New()
	r.GET("/ping", func(c *gin.Context) {
		middlewares.SetIdentity(c, "u-1", "sam@example.com", user.RoleUser)
	}, rl.Middleware(middlewares.KeyByUserOrIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var last *httptest.ResponseRecorder
	for _, addr := range []string{"10.0.0.1:1111", "10.0.0.2:2222", "10.0.0.3:3333"} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr

		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd request from a fresh address got %d, want 429 for the shared account", last.Code)
	}
}

// A broken store must not take the API down with it.
func TestRateLimiterFailsOpen(t *testing.T) {
	r := limitedRouter(failingStore{}, 1)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d got status %d, want fail-open 200", i+1, w.Code)
		}
	}
}
