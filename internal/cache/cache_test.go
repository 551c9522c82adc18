package cache_test

import (
	"testing"
	"time"

	"github.com/jobscout/jobscout/internal/cache"
)

func TestSetGet(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok || v != 42 {
		t.Fatalf("got %v, %v", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("missing key reported present")
	}
}

func TestExpiry(t *testing.T) {
	c := cache.New(10 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry still present")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := cache.New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted key still present")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Fatal("cleared key still present")
	}
}
