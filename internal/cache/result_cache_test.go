package cache

import (
	"context"
	"testing"

	"github.com/andresuchdata/stockmax/internal/config"
	"github.com/andresuchdata/stockmax/internal/domain"
)

func TestNewResultCacheDisabledIsNoop(t *testing.T) {
	c, err := NewResultCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewResultCache: %v", err)
	}
	ctx := context.Background()
	if err := c.SetCompute(ctx, "k", &domain.ComputeResponse{Warehouses: []string{"Porto"}}); err != nil {
		t.Fatalf("SetCompute: %v", err)
	}
	if _, ok, err := c.GetCompute(ctx, "k"); ok || err != nil {
		t.Fatalf("noop cache returned a hit (ok=%v, err=%v)", ok, err)
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
}

func TestInputsKey(t *testing.T) {
	a := InputsKey("weeks=52", map[string][]byte{"sales.csv": []byte("1"), "policy.csv": []byte("2")})
	b := InputsKey("weeks=52", map[string][]byte{"policy.csv": []byte("2"), "sales.csv": []byte("1")})
	if a != b {
		t.Fatal("key should not depend on map order")
	}
	if c := InputsKey("weeks=50", map[string][]byte{"sales.csv": []byte("1"), "policy.csv": []byte("2")}); c == a {
		t.Fatal("settings should change the key")
	}
	if d := InputsKey("weeks=52", map[string][]byte{"sales.csv": []byte("12"), "policy.csv": []byte("")}); d == a {
		t.Fatal("moving bytes between tables should change the key")
	}
	if len(a) != 40 {
		t.Fatalf("expected hex sha1, got %q", a)
	}
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	if err != nil {
		t.Fatalf("buildRedisOptions: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@localhost:6379/3"})
	if err != nil {
		t.Fatalf("buildRedisOptions(url): %v", err)
	}
	if opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected url options %+v", opts)
	}
	if _, err := buildRedisOptions(config.CacheConfig{RedisURL: "::bad"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
