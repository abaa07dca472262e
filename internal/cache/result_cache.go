package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/stockmax/internal/config"
	"github.com/andresuchdata/stockmax/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	resultKeyPrefix     = "stock_max:"
	computeKeyPrefix    = resultKeyPrefix + "compute"
	reportKeyPrefix     = resultKeyPrefix + "report"
	resultScanBatchSize = 100
)

// ResultCache stores computed responses keyed by a hash of the uploaded tables.
type ResultCache interface {
	GetCompute(ctx context.Context, key string) (*domain.ComputeResponse, bool, error)
	SetCompute(ctx context.Context, key string, resp *domain.ComputeResponse) error
	GetReport(ctx context.Context, key string) (*domain.ReportResponse, bool, error)
	SetReport(ctx context.Context, key string, resp *domain.ReportResponse) error
	InvalidateAll(ctx context.Context) error
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopResultCache struct{}

// NewResultCache returns a redis backed cache when enabled, a no-op one otherwise.
func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	if !cfg.Enabled {
		return &noopResultCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisResultCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

func (c *redisResultCache) GetCompute(ctx context.Context, key string) (*domain.ComputeResponse, bool, error) {
	var resp domain.ComputeResponse
	ok, err := getJSON(ctx, c.client, buildKey(computeKeyPrefix, key), &resp)
	if !ok || err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *redisResultCache) SetCompute(ctx context.Context, key string, resp *domain.ComputeResponse) error {
	return setJSON(ctx, c.client, buildKey(computeKeyPrefix, key), resp, c.ttl)
}

func (c *redisResultCache) GetReport(ctx context.Context, key string) (*domain.ReportResponse, bool, error) {
	var resp domain.ReportResponse
	ok, err := getJSON(ctx, c.client, buildKey(reportKeyPrefix, key), &resp)
	if !ok || err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *redisResultCache) SetReport(ctx context.Context, key string, resp *domain.ReportResponse) error {
	return setJSON(ctx, c.client, buildKey(reportKeyPrefix, key), resp, c.ttl)
}

func (c *redisResultCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, resultKeyPrefix, resultScanBatchSize)
}

func (n *noopResultCache) GetCompute(ctx context.Context, key string) (*domain.ComputeResponse, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) SetCompute(ctx context.Context, key string, resp *domain.ComputeResponse) error {
	return nil
}

func (n *noopResultCache) GetReport(ctx context.Context, key string) (*domain.ReportResponse, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) SetReport(ctx context.Context, key string, resp *domain.ReportResponse) error {
	return nil
}

func (n *noopResultCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildKey(prefix, key string) string {
	return fmt.Sprintf("%s:%s", prefix, key)
}

// InputsKey hashes the uploaded tables together with the engine settings that change
// the result. Table order does not matter.
func InputsKey(settings string, tables map[string][]byte) string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha1.New()
	h.Write([]byte(settings))
	for _, name := range names {
		fmt.Fprintf(h, "|%s:%d:", name, len(tables[name]))
		h.Write(tables[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}
