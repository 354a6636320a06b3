package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/barhq/venuestock/internal/config"
	"github.com/barhq/venuestock/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	varianceKeyPrefix    = "variance:report"
	varianceScanBatchLen = 100
)

// VarianceCache stores computed variance reports for a short TTL. Reports
// are ephemeral by design, so a cache miss just means recomputation.
type VarianceCache interface {
	GetReport(ctx context.Context, scope domain.VarianceScope) (*domain.VarianceReport, bool, error)
	SetReport(ctx context.Context, report *domain.VarianceReport) error
	InvalidateVenue(ctx context.Context, venueID string) error
}

type redisVarianceCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopVarianceCache struct{}

func NewVarianceCache(cfg config.CacheConfig) (VarianceCache, error) {
	if !cfg.Enabled {
		return &noopVarianceCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisVarianceCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopVarianceCache() VarianceCache {
	return &noopVarianceCache{}
}

func (c *redisVarianceCache) GetReport(ctx context.Context, scope domain.VarianceScope) (*domain.VarianceReport, bool, error) {
	key := buildVarianceKey(scope)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.VarianceReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode variance report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisVarianceCache) SetReport(ctx context.Context, report *domain.VarianceReport) error {
	key := buildVarianceKey(report.Scope)
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode variance report cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisVarianceCache) InvalidateVenue(ctx context.Context, venueID string) error {
	prefix := fmt.Sprintf("%s:%s", varianceKeyPrefix, venueID)
	return deleteKeysWithPrefix(ctx, c.client, prefix, varianceScanBatchLen)
}

func (n *noopVarianceCache) GetReport(ctx context.Context, scope domain.VarianceScope) (*domain.VarianceReport, bool, error) {
	return nil, false, nil
}

func (n *noopVarianceCache) SetReport(ctx context.Context, report *domain.VarianceReport) error {
	return nil
}

func (n *noopVarianceCache) InvalidateVenue(ctx context.Context, venueID string) error {
	return nil
}

func buildVarianceKey(scope domain.VarianceScope) string {
	department := scope.DepartmentID
	if department == "" {
		department = "all"
	}
	return fmt.Sprintf("%s:%s:%s", varianceKeyPrefix, scope.VenueID, department)
}
