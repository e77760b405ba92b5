// internal/cache/decision_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/optistock/replenish/internal/config"
	"github.com/optistock/replenish/internal/domain"
)

const (
	decisionBatchKeyPrefix = "decisions:batch"
	decisionScanBatchSize  = 100
)

// DecisionCache keeps the latest batch per run date so repeated API reads
// don't re-run the engine.
type DecisionCache interface {
	GetBatch(ctx context.Context, runDate time.Time) (*domain.DecisionBatch, bool, error)
	SetBatch(ctx context.Context, batch *domain.DecisionBatch) error
	InvalidateBatch(ctx context.Context, runDate time.Time) error
	InvalidateAll(ctx context.Context) error
}

type redisDecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDecisionCache struct{}

func NewDecisionCache(cfg config.CacheConfig) (DecisionCache, error) {
	if !cfg.Enabled {
		return &noopDecisionCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDecisionCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopDecisionCache() DecisionCache {
	return &noopDecisionCache{}
}

func (c *redisDecisionCache) GetBatch(ctx context.Context, runDate time.Time) (*domain.DecisionBatch, bool, error) {
	key := buildBatchKey(runDate)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var batch domain.DecisionBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, false, fmt.Errorf("decode decision batch cache: %w", err)
	}

	return &batch, true, nil
}

func (c *redisDecisionCache) SetBatch(ctx context.Context, batch *domain.DecisionBatch) error {
	key := buildBatchKey(batch.RunDate)
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode decision batch cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDecisionCache) InvalidateBatch(ctx context.Context, runDate time.Time) error {
	return c.client.Del(ctx, buildBatchKey(runDate)).Err()
}

func (c *redisDecisionCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, decisionBatchKeyPrefix, decisionScanBatchSize)
}

func (n *noopDecisionCache) GetBatch(ctx context.Context, runDate time.Time) (*domain.DecisionBatch, bool, error) {
	return nil, false, nil
}

func (n *noopDecisionCache) SetBatch(ctx context.Context, batch *domain.DecisionBatch) error {
	return nil
}

func (n *noopDecisionCache) InvalidateBatch(ctx context.Context, runDate time.Time) error {
	return nil
}

func (n *noopDecisionCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildBatchKey(runDate time.Time) string {
	return fmt.Sprintf("%s:%s", decisionBatchKeyPrefix, runDate.Format("2006-01-02"))
}
