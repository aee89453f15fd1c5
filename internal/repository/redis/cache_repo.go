package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/clients"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetResponse returns the cached remote response body for the endpoint.
// A miss or a cache error both come back as nil, nil so the caller falls
// through to the network.
func (c *CacheRepo) GetResponse(ctx context.Context, endpoint string) ([]byte, error) {
	data, err := c.client.Client.Get(ctx, c.responseKey(endpoint)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil
		}
		c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, nil
	}

	return data, nil
}

// SetResponse caches a remote response body under the endpoint key.
// Write failures are logged and swallowed, the response itself is still good.
func (c *CacheRepo) SetResponse(ctx context.Context, endpoint string, body []byte) error {
	if err := c.client.Client.Set(ctx, c.responseKey(endpoint), body, c.cfg.ResponseTTL).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// InvalidateResponses drops every cached remote response.
func (c *CacheRepo) InvalidateResponses(ctx context.Context) error {
	iter := c.client.Client.Scan(ctx, 0, "planet:response:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
	}

	if err := iter.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetProgress returns the cached progress snapshot, or nil on a miss.
func (c *CacheRepo) GetProgress(ctx context.Context) (*domain.ProgressSnapshot, error) {
	data, err := c.client.Client.Get(ctx, c.progressKey()).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil
		}
		c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, nil
	}

	var snapshot domain.ProgressSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warnf("Progress unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Client.Del(context.Background(), c.progressKey()).Err(); err != nil {
			c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil
	}

	return &snapshot, nil
}

// SetProgress caches the progress snapshot with a short TTL so repeated
// polling does not hammer the queue tables.
func (c *CacheRepo) SetProgress(ctx context.Context, snapshot *domain.ProgressSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Warnf("Progress marshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil
	}

	if err := c.client.Client.Set(ctx, c.progressKey(), data, c.cfg.ProgressTTL).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// DeleteProgress drops the cached snapshot so the next read recomputes.
func (c *CacheRepo) DeleteProgress(ctx context.Context) error {
	if err := c.client.Client.Del(ctx, c.progressKey()).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// AcquireLock takes the named lock for ttl. Reports false when another
// holder already owns it.
func (c *CacheRepo) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := c.client.Client.SetNX(ctx, c.lockKey(name), "1", ttl).Result()
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return ok, nil
}

// ReleaseLock frees the named lock.
func (c *CacheRepo) ReleaseLock(ctx context.Context, name string) error {
	if err := c.client.Client.Del(ctx, c.lockKey(name)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CacheRepo) responseKey(endpoint string) string {
	return fmt.Sprintf("planet:response:%s", endpoint)
}

func (c *CacheRepo) progressKey() string {
	return "planet:sync:progress"
}

func (c *CacheRepo) lockKey(name string) string {
	return fmt.Sprintf("planet:lock:%s", name)
}
