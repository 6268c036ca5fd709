package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"smartlearn-quiz-service/internal/domain"
)

const leaderboardKey = "assessment:leaderboard"

// Aggregator computes ranked standings from the attempt history.
type Aggregator interface {
	Aggregate(ctx context.Context) ([]domain.LeaderboardRow, error)
}

// LeaderboardCache caches the aggregated leaderboard in Redis. Standings are
// recomputed on miss, shared across concurrent readers via singleflight, and
// dropped explicitly after each submission (Invalidate). The TTL bounds
// staleness if an invalidation is lost.
type LeaderboardCache struct {
	client *redis.Client
	inner  Aggregator
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, inner Aggregator, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Aggregate(ctx context.Context) ([]domain.LeaderboardRow, error) {
	if rows, ok := c.cached(ctx); ok {
		return rows, nil
	}

	result, err, _ := c.sf.Do(leaderboardKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if rows, ok := c.cached(ctx); ok {
			return rows, nil
		}

		rows, err := c.inner.Aggregate(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(rows); err == nil {
			_ = c.client.Set(ctx, leaderboardKey, data, c.ttlWithJitter()).Err()
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardRow), nil
}

// Invalidate drops the cached standings so the next read recomputes them.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, leaderboardKey).Err()
}

func (c *LeaderboardCache) cached(ctx context.Context) ([]domain.LeaderboardRow, bool) {
	raw, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []domain.LeaderboardRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
