package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/thistle/pkg/aggregator"
	"github.com/Ramsey-B/thistle/pkg/metrics"
)

const (
	dashboardKeyPrefix     = "thistle:dashboard:metrics:"
	dashboardGenerationKey = "thistle:dashboard:generation"
)

// DashboardCache keeps the computed dashboard in Redis under the current
// generation. Invalidate bumps the generation, so an entry computed before a
// write lands under a key that is never read again. Any Redis failure is
// logged and treated as a miss.
type DashboardCache struct {
	client *Client
	ttl    time.Duration
}

func NewDashboardCache(client *Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{client: client, ttl: ttl}
}

func (c *DashboardCache) Generation(ctx context.Context) (int64, bool) {
	raw, err := c.client.Get(ctx, dashboardGenerationKey)
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("dashboard cache generation read failed")
		return 0, false
	}
	generation, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("dashboard cache generation is corrupt")
		return 0, false
	}
	return generation, true
}

func (c *DashboardCache) Get(ctx context.Context, generation int64) (*aggregator.Dashboard, bool) {
	raw, err := c.client.Get(ctx, dashboardKey(generation))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.client.logger.WithContext(ctx).WithError(err).Warn("dashboard cache read failed")
		}
		metrics.RecordDashboardCache(false)
		return nil, false
	}

	var dashboard aggregator.Dashboard
	if err := json.Unmarshal([]byte(raw), &dashboard); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("dashboard cache entry is corrupt")
		metrics.RecordDashboardCache(false)
		return nil, false
	}

	metrics.RecordDashboardCache(true)
	return &dashboard, true
}

func (c *DashboardCache) Set(ctx context.Context, generation int64, dashboard aggregator.Dashboard) {
	data, err := json.Marshal(dashboard)
	if err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("failed to encode dashboard for cache")
		return
	}
	if err := c.client.Set(ctx, dashboardKey(generation), data, c.ttl); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("dashboard cache write failed")
	}
}

func (c *DashboardCache) Invalidate(ctx context.Context) {
	if _, err := c.client.Incr(ctx, dashboardGenerationKey); err != nil {
		c.client.logger.WithContext(ctx).WithError(err).Warn("dashboard cache invalidation failed")
	}
}

func dashboardKey(generation int64) string {
	return fmt.Sprintf("%s%d", dashboardKeyPrefix, generation)
}

var _ aggregator.DashboardCache = (*DashboardCache)(nil)
