package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/thistle/pkg/aggregator"
)

// nothing listens on port 1, so every command fails fast
func unreachableClient(t *testing.T) *Client {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	client := NewClient(Config{Host: "127.0.0.1", Port: 1, DialTimeout: 50 * time.Millisecond}, logger)
	t.Cleanup(func() { _ = client.Stop(context.Background()) })
	return client
}

func TestClientStartFailsWhenUnreachable(t *testing.T) {
	client := unreachableClient(t)
	assert.Equal(t, "redis", client.GetName())
	assert.Error(t, client.Start(context.Background()))
}

func TestDashboardCacheDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewDashboardCache(unreachableClient(t), time.Minute)

	_, cacheable := cache.Generation(ctx)
	assert.False(t, cacheable)

	cache.Set(ctx, 0, aggregator.Dashboard{TotalReviews: 3})
	got, ok := cache.Get(ctx, 0)
	assert.False(t, ok)
	assert.Nil(t, got)
	cache.Invalidate(ctx)
}

func TestDashboardKeyPerGeneration(t *testing.T) {
	assert.Equal(t, "thistle:dashboard:metrics:0", dashboardKey(0))
	assert.NotEqual(t, dashboardKey(1), dashboardKey(2))
}

func TestLockerPropagatesConnectionErrors(t *testing.T) {
	locker := NewLocker(unreachableClient(t), "")
	ran := false

	err := locker.WithLock(context.Background(), "moderation:r1", 100*time.Millisecond, func() error {
		ran = true
		return nil
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, ran)
}
