package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/repositories"
)

type memoryCache struct {
	generation  int64
	entries     map[int64]Dashboard
	sets        int
	invalidated int
}

func (c *memoryCache) Generation(context.Context) (int64, bool) {
	return c.generation, true
}

func (c *memoryCache) Get(_ context.Context, generation int64) (*Dashboard, bool) {
	d, ok := c.entries[generation]
	if !ok {
		return nil, false
	}
	return &d, true
}

func (c *memoryCache) Set(_ context.Context, generation int64, d Dashboard) {
	if c.entries == nil {
		c.entries = map[int64]Dashboard{}
	}
	c.sets++
	c.entries[generation] = d
}

func (c *memoryCache) Invalidate(context.Context) {
	c.invalidated++
	c.generation++
}

// interleavingRepository runs afterRead once, between a review snapshot
// and the caller's use of it
type interleavingRepository struct {
	repositories.Repository
	afterRead func()
}

func (r *interleavingRepository) GetReviews(ctx context.Context, criteria *filter.Criteria) ([]models.Review, error) {
	reviews, err := r.Repository.GetReviews(ctx, criteria)
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
	return reviews, err
}

func newTestService(t *testing.T, cache DashboardCache) (*Service, *repositories.MemoryRepository) {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	repo := repositories.NewMemoryRepository(logger)
	ctx := context.Background()

	require.NoError(t, repo.UpsertProperty(ctx, &models.Property{ID: "p1", Name: "Stylish Camden Apartment"}))
	require.NoError(t, repo.UpsertProperty(ctx, &models.Property{ID: "p2", Name: "Luxury Chelsea Townhouse"}))

	approved := rated("r1", 5, day)
	approved.ListingName = "Stylish Camden Apartment"
	approved.Approve("manager", now)
	approved2 := rated("r2", 4, 2*day)
	approved2.ListingName = "Stylish Camden Apartment"
	approved2.Approve("manager", now)
	pending := rated("r3", 1, 3*day)
	pending.ListingName = "Stylish Camden Apartment"

	for _, r := range []models.Review{approved, approved2, pending} {
		require.NoError(t, repo.UpsertReview(ctx, r))
	}

	svc := NewService(repo, NewAggregator(nil), cache, logger).WithClock(func() time.Time { return now })
	return svc, repo
}

func TestServiceProperties(t *testing.T) {
	svc, _ := newTestService(t, nil)

	properties, err := svc.Properties(context.Background())
	require.NoError(t, err)
	require.Len(t, properties, 2)
	assert.Equal(t, 2, properties[0].ReviewCount)
	assert.Equal(t, 4.5, properties[0].AverageRating)
	assert.Zero(t, properties[1].ReviewCount)
}

func TestServiceProperty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	p, err := svc.Property(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, p.Reviews, 2)
	assert.Equal(t, "r1", p.Reviews[0].ID)
	assert.Equal(t, 4.5, p.AverageRating)

	_, err = svc.Property(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestServicePropertyMetrics(t *testing.T) {
	svc, _ := newTestService(t, nil)

	m, err := svc.PropertyMetrics(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalReviews)
	assert.Equal(t, 2, m.ApprovedReviews)
	assert.Equal(t, 66.7, m.ApprovalRate)
}

func TestServiceDashboardCache(t *testing.T) {
	cache := &memoryCache{}
	svc, repo := newTestService(t, cache)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalReviews)
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, repo.UpsertReview(ctx, rated("r4", 3, day)))

	cached, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cached.TotalReviews)

	svc.InvalidateDashboard(ctx)
	fresh, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.TotalReviews)
	assert.Equal(t, 1, cache.invalidated)
}

func TestServiceDashboardCacheSkipsSnapshotOlderThanInvalidation(t *testing.T) {
	cache := &memoryCache{}
	_, repo := newTestService(t, cache)
	ctx := context.Background()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	interleaved := &interleavingRepository{Repository: repo}
	svc := NewService(interleaved, NewAggregator(nil), cache, logger).WithClock(func() time.Time { return now })

	interleaved.afterRead = func() {
		_, err := repo.UpdateReview(ctx, "r3", func(r *models.Review) error {
			r.Approve("manager", now)
			return nil
		})
		require.NoError(t, err)
		svc.InvalidateDashboard(ctx)
	}

	during, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, during.PendingReviews)

	after, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, after.PendingReviews)
	assert.Equal(t, 3, after.ApprovedReviews)

	cached, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.PendingReviews)
	assert.Equal(t, 2, cache.sets)
}
