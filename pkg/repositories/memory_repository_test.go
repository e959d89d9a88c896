package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/models"
)

func newTestRepository(t *testing.T) *MemoryRepository {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewMemoryRepository(logger)
}

func rating(v float64) *float64 { return &v }

func TestMemoryRepositoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.UpsertReview(ctx, models.Review{
		ID:             "r1",
		ReviewCategory: []models.CategoryRating{{Category: "cleanliness", Rating: 9}},
		SubmittedAt:    time.Now(),
	}))

	got, err := repo.GetReviewByID(ctx, "r1")
	require.NoError(t, err)
	got.ReviewCategory[0].Rating = 1
	got.Approve("someone", time.Now())

	again, err := repo.GetReviewByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 9, again.ReviewCategory[0].Rating)
	assert.True(t, again.IsPending())
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.GetReviewByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.UpdateReview(ctx, "missing", func(*models.Review) error { return nil })
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.GetPropertyByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.GetApprovedReviewsForProperty(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryRepositoryUpdateReview(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.UpsertReview(ctx, models.Review{ID: "r1", SubmittedAt: time.Now()}))

	t.Run("fn error aborts the write", func(t *testing.T) {
		_, err := repo.UpdateReview(ctx, "r1", func(r *models.Review) error {
			r.Approve("manager", time.Now())
			return errors.New("boom")
		})
		require.Error(t, err)

		stored, err := repo.GetReviewByID(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, stored.IsPending())
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.UpdateReview(ctx, "r1", func(r *models.Review) error {
					if i%2 == 0 {
						r.Approve("a", time.Now())
					} else {
						r.Reject("b", time.Now())
					}
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		stored, err := repo.GetReviewByID(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, stored.IsPending())
		assert.NotNil(t, stored.Moderation.At)
	})
}

func TestMemoryRepositoryUpsertReplacesModeration(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	review := models.Review{ID: "r1", SubmittedAt: time.Now()}
	review.Approve("manager", time.Now())
	require.NoError(t, repo.UpsertReview(ctx, review))

	require.NoError(t, repo.UpsertReview(ctx, models.Review{ID: "r1", SubmittedAt: time.Now()}))

	stored, err := repo.GetReviewByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, stored.IsPending())
}

func TestMemoryRepositoryProperties(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first := &models.Property{Name: "Stylish Camden Apartment"}
	require.NoError(t, repo.UpsertProperty(ctx, first))
	assert.NotEmpty(t, first.ID)

	require.NoError(t, repo.UpsertProperty(ctx, &models.Property{ID: "p2", Name: "Luxury Chelsea Townhouse"}))
	require.NoError(t, repo.UpsertProperty(ctx, &models.Property{ID: first.ID, Name: "Stylish Camden Apartment", Price: 120}))

	properties, err := repo.GetProperties(ctx)
	require.NoError(t, err)
	require.Len(t, properties, 2)
	assert.Equal(t, first.ID, properties[0].ID)
	assert.Equal(t, 120, properties[0].Price)
	assert.Equal(t, "p2", properties[1].ID)
}

func TestMemoryRepositoryReviews(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.UpsertProperty(ctx, &models.Property{ID: "p1", Name: "Stylish Camden Apartment"}))

	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	approved := models.Review{ID: "r1", ListingName: "Stylish Camden Apartment", Rating: rating(5), SubmittedAt: base}
	approved.Approve("manager", base)
	newer := models.Review{ID: "r2", ListingName: "Stylish Camden Apartment - Deluxe", Rating: rating(4), SubmittedAt: base.Add(time.Hour)}
	newer.Approve("manager", base)
	pending := models.Review{ID: "r3", ListingName: "Stylish Camden Apartment", SubmittedAt: base.Add(2 * time.Hour)}
	elsewhere := models.Review{ID: "r4", ListingName: "Elsewhere", SubmittedAt: base}
	elsewhere.Approve("manager", base)

	for _, r := range []models.Review{approved, newer, pending, elsewhere} {
		require.NoError(t, repo.UpsertReview(ctx, r))
	}

	all, err := repo.GetReviews(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "r3", all[0].ID)
	assert.Equal(t, "r2", all[1].ID)
	assert.Equal(t, "r1", all[2].ID)
	assert.Equal(t, "r4", all[3].ID)

	onlyApproved, err := repo.GetReviews(ctx, &filter.Criteria{Status: filter.StatusApproved})
	require.NoError(t, err)
	assert.Len(t, onlyApproved, 3)

	linked, err := repo.GetApprovedReviewsForProperty(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, "r2", linked[0].ID)
	assert.Equal(t, "r1", linked[1].ID)
}

func TestMemoryRepositoryConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.UpsertReview(ctx, models.Review{ID: "r1", Rating: rating(0), SubmittedAt: time.Now()}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateReview(ctx, "r1", func(r *models.Review) error {
				next := *r.Rating + 0.1
				r.Rating = &next
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetReviewByID(ctx, "r1")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, *stored.Rating, 1e-9)
}
