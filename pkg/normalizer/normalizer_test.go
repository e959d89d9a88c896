package normalizer

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/models"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewNormalizer(logger).WithClock(func() time.Time { return fixedNow })
}

func TestNormalizeOne_FullPayload(t *testing.T) {
	n := newTestNormalizer()

	review, err := n.NormalizeOne(context.Background(), map[string]any{
		"id":           7453.0,
		"type":         "host-to-guest",
		"status":       "published",
		"rating":       4.0,
		"publicReview": "Shane and family are wonderful! Would definitely host again :)",
		"reviewCategory": []any{
			map[string]any{"category": "cleanliness", "rating": 10.0},
			map[string]any{"category": "communication", "rating": 9.0},
		},
		"submittedAt":  "2020-08-21 22:45:14",
		"guestName":    "Shane Finkelstein",
		"listingName":  "2B N1 A - 29 Shoreditch Heights",
		"listingMapId": 128.0,
	})
	require.NoError(t, err)

	assert.Equal(t, "7453", review.ID)
	assert.Equal(t, models.ReviewTypeHostToGuest, review.Type)
	assert.Equal(t, "hostaway", review.Channel)
	assert.Equal(t, 4.0, review.RatingValue())
	assert.Len(t, review.ReviewCategory, 2)
	assert.Equal(t, time.Date(2020, 8, 21, 22, 45, 14, 0, time.UTC), review.SubmittedAt)
	assert.Equal(t, "Shane Finkelstein", review.GuestName)
	require.NotNil(t, review.ListingID)
	assert.Equal(t, "128", *review.ListingID)
	assert.True(t, review.IsPending())
}

func TestNormalizeOne_Defaults(t *testing.T) {
	n := newTestNormalizer()

	review, err := n.NormalizeOne(context.Background(), map[string]any{"id": "abc"})
	require.NoError(t, err)

	assert.Equal(t, models.ReviewTypeGuestToHost, review.Type)
	assert.Equal(t, DefaultStatus, review.Status)
	assert.Equal(t, 0.0, review.RatingValue())
	assert.Equal(t, "", review.PublicReview)
	assert.Equal(t, []models.CategoryRating{}, review.ReviewCategory)
	assert.Equal(t, fixedNow, review.SubmittedAt)
	assert.Equal(t, DefaultGuestName, review.GuestName)
	assert.Equal(t, DefaultListingName, review.ListingName)
	assert.Nil(t, review.ListingID)
}

func TestNormalizeOne_DerivesRatingFromCategories(t *testing.T) {
	n := newTestNormalizer()

	review, err := n.NormalizeOne(context.Background(), map[string]any{
		"id": "r-1",
		"reviewCategory": []any{
			map[string]any{"category": "cleanliness", "rating": 10},
			map[string]any{"category": "communication", "rating": 8},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.5, review.RatingValue())
}

func TestNormalizeOne_MissingID(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.NormalizeOne(context.Background(), map[string]any{"guestName": "No Id"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = n.NormalizeOne(context.Background(), "not an object")
	assert.True(t, apperrors.IsValidation(err))
}

func TestNormalize_SkipsBadItemsAndCountsDefaults(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize(context.Background(), []any{
		map[string]any{"id": "1", "submittedAt": "2024-01-15T00:00:00Z"},
		map[string]any{"guestName": "missing id"},
		map[string]any{"id": "3", "submittedAt": "last tuesday"},
	})

	require.Len(t, result.Reviews, 2)
	assert.Equal(t, "1", result.Reviews[0].ID)
	assert.Equal(t, "3", result.Reviews[1].ID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 1, result.Skipped[0].Index)
	assert.Equal(t, 1, result.DefaultedSubmittedAt)
	assert.Equal(t, fixedNow, result.Reviews[1].SubmittedAt)
}

func TestNormalizeOne_ClampsAndFilters(t *testing.T) {
	n := newTestNormalizer()

	review, err := n.NormalizeOne(context.Background(), map[string]any{
		"id":     "r-2",
		"type":   "guest-to-guest",
		"rating": 9.0,
		"reviewCategory": []any{
			map[string]any{"category": "cleanliness", "rating": 14},
			map[string]any{"rating": 3},
			"junk",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReviewTypeGuestToHost, review.Type)
	assert.Equal(t, MaxRating, review.RatingValue())
	assert.Equal(t, []models.CategoryRating{{Category: "cleanliness", Rating: 10}}, review.ReviewCategory)
}

func TestDeriveRating(t *testing.T) {
	testCases := []struct {
		name       string
		categories []models.CategoryRating
		expected   float64
	}{
		{name: "none", categories: nil, expected: 0},
		{name: "perfect", categories: []models.CategoryRating{{Category: "cleanliness", Rating: 10}, {Category: "communication", Rating: 10}}, expected: 5},
		{name: "mixed", categories: []models.CategoryRating{{Category: "cleanliness", Rating: 10}, {Category: "communication", Rating: 8}}, expected: 4.5},
		{name: "rounds", categories: []models.CategoryRating{{Category: "a", Rating: 7}, {Category: "b", Rating: 8}, {Category: "c", Rating: 8}}, expected: 3.8},
		{name: "repeated keys sum", categories: []models.CategoryRating{{Category: "cleanliness", Rating: 6}, {Category: "cleanliness", Rating: 10}}, expected: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeriveRating(tc.categories))
		})
	}
}
