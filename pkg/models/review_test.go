package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview_ModerationTransitions(t *testing.T) {
	review := Review{ID: "review-001"}
	assert.True(t, review.IsPending())

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	review.Approve("mgr", at)
	assert.True(t, review.IsApproved())
	assert.False(t, review.IsRejected())
	assert.Equal(t, "mgr", review.Moderation.Actor)

	review.Reject("manager", at.Add(time.Hour))
	assert.True(t, review.IsRejected())
	assert.False(t, review.IsApproved())
	assert.Equal(t, "manager", review.Moderation.Actor)
}

func TestReview_MarshalJSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("approved exposes approval fields only", func(t *testing.T) {
		review := Review{ID: "review-001", Type: ReviewTypeGuestToHost}
		review.Approve("mgr", at)

		data, err := json.Marshal(review)
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, true, out["approved"])
		assert.Equal(t, false, out["rejected"])
		assert.Equal(t, "mgr", out["approvedBy"])
		assert.Nil(t, out["rejectedAt"])
		assert.Nil(t, out["rejectedBy"])
		assert.Equal(t, "approved", out["moderationStatus"])
		assert.Equal(t, []any{}, out["reviewCategory"])
	})

	t.Run("round trip keeps state", func(t *testing.T) {
		rating := 4.5
		review := Review{ID: "review-002", Rating: &rating, ReviewCategory: []CategoryRating{{Category: "cleanliness", Rating: 9}}}
		review.Reject("manager", at)

		data, err := json.Marshal(review)
		require.NoError(t, err)

		var decoded Review
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, decoded.IsRejected())
		assert.Equal(t, "manager", decoded.Moderation.Actor)
		assert.Equal(t, 4.5, decoded.RatingValue())
		assert.Equal(t, review.ReviewCategory, decoded.ReviewCategory)
	})
}

func TestReview_Clone(t *testing.T) {
	rating := 5.0
	listingID := "p-1"
	original := Review{ID: "r", Rating: &rating, ListingID: &listingID, ReviewCategory: []CategoryRating{{Category: "cleanliness", Rating: 10}}}

	clone := original.Clone()
	*clone.Rating = 1
	*clone.ListingID = "p-2"
	clone.ReviewCategory[0].Rating = 1

	assert.Equal(t, 5.0, *original.Rating)
	assert.Equal(t, "p-1", *original.ListingID)
	assert.Equal(t, 10, original.ReviewCategory[0].Rating)
}
