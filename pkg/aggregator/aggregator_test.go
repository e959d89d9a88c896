package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/thistle/pkg/models"
)

var now = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

func rated(id string, rating float64, ago time.Duration) models.Review {
	return models.Review{ID: id, Rating: &rating, SubmittedAt: now.Add(-ago)}
}

const day = 24 * time.Hour

func TestParseCategories(t *testing.T) {
	testCases := []struct {
		name    string
		entries []string
		want    CategoryRegistry
		invalid bool
	}{
		{name: "empty falls back to defaults", entries: nil, want: DefaultCategories},
		{
			name:    "key and label",
			entries: []string{"cleanliness:cleanliness", "checkin:check_in", "value"},
			want:    CategoryRegistry{{"cleanliness", "cleanliness"}, {"checkin", "check_in"}, {"value", "value"}},
		},
		{name: "duplicate key", entries: []string{"a", "a:b"}, invalid: true},
		{name: "missing key", entries: []string{":label"}, invalid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCategories(tc.entries)
			if tc.invalid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDashboard(t *testing.T) {
	a := NewAggregator(nil)

	first := rated("r1", 5, day)
	first.ReviewCategory = []models.CategoryRating{{Category: "cleanliness", Rating: 10}, {Category: "respect_house_rules", Rating: 8}}
	first.Approve("manager", now)
	second := rated("r2", 4, 2*day)
	second.ReviewCategory = []models.CategoryRating{{Category: "cleanliness", Rating: 6}, {Category: "unknown", Rating: 1}}
	third := models.Review{ID: "r3", SubmittedAt: now.Add(-100 * day)}

	d := a.Dashboard([]models.Review{first, second, third}, now)

	assert.Equal(t, 3, d.TotalReviews)
	assert.Equal(t, 1, d.ApprovedReviews)
	assert.Equal(t, 2, d.PendingReviews)
	assert.Equal(t, 3.0, d.AverageRating)
	assert.Equal(t, ResponseRate, d.ResponseRate)
	assert.Equal(t, map[string]float64{"cleanliness": 4.0, "communication": 0, "house_rules": 4.0}, d.CategoryAverages)
	require.Len(t, d.TrendsData, TrendBuckets)
	assert.Equal(t, TrendBucket{Label: "Week 5", AverageRating: 4.5, ReviewCount: 2}, d.TrendsData[4])
}

func TestDashboardEmpty(t *testing.T) {
	d := NewAggregator(nil).Dashboard(nil, now)
	assert.Zero(t, d.TotalReviews)
	assert.Zero(t, d.AverageRating)
	assert.Len(t, d.TrendsData, TrendBuckets)
	for _, bucket := range d.TrendsData {
		assert.Zero(t, bucket.ReviewCount)
		assert.Zero(t, bucket.AverageRating)
	}
}

func TestTrendsBucketBoundaries(t *testing.T) {
	reviews := []models.Review{
		rated("now", 5, 0),
		rated("edge", 3, 7*day+time.Second),
		rated("start-inclusive", 4, 7*day),
		rated("oldest", 1, 35*day),
		rated("too-old", 2, 35*day+time.Second),
		{ID: "future", SubmittedAt: now.Add(time.Hour)},
	}

	buckets := Trends(reviews, now)
	counts := []int{}
	for _, b := range buckets {
		counts = append(counts, b.ReviewCount)
	}

	assert.Equal(t, []int{1, 0, 0, 1, 2}, counts)
	assert.Equal(t, "Week 1", buckets[0].Label)
	assert.Equal(t, 1.0, buckets[0].AverageRating)
	assert.Equal(t, 3.0, buckets[3].AverageRating)
	assert.Equal(t, 4.5, buckets[4].AverageRating)
}

func TestPropertyMetrics(t *testing.T) {
	a := NewAggregator(nil)
	property := models.Property{ID: "p1", Name: "Stylish Camden Apartment"}

	recentGood := rated("r1", 5, 2*day)
	recentGood.Channel = "airbnb"
	recentGood.Approve("manager", now)
	recentBad := rated("r2", 3, 10*day)
	recentBad.Channel = "airbnb"
	recentBad.PublicReview = "The room was DIRTY and the wifi was broken. Dirty towels."
	older := rated("r3", 2, 45*day)
	older.PublicReview = "Street noise all night, wifi slow"
	unrated := models.Review{ID: "r4", SubmittedAt: now.Add(-50 * day), PublicReview: "cold and smelly, no hot water"}

	m := a.Property(property, []models.Review{recentGood, recentBad, older, unrated}, now)

	assert.Equal(t, property, m.Property)
	assert.Equal(t, 4, m.TotalReviews)
	assert.Equal(t, 1, m.ApprovedReviews)
	assert.Equal(t, 3, m.PendingReviews)
	assert.Equal(t, 2.5, m.AverageRating)
	assert.Equal(t, 25.0, m.ApprovalRate)
	assert.Equal(t, 2, m.RecentReviews)
	// recent mean 4, previous mean 1
	assert.Equal(t, 3.0, m.Trend)
	assert.Equal(t, map[string]int{"airbnb": 2, "unknown": 2}, m.ChannelBreakdown)
	assert.Equal(t, []Issue{
		{Keyword: "wifi", Count: 2},
		{Keyword: "dirty", Count: 1},
		{Keyword: "broken", Count: 1},
	}, m.CommonIssues)
}

func TestPropertyMetricsEmpty(t *testing.T) {
	m := NewAggregator(nil).Property(models.Property{ID: "p1"}, nil, now)
	assert.Zero(t, m.ApprovalRate)
	assert.Zero(t, m.Trend)
	assert.Empty(t, m.CommonIssues)
	assert.NotNil(t, m.CommonIssues)
	assert.Empty(t, m.ChannelBreakdown)
}
