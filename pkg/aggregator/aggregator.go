// Package aggregator computes dashboard and per-property review statistics.
package aggregator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/utils"
)

const (
	// ResponseRate is reported as a constant until response tracking exists
	ResponseRate = 94

	TrendBuckets      = 5
	trendBucketWidth  = 7 * 24 * time.Hour
	trendWindow       = 30 * 24 * time.Hour
	lowRatingCeiling  = 3.0
	topIssueCount     = 3
	unknownChannelKey = "unknown"
)

// DefaultIssueKeywords are scanned for in low rated reviews
var DefaultIssueKeywords = []string{"dirty", "clean", "noise", "wifi", "internet", "broken", "cold", "hot", "smell"}

type TrendBucket struct {
	Label         string  `json:"label"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

type Dashboard struct {
	TotalReviews     int                `json:"totalReviews"`
	ApprovedReviews  int                `json:"approvedReviews"`
	PendingReviews   int                `json:"pendingReviews"`
	AverageRating    float64            `json:"averageRating"`
	ResponseRate     int                `json:"responseRate"`
	CategoryAverages map[string]float64 `json:"categoryAverages"`
	TrendsData       []TrendBucket      `json:"trendsData"`
}

type Issue struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type PropertyMetrics struct {
	Property         models.Property    `json:"property"`
	TotalReviews     int                `json:"totalReviews"`
	ApprovedReviews  int                `json:"approvedReviews"`
	PendingReviews   int                `json:"pendingReviews"`
	AverageRating    float64            `json:"averageRating"`
	CategoryAverages map[string]float64 `json:"categoryAverages"`
	ApprovalRate     float64            `json:"approvalRate"`
	Trend            float64            `json:"trend"`
	RecentReviews    int                `json:"recentReviews"`
	ChannelBreakdown map[string]int     `json:"channelBreakdown"`
	CommonIssues     []Issue            `json:"commonIssues"`
}

type Aggregator struct {
	categories CategoryRegistry
	keywords   []string
}

func NewAggregator(categories CategoryRegistry) *Aggregator {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Aggregator{categories: categories, keywords: DefaultIssueKeywords}
}

// Dashboard aggregates every review. Pending here means not approved.
func (a *Aggregator) Dashboard(reviews []models.Review, now time.Time) Dashboard {
	approved := countApproved(reviews)
	return Dashboard{
		TotalReviews:     len(reviews),
		ApprovedReviews:  approved,
		PendingReviews:   len(reviews) - approved,
		AverageRating:    utils.Round1(meanRating(reviews)),
		ResponseRate:     ResponseRate,
		CategoryAverages: a.CategoryAverages(reviews),
		TrendsData:       Trends(reviews, now),
	}
}

// Property aggregates the reviews linked to a single property.
func (a *Aggregator) Property(property models.Property, reviews []models.Review, now time.Time) PropertyMetrics {
	approved := countApproved(reviews)

	approvalRate := 0.0
	if len(reviews) > 0 {
		approvalRate = float64(approved) / float64(len(reviews)) * 100
	}

	recent := inWindow(reviews, now.Add(-trendWindow), now, true)
	previous := inWindow(reviews, now.Add(-2*trendWindow), now.Add(-trendWindow), false)

	return PropertyMetrics{
		Property:         property,
		TotalReviews:     len(reviews),
		ApprovedReviews:  approved,
		PendingReviews:   len(reviews) - approved,
		AverageRating:    utils.Round1(meanRating(reviews)),
		CategoryAverages: a.CategoryAverages(reviews),
		ApprovalRate:     utils.Round1(approvalRate),
		Trend:            utils.Round1(meanRating(recent) - meanRating(previous)),
		RecentReviews:    len(recent),
		ChannelBreakdown: channelBreakdown(reviews),
		CommonIssues:     a.CommonIssues(reviews),
	}
}

// CategoryAverages rescales the mean of each registered category from the
// 10 point upstream scale to 5 points. Repeated entries all contribute.
func (a *Aggregator) CategoryAverages(reviews []models.Review) map[string]float64 {
	totals := map[string]int{}
	counts := map[string]int{}
	for _, review := range reviews {
		for _, rc := range review.ReviewCategory {
			label, ok := a.categories.label(rc.Category)
			if !ok {
				continue
			}
			totals[label] += rc.Rating
			counts[label]++
		}
	}

	averages := make(map[string]float64, len(a.categories))
	for _, c := range a.categories {
		averages[c.Label] = 0
		if counts[c.Label] > 0 {
			averages[c.Label] = utils.Round1(float64(totals[c.Label]) / float64(counts[c.Label]) / 10 * 5)
		}
	}
	return averages
}

// CommonIssues tallies keywords in reviews rated 3 or lower. Each review
// counts a keyword at most once.
func (a *Aggregator) CommonIssues(reviews []models.Review) []Issue {
	counts := map[string]int{}
	order := []string{}
	for _, review := range reviews {
		if review.RatingValue() > lowRatingCeiling || review.PublicReview == "" {
			continue
		}
		text := strings.ToLower(review.PublicReview)
		for _, keyword := range a.keywords {
			if !strings.Contains(text, keyword) {
				continue
			}
			if _, seen := counts[keyword]; !seen {
				order = append(order, keyword)
			}
			counts[keyword]++
		}
	}

	issues := ectolinq.Map(order, func(keyword string) Issue {
		return Issue{Keyword: keyword, Count: counts[keyword]}
	})
	slices.SortStableFunc(issues, func(x, y Issue) int {
		return y.Count - x.Count
	})
	if len(issues) > topIssueCount {
		issues = issues[:topIssueCount]
	}
	if issues == nil {
		issues = []Issue{}
	}
	return issues
}

// Trends splits the last five weeks into rolling 7 day buckets, oldest
// first. Bucket i covers [now-(5-i)w, now-(4-i)w); the newest includes now.
func Trends(reviews []models.Review, now time.Time) []TrendBucket {
	buckets := make([]TrendBucket, 0, TrendBuckets)
	for i := 0; i < TrendBuckets; i++ {
		start := now.Add(-time.Duration(TrendBuckets-i) * trendBucketWidth)
		end := now.Add(-time.Duration(TrendBuckets-1-i) * trendBucketWidth)
		week := inWindow(reviews, start, end, i == TrendBuckets-1)

		buckets = append(buckets, TrendBucket{
			Label:         fmt.Sprintf("Week %d", i+1),
			AverageRating: utils.Round1(meanRating(week)),
			ReviewCount:   len(week),
		})
	}
	return buckets
}

func inWindow(reviews []models.Review, start, end time.Time, includeEnd bool) []models.Review {
	return ectolinq.Filter(reviews, func(r models.Review) bool {
		if r.SubmittedAt.Before(start) {
			return false
		}
		if includeEnd {
			return !r.SubmittedAt.After(end)
		}
		return r.SubmittedAt.Before(end)
	})
}

func meanRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range reviews {
		total += r.RatingValue()
	}
	return total / float64(len(reviews))
}

func countApproved(reviews []models.Review) int {
	return ectolinq.Count(reviews, func(r models.Review) bool { return r.IsApproved() })
}

func channelBreakdown(reviews []models.Review) map[string]int {
	breakdown := map[string]int{}
	for _, r := range reviews {
		channel := r.Channel
		if channel == "" {
			channel = unknownChannelKey
		}
		breakdown[channel]++
	}
	return breakdown
}
