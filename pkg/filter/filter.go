// Package filter parses review queries and applies them to review sets.
package filter

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/linking"
	"github.com/Ramsey-B/thistle/pkg/models"
)

// Any is accepted by every string filter as "no constraint"
const Any = "all"

type Status string

const (
	StatusAll      Status = "all"
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

// Query is the raw, string-typed filter as received from a caller
type Query struct {
	Property         string   `query:"property" json:"property"`
	PropertyCategory string   `query:"propertyCategory" json:"propertyCategory"`
	Rating           string   `query:"rating" json:"rating"`
	Categories       []string `query:"categories" json:"categories"`
	Status           string   `query:"status" json:"status"`
	Channel          string   `query:"channel" json:"channel"`
	Type             string   `query:"type" json:"type"`
	Search           string   `query:"search" json:"search"`
	StartDate        string   `query:"startDate" json:"startDate"`
	EndDate          string   `query:"endDate" json:"endDate"`
}

// Criteria is a parsed filter. Zero values impose no constraint.
type Criteria struct {
	Property         string
	PropertyCategory string
	MinRating        *float64
	Categories       []string
	Status           Status
	Channel          string
	Type             models.ReviewType
	Search           string
	StartDate        *time.Time
	EndDate          *time.Time
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Parse validates a raw query. Malformed values are rejected, never ignored.
func Parse(q Query) (*Criteria, error) {
	c := &Criteria{
		Property:         clean(q.Property),
		PropertyCategory: clean(q.PropertyCategory),
		Channel:          clean(q.Channel),
		Search:           strings.TrimSpace(q.Search),
		Status:           StatusAll,
	}

	if rating := clean(q.Rating); rating != "" {
		minRating, err := ParseRating(rating)
		if err != nil {
			return nil, err
		}
		c.MinRating = &minRating
	}

	for _, entry := range q.Categories {
		for _, category := range strings.Split(entry, ",") {
			if category = strings.TrimSpace(category); category != "" {
				c.Categories = append(c.Categories, category)
			}
		}
	}

	if status := clean(q.Status); status != "" {
		switch Status(status) {
		case StatusApproved, StatusPending, StatusRejected:
			c.Status = Status(status)
		default:
			return nil, apperrors.NewFieldValidationError("status", "invalid status %q: use all, approved, pending or rejected", q.Status)
		}
	}

	if reviewType := clean(q.Type); reviewType != "" {
		c.Type = models.ReviewType(reviewType)
		if !c.Type.IsValid() {
			return nil, apperrors.NewFieldValidationError("type", "invalid review type %q", q.Type)
		}
	}

	if q.StartDate != "" {
		start, _, err := parseDate("startDate", q.StartDate)
		if err != nil {
			return nil, err
		}
		c.StartDate = &start
	}

	if q.EndDate != "" {
		end, dateOnly, err := parseDate("endDate", q.EndDate)
		if err != nil {
			return nil, err
		}
		if dateOnly {
			// a bare date includes the whole day
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		c.EndDate = &end
	}

	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return nil, apperrors.NewFieldValidationError("startDate", "startDate must not be after endDate")
	}

	return c, nil
}

// ParseRating reads a minimum rating such as "4", "4+" or "4+ Stars".
func ParseRating(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimSpace(strings.TrimSuffix(value, "Stars"))
	value = strings.TrimSpace(strings.TrimSuffix(value, "Star"))
	value = strings.TrimSpace(strings.TrimSuffix(value, "+"))

	rating, err := strconv.ParseFloat(value, 64)
	if err != nil || rating < 0 || rating > 5 {
		return 0, apperrors.NewFieldValidationError("rating", "invalid rating threshold %q", raw)
	}
	return rating, nil
}

// Apply returns the reviews matching every criterion, newest first.
func Apply(reviews []models.Review, properties []models.Property, c *Criteria) []models.Review {
	out := ectolinq.Filter(reviews, func(review models.Review) bool {
		return c == nil || c.Matches(review, properties)
	})
	if out == nil {
		out = []models.Review{}
	}
	Sort(out)
	return out
}

// Matches ANDs every supplied predicate.
func (c *Criteria) Matches(review models.Review, properties []models.Property) bool {
	if c.Property != "" && !containsFold(review.ListingName, c.Property) {
		return false
	}

	if c.PropertyCategory != "" && !c.matchesPropertyCategory(review, properties) {
		return false
	}

	if c.MinRating != nil && (review.Rating == nil || *review.Rating < *c.MinRating) {
		return false
	}

	if len(c.Categories) > 0 && !hasAnyCategory(review, c.Categories) {
		return false
	}

	switch c.Status {
	case StatusApproved:
		if !review.IsApproved() {
			return false
		}
	case StatusPending:
		if !review.IsPending() {
			return false
		}
	case StatusRejected:
		if !review.IsRejected() {
			return false
		}
	}

	if c.Channel != "" && !strings.EqualFold(review.Channel, c.Channel) {
		return false
	}

	if c.Type != "" && review.Type != c.Type {
		return false
	}

	if c.Search != "" && !matchesSearch(review, c.Search) {
		return false
	}

	if c.StartDate != nil && review.SubmittedAt.Before(*c.StartDate) {
		return false
	}

	if c.EndDate != nil && review.SubmittedAt.After(*c.EndDate) {
		return false
	}

	return true
}

func (c *Criteria) matchesPropertyCategory(review models.Review, properties []models.Property) bool {
	link := linking.Resolve(review, properties)
	for _, id := range link.PropertyIDs {
		for _, p := range properties {
			if p.ID == id && strings.EqualFold(p.Category, c.PropertyCategory) {
				return true
			}
		}
	}
	return false
}

// Sort orders reviews by submittedAt descending, then id for stability.
func Sort(reviews []models.Review) {
	slices.SortStableFunc(reviews, func(a, b models.Review) int {
		if c := b.SubmittedAt.Compare(a.SubmittedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func hasAnyCategory(review models.Review, categories []string) bool {
	for _, rc := range review.ReviewCategory {
		if slices.Contains(categories, rc.Category) {
			return true
		}
	}
	return false
}

func matchesSearch(review models.Review, term string) bool {
	return containsFold(review.PublicReview, term) ||
		containsFold(review.GuestName, term) ||
		containsFold(review.ListingName, term) ||
		containsFold(review.Channel, term)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func clean(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, Any) {
		return ""
	}
	return value
}

func parseDate(field, raw string) (time.Time, bool, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), layout == "2006-01-02", nil
		}
	}
	return time.Time{}, false, apperrors.NewFieldValidationError(field, "invalid %s %q", field, raw)
}
