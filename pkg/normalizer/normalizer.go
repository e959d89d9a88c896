// Package normalizer maps loosely typed upstream review payloads onto the
// canonical review model.
package normalizer

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/utils"
)

const (
	DefaultGuestName   = "Anonymous Guest"
	DefaultListingName = "Unknown Property"
	DefaultStatus      = "published"
	DefaultChannel     = "hostaway"

	MaxRating         = 5.0
	MaxCategoryRating = 10
)

// upstream timestamps come in several layouts; Hostaway uses the space separated one
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC822,
}

// Skipped records an upstream item that could not be normalized
type Skipped struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result is the outcome of normalizing one batch
type Result struct {
	Reviews              []models.Review
	Skipped              []Skipped
	DefaultedSubmittedAt int
}

type Normalizer struct {
	logger ectologger.Logger
	now    func() time.Time
}

func NewNormalizer(logger ectologger.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// WithClock overrides the ingestion instant used for missing timestamps.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize maps every item of a batch. Items that fail are skipped and
// reported; they never abort the batch.
func (n *Normalizer) Normalize(ctx context.Context, items []any) Result {
	result := Result{Reviews: make([]models.Review, 0, len(items))}

	for i, item := range items {
		review, defaulted, err := n.normalize(ctx, item)
		if err != nil {
			n.logger.WithContext(ctx).WithError(err).WithField("index", i).Warn("skipping upstream review")
			result.Skipped = append(result.Skipped, Skipped{Index: i, Reason: err.Error()})
			continue
		}
		if defaulted {
			result.DefaultedSubmittedAt++
		}
		result.Reviews = append(result.Reviews, review)
	}

	return result
}

// NormalizeOne maps a single upstream object.
func (n *Normalizer) NormalizeOne(ctx context.Context, item any) (models.Review, error) {
	review, _, err := n.normalize(ctx, item)
	return review, err
}

func (n *Normalizer) normalize(ctx context.Context, item any) (models.Review, bool, error) {
	raw, ok := item.(map[string]any)
	if !ok {
		return models.Review{}, false, apperrors.NewValidationError("review must be an object, got %T", item)
	}

	id, ok := utils.AnyToString(raw["id"])
	if !ok {
		return models.Review{}, false, apperrors.NewFieldValidationError("id", "review id is required")
	}

	log := n.logger.WithContext(ctx).WithField("review_id", id)

	review := models.Review{
		ID:             id,
		Type:           models.ReviewTypeGuestToHost,
		Status:         stringOr(raw["status"], DefaultStatus),
		Channel:        stringOr(raw["channel"], DefaultChannel),
		PublicReview:   stringOr(raw["publicReview"], ""),
		ReviewCategory: categories(raw["reviewCategory"]),
		GuestName:      stringOr(raw["guestName"], DefaultGuestName),
		ListingName:    stringOr(raw["listingName"], DefaultListingName),
		Moderation:     models.Moderation{State: models.ModerationPending},
	}

	if rawType, ok := utils.AnyToString(raw["type"]); ok {
		if t := models.ReviewType(rawType); t.IsValid() {
			review.Type = t
		} else {
			log.Warnf("unknown review type '%s', using %s", rawType, models.ReviewTypeGuestToHost)
		}
	}

	for _, key := range []string{"listingId", "listingMapId"} {
		if listingID, ok := utils.AnyToString(raw[key]); ok {
			review.ListingID = &listingID
			break
		}
	}

	rating := DeriveRating(review.ReviewCategory)
	if value, ok := utils.AnyToFloat(raw["rating"]); ok && value > 0 {
		if value > MaxRating {
			log.Warnf("rating %v is above %v, clamping", value, MaxRating)
			value = MaxRating
		}
		rating = value
	}
	review.Rating = &rating

	submittedAt, ok := parseTime(raw["submittedAt"])
	if !ok {
		submittedAt = n.now().UTC()
		log.WithField("raw_submitted_at", raw["submittedAt"]).Warn("submittedAt missing or unparsable, defaulting to ingestion time")
	}
	review.SubmittedAt = submittedAt

	return review, !ok, nil
}

// DeriveRating converts the mean category score (0-10) to the 0-5 display
// scale, rounded to one decimal. No categories yields 0.
func DeriveRating(categories []models.CategoryRating) float64 {
	if len(categories) == 0 {
		return 0
	}
	total := 0
	for _, c := range categories {
		total += c.Rating
	}
	avg := float64(total) / float64(len(categories))
	return utils.Round1(avg / MaxCategoryRating * MaxRating)
}

func categories(input any) []models.CategoryRating {
	items, err := utils.AnyToType[[]any](input)
	if err != nil || len(items) == 0 {
		return []models.CategoryRating{}
	}

	parsed := ectolinq.Map(items, func(item any) models.CategoryRating {
		entry, ok := item.(map[string]any)
		if !ok {
			return models.CategoryRating{}
		}
		key, _ := utils.AnyToString(entry["category"])
		score, _ := utils.AnyToFloat(entry["rating"])
		rating := int(math.Round(score))
		rating = max(0, min(MaxCategoryRating, rating))
		return models.CategoryRating{Category: key, Rating: rating}
	})

	kept := ectolinq.Filter(parsed, func(c models.CategoryRating) bool {
		return c.Category != ""
	})
	if kept == nil {
		return []models.CategoryRating{}
	}
	return kept
}

func stringOr(input any, fallback string) string {
	value, ok := input.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func parseTime(input any) (time.Time, bool) {
	switch v := input.(type) {
	case time.Time:
		return v.UTC(), !v.IsZero()
	case string:
		value := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, value); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
