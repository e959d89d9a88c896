package repositories

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/moby/locker"

	"github.com/Ramsey-B/thistle/internal/tracing"
	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/linking"
	"github.com/Ramsey-B/thistle/pkg/models"
)

// MemoryRepository keeps reviews and properties in process. Reads hand out
// copies so callers can never mutate stored records.
type MemoryRepository struct {
	mu            sync.RWMutex
	reviews       map[string]models.Review
	properties    map[string]models.Property
	propertyOrder []string
	locks         *locker.Locker
	logger        ectologger.Logger
}

func NewMemoryRepository(logger ectologger.Logger) *MemoryRepository {
	return &MemoryRepository{
		reviews:    map[string]models.Review{},
		properties: map[string]models.Property{},
		locks:      locker.New(),
		logger:     logger,
	}
}

func (r *MemoryRepository) GetReviews(ctx context.Context, criteria *filter.Criteria) ([]models.Review, error) {
	_, span := tracing.StartSpan(ctx, "MemoryRepository.GetReviews")
	defer span.End()

	reviews, properties := r.snapshot()
	return filter.Apply(reviews, properties, criteria), nil
}

func (r *MemoryRepository) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("review", id)
	}
	clone := review.Clone()
	return &clone, nil
}

// UpsertReview replaces the stored record wholesale, moderation included.
func (r *MemoryRepository) UpsertReview(ctx context.Context, review models.Review) error {
	if review.ID == "" {
		return apperrors.NewFieldValidationError("id", "review id is required")
	}

	r.locks.Lock(reviewKey(review.ID))
	defer r.locks.Unlock(reviewKey(review.ID))

	r.mu.Lock()
	r.reviews[review.ID] = review.Clone()
	r.mu.Unlock()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"review_id": review.ID,
	}).Debug("upserted review")
	return nil
}

func (r *MemoryRepository) UpdateReview(ctx context.Context, id string, fn ReviewUpdate) (*models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "MemoryRepository.UpdateReview")
	defer span.End()

	r.locks.Lock(reviewKey(id))
	defer r.locks.Unlock(reviewKey(id))

	r.mu.RLock()
	stored, ok := r.reviews[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("review", id)
	}

	review := stored.Clone()
	if err := fn(&review); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.reviews[id] = review.Clone()
	r.mu.Unlock()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"review_id": id,
		"state":     review.State(),
	}).Debug("updated review")
	return &review, nil
}

func (r *MemoryRepository) GetProperties(ctx context.Context) ([]models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	properties := make([]models.Property, 0, len(r.propertyOrder))
	for _, id := range r.propertyOrder {
		properties = append(properties, r.properties[id])
	}
	return properties, nil
}

func (r *MemoryRepository) GetPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	property, ok := r.properties[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("property", id)
	}
	return &property, nil
}

// UpsertProperty assigns an id when the property has none.
func (r *MemoryRepository) UpsertProperty(ctx context.Context, property *models.Property) error {
	if property.ID == "" {
		property.ID = uuid.NewString()
	}

	r.locks.Lock(propertyKey(property.ID))
	defer r.locks.Unlock(propertyKey(property.ID))

	r.mu.Lock()
	if _, exists := r.properties[property.ID]; !exists {
		r.propertyOrder = append(r.propertyOrder, property.ID)
	}
	r.properties[property.ID] = *property
	r.mu.Unlock()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"property_id": property.ID,
	}).Debug("upserted property")
	return nil
}

func (r *MemoryRepository) GetApprovedReviewsForProperty(ctx context.Context, propertyID string) ([]models.Review, error) {
	if _, err := r.GetPropertyByID(ctx, propertyID); err != nil {
		return nil, err
	}

	reviews, properties := r.snapshot()
	criteria := &filter.Criteria{Status: filter.StatusApproved}
	approved := filter.Apply(reviews, properties, criteria)
	return linking.ReviewsFor(propertyID, approved, properties), nil
}

func (r *MemoryRepository) snapshot() ([]models.Review, []models.Property) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviews := make([]models.Review, 0, len(r.reviews))
	for _, review := range r.reviews {
		reviews = append(reviews, review.Clone())
	}

	properties := make([]models.Property, 0, len(r.propertyOrder))
	for _, id := range r.propertyOrder {
		properties = append(properties, r.properties[id])
	}
	return reviews, properties
}

func reviewKey(id string) string   { return "review:" + id }
func propertyKey(id string) string { return "property:" + id }
