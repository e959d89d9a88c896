package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/thistle/internal/database"
	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/linking"
	"github.com/Ramsey-B/thistle/pkg/models"
)

// PostgresRepository implements Repository on top of the review and
// property tables.
type PostgresRepository struct {
	reviews    *ReviewRepository
	properties *PropertyRepository
}

func NewPostgresRepository(db database.DB, logger ectologger.Logger) *PostgresRepository {
	return &PostgresRepository{
		reviews:    NewReviewRepository(db, logger),
		properties: NewPropertyRepository(db, logger),
	}
}

// GetReviews narrows in SQL and then runs the full filter engine so results
// match the memory backend exactly.
func (r *PostgresRepository) GetReviews(ctx context.Context, criteria *filter.Criteria) ([]models.Review, error) {
	reviews, err := r.reviews.List(ctx, criteria)
	if err != nil {
		return nil, err
	}

	properties, err := r.properties.List(ctx)
	if err != nil {
		return nil, err
	}

	return filter.Apply(reviews, properties, criteria), nil
}

func (r *PostgresRepository) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	return r.reviews.GetByID(ctx, id)
}

func (r *PostgresRepository) UpsertReview(ctx context.Context, review models.Review) error {
	return r.reviews.Upsert(ctx, review)
}

func (r *PostgresRepository) UpdateReview(ctx context.Context, id string, fn ReviewUpdate) (*models.Review, error) {
	return r.reviews.Update(ctx, id, fn)
}

func (r *PostgresRepository) GetProperties(ctx context.Context) ([]models.Property, error) {
	return r.properties.List(ctx)
}

func (r *PostgresRepository) GetPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	return r.properties.GetByID(ctx, id)
}

func (r *PostgresRepository) UpsertProperty(ctx context.Context, property *models.Property) error {
	return r.properties.Upsert(ctx, property)
}

func (r *PostgresRepository) GetApprovedReviewsForProperty(ctx context.Context, propertyID string) ([]models.Review, error) {
	if _, err := r.properties.GetByID(ctx, propertyID); err != nil {
		return nil, err
	}

	criteria := &filter.Criteria{Status: filter.StatusApproved}
	approved, err := r.GetReviews(ctx, criteria)
	if err != nil {
		return nil, err
	}

	properties, err := r.properties.List(ctx)
	if err != nil {
		return nil, err
	}
	return linking.ReviewsFor(propertyID, approved, properties), nil
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
