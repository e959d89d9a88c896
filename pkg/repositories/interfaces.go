package repositories

import (
	"context"

	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/models"
)

// ReviewUpdate mutates a review in place during UpdateReview. Returning an
// error aborts the write.
type ReviewUpdate func(review *models.Review) error

// Repository is the storage contract shared by the memory and postgres backends
type Repository interface {
	GetReviews(ctx context.Context, criteria *filter.Criteria) ([]models.Review, error)
	GetReviewByID(ctx context.Context, id string) (*models.Review, error)
	UpsertReview(ctx context.Context, review models.Review) error
	UpdateReview(ctx context.Context, id string, fn ReviewUpdate) (*models.Review, error)
	GetProperties(ctx context.Context) ([]models.Property, error)
	GetPropertyByID(ctx context.Context, id string) (*models.Property, error)
	UpsertProperty(ctx context.Context, property *models.Property) error
	GetApprovedReviewsForProperty(ctx context.Context, propertyID string) ([]models.Review, error)
}
