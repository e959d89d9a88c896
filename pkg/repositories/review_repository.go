package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/thistle/internal/database"
	"github.com/Ramsey-B/thistle/internal/tracing"
	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/models"
)

const reviewsTable = "reviews"

var reviewColumns = []string{
	"id", "type", "status", "channel", "rating", "public_review", "review_category",
	"submitted_at", "guest_name", "listing_name", "listing_id",
	"moderation_state", "moderated_by", "moderated_at", "updated_at",
}

type reviewRow struct {
	ID              string                                  `db:"id"`
	Type            string                                  `db:"type"`
	Status          string                                  `db:"status"`
	Channel         string                                  `db:"channel"`
	Rating          *float64                                `db:"rating"`
	PublicReview    string                                  `db:"public_review"`
	ReviewCategory  database.JSONB[[]models.CategoryRating] `db:"review_category"`
	SubmittedAt     time.Time                               `db:"submitted_at"`
	GuestName       string                                  `db:"guest_name"`
	ListingName     string                                  `db:"listing_name"`
	ListingID       *string                                 `db:"listing_id"`
	ModerationState string                                  `db:"moderation_state"`
	ModeratedBy     string                                  `db:"moderated_by"`
	ModeratedAt     *time.Time                              `db:"moderated_at"`
	UpdatedAt       time.Time                               `db:"updated_at"`
}

var reviewStruct = database.NewStruct(new(reviewRow))

func toReviewRow(review models.Review) reviewRow {
	categories := review.ReviewCategory
	if categories == nil {
		categories = []models.CategoryRating{}
	}
	return reviewRow{
		ID:              review.ID,
		Type:            string(review.Type),
		Status:          review.Status,
		Channel:         review.Channel,
		Rating:          review.Rating,
		PublicReview:    review.PublicReview,
		ReviewCategory:  database.JSONB[[]models.CategoryRating]{Data: categories},
		SubmittedAt:     review.SubmittedAt.UTC(),
		GuestName:       review.GuestName,
		ListingName:     review.ListingName,
		ListingID:       review.ListingID,
		ModerationState: string(review.State()),
		ModeratedBy:     review.Moderation.Actor,
		ModeratedAt:     review.Moderation.At,
	}
}

func (row reviewRow) toModel() models.Review {
	categories := row.ReviewCategory.Data
	if categories == nil {
		categories = []models.CategoryRating{}
	}
	return models.Review{
		ID:             row.ID,
		Type:           models.ReviewType(row.Type),
		Status:         row.Status,
		Channel:        row.Channel,
		Rating:         row.Rating,
		PublicReview:   row.PublicReview,
		ReviewCategory: categories,
		SubmittedAt:    row.SubmittedAt.UTC(),
		GuestName:      row.GuestName,
		ListingName:    row.ListingName,
		ListingID:      row.ListingID,
		Moderation: models.Moderation{
			State: models.ModerationState(row.ModerationState),
			Actor: row.ModeratedBy,
			At:    row.ModeratedAt,
		},
	}
}

// ReviewRepository handles database operations for reviews
type ReviewRepository struct {
	*baseRepository
}

func NewReviewRepository(db database.DB, logger ectologger.Logger) *ReviewRepository {
	return &ReviewRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// List pushes the column-backed predicates of criteria down to SQL. Text
// and link based predicates are left to the filter engine.
func (r *ReviewRepository) List(ctx context.Context, criteria *filter.Criteria) ([]models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.List")
	defer span.End()

	sb := reviewStruct.SelectFrom(reviewsTable)
	if criteria != nil {
		if criteria.Channel != "" {
			sb.Where(sb.Equal("lower(channel)", strings.ToLower(criteria.Channel)))
		}
		if criteria.Type != "" {
			sb.Where(sb.Equal("type", string(criteria.Type)))
		}
		if criteria.Status != "" && criteria.Status != filter.StatusAll {
			sb.Where(sb.Equal("moderation_state", string(criteria.Status)))
		}
		if criteria.StartDate != nil {
			sb.Where(sb.GreaterEqualThan("submitted_at", *criteria.StartDate))
		}
		if criteria.EndDate != nil {
			sb.Where(sb.LessEqualThan("submitted_at", *criteria.EndDate))
		}
		if criteria.MinRating != nil {
			sb.Where(sb.GreaterEqualThan("rating", *criteria.MinRating))
		}
	}
	sb.OrderBy("submitted_at DESC", "id ASC")

	query, args := sb.Build()
	var rows []reviewRow
	if err := r.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list reviews")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list reviews")
	}

	reviews := make([]models.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toModel())
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"count": len(reviews),
	}).Debugf("Listed %s", reviewsTable)
	return reviews, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.GetByID")
	defer span.End()

	sb := reviewStruct.SelectFrom(reviewsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row reviewRow
	err := r.DB().GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("review", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"review_id": id,
		}).Error("failed to get review by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review by ID")
	}

	review := row.toModel()
	return &review, nil
}

// Upsert writes the whole record, overwriting moderation state on conflict.
func (r *ReviewRepository) Upsert(ctx context.Context, review models.Review) error {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.Upsert")
	defer span.End()

	row := toReviewRow(review)
	ib := database.NewInsertBuilder()
	ib.InsertInto(reviewsTable).
		Cols(reviewColumns...).
		Values(row.ID, row.Type, row.Status, row.Channel, row.Rating, row.PublicReview, row.ReviewCategory,
			row.SubmittedAt, row.GuestName, row.ListingName, row.ListingID,
			row.ModerationState, row.ModeratedBy, row.ModeratedAt, sqlbuilder.Raw("NOW()"))
	ib.OnConflictUpdate([]string{"id"}, reviewColumns[1:]...)

	query, args := ib.Build()
	if _, err := r.DB().ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"review_id": review.ID,
		}).Error("failed to upsert review")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert review")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"review_id": review.ID,
	}).Debugf("Upserted %s", reviewsTable)
	return nil
}

// Update locks the row, applies fn and writes the moderation columns back in
// one transaction.
func (r *ReviewRepository) Update(ctx context.Context, id string, fn ReviewUpdate) (*models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ReviewRepository.Update")
	defer span.End()

	ctx, tx, err := r.DB().GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update review")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	sb := reviewStruct.SelectFrom(reviewsTable)
	sb.Where(sb.Equal("id", id))
	sb.SQL("FOR UPDATE")

	query, args := sb.Build()
	var row reviewRow
	err = tx.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("review", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"review_id": id,
		}).Error("failed to lock review")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update review")
	}

	review := row.toModel()
	if err := fn(&review); err != nil {
		return nil, err
	}

	updated := toReviewRow(review)
	ub := database.NewUpdateBuilder()
	ub.Update(reviewsTable).
		Set(
			ub.Assign("moderation_state", updated.ModerationState),
			ub.Assign("moderated_by", updated.ModeratedBy),
			ub.Assign("moderated_at", updated.ModeratedAt),
			ub.Assign("updated_at", sqlbuilder.Raw("NOW()")),
		).
		Where(ub.Equal("id", id))

	query, args = ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"review_id": id,
		}).Error("failed to update review")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update review")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update review")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"review_id": id,
		"state":     updated.ModerationState,
	}).Debugf("Updated %s", reviewsTable)
	return &review, nil
}
