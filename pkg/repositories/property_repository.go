package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/thistle/internal/database"
	"github.com/Ramsey-B/thistle/internal/tracing"
	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/models"
)

var propertiesTable = models.Property{}.TableName()

var propertyStruct = database.NewStruct(new(models.Property))

// PropertyRepository handles database operations for properties
type PropertyRepository struct {
	*baseRepository
}

func NewPropertyRepository(db database.DB, logger ectologger.Logger) *PropertyRepository {
	return &PropertyRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

func (r *PropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "PropertyRepository.List")
	defer span.End()

	sb := propertyStruct.SelectFrom(propertiesTable)
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	properties := []models.Property{}
	if err := r.DB().SelectContext(ctx, &properties, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list properties")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list properties")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"count": len(properties),
	}).Debugf("Listed %s", propertiesTable)
	return properties, nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "PropertyRepository.GetByID")
	defer span.End()

	sb := propertyStruct.SelectFrom(propertiesTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var property models.Property
	err := r.DB().GetContext(ctx, &property, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("property", id)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"property_id": id,
		}).Error("failed to get property by ID")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get property by ID")
	}

	return &property, nil
}

// Upsert inserts the property or overwrites the row with the same id.
func (r *PropertyRepository) Upsert(ctx context.Context, property *models.Property) error {
	ctx, span := tracing.StartSpan(ctx, "PropertyRepository.Upsert")
	defer span.End()

	if property.ID == "" {
		property.ID = uuid.NewString()
	}

	columns := []string{"id", "name", "address", "description", "price", "category", "bedrooms", "bathrooms", "updated_at"}
	ib := database.NewInsertBuilder()
	ib.InsertInto(propertiesTable).
		Cols(columns...).
		Values(property.ID, property.Name, property.Address, property.Description, property.Price,
			property.Category, property.Bedrooms, property.Bathrooms, sqlbuilder.Raw("NOW()"))
	ib.OnConflictUpdate([]string{"id"}, columns[1:]...)

	query, args := ib.Build()
	if _, err := r.DB().ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"property_id": property.ID,
		}).Error("failed to upsert property")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert property")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"property_id": property.ID,
	}).Debugf("Upserted %s", propertiesTable)
	return nil
}
