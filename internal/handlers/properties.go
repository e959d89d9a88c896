package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/thistle/internal/tracing"
	"github.com/Ramsey-B/thistle/pkg/aggregator"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/repositories"
	"github.com/Ramsey-B/thistle/pkg/utils"
)

type PropertyHandler struct {
	repo    repositories.Repository
	metrics *aggregator.Service
	logger  ectologger.Logger
}

func NewPropertyHandler(repo repositories.Repository, metrics *aggregator.Service, logger ectologger.Logger) *PropertyHandler {
	return &PropertyHandler{repo: repo, metrics: metrics, logger: logger}
}

// UpsertPropertyRequest creates a property, or replaces it when id is known
type UpsertPropertyRequest struct {
	ID          string `json:"id" validate:"omitempty,max=64"`
	Name        string `json:"name" validate:"required,max=255"`
	Address     string `json:"address" validate:"required"`
	Description string `json:"description"`
	Price       int    `json:"price" validate:"gt=0"`
	Category    string `json:"category" validate:"max=64"`
	Bedrooms    int    `json:"bedrooms" validate:"gte=0"`
	Bathrooms   int    `json:"bathrooms" validate:"gte=0"`
}

func (h *PropertyHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Upsert)
	g.GET("/:id", h.GetByID)
	g.GET("/:id/metrics", h.Metrics)
}

// List returns every property with its rating and review count
func (h *PropertyHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PropertyHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	properties, err := h.metrics.Properties(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list properties")
		return err
	}
	return SuccessResponse(c, properties)
}

// GetByID returns the property and its approved reviews
func (h *PropertyHandler) GetByID(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PropertyHandler.GetByID")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	property, err := h.metrics.Property(ctx, id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, property)
}

func (h *PropertyHandler) Upsert(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PropertyHandler.Upsert")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	req, err := utils.BindRequest[UpsertPropertyRequest](c)
	if err != nil {
		return err
	}

	property := &models.Property{
		ID:          req.ID,
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
	}
	if err := h.repo.UpsertProperty(ctx, property); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to upsert property")
		return err
	}

	h.logger.WithContext(ctx).WithField("property_id", property.ID).Infof("Stored property: %s", property.Name)
	return CreatedResponse(c, property)
}

// Metrics returns the aggregate view of one property
func (h *PropertyHandler) Metrics(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "PropertyHandler.Metrics")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.metrics.PropertyMetrics(ctx, id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}
