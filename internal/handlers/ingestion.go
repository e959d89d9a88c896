package handlers

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/thistle/internal/tracing"
	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/ingestion"
)

// IngestionHandler triggers upstream syncs and accepts pushed payloads
type IngestionHandler struct {
	service *ingestion.Service
	logger  ectologger.Logger
}

func NewIngestionHandler(service *ingestion.Service, logger ectologger.Logger) *IngestionHandler {
	return &IngestionHandler{service: service, logger: logger}
}

// Register adds the routes to the reviews group
func (h *IngestionHandler) Register(g *echo.Group) {
	g.GET("/hostaway", h.Sync)
	g.POST("/ingest", h.Ingest)
}

// Sync pulls the upstream feed. An unavailable feed still answers 200 with source=fallback.
func (h *IngestionHandler) Sync(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "IngestionHandler.Sync")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	result, err := h.service.Sync(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to sync reviews")
		return err
	}
	return SuccessResponse(c, result)
}

func (h *IngestionHandler) Ingest(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "IngestionHandler.Ingest")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var payload any
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("request body must be JSON: %s", err.Error())
	}

	result, err := h.service.Ingest(ctx, payload)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}
